package commands

import (
	"context"
	"fmt"
	"os"

	"primenet-sync/internal/components/chrono"
	"primenet-sync/internal/components/telemetry"
	"primenet-sync/internal/config"
	"primenet-sync/internal/engine"
	"primenet-sync/lib/configutil"
	"primenet-sync/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

const DefaultConfigName = "primenet-sync.json5"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "primenet-sync",
	Short: "primenet-sync keeps GIMPS worker directories supplied with PrimeNet assignments and reports their results.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", fmt.Sprintf("The configuration file, defaults to the nearest %s.", DefaultConfigName))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enables debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	path, err := configutil.FindConfig(DefaultConfigName)
	if err != nil {
		serviceutil.Fatal("failed to find "+DefaultConfigName, err)
	}
	return path
}

func loadConfig() config.Config {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

// buildEngine loads the configuration and wires every component, the caller
// must close the returned setup.
func buildEngine() (config.Config, engine.Setup) {
	cfg := loadConfig()
	setup, err := engine.Build(cfg, chrono.NewStandardTime(), telemetry.SlogAPI{})
	if err != nil {
		serviceutil.Fatal("failed to initialize", err)
	}
	return cfg, setup
}
