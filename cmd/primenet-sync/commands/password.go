package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"primenet-sync/lib/configutil"
	"primenet-sync/lib/secret"
	"primenet-sync/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(setPasswordCmd)
}

var setPasswordCmd = &cobra.Command{
	Use:   "set-password [password]",
	Short: "Encrypts the account password for this machine and stores it in the local config override.",
	Long: "Encrypts the account password with a passphrase derived from this machine and user, " +
		"the result is stored as encrypted_password in the local override of the configuration file. " +
		"The password is read from standard input when it is not given as an argument.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			fmt.Fprint(os.Stderr, "password: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				serviceutil.Fatal("failed to read password", err)
			}
			password = strings.TrimSpace(line)
		}
		if password == "" {
			serviceutil.Fatal("failed to set password", errors.New("password is empty"))
		}

		encrypted, err := secret.Encrypt(password, secret.MachinePassphrase())
		if err != nil {
			serviceutil.Fatal("failed to encrypt password", err)
		}

		path := resolveConfigPath()
		err = configutil.SetLocalValue(path, "encrypted_password", encrypted)
		if err != nil {
			serviceutil.Fatal("failed to write local config", err)
		}
		fmt.Printf("stored encrypted password in %s\n", configutil.LocalName(path))
	},
}
