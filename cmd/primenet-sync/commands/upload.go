package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(uploadCmd)
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Harvests every worker's results and submits all pending batches right away.",
	Run: func(cmd *cobra.Command, args []string) {
		_, setup := buildEngine()
		defer setup.Close()

		batch := setup.Engine.CheckResults(cmd.Context())
		fmt.Printf("harvested %d result lines\n", batch.Len())

		uploaded := setup.Engine.Pipeline.UploadPending(cmd.Context())
		for _, name := range uploaded {
			fmt.Printf("uploaded %s\n", name)
		}
		pending, err := setup.Engine.Pipeline.Pending()
		if err == nil && len(pending) > 0 {
			fmt.Printf("%d batches are still pending\n", len(pending))
		}
	},
}
