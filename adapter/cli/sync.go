package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reload tasks from the remote store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil {
			return fmt.Errorf("application not initialized")
		}

		if err := a.Store.Load(cmd.Context(), true); err != nil {
			return fmt.Errorf("failed to sync: %w", err)
		}

		fmt.Printf("Synced. %d tasks.\n", len(a.Store.Snapshot()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
