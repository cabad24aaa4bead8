package task

import (
	"fmt"

	"github.com/felixgeelhaar/taskdeck/adapter/cli"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <task>",
	Short:   "Remove a task",
	Aliases: []string{"remove", "delete"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}
		if err := app.RequireOwner(); err != nil {
			return err
		}

		t, err := app.ResolveTask(args[0])
		if err != nil {
			return err
		}

		if err := app.Store.Remove(cmd.Context(), t.ID); err != nil {
			return fmt.Errorf("failed to remove task: %w", err)
		}

		fmt.Printf("Task removed: %s\n", t.Title)
		return nil
	},
}
