package task

import (
	"fmt"

	"github.com/felixgeelhaar/taskdeck/adapter/cli"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done <task>",
	Short: "Toggle a task's completed state",
	Long: `Toggle a task between pending and completed. Completing a recurring
task schedules its next occurrence automatically.`,
	Args: cobra.ExactArgs(1),
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

		if err := app.Store.ToggleComplete(cmd.Context(), t.ID); err != nil {
			return fmt.Errorf("failed to toggle task: %w", err)
		}

		if t.Completed {
			fmt.Printf("Task reopened: %s\n", t.Title)
		} else {
			fmt.Printf("Task completed: %s\n", t.Title)
			if t.IsRecurring() {
				fmt.Println("  next occurrence scheduled")
			}
		}
		return nil
	},
}
