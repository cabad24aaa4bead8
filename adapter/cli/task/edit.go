package task

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskdeck/adapter/cli"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/spf13/cobra"
)

var (
	editTitle       string
	editDescription string
	editDue         string
	editClearDue    bool
	editRepeat      string
	editEvery       int
	editClearRepeat bool
)

var editCmd = &cobra.Command{
	Use:   "edit <task>",
	Short: "Edit a task",
	Long: `Edit a task's title, description, due date, or recurrence. Only the
flags you pass change; everything else keeps its value.

Examples:
  taskdeck task edit 3f2a --title "Water the garden"
  taskdeck task edit 3f2a --due 2026-09-15
  taskdeck task edit 3f2a --clear-due --clear-repeat`,
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

		var fields domain.Fields
		if cmd.Flags().Changed("title") {
			fields.Title = &editTitle
		}
		if cmd.Flags().Changed("description") {
			fields.Description = &editDescription
		}
		if editClearDue {
			fields.ClearDueDate = true
		} else if editDue != "" {
			due, err := time.ParseInLocation("2006-01-02", editDue, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --due format, use YYYY-MM-DD: %w", err)
			}
			fields.DueDate = &due
		}
		if editClearRepeat {
			fields.ClearRecurrence = true
		} else if editRepeat != "" {
			p := domain.Pattern(editRepeat)
			if !p.IsValid() {
				return fmt.Errorf("invalid --repeat %q, use daily, weekly, or monthly", editRepeat)
			}
			fields.Recurrence = &domain.Recurrence{Pattern: p, Interval: editEvery}
		}

		if fields.IsZero() {
			return fmt.Errorf("nothing to change, pass at least one flag")
		}

		if err := app.Store.Update(cmd.Context(), t.ID, fields); err != nil {
			return fmt.Errorf("failed to edit task: %w", err)
		}

		fmt.Printf("Task updated: %s\n", t.ID.String()[:8])
		return nil
	},
}

func init() {
	editCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	editCmd.Flags().StringVar(&editDescription, "description", "", "new description")
	editCmd.Flags().StringVar(&editDue, "due", "", "new due date (YYYY-MM-DD)")
	editCmd.Flags().BoolVar(&editClearDue, "clear-due", false, "remove the due date")
	editCmd.Flags().StringVar(&editRepeat, "repeat", "", "new recurrence pattern (daily, weekly, monthly)")
	editCmd.Flags().IntVar(&editEvery, "every", 1, "recurrence interval")
	editCmd.Flags().BoolVar(&editClearRepeat, "clear-repeat", false, "remove the recurrence")
}
