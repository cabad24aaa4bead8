package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskdeck/adapter/cli"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/spf13/cobra"
)

var (
	addDescription string
	addDue         string
	addRepeat      string
	addEvery       int
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a new task",
	Long: `Add a new task. The task appears in the local view immediately and
is confirmed against the remote store in the background.

Examples:
  taskdeck task add "Buy groceries"
  taskdeck task add "Water plants" --due 2026-09-01 --repeat daily --every 3
  taskdeck task add "Pay rent" --due 2026-09-01 --repeat monthly`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}
		if err := app.RequireOwner(); err != nil {
			return err
		}

		title := strings.Join(args, " ")

		var due *time.Time
		if addDue != "" {
			t, err := time.ParseInLocation("2006-01-02", addDue, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --due format, use YYYY-MM-DD: %w", err)
			}
			due = &t
		}

		var rec *domain.Recurrence
		if addRepeat != "" {
			p := domain.Pattern(addRepeat)
			if !p.IsValid() {
				return fmt.Errorf("invalid --repeat %q, use daily, weekly, or monthly", addRepeat)
			}
			rec = &domain.Recurrence{Pattern: p, Interval: addEvery}
		} else if cmd.Flags().Changed("every") {
			return fmt.Errorf("--every requires --repeat")
		}

		created, err := app.Store.Create(cmd.Context(), title, addDescription, due, rec)
		if err != nil {
			return fmt.Errorf("failed to add task: %w", err)
		}

		fmt.Printf("Task added: %s\n", created.ID)
		fmt.Printf("  title: %s\n", created.Title)
		if created.DueDate != nil {
			fmt.Printf("  due: %s\n", created.DueDate.Format("2006-01-02"))
		}
		if created.Recurrence != nil {
			fmt.Printf("  repeats: every %d %s\n", created.Recurrence.Interval, repeatUnit(created.Recurrence))
		}

		return nil
	},
}

func repeatUnit(rec *domain.Recurrence) string {
	switch rec.Pattern {
	case domain.PatternDaily:
		return "day(s)"
	case domain.PatternWeekly:
		return "week(s)"
	default:
		return "month(s)"
	}
}

func init() {
	addCmd.Flags().StringVar(&addDescription, "description", "", "task description")
	addCmd.Flags().StringVar(&addDue, "due", "", "due date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&addRepeat, "repeat", "", "recurrence pattern (daily, weekly, monthly)")
	addCmd.Flags().IntVar(&addEvery, "every", 1, "recurrence interval")
}
