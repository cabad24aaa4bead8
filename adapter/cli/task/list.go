package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskdeck/adapter/cli"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/application/services"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/spf13/cobra"
)

var (
	listFilter string
	listSearch string
	listStats  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks from the synchronized view.

Filter Options:
  --filter    all, pending, completed, overdue, today, upcoming
  --search    case-insensitive match on title or description
  --stats     append counters computed over the full task set

Examples:
  taskdeck task list                      # All tasks, newest first
  taskdeck task list --filter overdue     # Overdue and not completed
  taskdeck task list --filter today       # Due today, any status
  taskdeck task list --search groceries   # Title or description match`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		filter := domain.Filter(listFilter)
		if !filter.IsValid() {
			return fmt.Errorf("invalid --filter %q, use all, pending, completed, overdue, today, or upcoming", listFilter)
		}

		now := time.Now()
		all := app.Store.Snapshot()
		tasks := services.Project(all, filter, listSearch, now)

		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
		} else {
			fmt.Printf("Tasks (%d):\n", len(tasks))
			fmt.Println(strings.Repeat("-", 60))
			for _, t := range tasks {
				printTask(t, now)
			}
		}

		if listStats {
			stats := services.Compute(all, now)
			fmt.Printf("Total: %d  Completed: %d  Pending: %d  Overdue: %d  Today: %d  Upcoming: %d\n",
				stats.Total, stats.Completed, stats.Pending, stats.Overdue, stats.Today, stats.Upcoming)
		}

		return nil
	},
}

func printTask(t domain.Task, now time.Time) {
	icon := "[ ]"
	if t.Completed {
		icon = "[x]"
	}

	dueMarker := ""
	if t.DueDate != nil && !t.Completed {
		today := domain.StartOfDay(now)
		due := domain.StartOfDay(*t.DueDate)
		if due.Before(today) {
			dueMarker = " [OVERDUE]"
		} else if due.Equal(today) {
			dueMarker = " [TODAY]"
		}
	}

	fmt.Printf("%s %s%s\n", icon, t.Title, dueMarker)
	fmt.Printf("   ID: %s\n", t.ID.String()[:8])
	if t.Description != "" {
		fmt.Printf("   %s\n", t.Description)
	}
	if t.DueDate != nil {
		fmt.Printf("   Due: %s\n", t.DueDate.Format("2006-01-02"))
	}
	if t.Recurrence != nil {
		fmt.Printf("   Repeats: every %d %s\n", t.Recurrence.Interval, repeatUnit(t.Recurrence))
	}
	fmt.Println()
}

func init() {
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "all", "filter (all, pending, completed, overdue, today, upcoming)")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "search title and description")
	listCmd.Flags().BoolVar(&listStats, "stats", false, "show task counters")
}
