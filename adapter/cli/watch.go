package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskdeck/internal/tasks/application/services"
	"github.com/felixgeelhaar/taskdeck/internal/tasks/domain"
	"github.com/spf13/cobra"
)

var watchFilter string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow task changes live",
	Long: `Render the task list and re-render it whenever the change feed
reports activity for this owner, from any session. Interrupt to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil {
			return fmt.Errorf("application not initialized")
		}

		filter := domain.Filter(watchFilter)
		if !filter.IsValid() {
			return fmt.Errorf("invalid --filter %q, use all, pending, completed, overdue, today, or upcoming", watchFilter)
		}

		owner, ok := a.Session.OwnerID()
		if !ok {
			return fmt.Errorf("no owner configured, set TASKDECK_OWNER_ID")
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		render := func() {
			now := time.Now()
			tasks := services.Project(a.Store.Snapshot(), filter, "", now)
			fmt.Fprintf(out, "-- %s --\n", now.Format("15:04:05"))
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks.")
				return
			}
			for _, t := range tasks {
				icon := "[ ]"
				if t.Completed {
					icon = "[x]"
				}
				line := fmt.Sprintf("%s %s", icon, t.Title)
				if t.DueDate != nil {
					line += fmt.Sprintf(" (due %s)", t.DueDate.Format("2006-01-02"))
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, strings.Repeat("-", 40))
		}

		events := make(chan struct{}, 1)
		cancel, err := a.Feed.Subscribe(ctx, owner, func() {
			select {
			case events <- struct{}{}:
			default:
			}
		})
		if err != nil {
			return fmt.Errorf("failed to follow changes: %w", err)
		}
		defer cancel()

		render()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-events:
				// Reload before rendering rather than relying on the
				// store's own feed subscription having finished first.
				// Redundant loads are harmless.
				if err := a.Store.Load(ctx, false); err != nil {
					logger.Warn("watch refresh failed", "error", err)
				}
				render()
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchFilter, "filter", "f", "pending", "filter (all, pending, completed, overdue, today, upcoming)")
	rootCmd.AddCommand(watchCmd)
}
