package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/taskdeck/internal/tasks/application/services"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counters",
	Long:  `Show counters computed over the full task set, ignoring any filter.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetApp()
		if a == nil {
			return fmt.Errorf("application not initialized")
		}

		stats := services.Compute(a.Store.Snapshot(), time.Now())

		fmt.Println("Task overview:")
		fmt.Printf("  total:     %d\n", stats.Total)
		fmt.Printf("  completed: %d\n", stats.Completed)
		fmt.Printf("  pending:   %d\n", stats.Pending)
		fmt.Printf("  overdue:   %d\n", stats.Overdue)
		fmt.Printf("  today:     %d\n", stats.Today)
		fmt.Printf("  upcoming:  %d\n", stats.Upcoming)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
