package attach

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/taskdeck/adapter/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list <task>",
	Short:   "List a task's attachments",
	Aliases: []string{"ls"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		t, err := app.ResolveTask(args[0])
		if err != nil {
			return err
		}

		atts, err := app.Attachments.List(cmd.Context(), t.ID)
		if err != nil {
			return fmt.Errorf("failed to list attachments: %w", err)
		}

		if len(atts) == 0 {
			fmt.Println("No attachments.")
			return nil
		}

		fmt.Printf("Attachments for %s (%d):\n", t.Title, len(atts))
		fmt.Println(strings.Repeat("-", 60))
		for _, a := range atts {
			fmt.Printf("%s  %s\n", a.ID.String()[:8], a.FileName)
			fmt.Printf("          %s, %d bytes, added %s\n", a.MimeType, a.SizeBytes, a.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}
