package attach

import (
	"fmt"

	"github.com/felixgeelhaar/taskdeck/adapter/cli"
	"github.com/spf13/cobra"
)

var urlCmd = &cobra.Command{
	Use:   "url <task> <attachment>",
	Short: "Print a temporary download link for an attachment",
	Long: `Print a signed download link for an attachment. Links expire after
the configured TTL, one hour by default.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		t, err := app.ResolveTask(args[0])
		if err != nil {
			return err
		}

		att, err := resolveAttachment(cmd, app, t.ID, args[1])
		if err != nil {
			return err
		}

		link, err := app.Attachments.DownloadURL(cmd.Context(), att.StoragePath)
		if err != nil {
			return fmt.Errorf("failed to sign download link: %w", err)
		}

		fmt.Println(link)
		return nil
	},
}
