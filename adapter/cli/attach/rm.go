package attach

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/taskdeck/adapter/cli"
	"github.com/felixgeelhaar/taskdeck/internal/attachments/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <task> <attachment>",
	Short:   "Remove an attachment",
	Aliases: []string{"remove", "delete"},
	Args:    cobra.ExactArgs(2),
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

		att, err := resolveAttachment(cmd, app, t.ID, args[1])
		if err != nil {
			return err
		}

		if err := app.Attachments.Delete(cmd.Context(), att); err != nil {
			return fmt.Errorf("failed to remove attachment: %w", err)
		}

		fmt.Printf("Attachment removed: %s\n", att.FileName)
		return nil
	},
}

// resolveAttachment matches by ID prefix or exact file name within a task.
func resolveAttachment(cmd *cobra.Command, app *cli.App, taskID uuid.UUID, ref string) (domain.Attachment, error) {
	atts, err := app.Attachments.List(cmd.Context(), taskID)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("failed to list attachments: %w", err)
	}

	ref = strings.TrimSpace(ref)
	var matches []domain.Attachment
	for _, a := range atts {
		if strings.HasPrefix(a.ID.String(), strings.ToLower(ref)) || a.FileName == ref {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Attachment{}, fmt.Errorf("no attachment matching %q", ref)
	case 1:
		return matches[0], nil
	default:
		return domain.Attachment{}, fmt.Errorf("attachment reference %q is ambiguous (%d matches)", ref, len(matches))
	}
}
