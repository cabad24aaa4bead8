package attach

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/taskdeck/adapter/cli"
	"github.com/felixgeelhaar/taskdeck/internal/attachments/domain"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <task> <file>",
	Short: "Attach a file to a task",
	Long: `Upload a local file and attach it to a task. Files larger than
10 MiB are rejected before any upload happens.`,
	Args: cobra.ExactArgs(2),
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

		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("opening file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("inspecting file: %w", err)
		}

		name := filepath.Base(args[1])
		mimeType := mime.TypeByExtension(filepath.Ext(name))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		att, err := app.Attachments.Upload(cmd.Context(), t.ID, name, mimeType, info.Size(), f)
		if err != nil {
			if errors.Is(err, domain.ErrTooLarge) {
				return fmt.Errorf("%s exceeds the 10 MiB attachment limit", name)
			}
			return fmt.Errorf("failed to attach file: %w", err)
		}

		fmt.Printf("Attached %s to %s\n", att.FileName, t.Title)
		fmt.Printf("  id: %s\n", att.ID.String()[:8])
		fmt.Printf("  size: %d bytes\n", att.SizeBytes)
		return nil
	},
}
