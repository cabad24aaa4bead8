package attach

import (
	"github.com/spf13/cobra"
)

// Cmd is the attachment command group
var Cmd = &cobra.Command{
	Use:   "attach",
	Short: "Manage task attachments",
	Long:  `Upload, list, remove, and link to files attached to tasks.`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(rmCmd)
	Cmd.AddCommand(urlCmd)
}
