package commands

import (
	"fmt"

	"tutorapp/internal/version"

	"github.com/spf13/cobra"
)

// VersionCommand prints build information
func VersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tutor %s\n", version.String())
		},
	}
}
