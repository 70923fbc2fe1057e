package commands

import (
	"encoding/json"
	"io"
	"os"

	"tutorapp/internal/models"
	"tutorapp/internal/services"
	contextutils "tutorapp/internal/utils"

	"github.com/spf13/cobra"
)

// ParseResult is what the parse command prints
type ParseResult struct {
	Feedback models.FeedbackRecord `json:"feedback"`
	Degraded bool                  `json:"degraded"`
	Reason   string                `json:"reason,omitempty"`
}

// ParseCommand returns the command that interprets a saved critique
func ParseCommand() *cobra.Command {
	var response string
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Interpret a critique reply",
		Long: `Interpret a critique reply from the language model and print the feedback record as JSON.

The reply is read from file, or from stdin when no file is given. When the reply cannot be
interpreted the fallback record is printed with "degraded": true; --response sets the
learner answer the fallback echoes as its corrected version.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := readReply(cmd, args)
			if err != nil {
				return err
			}

			result := ParseResult{}
			result.Feedback, err = services.InterpretFeedback(reply, response)
			if err != nil {
				result.Degraded = true
				var appErr *contextutils.AppError
				if contextutils.AsError(err, &appErr) {
					result.Reason = appErr.Details
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&response, "response", "", "learner answer used by the fallback record")
	return cmd
}

func readReply(cmd *cobra.Command, args []string) (string, error) {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return "", contextutils.WrapErrorf(err, "failed to open %s", args[0])
		}
		defer f.Close()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to read critique reply")
	}
	return string(raw), nil
}
