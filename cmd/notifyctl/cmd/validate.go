package cmd

import (
	"github.com/spf13/cobra"

	"parsera-notifier/internal/event"
)

type validateOutput struct {
	Valid        bool                       `json:"valid"`
	Path         string                     `json:"path,omitempty"`
	Reason       string                     `json:"reason,omitempty"`
	Command      event.Command              `json:"command,omitempty"`
	Payload      string                     `json:"payload,omitempty"`
	Notification *event.NotificationOptions `json:"notification,omitempty"`
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|->",
		Short: "Parse an envelope and report the first invalid field",
		Args:  exactlyOneFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := readEnvelope(cmd, args[0])
			if err != nil {
				return err
			}

			out := validateOutput{Valid: true, Command: ev.Command, Payload: "external"}
			if _, ok := ev.Page(); ok {
				out.Payload = "page"
			}
			if opts, ok := ev.Notification(); ok {
				out.Notification = opts
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}
