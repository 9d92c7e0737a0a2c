package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"parsera-notifier/internal/event"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "notifyctl",
		Short:         "Validate and dispatch notification envelopes",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.AddCommand(newValidateCmd(), newDispatchCmd())
	return rootCmd
}

// readEnvelope reads path, or stdin when path is "-".
func readEnvelope(cmd *cobra.Command, path string) (event.EventProtocol, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(cmd.InOrStdin())
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return event.EventProtocol{}, fmt.Errorf("read envelope: %w", err)
	}

	ev, err := event.Parse(raw)
	if err != nil {
		var ve *event.ValidationError
		if errors.As(err, &ve) {
			_ = printJSON(cmd.OutOrStdout(), validateOutput{Valid: false, Path: ve.Path, Reason: ve.Reason})
			return event.EventProtocol{}, errInvalid
		}
		return event.EventProtocol{}, err
	}
	return ev, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exactlyOneFile(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		_ = cmd.Help()
		return errUsage
	}
	return nil
}
