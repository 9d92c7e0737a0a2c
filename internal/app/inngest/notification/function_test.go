package notification

import (
	"testing"

	"github.com/stretchr/testify/require"

	"parsera-notifier/internal/event"
)

func TestDecode_ValidEnvelope(t *testing.T) {
	ev, err := Decode(map[string]any{
		"command": "notify_user",
		"level":   "Statistics",
		"data": map[string]any{
			"name": "weekly",
			"notification": map[string]any{
				"level": "Statistics",
				"via":   []any{map[string]any{"telegram": "@ops"}},
				"every": "week",
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, event.NotifyUser, ev.Command)

	opts, ok := ev.Notification()
	require.True(t, ok)
	require.Equal(t, "@ops", opts.Via[0].Telegram)
}

func TestDecode_InvalidEnvelopeIsNotRetried(t *testing.T) {
	_, err := Decode(map[string]any{"command": "store_page", "data": map[string]any{}})
	require.Error(t, err)
	require.ErrorContains(t, err, "data.id")
}
