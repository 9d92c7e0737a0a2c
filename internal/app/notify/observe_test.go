package notify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"parsera-notifier/internal/event"
)

func TestObserve(t *testing.T) {
	tests := []struct {
		name string
		ev   event.EventProtocol
		want event.NotificationLevel
		ok   bool
	}{
		{"explicit level wins", event.EventProtocol{Command: event.ScrapePage, Status: event.StatusFailed, Level: event.Statistics}, event.Statistics, true},
		{"failed status", event.EventProtocol{Command: event.ScrapePage, Status: event.StatusFailed}, event.JobsFailed, true},
		{"stored page", event.EventProtocol{Command: event.StorePage}, event.JobsDone, true},
		{"extracted page done", event.EventProtocol{Command: event.ExtractPage, Status: event.StatusDone}, event.JobsDone, true},
		{"notify directive", event.EventProtocol{Command: event.NotifyUser}, event.JobsDone, true},
		{"pending stage", event.EventProtocol{Command: event.StorePage, Status: event.StatusPending}, "", false},
		{"scrape without failure", event.EventProtocol{Command: event.ScrapePage}, "", false},
		{"register crawler", event.EventProtocol{Command: event.RegisterCrawler}, "", false},
		{"sleep", event.EventProtocol{Command: event.Sleep, Status: event.StatusDone}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Observe(tt.ev)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRender(t *testing.T) {
	page := &event.Page{URL: "https://example.com/p/1", Domain: "example.com"}
	require.Equal(t, "store_page done: https://example.com/p/1",
		Render(event.EventProtocol{Command: event.StorePage, Status: event.StatusDone, Data: page}))

	noURL := &event.Page{Domain: "example.com"}
	require.Equal(t, "extract_page: example.com",
		Render(event.EventProtocol{Command: event.ExtractPage, Data: noURL}))

	require.Equal(t, "register_crawler failed: shop.example",
		Render(event.EventProtocol{Command: event.RegisterCrawler, Status: event.StatusFailed, Data: event.ExternalData{"domain": "shop.example"}}))

	require.Equal(t, "sleep", Render(event.EventProtocol{Command: event.Sleep, Data: event.ExternalData{}}))
}
