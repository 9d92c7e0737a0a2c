package notify

import (
	"strings"

	"parsera-notifier/internal/event"
)

const (
	SkipNotNotifiable = "not_notifiable"
	SkipNoOptions     = "no_notification_options"
)

// Observe maps an envelope onto the level it reports. An explicit level wins,
// then a failed status; finished extract/store/notify commands count as done.
// Pending stages and commands that only start work are not notifiable.
func Observe(ev event.EventProtocol) (event.NotificationLevel, bool) {
	if ev.Level != "" {
		return ev.Level, true
	}
	if ev.Status == event.StatusFailed {
		return event.JobsFailed, true
	}
	if ev.Status == event.StatusPending {
		return "", false
	}
	switch ev.Command {
	case event.ExtractPage, event.StorePage, event.NotifyUser:
		return event.JobsDone, true
	}
	return "", false
}

// Render builds the one-line message: "<command> <status>: <url|domain>".
func Render(ev event.EventProtocol) string {
	var b strings.Builder
	b.WriteString(string(ev.Command))
	if ev.Status != "" {
		b.WriteString(" ")
		b.WriteString(string(ev.Status))
	}
	if target := subject(ev); target != "" {
		b.WriteString(": ")
		b.WriteString(target)
	}
	return b.String()
}

func subject(ev event.EventProtocol) string {
	if p, ok := ev.Page(); ok {
		if p.URL != "" {
			return p.URL
		}
		return p.Domain
	}
	if d, ok := ev.External(); ok {
		for _, k := range []string{"url", "domain", "name"} {
			if s, ok := d[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
