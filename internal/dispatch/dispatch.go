// Package dispatch fans one rendered message out to every recipient of a
// NotificationOptions and collects the per-target outcomes.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"parsera-notifier/internal/channel"
	"parsera-notifier/internal/event"
)

// ErrUnconfiguredChannel marks a recipient whose channel has no Sender. It is
// a deployment defect, not a delivery failure.
var ErrUnconfiguredChannel = errors.New("channel not configured")

const (
	DefaultWorkers     = 4
	DefaultSendTimeout = 15 * time.Second
)

type Entry struct {
	Recipient string          `json:"recipient"`
	Channel   channel.Kind    `json:"channel"`
	Outcome   channel.Outcome `json:"outcome"`
	Err       error           `json:"-"`
}

// AggregatedOutcome holds one entry per target, in target order.
type AggregatedOutcome struct {
	Entries []Entry `json:"entries"`
}

func (a AggregatedOutcome) Len() int { return len(a.Entries) }

func (a AggregatedOutcome) Delivered() int {
	n := 0
	for _, e := range a.Entries {
		if e.Outcome.OK() {
			n++
		}
	}
	return n
}

func (a AggregatedOutcome) Failed() int { return len(a.Entries) - a.Delivered() }

// Get returns the outcome for recipient on ch.
func (a AggregatedOutcome) Get(ch channel.Kind, recipient string) (channel.Outcome, bool) {
	for _, e := range a.Entries {
		if e.Channel == ch && e.Recipient == recipient {
			return e.Outcome, true
		}
	}
	return channel.Outcome{}, false
}

// Err joins the configuration errors recorded on entries; transport failures
// are not errors.
func (a AggregatedOutcome) Err() error {
	var errs []error
	for _, e := range a.Entries {
		if e.Err != nil {
			errs = append(errs, e.Err)
		}
	}
	return errors.Join(errs...)
}

// Targets lists one target per populated NotifyVia field, email before
// telegram within an entry.
func Targets(opts event.NotificationOptions) []Entry {
	out := make([]Entry, 0, len(opts.Via))
	for _, v := range opts.Via {
		if e := strings.TrimSpace(v.Email); e != "" {
			out = append(out, Entry{Channel: channel.Email, Recipient: e})
		}
		if tg := strings.TrimSpace(v.Telegram); tg != "" {
			out = append(out, Entry{Channel: channel.Telegram, Recipient: tg})
		}
	}
	return out
}

type Dispatcher struct {
	workers     int
	sendTimeout time.Duration
}

func NewDispatcher(workers int, sendTimeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Dispatcher{workers: workers, sendTimeout: sendTimeout}
}

// Dispatch never fails as a whole: every target ends up with an entry.
func (d *Dispatcher) Dispatch(ctx context.Context, opts event.NotificationOptions, message string, senders map[channel.Kind]channel.Sender) AggregatedOutcome {
	entries := Targets(opts)

	var g errgroup.Group
	g.SetLimit(d.workers)

	for i := range entries {
		sender, ok := senders[entries[i].Channel]
		if !ok || sender == nil {
			entries[i].Err = fmt.Errorf("%w: %s", ErrUnconfiguredChannel, entries[i].Channel)
			entries[i].Outcome = channel.Failed(entries[i].Err.Error())
			continue
		}

		g.Go(func() error {
			entries[i].Outcome = d.send(ctx, sender, entries[i].Recipient, message)
			return nil
		})
	}
	_ = g.Wait()

	return AggregatedOutcome{Entries: entries}
}

// send bounds one attempt even when the sender ignores its context.
func (d *Dispatcher) send(ctx context.Context, s channel.Sender, recipient, message string) channel.Outcome {
	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	done := make(chan channel.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- channel.Failed(fmt.Sprintf("sender panic: %v", r))
			}
		}()
		done <- s.Send(ctx, recipient, message)
	}()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		return channel.Failed(channel.ReasonTimeout)
	}
}
