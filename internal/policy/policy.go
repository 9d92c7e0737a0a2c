// Package policy decides whether a notification is sent now, deferred to
// the next cadence boundary, or suppressed.
package policy

import (
	"fmt"
	"strings"
	"time"

	"parsera-notifier/internal/event"
)

type Kind string

const (
	Suppress Kind = "suppress"
	SendNow  Kind = "send_now"
	Deferred Kind = "deferred"
)

// Decision.NextEligible is only set for Deferred.
type Decision struct {
	Kind         Kind      `json:"kind"`
	NextEligible time.Time `json:"next_eligible,omitzero"`
	Reason       string    `json:"reason,omitempty"`
}

func (d Decision) Send() bool { return d.Kind == SendNow }

// MonthMode selects how a "month" cadence is measured.
type MonthMode string

const (
	// MonthFixed is 30 days of 24h.
	MonthFixed MonthMode = "fixed"
	// MonthCalendar adds one calendar month in UTC, following time.AddDate
	// normalisation (Jan 31 + 1 month lands on Mar 2 or 3).
	MonthCalendar MonthMode = "calendar"
)

func ParseMonthMode(s string) (MonthMode, error) {
	switch m := MonthMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MonthFixed, nil
	case MonthFixed, MonthCalendar:
		return m, nil
	default:
		return "", fmt.Errorf("unknown month mode %q", s)
	}
}

const day = 24 * time.Hour

type Evaluator struct {
	month MonthMode
}

func NewEvaluator(month MonthMode) *Evaluator {
	if month == "" {
		month = MonthFixed
	}
	return &Evaluator{month: month}
}

func (e *Evaluator) MonthMode() MonthMode { return e.month }

// Next returns the first instant at or after which a notification with
// cadence every may fire again, given it last fired at last.
func (e *Evaluator) Next(every event.NotifyEvery, last time.Time) time.Time {
	last = last.UTC()
	switch every {
	case event.EveryDay:
		return last.Add(day)
	case event.EveryWeek:
		return last.Add(7 * day)
	case event.EveryMonth:
		if e.month == MonthCalendar {
			return last.AddDate(0, 1, 0)
		}
		return last.Add(30 * day)
	}
	return last
}

// Decide is pure: the caller owns the last-fired bookkeeping.
func (e *Evaluator) Decide(opts event.NotificationOptions, observed event.NotificationLevel, now time.Time, lastFired *time.Time) Decision {
	if opts.Level == event.DoNotDisturb {
		return Decision{Kind: Suppress, Reason: "do_not_disturb"}
	}
	if observed != opts.Level {
		return Decision{Kind: Suppress, Reason: "level_mismatch"}
	}
	if opts.Every == nil {
		return Decision{Kind: SendNow}
	}
	if lastFired == nil {
		return Decision{Kind: SendNow}
	}

	next := e.Next(*opts.Every, *lastFired)
	if !now.UTC().Before(next) {
		return Decision{Kind: SendNow}
	}
	return Decision{Kind: Deferred, NextEligible: next, Reason: "cadence"}
}
