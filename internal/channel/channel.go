// Package channel defines the transport-agnostic Sender contract and its
// email and telegram implementations.
package channel

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

type Kind string

const (
	Email    Kind = "email"
	Telegram Kind = "telegram"
)

// Sender delivers one rendered message to one recipient. Implementations
// never return transport faults as errors or panics; they report them as a
// Failed outcome. A Sender is safe for concurrent use.
type Sender interface {
	Kind() Kind
	Send(ctx context.Context, recipient, message string) Outcome
}

type Status string

const (
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
)

type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func Delivered() Outcome { return Outcome{Status: StatusDelivered} }

func Failed(reason string) Outcome {
	if strings.TrimSpace(reason) == "" {
		reason = "unknown failure"
	}
	return Outcome{Status: StatusFailed, Reason: reason}
}

func (o Outcome) OK() bool { return o.Status == StatusDelivered }

const (
	ReasonTimeout           = "timeout"
	ReasonConnectionRefused = "connection refused"
)

// FailedFromError maps a transport error onto the stable reasons callers
// match on, falling back to the error text.
func FailedFromError(err error) Outcome {
	if err == nil {
		return Failed("")
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Failed(ReasonTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Failed(ReasonTimeout)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return Failed(ReasonConnectionRefused)
	}
	return Failed(err.Error())
}
