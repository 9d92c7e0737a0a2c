package channel

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingSender struct {
	calls atomic.Int32
}

func (c *countingSender) Kind() Kind { return Email }

func (c *countingSender) Send(context.Context, string, string) Outcome {
	c.calls.Add(1)
	return Delivered()
}

func TestLimited_NonPositiveRateIsPassThrough(t *testing.T) {
	next := &countingSender{}
	require.Same(t, Sender(next), Limited(next, 0))
}

func TestLimited_ThrottlesBeyondBurst(t *testing.T) {
	next := &countingSender{}
	s := Limited(next, 2)
	require.Equal(t, Email, s.Kind())

	ctx := context.Background()
	require.True(t, s.Send(ctx, "a@x.com", "m").OK())
	require.True(t, s.Send(ctx, "a@x.com", "m").OK())

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	require.Equal(t, Failed(ReasonTimeout), s.Send(short, "a@x.com", "m"))
	require.EqualValues(t, 2, next.calls.Load())
}

func TestFailedFromError(t *testing.T) {
	require.Equal(t, Failed(ReasonTimeout), FailedFromError(context.DeadlineExceeded))
	require.Equal(t, Failed("boom"), FailedFromError(errString("boom")))
	require.Equal(t, "unknown failure", Failed(" ").Reason)
}

type errString string

func (e errString) Error() string { return string(e) }
