package channel

import (
	"context"

	"golang.org/x/time/rate"
)

type limitedSender struct {
	next    Sender
	limiter *rate.Limiter
}

// Limited throttles next to ratePerSec sends with an equal burst. A
// non-positive rate returns next unchanged.
func Limited(next Sender, ratePerSec int) Sender {
	if ratePerSec <= 0 || next == nil {
		return next
	}
	return &limitedSender{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
	}
}

func (l *limitedSender) Kind() Kind { return l.next.Kind() }

func (l *limitedSender) Send(ctx context.Context, recipient, message string) Outcome {
	if err := l.limiter.Wait(ctx); err != nil {
		return Failed(ReasonTimeout)
	}
	return l.next.Send(ctx, recipient, message)
}
