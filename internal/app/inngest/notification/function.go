package notification

import (
	"context"

	"parsera-notifier/internal/app/notify"
	"parsera-notifier/internal/event"

	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	FunctionID        = "notification-dispatch"
	EventReceivedName = "notification/event.received"
)

type processor interface {
	Process(ctx context.Context, ev event.EventProtocol) (notify.Result, error)
}

// Function handles notification/event.received; the event data is the
// envelope itself.
type Function struct {
	svc    processor
	logger *zap.SugaredLogger
}

type NewFunctionParams struct {
	fx.In

	Service *notify.Service
	Logger  *zap.SugaredLogger
}

func NewFunction(p NewFunctionParams) *Function {
	return &Function{svc: p.Service, logger: p.Logger}
}

// Decode validates the event data as an envelope. Invalid data is never retried.
func Decode(data map[string]any) (event.EventProtocol, error) {
	ev, err := event.ParseMap(data)
	if err != nil {
		return event.EventProtocol{}, inngestgo.NoRetryError(err)
	}
	return ev, nil
}

func (f *Function) Handle(ctx context.Context, input inngestgo.Input[map[string]any]) (any, error) {
	ev, err := Decode(input.Event.Data)
	if err != nil {
		f.logger.Errorw("inngest_invalid_envelope", "err", err)
		return nil, err
	}

	res, err := step.Run(ctx, "process-envelope", func(ctx context.Context) (notify.Result, error) {
		f.logger.Infow("inngest_step",
			"step", "process-envelope",
			"command", ev.Command,
		)
		return f.svc.Process(ctx, ev)
	})
	if err != nil {
		f.logger.Errorw("inngest_step_failed",
			"step", "process-envelope",
			"command", ev.Command,
			"err", err,
		)
		return nil, err
	}

	f.logger.Infow("inngest_notification_finished",
		"command", ev.Command,
		"decision", res.Decision.Kind,
		"skipped", res.Skipped,
	)
	return res, nil
}
