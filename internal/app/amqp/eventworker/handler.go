package eventworker

import (
	"context"

	"parsera-notifier/internal/app/notify"
	"parsera-notifier/internal/event"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Processor interface {
	Process(ctx context.Context, ev event.EventProtocol) (notify.Result, error)
}

// NotifyHandler runs each consumed envelope through the notify service.
type NotifyHandler struct {
	svc    Processor
	logger *zap.SugaredLogger
}

type NewNotifyHandlerParams struct {
	fx.In

	Service *notify.Service
	Logger  *zap.SugaredLogger
}

func NewNotifyHandler(p NewNotifyHandlerParams) *NotifyHandler {
	return &NotifyHandler{svc: p.Service, logger: p.Logger}
}

func (h *NotifyHandler) Handle(ctx context.Context, ev event.EventProtocol) error {
	res, err := h.svc.Process(ctx, ev)
	if err != nil {
		return err
	}
	h.logger.Debugw("eventworker_processed",
		"command", ev.Command,
		"decision", res.Decision.Kind,
		"skipped", res.Skipped,
	)
	return nil
}
