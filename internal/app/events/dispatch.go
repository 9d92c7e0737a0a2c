package events

import (
	"context"
	"net/http"

	"parsera-notifier/internal/app/notify"
	"parsera-notifier/internal/event"
	"parsera-notifier/internal/pkg/render"
	"parsera-notifier/internal/router"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type processor interface {
	Process(ctx context.Context, ev event.EventProtocol) (notify.Result, error)
}

// DispatchHandler processes an envelope inline and returns the decision and
// per-recipient outcomes.
type DispatchHandler struct {
	svc    processor
	logger *zap.SugaredLogger
}

type NewDispatchHandlerParams struct {
	fx.In

	Service *notify.Service
	Logger  *zap.SugaredLogger
}

func NewDispatchHandler(p NewDispatchHandlerParams) *DispatchHandler {
	return &DispatchHandler{svc: p.Service, logger: p.Logger}
}

func (h *DispatchHandler) RegisterRoute(r *chi.Mux) {
	r.Post("/v1/dispatch", h.Handle)
}

func (h *DispatchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	_, ev, ok := readEnvelope(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Process(r.Context(), ev)
	if err != nil {
		h.logger.Errorw("events_dispatch_failed", "command", ev.Command, "err", err)
		render.ChiErr(w, r, http.StatusInternalServerError, err)
		return
	}
	render.ChiJSON(w, r, http.StatusOK, res)
}

var _ router.Handler = (*DispatchHandler)(nil)
