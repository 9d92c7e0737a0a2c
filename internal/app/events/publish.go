package events

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"

	"parsera-notifier/internal/pkg/amqpclient"
	"parsera-notifier/internal/pkg/render"
	"parsera-notifier/internal/router"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type envelopePublisher interface {
	Publish(ctx context.Context, messageID, msgType string, body []byte) error
}

// PublishHandler validates an envelope and hands it to the AMQP worker.
type PublishHandler struct {
	publisher envelopePublisher
	logger    *zap.SugaredLogger
}

type NewPublishHandlerParams struct {
	fx.In

	Publisher *amqpclient.Publisher
	Logger    *zap.SugaredLogger
}

func NewPublishHandler(p NewPublishHandlerParams) *PublishHandler {
	return &PublishHandler{publisher: p.Publisher, logger: p.Logger}
}

func (h *PublishHandler) RegisterRoute(r *chi.Mux) {
	r.Post("/v1/events", h.Handle)
}

type publishResponse struct {
	OK      bool   `json:"ok"`
	EventID string `json:"event_id"`
}

func (h *PublishHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, ev, ok := readEnvelope(w, r)
	if !ok {
		return
	}

	eventID := eventIDFromBody(body)
	if err := h.publisher.Publish(r.Context(), eventID, string(ev.Command), body); err != nil {
		if errors.Is(err, amqpclient.ErrPublisherDisabled) {
			render.ChiErr(w, r, http.StatusServiceUnavailable, err)
			return
		}
		h.logger.Errorw("events_publish_failed", "event_id", eventID, "command", ev.Command, "err", err)
		render.ChiErr(w, r, http.StatusBadGateway, errors.New("failed to publish message"))
		return
	}

	render.ChiJSON(w, r, http.StatusAccepted, publishResponse{OK: true, EventID: eventID})
}

// eventIDFromBody makes redelivered identical envelopes share a message id.
func eventIDFromBody(body []byte) string {
	sum := sha256.Sum256(body)
	return "evtsha256:" + hex.EncodeToString(sum[:])
}

var _ router.Handler = (*PublishHandler)(nil)
