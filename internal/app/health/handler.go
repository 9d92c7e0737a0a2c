package health

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"

	"parsera-notifier/config"
	"parsera-notifier/internal/app/notify"
	"parsera-notifier/internal/pkg/render"
)

type Handler struct {
	channels []string
	store    string
}

type NewHandlerParams struct {
	fx.In

	Cfg     *config.Config
	Senders notify.Senders `optional:"true"`
}

func NewHandler(p NewHandlerParams) *Handler {
	channels := make([]string, 0, len(p.Senders))
	for kind := range p.Senders {
		channels = append(channels, string(kind))
	}
	sort.Strings(channels)

	store := ""
	if p.Cfg != nil {
		store = p.Cfg.Policy.Store
	}
	return &Handler{channels: channels, store: store}
}

func (h *Handler) RegisterRoute(r *chi.Mux) {
	r.Get("/health", h.Handle)
}

type response struct {
	OK          bool     `json:"ok"`
	Channels    []string `json:"channels"`
	PolicyStore string   `json:"policy_store,omitempty"`
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	render.ChiJSON(w, r, http.StatusOK, response{OK: true, Channels: h.channels, PolicyStore: h.store})
}
