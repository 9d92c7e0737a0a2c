package inngest

import (
	"net/http"

	"parsera-notifier/config"
	pkginngest "parsera-notifier/internal/pkg/inngest"
	"parsera-notifier/internal/router"

	"github.com/go-chi/chi/v5"
	"github.com/inngest/inngestgo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// InngestHandler exposes the registered functions to the Inngest executor.
// With a disabled client every call answers 501.
type InngestHandler struct {
	path  string
	serve http.Handler
}

type NewInngestHandlerParams struct {
	fx.In

	Logger *zap.SugaredLogger
	Config *config.Config
	Client inngestgo.Client
}

func NewInngestHandler(p NewInngestHandlerParams) *InngestHandler {
	h := &InngestHandler{
		path:  pkginngest.ServePath(p.Config),
		serve: p.Client.Serve(),
	}
	p.Logger.Infow("inngest_route", "path", h.path, "enabled", pkginngest.Enabled(p.Client))
	return h
}

func (h *InngestHandler) RegisterRoute(r *chi.Mux) {
	r.Post(h.path, h.Handle)
	r.Put(h.path, h.Handle)
	r.Get(h.path, h.Handle)
}

func (h *InngestHandler) Handle(w http.ResponseWriter, r *http.Request) {
	h.serve.ServeHTTP(w, r)
}

var _ router.Handler = (*InngestHandler)(nil)
