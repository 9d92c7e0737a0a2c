package inngest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"parsera-notifier/config"
	"parsera-notifier/internal/pkg/render"

	"github.com/inngest/inngestgo"
)

const DefaultServePath = "/api/inngest"

var ErrDisabled = errors.New("inngest disabled: set INNGEST_APP_ID to enable")

// ServePath is where the Inngest executor reaches this app.
func ServePath(cfg *config.Config) string {
	if cfg != nil {
		if p := strings.TrimSpace(cfg.Inngest.ServePath); p != "" {
			return p
		}
	}
	return DefaultServePath
}

func devMode(cfg *config.Config) bool {
	switch strings.ToLower(strings.TrimSpace(cfg.Inngest.Dev)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// serveURL is nil when INNGEST_SERVE_HOST is unset and the SDK infers the
// URL from the incoming request.
func serveURL(cfg *config.Config) *url.URL {
	host := strings.TrimSpace(cfg.Inngest.ServeHost)
	if host == "" {
		return nil
	}
	scheme := "https"
	if devMode(cfg) {
		scheme = "http"
	}
	return &url.URL{Scheme: scheme, Host: host, Path: ServePath(cfg)}
}

// NewInngestClient returns a client that refuses every call when
// INNGEST_APP_ID is unset, so the app still boots.
func NewInngestClient(cfg *config.Config) (inngestgo.Client, error) {
	appID := strings.TrimSpace(cfg.Inngest.AppID)
	if appID == "" {
		return disabledClient{}, nil
	}

	opts := inngestgo.ClientOpts{
		AppID: appID,
		Dev:   inngestgo.BoolPtr(devMode(cfg)),
	}
	if signingKey := strings.TrimSpace(cfg.Inngest.SigningKey); signingKey != "" {
		opts.SigningKey = &signingKey
	}

	c, err := inngestgo.NewClient(opts)
	if err != nil {
		return nil, err
	}
	if u := serveURL(cfg); u != nil {
		c.SetURL(u)
	}
	return c, nil
}

// Enabled reports whether c talks to a real Inngest server.
func Enabled(c inngestgo.Client) bool {
	if c == nil {
		return false
	}
	_, disabled := c.(disabledClient)
	return !disabled
}

type disabledClient struct{}

func (disabledClient) AppID() string { return "" }

func (disabledClient) Send(context.Context, any) (string, error) { return "", ErrDisabled }

func (disabledClient) SendMany(context.Context, []any) ([]string, error) { return nil, ErrDisabled }

func (disabledClient) Options() inngestgo.ClientOpts { return inngestgo.ClientOpts{} }

func (c disabledClient) Serve() http.Handler { return c.ServeWithOpts(inngestgo.ServeOpts{}) }

func (disabledClient) ServeWithOpts(inngestgo.ServeOpts) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.ChiErr(w, r, http.StatusNotImplemented, ErrDisabled)
	})
}

func (disabledClient) SetOptions(inngestgo.ClientOpts) error { return ErrDisabled }
func (disabledClient) SetURL(*url.URL)                       {}
