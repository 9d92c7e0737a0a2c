package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"parsera-notifier/config"
)

// NewHTTPServer allows /v1/dispatch to run a full fan-out within WriteTimeout.
func NewHTTPServer(cfg *config.Config, mux *chi.Mux) *http.Server {
	write := 30 * time.Second
	if t := 2 * cfg.Dispatch.SendTimeout; t > write {
		write = t
	}
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      write,
		IdleTimeout:       60 * time.Second,
	}
}
