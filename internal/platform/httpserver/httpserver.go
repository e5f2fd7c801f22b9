package httpserver

import (
	"net/http"
	"time"

	"accueil/internal/platform/config"
)

// New builds the HTTP server from the server config. Zero timeouts fall
// back to defaults sized for a full image upload on a slow mobile link.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       orDefault(cfg.ReadTimeout, 60*time.Second),
		WriteTimeout:      orDefault(cfg.WriteTimeout, 90*time.Second),
		IdleTimeout:       120 * time.Second,
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
