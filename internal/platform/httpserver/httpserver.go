package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server. The write timeout is sized to outlast a full
// generation run; the router's per-request timeout fires well before it.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
