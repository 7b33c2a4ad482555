// Package server exposes the screening engine over a REST API plus a
// WebSocket progress feed.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amarcoder01/sift/internal/app"
	"github.com/amarcoder01/sift/internal/common"
)

// Server wraps the HTTP server and application reference.
type Server struct {
	app          *app.App
	server       *http.Server
	logger       *common.Logger
	progress     *ProgressHub
	shutdownChan chan struct{}
}

// SetShutdownChannel sets the channel signaled when HTTP shutdown is requested.
func (s *Server) SetShutdownChannel(ch chan struct{}) {
	s.shutdownChan = ch
}

// NewServer creates a new HTTP REST API server. The progress hub is wired
// into the screener so batch hydration events stream to connected clients.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:      a,
		logger:   a.Logger,
		progress: NewProgressHub(a.Logger),
	}

	a.Screener.SetProgressFunc(s.progress.BroadcastProgress)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := applyMiddleware(mux, a.Logger)

	host := a.Config.Server.Host
	port := a.Config.Server.Port

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the progress hub and HTTP server (blocking).
func (s *Server) Start() error {
	go s.progress.Run()
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and stops the progress hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.progress.Stop()
	return s.server.Shutdown(ctx)
}
