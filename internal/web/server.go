package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

// Server is the JSON/websocket API over the date fixing pipeline.
type Server struct {
	router  *mux.Router
	hub     *Hub
	version string

	// runMu is held for the whole of a background run.
	runMu     sync.Mutex
	cancelMu  sync.Mutex
	cancelRun context.CancelFunc
}

func NewServer() *Server {
	s := &Server{
		router:  mux.NewRouter(),
		hub:     NewHub(),
		version: "unknown",
	}

	go s.hub.Run()

	s.setupRoutes()
	return s
}

func (s *Server) SetVersion(v string) {
	s.version = v
}

// Handler exposes the router, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	// Routes stay on the root router so a wrong method answers 405.
	s.router.HandleFunc("/api/version", s.handleVersion).Methods(http.MethodGet)
	s.router.HandleFunc("/api/browse", s.handleBrowse).Methods(http.MethodGet)
	s.router.HandleFunc("/api/config", s.handleGetConfig).Methods(http.MethodGet)
	s.router.HandleFunc("/api/ws", s.handleWebSocket)

	s.router.HandleFunc("/api/analyze", s.handleAnalyze).Methods(http.MethodPost)
	s.router.HandleFunc("/api/preview", s.handlePreview).Methods(http.MethodPost)
	s.router.HandleFunc("/api/run", s.handleRun).Methods(http.MethodPost)
	s.router.HandleFunc("/api/cancel", s.handleCancel).Methods(http.MethodPost)

	s.router.HandleFunc("/api/presets", s.handleListPresets).Methods(http.MethodGet)
	s.router.HandleFunc("/api/presets", s.handleSavePreset).Methods(http.MethodPost)
	s.router.HandleFunc("/api/presets/load", s.handleLoadPreset).Methods(http.MethodGet)
	s.router.HandleFunc("/api/presets/delete", s.handleDeletePreset).Methods(http.MethodDelete)
}

// Serve listens on addr until ctx is done. On shutdown an active run is
// cancelled before the listener drains.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Starting Date Fixer Web API at http://%s\n", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.cancelActiveRun()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// cancelActiveRun reports whether a run was in progress.
func (s *Server) cancelActiveRun() bool {
	s.cancelMu.Lock()
	cancel := s.cancelRun
	s.cancelMu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	return true
}
