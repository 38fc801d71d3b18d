// Package api exposes the debate store over HTTP: session creation, status
// polling, resume and archive maintenance, and a websocket live feed.
//
// The API is transport only. All debate semantics live in the store and the
// debate package; handlers translate between HTTP and those calls, and the
// live feed republishes bus events for one session to its subscribers.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/avandyck/rostrum/internal/event"
	"github.com/avandyck/rostrum/internal/logging"
	"github.com/avandyck/rostrum/internal/store"
)

// Server is the HTTP surface over a session store.
type Server struct {
	store  *store.Store
	bus    *event.Bus
	logger *logging.Logger
	router chi.Router
}

// NewServer builds the router around the given store. The bus feeds the
// websocket live endpoint; without one, live connections see only the
// initial status push.
func NewServer(st *store.Store, bus *event.Bus, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	s := &Server{
		store:  st,
		bus:    bus,
		logger: logger.WithComponent("api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/api/debates", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleStatus)
		r.Post("/{id}/resume", s.handleResume)
		r.Delete("/{id}", s.handleArchive)
		r.Get("/{id}/live", s.handleLive)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the API on addr until the context is canceled, then
// shuts down gracefully within the given timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		// No write timeout: the live feed holds connections open.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("api stopped")
	return <-errCh
}

// requestLogger logs one line per request with the chi request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
