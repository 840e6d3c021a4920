package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"buildhooks/internal/build"
	"buildhooks/internal/logging"
	"buildhooks/internal/metrics"
	"buildhooks/internal/notifications"
)

// SubscriberStore is the store surface the admin routes need.
type SubscriberStore interface {
	URLsFor(projectID string) []string
	Projects() []string
	Add(projectID, url string) error
	Remove(projectID, url string) error
	Path() string
}

// Notifier runs the build-finished pipeline.
type Notifier interface {
	Notify(ctx context.Context, facts build.Facts) notifications.Report
}

// Options configures a Server.
type Options struct {
	Bind  string
	Token string
}

// Server owns the HTTP listener and router.
type Server struct {
	bind     string
	token    string
	store    SubscriberStore
	notifier Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New builds a server; call Start to begin listening.
func New(opts Options, store SubscriberStore, notifier Notifier, logger *slog.Logger) *Server {
	s := &Server{
		bind:     strings.TrimSpace(opts.Bind),
		token:    strings.TrimSpace(opts.Token),
		store:    store,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "api-server"),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(s.requestLogger)

	r.Get("/api/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(s.token))
		r.Get("/api/projects", s.handleListProjects)
		r.Get("/api/projects/{projectID}/webhooks", s.handleListWebhooks)
		r.Post("/api/projects/{projectID}/webhooks", s.handleAddWebhook)
		r.Delete("/api/projects/{projectID}/webhooks", s.handleRemoveWebhook)
		r.Post("/api/builds/finished", s.handleBuildFinished)
	})
	return r
}

// Start listens on the configured address and serves until ctx is done or
// Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "restart the server"))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Elapsed(time.Since(start)),
			logging.String("request_id", middleware.GetReqID(r.Context())))
	})
}
