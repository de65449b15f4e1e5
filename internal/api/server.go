// Package api exposes the webhook endpoint and the two static routes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/core"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/logging"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/tasks"
)

const robotsTxt = "User-agent: *\nDisallow: /"

// IssueSubmitter accepts a validated webhook payload.
type IssueSubmitter interface {
	Submit(ctx context.Context, data core.IssueData) (*tasks.Task, error)
}

// Server serves the relay's HTTP surface.
type Server struct {
	router            chi.Router
	intake            IssueSubmitter
	logger            *logging.Logger
	apiToken          string
	maxBodyBytes      int64
	corsOrigins       []string
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAPIToken sets the token webhook callers must present.
func WithAPIToken(token string) ServerOption {
	return func(s *Server) {
		s.apiToken = token
	}
}

// WithMaxBodyBytes bounds the size of webhook bodies.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithCORSOrigins enables CORS for the given origins.
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithTimeouts sets the header read timeout and the graceful shutdown budget.
func WithTimeouts(readHeader, shutdown time.Duration) ServerOption {
	return func(s *Server) {
		if readHeader > 0 {
			s.readHeaderTimeout = readHeader
		}
		if shutdown > 0 {
			s.shutdownTimeout = shutdown
		}
	}
}

// NewServer creates a new API server.
func NewServer(intake IssueSubmitter, opts ...ServerOption) *Server {
	s := &Server{
		intake:            intake,
		logger:            logging.NewNop(),
		maxBodyBytes:      1 << 20,
		readHeaderTimeout: 10 * time.Second,
		shutdownTimeout:   10 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	if len(s.corsOrigins) > 0 {
		corsHandler := cors.New(cors.Options{
			AllowedOrigins:   s.corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		})
		r.Use(corsHandler.Handler)
	}

	r.Get("/", s.handleIndex)
	r.Get("/robots.txt", s.handleRobots)

	r.With(RequireBearer(s.apiToken)).Post("/issue/", s.handleIssue)

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	respondText(w, http.StatusOK, "")
}

func (s *Server) handleRobots(w http.ResponseWriter, _ *http.Request) {
	respondText(w, http.StatusOK, robotsTxt)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Background tasks are not drained here.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server", "timeout", s.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	<-errCh
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// respondDetail sends the {"detail": ...} error body webhook senders expect.
func respondDetail(w http.ResponseWriter, status int, detail interface{}) {
	respondJSON(w, status, map[string]interface{}{"detail": detail})
}
