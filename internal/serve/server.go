package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/flow-github-pages/verify-api/internal/payload"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const defaultShutdownTimeout = 5 * time.Second

// Error messages sent to clients
const (
	msgNotFound         = "Not found"
	msgMethodNotAllowed = "Method not allowed"
	msgInternalError    = "Internal server error"
)

// DefaultAllowedOrigins are the local development origins permitted by CORS
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"http://127.0.0.1:5173",
}

// Generator produces the payloads served by the API
type Generator interface {
	Greeting() (payload.GreetingResponse, error)
	Sample() (payload.SampleResponse, error)
	Info() payload.ServerInfo
}

// Server answers the verification API routes
type Server interface {
	// Handler returns the full middleware chain: logging, CORS, recovery, routing
	Handler() http.Handler

	// Start listens on addr and serves until ctx is cancelled
	Start(ctx context.Context, addr string) error

	// Serve serves on an existing listener until ctx is cancelled
	Serve(ctx context.Context, ln net.Listener) error
}

// Options configures a Server
type Options struct {
	Generator       Generator
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	Logger          zerolog.Logger
}

// server is the internal implementation of Server
type server struct {
	generator       Generator
	allowedOrigins  []string
	shutdownTimeout time.Duration
	logger          zerolog.Logger
	routes          map[string]handlerFunc
}

// handlerFunc is a route handler; a returned error becomes a 500
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// NewServer creates a new API server
func NewServer(opts Options) Server {
	s := &server{
		generator:       opts.Generator,
		allowedOrigins:  opts.AllowedOrigins,
		shutdownTimeout: opts.ShutdownTimeout,
		logger:          opts.Logger.With().Str("component", "api-server").Logger(),
	}

	if s.generator == nil {
		s.generator = payload.NewGenerator()
	}
	if len(s.allowedOrigins) == 0 {
		s.allowedOrigins = DefaultAllowedOrigins
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = defaultShutdownTimeout
	}

	s.routes = map[string]handlerFunc{
		"/":       s.handleInfo,
		"/test":   s.handleTest,
		"/sample": s.handleSample,
	}

	return s
}

// Handler returns the HTTP handler with all middleware applied
func (s *server) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(s.route)
	h = s.recoverer(h)
	h = cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request handled")
	})(h)
	h = hlog.NewHandler(s.logger)(h)
	return h
}

// Start starts the server on the given address
func (s *server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln and shuts down gracefully once ctx is done
func (s *server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Strs("endpoints", append([]string{"/"}, payload.Endpoints...)).
		Msg("API server listening")

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down API server: %w", err)
		}
		s.logger.Info().Msg("API server closed")
		return nil
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return fmt.Errorf("API server error: %w", err)
	}
}

// route dispatches on the exact request path
func (s *server) route(w http.ResponseWriter, r *http.Request) {
	h, ok := s.routes[r.URL.Path]
	if !ok {
		s.sendError(w, http.StatusNotFound, msgNotFound)
		return
	}

	if err := h(w, r); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("handler failed")
		s.sendError(w, http.StatusInternalServerError, msgInternalError)
	}
}

// recoverer turns a handler panic into a generic 500
func (s *server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				hlog.FromRequest(r).Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("recovered from handler panic")
				s.sendError(w, http.StatusInternalServerError, msgInternalError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// handleInfo handles the root path
func (s *server) handleInfo(w http.ResponseWriter, r *http.Request) error {
	return s.sendJSON(w, http.StatusOK, s.generator.Info())
}

// handleTest handles GET /test
func (s *server) handleTest(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return nil
	}

	resp, err := s.generator.Greeting()
	if err != nil {
		return fmt.Errorf("failed to generate greeting: %w", err)
	}

	hlog.FromRequest(r).Debug().Str("message", resp.Message).Msg("greeting generated")
	return s.sendJSON(w, http.StatusOK, resp)
}

// handleSample handles GET /sample
func (s *server) handleSample(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return nil
	}

	resp, err := s.generator.Sample()
	if err != nil {
		return fmt.Errorf("failed to generate sample: %w", err)
	}

	hlog.FromRequest(r).Debug().
		Int("value", resp.Value).
		Str("message", resp.Message).
		Msg("sample generated")
	return s.sendJSON(w, http.StatusOK, resp)
}

func (s *server) methodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Allow", http.MethodGet)
	s.sendError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

// sendJSON encodes v before writing anything so encoding failures can still become a 500
func (s *server) sendJSON(w http.ResponseWriter, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
	return nil
}

// sendError sends an error response
func (s *server) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&payload.ErrorResponse{
		Error: message,
	})
}
