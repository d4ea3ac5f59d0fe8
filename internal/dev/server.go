package dev

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/flow-github-pages/verify-api/internal/client/mock"
	"github.com/flow-github-pages/verify-api/internal/payload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Path prefixes served by the development server
const (
	APIPrefix  = "/api"
	MockPrefix = "/mock"
)

const shutdownTimeout = 5 * time.Second

// Options configures the development server
type Options struct {
	// Target is the API server that /api requests are proxied to
	Target string

	// Fixtures is an optional JSON fixture file served under /mock and
	// reloaded on change
	Fixtures string

	// Resolver answers /mock requests. If nil, a resolver with the default
	// endpoints is created.
	Resolver *mock.Resolver

	Logger zerolog.Logger
}

// Server represents the development server
type Server struct {
	target   *url.URL
	proxy    *httputil.ReverseProxy
	resolver *mock.Resolver
	fixtures string
	logger   zerolog.Logger
}

// NewServer creates a new development server
func NewServer(opts Options) (*Server, error) {
	target, err := url.Parse(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy target %q: %w", opts.Target, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid proxy target %q: scheme and host are required", opts.Target)
	}

	logger := opts.Logger.With().Str("component", "dev-server").Logger()

	resolver := opts.Resolver
	if resolver == nil {
		resolver = mock.NewDefaultResolver(payload.NewGenerator(), opts.Logger)
	}

	s := &Server{
		target:   target,
		resolver: resolver,
		fixtures: opts.Fixtures,
		logger:   logger,
	}
	s.proxy = s.newProxy()

	return s, nil
}

// newProxy forwards to the target and rewrites Host to match it
func (s *Server) newProxy() *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(s.target)

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = s.target.Host
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		hlog.FromRequest(r).Warn().Err(err).Str("target", s.target.String()).Msg("proxy request failed")
		sendError(w, http.StatusBadGateway, "Bad gateway")
	}

	return proxy
}

// Handler returns the development server's HTTP handler
func (s *Server) Handler() http.Handler {
	mockHandler := mock.Handler(s.resolver, MockPrefix)

	mux := http.NewServeMux()
	mux.Handle(APIPrefix+"/", http.StripPrefix(APIPrefix, s.proxy))
	mux.Handle(MockPrefix+"/", mockHandler)
	mux.Handle(MockPrefix, mockHandler)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusNotFound, "Not found")
	})

	h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Msg("request handled")
	})(mux)
	return hlog.NewHandler(s.logger)(h)
}

// Start listens on addr and runs the development server until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the development server on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.fixtures != "" {
		watcher, err := NewFixtureWatcher(s.fixtures, s.resolver, s.logger)
		if err != nil {
			ln.Close()
			return fmt.Errorf("failed to load fixtures: %w", err)
		}
		defer watcher.Stop()

		go func() {
			if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error().Err(err).Msg("fixture watcher stopped")
			}
		}()
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Str("proxy_target", s.target.String()).
		Str("fixtures", s.fixtures).
		Msg("development server listening")

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down development server: %w", err)
		}
		s.logger.Info().Msg("development server stopped")
		return nil
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return fmt.Errorf("development server error: %w", err)
	}
}

func sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&payload.ErrorResponse{
		Error: message,
	})
}
