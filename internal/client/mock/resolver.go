package mock

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/flow-github-pages/verify-api/internal/payload"
	"github.com/rs/zerolog"
)

var (
	// ErrMockNotFound is returned when no handler or fixture matches a key.
	ErrMockNotFound = errors.New("mock not found")

	// ErrInvalidKey is returned when a "METHOD /path" key cannot be parsed.
	ErrInvalidKey = errors.New("invalid mock key")
)

// Key identifies a mocked endpoint by HTTP method and path.
type Key struct {
	Method string
	Path   string
}

// String renders the key as "METHOD /path".
func (k Key) String() string {
	return k.Method + " " + k.Path
}

// ParseKey parses a "METHOD /path" string.
func ParseKey(s string) (Key, error) {
	method, path, ok := strings.Cut(strings.TrimSpace(s), " ")
	path = strings.TrimSpace(path)
	if !ok || method == "" || !strings.HasPrefix(path, "/") {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return Key{Method: strings.ToUpper(method), Path: path}, nil
}

// HandlerFunc synthesizes a response payload. body is the raw request body
// and is nil for requests without one.
type HandlerFunc func(body []byte) (any, error)

// Resolver maps method and path pairs to response generators. It never
// performs network I/O and is safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	handlers map[Key]HandlerFunc
	fixtures map[Key]json.RawMessage
	logger   zerolog.Logger
}

// NewResolver creates an empty resolver.
func NewResolver(logger zerolog.Logger) *Resolver {
	return &Resolver{
		handlers: make(map[Key]HandlerFunc),
		fixtures: make(map[Key]json.RawMessage),
		logger:   logger.With().Str("component", "mock-resolver").Logger(),
	}
}

// NewDefaultResolver creates a resolver with the built-in endpoints registered.
func NewDefaultResolver(gen *payload.Generator, logger zerolog.Logger) *Resolver {
	r := NewResolver(logger)
	RegisterDefaults(r, gen)
	return r
}

// RegisterDefaults registers GET /test and GET /sample backed by gen.
func RegisterDefaults(r *Resolver, gen *payload.Generator) {
	if gen == nil {
		gen = payload.NewGenerator()
	}

	r.Register(http.MethodGet, "/test", func([]byte) (any, error) {
		return gen.Greeting()
	})
	r.Register(http.MethodGet, "/sample", func([]byte) (any, error) {
		return gen.Sample()
	})
}

// Register sets the handler for method and path, replacing any previous one.
func (r *Resolver) Register(method, path string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[Key{Method: strings.ToUpper(method), Path: path}] = fn
}

// On starts configuration of a response for a given method and path.
func (r *Resolver) On(method, path string) *ResponseBuilder {
	return &ResponseBuilder{
		resolver: r,
		method:   method,
		path:     path,
	}
}

// SetFixtures replaces the static fixture table. Registered handlers take
// precedence over fixtures with the same key.
func (r *Resolver) SetFixtures(fixtures map[Key]json.RawMessage) {
	copied := make(map[Key]json.RawMessage, len(fixtures))
	for k, v := range fixtures {
		copied[k] = v
	}

	r.mu.Lock()
	r.fixtures = copied
	r.mu.Unlock()

	r.logger.Debug().Int("count", len(copied)).Msg("fixtures replaced")
}

// Resolve returns the payload for method and path. A miss returns an error
// wrapping ErrMockNotFound.
func (r *Resolver) Resolve(method, path string, body []byte) (any, error) {
	key := Key{Method: strings.ToUpper(method), Path: path}

	r.mu.RLock()
	fn, hasHandler := r.handlers[key]
	fixture, hasFixture := r.fixtures[key]
	r.mu.RUnlock()

	switch {
	case hasHandler:
		r.logger.Debug().Str("key", key.String()).Msg("resolving mock handler")
		return fn(body)
	case hasFixture:
		r.logger.Debug().Str("key", key.String()).Msg("resolving mock fixture")
		return fixture, nil
	default:
		return nil, fmt.Errorf("%w for path: %s", ErrMockNotFound, path)
	}
}

// Keys returns every resolvable key, sorted.
func (r *Resolver) Keys() []Key {
	r.mu.RLock()
	seen := make(map[Key]struct{}, len(r.handlers)+len(r.fixtures))
	for k := range r.handlers {
		seen[k] = struct{}{}
	}
	for k := range r.fixtures {
		seen[k] = struct{}{}
	}
	r.mu.RUnlock()

	keys := make([]Key, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Path != keys[j].Path {
			return keys[i].Path < keys[j].Path
		}
		return keys[i].Method < keys[j].Method
	})
	return keys
}

// ResponseBuilder helps configure a response for a specific method and path.
type ResponseBuilder struct {
	resolver *Resolver
	method   string
	path     string
}

// Return serves a fixed value for the configured method and path.
func (b *ResponseBuilder) Return(value any) *Resolver {
	b.resolver.Register(b.method, b.path, func([]byte) (any, error) {
		return value, nil
	})
	return b.resolver
}

// ReturnFunc serves the result of fn for the configured method and path.
func (b *ResponseBuilder) ReturnFunc(fn HandlerFunc) *Resolver {
	b.resolver.Register(b.method, b.path, fn)
	return b.resolver
}

// ReturnError makes the configured method and path fail with err.
func (b *ResponseBuilder) ReturnError(err error) *Resolver {
	b.resolver.Register(b.method, b.path, func([]byte) (any, error) {
		return nil, err
	})
	return b.resolver
}
