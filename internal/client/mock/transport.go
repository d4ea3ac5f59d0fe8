package mock

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/flow-github-pages/verify-api/internal/payload"
)

// MockHeader marks responses synthesized by the resolver.
const MockHeader = "X-Mock-Response"

// DefaultPrefix is the base path routed to the resolver.
const DefaultPrefix = "/mock"

// result is a resolved response ready to be written.
type result struct {
	status int
	body   []byte
}

// respond resolves method and path into a status and JSON body. It never
// fails: misses become a 404 and handler errors a 500.
func (r *Resolver) respond(method, path string, body []byte) result {
	value, err := r.Resolve(method, path, body)
	if err != nil {
		if errors.Is(err, ErrMockNotFound) {
			r.logger.Warn().Str("method", method).Str("path", path).Msg("mock endpoint not found")
			return errorResult(http.StatusNotFound, "Mock endpoint not found: "+path)
		}
		r.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("mock handler failed")
		return errorResult(http.StatusInternalServerError, "Internal server error")
	}

	data, err := encode(value)
	if err != nil {
		r.logger.Error().Err(err).Str("path", path).Msg("failed to encode mock response")
		return errorResult(http.StatusInternalServerError, "Internal server error")
	}

	return result{status: http.StatusOK, body: data}
}

func encode(value any) ([]byte, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(value)
}

func errorResult(status int, message string) result {
	data, _ := json.Marshal(&payload.ErrorResponse{Error: message})
	return result{status: status, body: data}
}

// Transport implements http.RoundTripper by resolving every request
// locally. Paths outside Prefix are looked up unchanged.
type Transport struct {
	Resolver *Resolver
	Prefix   string
}

// Compile-time check: ensure Transport implements http.RoundTripper.
var _ http.RoundTripper = (*Transport)(nil)

// RoundTrip resolves req through the resolver without network access.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if len(b) > 0 {
			body = b
		}
	}

	path := trimPrefix(req.URL.Path, t.prefix())
	res := t.Resolver.respond(req.Method, path, body)

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set(MockHeader, "true")
	header.Set("Content-Length", strconv.Itoa(len(res.body)))

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", res.status, http.StatusText(res.status)),
		StatusCode:    res.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(res.body)),
		ContentLength: int64(len(res.body)),
		Request:       req,
	}, nil
}

func (t *Transport) prefix() string {
	if t.Prefix == "" {
		return DefaultPrefix
	}
	return t.Prefix
}

// Handler serves the resolver over HTTP, with prefix stripped from the
// request path before lookup.
func Handler(r *Resolver, prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		if len(body) == 0 {
			body = nil
		}

		res := r.respond(req.Method, trimPrefix(req.URL.Path, prefix), body)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(MockHeader, "true")
		w.WriteHeader(res.status)
		_, _ = w.Write(res.body)
	})
}

func trimPrefix(path, prefix string) string {
	if prefix == "" {
		return path
	}
	if path == prefix {
		return "/"
	}
	if strings.HasPrefix(path, prefix+"/") {
		return strings.TrimPrefix(path, prefix)
	}
	return path
}
