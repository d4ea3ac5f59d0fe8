package dev

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/flow-github-pages/verify-api/internal/client"
	"github.com/flow-github-pages/verify-api/internal/client/mock"
	"github.com/flow-github-pages/verify-api/internal/payload"
	"github.com/flow-github-pages/verify-api/internal/serve"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test plan for dev Server:
// 1. NewServer rejects malformed targets
// 2. /api requests are proxied with the prefix stripped
// 3. Unreachable targets produce a JSON 502
// 4. /mock requests are answered by the resolver
// 5. Other paths return a JSON 404
// 6. Serve loads fixtures and stops when the context is cancelled
// 7. A real-mode client works end to end through the dev server

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	api := serve.NewServer(serve.Options{Logger: zerolog.Nop()})
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestNewServer_InvalidTarget(t *testing.T) {
	for _, target := range []string{"", "localhost:3001", "://bad"} {
		t.Run(target, func(t *testing.T) {
			_, err := NewServer(Options{Target: target})
			assert.Error(t, err)
		})
	}
}

func TestServer_ProxiesAPI(t *testing.T) {
	backend := newBackend(t)

	s, err := NewServer(Options{Target: backend.URL, Logger: zerolog.Nop()})
	require.NoError(t, err)
	h := s.Handler()

	t.Run("greeting", func(t *testing.T) {
		w := get(t, h, "/api/test")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get(mock.MockHeader))

		var greeting payload.GreetingResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&greeting))
		assert.Regexp(t, `^hello world \d{8}-\d{6}$`, greeting.Message)
	})

	t.Run("root", func(t *testing.T) {
		w := get(t, h, "/api/")
		assert.Equal(t, http.StatusOK, w.Code)

		var info payload.ServerInfo
		require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
		assert.Equal(t, payload.ServerName, info.Name)
	})

	t.Run("upstream 404", func(t *testing.T) {
		w := get(t, h, "/api/unknown")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
	})
}

func TestServer_BadGateway(t *testing.T) {
	backend := newBackend(t)
	target := backend.URL
	backend.Close()

	s, err := NewServer(Options{Target: target, Logger: zerolog.Nop()})
	require.NoError(t, err)

	w := get(t, s.Handler(), "/api/test")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Bad gateway"}`, w.Body.String())
}

func TestServer_ServesMocks(t *testing.T) {
	s, err := NewServer(Options{Target: "http://127.0.0.1:1", Logger: zerolog.Nop()})
	require.NoError(t, err)
	h := s.Handler()

	w := get(t, h, "/mock/sample")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get(mock.MockHeader))

	var sample payload.SampleResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sample))
	assert.GreaterOrEqual(t, sample.Value, 1)
	assert.LessOrEqual(t, sample.Value, 100)

	w = get(t, h, "/mock/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Mock endpoint not found: /unknown"}`, w.Body.String())
}

func TestServer_NotFound(t *testing.T) {
	s, err := NewServer(Options{Target: "http://127.0.0.1:1", Logger: zerolog.Nop()})
	require.NoError(t, err)

	w := get(t, s.Handler(), "/index.html")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}

func TestServer_Serve(t *testing.T) {
	backend := newBackend(t)

	fixtures := filepath.Join(t.TempDir(), "mocks.json")
	writeFile(t, fixtures, `{"GET /users": [{"id": 7}]}`)

	s, err := NewServer(Options{Target: backend.URL, Fixtures: fixtures, Logger: zerolog.Nop()})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	baseURL := fmt.Sprintf("http://%s", ln.Addr().String())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln)
	}()

	var body []byte
	require.Eventually(t, func() bool {
		resp, err := http.Get(baseURL + "/mock/users")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ = io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.JSONEq(t, `[{"id":7}]`, string(body))

	// A real-mode client reaches the backend through the proxy
	c, err := client.New(client.Config{BaseURL: baseURL, Logger: zerolog.Nop()})
	require.NoError(t, err)

	sample, err := c.GetSample(context.Background())
	require.NoError(t, err)
	assert.Len(t, sample.Message, 5)

	err = c.Do(context.Background(), http.MethodGet, "/unknown", nil, nil)
	var respErr *client.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusNotFound, respErr.Status)
	assert.False(t, respErr.Mock)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("dev server did not stop")
	}
}

func TestServer_Serve_BadFixtures(t *testing.T) {
	s, err := NewServer(Options{
		Target:   "http://127.0.0.1:1",
		Fixtures: filepath.Join(t.TempDir(), "absent.json"),
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	err = s.Serve(context.Background(), ln)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load fixtures")
}
