//go:build integration

package dev_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test plan for verify-api dev integration:
// 1. Build the verify-api binary
// 2. Start verify-api serve and verify-api dev pointing at it
// 3. Call /api endpoints through the proxy with verify-api call
// 4. Serve fixtures under /mock and pick up edits to the fixture file
// 5. Gracefully shutdown both processes

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func waitForServer(t *testing.T, url string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 10*time.Second, 250*time.Millisecond, "server at %s did not start", url)
}

func stop(t *testing.T, cmd *exec.Cmd, name string) {
	t.Helper()
	require.NoError(t, cmd.Process.Signal(syscall.SIGINT))

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Errorf("%s did not shut down gracefully", name)
		cmd.Process.Kill()
	}
}

func TestVerifyAPIDev(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tempDir := t.TempDir()

	binary := filepath.Join(tempDir, "verify-api")
	buildCmd := exec.Command("go", "build", "-o", binary, "../../../main.go")
	buildOutput, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "Failed to build verify-api binary: %s", string(buildOutput))

	apiPort := freePort(t)
	devPort := freePort(t)
	devURL := fmt.Sprintf("http://localhost:%d", devPort)

	fixtures := filepath.Join(tempDir, "mocks.json")
	require.NoError(t, os.WriteFile(fixtures, []byte(`{"GET /users": [{"id": 1}]}`), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var serveOut, devOut bytes.Buffer

	serveCmd := exec.CommandContext(ctx, binary, "serve", "--port", fmt.Sprint(apiPort))
	serveCmd.Dir = tempDir
	serveCmd.Stdout = &serveOut
	serveCmd.Stderr = &serveOut
	require.NoError(t, serveCmd.Start())

	devCmd := exec.CommandContext(ctx, binary, "dev",
		"--port", fmt.Sprint(devPort),
		"--target", fmt.Sprintf("http://localhost:%d", apiPort),
		"--fixtures", fixtures,
	)
	devCmd.Dir = tempDir
	devCmd.Stdout = &devOut
	devCmd.Stderr = &devOut
	require.NoError(t, devCmd.Start())

	waitForServer(t, fmt.Sprintf("http://localhost:%d/", apiPort))
	waitForServer(t, devURL+"/mock/users")

	t.Run("call through proxy", func(t *testing.T) {
		callCmd := exec.Command(binary, "call", "--mock=false", "--base-url", devURL, "/sample")
		callCmd.Dir = tempDir
		out, err := callCmd.Output()
		require.NoError(t, err, "call failed: %s", devOut.String())

		var sample struct {
			Value   int    `json:"value"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(out, &sample))
		assert.GreaterOrEqual(t, sample.Value, 1)
		assert.Len(t, sample.Message, 5)
	})

	t.Run("call in mock mode", func(t *testing.T) {
		callCmd := exec.Command(binary, "call", "/test")
		callCmd.Dir = tempDir
		callCmd.Env = append(os.Environ(), "VITE_USE_MOCK=true")
		out, err := callCmd.Output()
		require.NoError(t, err)

		var greeting map[string]string
		require.NoError(t, json.Unmarshal(out, &greeting))
		assert.Regexp(t, `^hello world \d{8}-\d{6}$`, greeting["message"])
	})

	t.Run("fixture reload", func(t *testing.T) {
		require.NoError(t, os.WriteFile(fixtures, []byte(`{"GET /users": [{"id": 2}]}`), 0644))

		require.Eventually(t, func() bool {
			resp, err := http.Get(devURL + "/mock/users")
			if err != nil {
				return false
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			return resp.Header.Get("X-Mock-Response") == "true" && string(body) == `[{"id":2}]`
		}, 5*time.Second, 100*time.Millisecond)
	})

	stop(t, devCmd, "verify-api dev")
	stop(t, serveCmd, "verify-api serve")
}
