package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/flow-github-pages/verify-api/internal/client/mock"
	"github.com/flow-github-pages/verify-api/internal/payload"
	"github.com/rs/zerolog"
)

// Base paths selected by the mock toggle
const (
	MockBasePath = "/mock"
	APIBasePath  = "/api"
)

// DefaultBaseURL is the front-end dev server origin
const DefaultBaseURL = "http://localhost:5173"

var (
	// ErrUnexpectedResponse is returned when a successful response body cannot be decoded.
	ErrUnexpectedResponse = errors.New("unexpected response body")
)

// Config controls construction of a Client.
type Config struct {
	// UseMock routes every request to the local mock resolver.
	UseMock bool

	// BaseURL is the scheme and host requests are sent to. If empty,
	// DefaultBaseURL is used.
	BaseURL string

	// HTTPClient performs real-mode requests. If nil, http.DefaultClient is used.
	// It is ignored in mock mode.
	HTTPClient *http.Client

	// Resolver answers mock-mode requests. If nil, a resolver with the
	// default endpoints is created.
	Resolver *mock.Resolver

	Logger zerolog.Logger
}

// Client issues typed requests against the verification API.
type Client struct {
	baseURL    string
	basePath   string
	useMock    bool
	httpClient *http.Client
	logger     zerolog.Logger
}

// ResponseError is returned for every non-2xx response, real or mocked.
type ResponseError struct {
	Status     int
	StatusText string
	Data       payload.ErrorResponse
	Header     http.Header

	// Mock is set when the response was synthesized by the mock resolver.
	Mock bool
}

// Error implements the error interface
func (e *ResponseError) Error() string {
	if e.Data.Error != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.StatusText, e.Data.Error)
	}
	return fmt.Sprintf("%d %s", e.Status, e.StatusText)
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("base URL %q must start with http:// or https://", cfg.BaseURL)
	}

	c := &Client{
		baseURL:    baseURL,
		useMock:    cfg.UseMock,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger.With().Str("component", "api-client").Logger(),
	}

	if cfg.UseMock {
		resolver := cfg.Resolver
		if resolver == nil {
			resolver = mock.NewDefaultResolver(payload.NewGenerator(), cfg.Logger)
		}
		c.basePath = MockBasePath
		c.httpClient = &http.Client{
			Transport: &mock.Transport{Resolver: resolver, Prefix: MockBasePath},
		}
	} else {
		c.basePath = APIBasePath
		if c.httpClient == nil {
			c.httpClient = http.DefaultClient
		}
	}

	c.logger.Debug().
		Str("base_url", c.baseURL+c.basePath).
		Bool("mock", c.useMock).
		Msg("API client initialized")

	return c, nil
}

// BaseURL returns the URL every request path is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL + c.basePath
}

// UseMock reports whether requests are resolved locally.
func (c *Client) UseMock() bool {
	return c.useMock
}

// GetTest fetches the greeting.
func (c *Client) GetTest(ctx context.Context) (*payload.GreetingResponse, error) {
	var resp payload.GreetingResponse
	if err := c.Do(ctx, http.MethodGet, "/test", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSample fetches a random sample.
func (c *Client) GetSample(ctx context.Context) (*payload.SampleResponse, error) {
	var resp payload.SampleResponse
	if err := c.Do(ctx, http.MethodGet, "/sample", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Do sends method path with body encoded as JSON (when non-nil) and decodes
// a 2xx response into out (when non-nil). Non-2xx responses return a
// *ResponseError; transport errors are returned unchanged.
func (c *Client) Do(ctx context.Context, method, path string, body any, out any) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("url", req.URL.String()).Msg("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respErr := newResponseError(resp, data)
		c.logger.Debug().
			Int("status", respErr.Status).
			Bool("mock", respErr.Mock).
			Str("error", respErr.Data.Error).
			Msg("request failed")
		return respErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	return nil
}

// newResponseError builds a ResponseError; a body that is not an error
// object falls back to the status text as the message.
func newResponseError(resp *http.Response, data []byte) *ResponseError {
	respErr := &ResponseError{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Header:     resp.Header.Clone(),
		Mock:       resp.Header.Get(mock.MockHeader) == "true",
	}

	if err := json.Unmarshal(data, &respErr.Data); err != nil || respErr.Data.Error == "" {
		respErr.Data.Error = respErr.StatusText
	}

	return respErr
}
