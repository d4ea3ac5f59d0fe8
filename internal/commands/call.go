package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/flow-github-pages/verify-api/internal/client"
	"github.com/flow-github-pages/verify-api/internal/config"
	"github.com/flow-github-pages/verify-api/internal/payload"
	"github.com/rs/zerolog"
)

// CallOptions contains options for the call command. UseMock and BaseURL
// override the loaded configuration when set.
type CallOptions struct {
	Path    string
	Method  string
	Data    string
	UseMock *bool
	BaseURL string
}

// ParseMockToggle reports whether a mock toggle value enables mock mode.
// Only "false" disables it; any other value, including empty, keeps it on.
func ParseMockToggle(value string) bool {
	return !strings.EqualFold(strings.TrimSpace(value), "false")
}

// Prompter asks the user which endpoint to call when no path is given
type Prompter interface {
	SelectEndpoint(opts ...tea.ProgramOption) (string, error)
}

type formPrompter struct{}

func (formPrompter) SelectEndpoint(opts ...tea.ProgramOption) (string, error) {
	var path string
	form := createEndpointForm(&path)

	if len(opts) > 0 {
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return "", err
		}
	} else {
		if err := form.Run(); err != nil {
			return "", err
		}
	}

	return path, nil
}

func createEndpointForm(path *string) *huh.Form {
	options := []huh.Option[string]{huh.NewOption("/ (server info)", "/")}
	for _, endpoint := range payload.Endpoints {
		options = append(options, huh.NewOption(endpoint, endpoint))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Endpoint").
				Description("Choose an endpoint to call").
				Options(options...).
				Value(path),
		),
	)
}

// CallDependencies for the call command
type CallDependencies struct {
	Prompter Prompter
	Output   Output
	Logger   zerolog.Logger

	// NewClient builds the API client; tests replace it to inject a resolver
	NewClient func(client.Config) (*client.Client, error)
}

// CallCommand issues a single request through the API client and prints the result
type CallCommand struct {
	deps CallDependencies
}

// NewCallCommand creates a new call command with default dependencies
func NewCallCommand(logger zerolog.Logger) *CallCommand {
	return &CallCommand{
		deps: CallDependencies{
			Prompter:  formPrompter{},
			Output:    defaultOutput{},
			Logger:    logger,
			NewClient: client.New,
		},
	}
}

// WithDependencies allows injecting custom dependencies for testing
func (cc *CallCommand) WithDependencies(deps CallDependencies) *CallCommand {
	cc.deps = deps
	return cc
}

// Execute sends the request described by opts
func (cc *CallCommand) Execute(ctx context.Context, cfg *config.Config, opts CallOptions) error {
	useMock := cfg.Client.MockEnabled()
	if opts.UseMock != nil {
		useMock = *opts.UseMock
	}
	baseURL := cfg.Client.BaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}

	path := opts.Path
	if path == "" {
		selected, err := cc.deps.Prompter.SelectEndpoint()
		if err != nil {
			return fmt.Errorf("failed to select endpoint: %w", err)
		}
		path = selected
	}

	var body any
	if opts.Data != "" {
		if !json.Valid([]byte(opts.Data)) {
			return fmt.Errorf("request data is not valid JSON")
		}
		body = json.RawMessage(opts.Data)
	}

	c, err := cc.deps.NewClient(client.Config{
		UseMock: useMock,
		BaseURL: baseURL,
		Logger:  cc.deps.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	cc.deps.Logger.Info().
		Str("method", method).
		Str("url", c.BaseURL()+path).
		Bool("mock", c.UseMock()).
		Msg("calling endpoint")

	var out json.RawMessage
	if err := c.Do(ctx, method, path, body, &out); err != nil {
		var respErr *client.ResponseError
		if errors.As(err, &respErr) {
			cc.print(respErr.Data)
		}
		return fmt.Errorf("request failed: %w", err)
	}

	cc.print(out)
	return nil
}

func (cc *CallCommand) print(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		cc.deps.Output.Printf("%v\n", v)
		return
	}
	cc.deps.Output.Println(string(data))
}

// Call sends one request with configuration from verify.json and opts
func (c *Controller) Call(ctx context.Context, opts CallOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	return NewCallCommand(c.logger()).Execute(ctx, cfg, opts)
}
