package commands

import (
	"context"
	"fmt"

	"github.com/flow-github-pages/verify-api/internal/config"
	"github.com/flow-github-pages/verify-api/internal/payload"
	"github.com/flow-github-pages/verify-api/internal/serve"
	"github.com/rs/zerolog"
)

// ServeOptions contains options for the serve command. Zero values fall
// back to the loaded configuration.
type ServeOptions struct {
	Port int
}

// ServeDependencies for the serve command
type ServeDependencies struct {
	SignalNotifier SignalNotifier
	Output         Output
	Logger         zerolog.Logger
}

// ServeCommand runs the API server until a termination signal
type ServeCommand struct {
	deps ServeDependencies
}

// NewServeCommand creates a new serve command with default dependencies
func NewServeCommand(logger zerolog.Logger) *ServeCommand {
	return &ServeCommand{
		deps: ServeDependencies{
			SignalNotifier: defaultSignalNotifier{},
			Output:         defaultOutput{},
			Logger:         logger,
		},
	}
}

// WithDependencies allows injecting custom dependencies for testing
func (sc *ServeCommand) WithDependencies(deps ServeDependencies) *ServeCommand {
	sc.deps = deps
	return sc
}

// Execute runs the API server
func (sc *ServeCommand) Execute(ctx context.Context, cfg *config.Config, opts ServeOptions) error {
	port := cfg.Server.Port
	if opts.Port > 0 {
		port = opts.Port
	}

	ctx, cancel := cancelOnSignal(ctx, sc.deps.SignalNotifier, sc.deps.Output, "API server")
	defer cancel()

	server := serve.NewServer(serve.Options{
		Generator:      payload.NewGenerator(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         sc.deps.Logger,
	})

	sc.deps.Output.Printf("🚀 API Server is running on http://localhost:%d\n", port)
	sc.deps.Output.Println("📖 Available endpoints (add /api prefix when using from the front end):")
	sc.deps.Output.Println("   GET /test   - Returns greeting message with timestamp")
	sc.deps.Output.Println("   GET /sample - Returns random value (1-100) and 5-char random string")
	sc.deps.Output.Println("   GET /       - Returns server information")

	if err := server.Start(ctx, fmt.Sprintf(":%d", port)); err != nil {
		return err
	}

	sc.deps.Output.Println("Server closed.")
	return nil
}

// Serve runs the API server with configuration from verify.json and opts
func (c *Controller) Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	return NewServeCommand(c.logger()).Execute(ctx, cfg, opts)
}
