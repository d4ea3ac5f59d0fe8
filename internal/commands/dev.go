package commands

import (
	"context"
	"fmt"

	"github.com/flow-github-pages/verify-api/internal/config"
	"github.com/flow-github-pages/verify-api/internal/dev"
	"github.com/rs/zerolog"
)

type DevOptions struct {
	Port     int
	Target   string
	Fixtures string
}

// DevDependencies for the dev command
type DevDependencies struct {
	SignalNotifier SignalNotifier
	Output         Output
	Logger         zerolog.Logger
}

// DevCommand runs the development proxy and mock server
type DevCommand struct {
	deps DevDependencies
}

// NewDevCommand creates a new dev command with default dependencies
func NewDevCommand(logger zerolog.Logger) *DevCommand {
	return &DevCommand{
		deps: DevDependencies{
			SignalNotifier: defaultSignalNotifier{},
			Output:         defaultOutput{},
			Logger:         logger,
		},
	}
}

// WithDependencies allows injecting custom dependencies for testing
func (dc *DevCommand) WithDependencies(deps DevDependencies) *DevCommand {
	dc.deps = deps
	return dc
}

// Execute runs the development server until a termination signal
func (dc *DevCommand) Execute(ctx context.Context, cfg *config.Config, opts DevOptions) error {
	port := cfg.Dev.Port
	if opts.Port > 0 {
		port = opts.Port
	}
	target := cfg.Dev.Target
	if opts.Target != "" {
		target = opts.Target
	}
	fixtures := cfg.Dev.Fixtures
	if opts.Fixtures != "" {
		fixtures = opts.Fixtures
	}

	server, err := dev.NewServer(dev.Options{
		Target:   target,
		Fixtures: fixtures,
		Logger:   dc.deps.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create development server: %w", err)
	}

	ctx, cancel := cancelOnSignal(ctx, dc.deps.SignalNotifier, dc.deps.Output, "development server")
	defer cancel()

	dc.deps.Output.Printf("🔧 Development server is running on http://localhost:%d\n", port)
	dc.deps.Output.Printf("   %s/* -> %s\n", dev.APIPrefix, target)
	dc.deps.Output.Printf("   %s/* -> local mock responses\n", dev.MockPrefix)
	if fixtures != "" {
		dc.deps.Output.Printf("   watching fixtures in %s\n", fixtures)
	}

	if err := server.Start(ctx, fmt.Sprintf(":%d", port)); err != nil {
		return err
	}

	dc.deps.Output.Println("Development server stopped.")
	return nil
}

// Dev runs the development server with configuration from verify.json and opts
func (c *Controller) Dev(ctx context.Context, opts DevOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	return NewDevCommand(c.logger()).Execute(ctx, cfg, opts)
}
