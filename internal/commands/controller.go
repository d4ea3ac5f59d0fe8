// Package commands contains the CLI commands for the application
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flow-github-pages/verify-api/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Flags struct {
	LogLevel   string
	ConfigPath string
}

type Controller struct {
	Flags *Flags
}

// loadConfig reads the explicit config path when given, otherwise searches
// for verify.json upward from the working directory
func (c *Controller) loadConfig() (*config.Config, error) {
	if c.Flags != nil && c.Flags.ConfigPath != "" {
		return config.LoadConfigFromPath(c.Flags.ConfigPath)
	}

	cfg, root, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	if root != "" {
		log.Debug().Str("root", root).Msg("loaded " + config.FileName)
	}
	return cfg, nil
}

func (c *Controller) logger() zerolog.Logger {
	return log.Logger
}

// SignalNotifier abstracts os/signal for testing
type SignalNotifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// Output abstracts user-facing console output for testing
type Output interface {
	Printf(format string, args ...any)
	Println(args ...any)
}

type defaultSignalNotifier struct{}

func (defaultSignalNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (defaultSignalNotifier) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

type defaultOutput struct{}

func (defaultOutput) Printf(format string, args ...any) {
	fmt.Printf(format, args...)
}

func (defaultOutput) Println(args ...any) {
	fmt.Println(args...)
}

// cancelOnSignal returns a context cancelled on SIGINT or SIGTERM
func cancelOnSignal(ctx context.Context, notifier SignalNotifier, out Output, what string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 1)
	notifier.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer notifier.Stop(sigChan)
		select {
		case sig := <-sigChan:
			out.Printf("\n%v received. Shutting down %s gracefully...\n", sig, what)
			cancel()
		case <-ctx.Done():
			// Context cancelled, no need to do anything
		}
	}()

	return ctx, cancel
}
