package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/flow-github-pages/verify-api/internal/commands"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	ctrl := &commands.Controller{
		Flags: &commands.Flags{},
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:    "verify-api",
		Usage:   "Verification API server, mock-aware client and development proxy",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to verify.json (default: search upward from the working directory)",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)

			ctrl.Flags.LogLevel = c.String("log-level")
			ctrl.Flags.ConfigPath = c.String("config")

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the verification API server",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Usage:   "port to listen on",
						Sources: cli.EnvVars("PORT"),
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Serve(ctx, commands.ServeOptions{
						Port: int(c.Int("port")),
					})
				},
			},
			{
				Name:  "dev",
				Usage: "Run the development server proxying /api and serving /mock",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Usage:   "port to listen on",
						Sources: cli.EnvVars("DEV_PORT"),
					},
					&cli.StringFlag{
						Name:    "target",
						Usage:   "API server that /api requests are proxied to",
						Sources: cli.EnvVars("DEV_TARGET"),
					},
					&cli.StringFlag{
						Name:    "fixtures",
						Usage:   "JSON fixture file served under /mock and reloaded on change",
						Sources: cli.EnvVars("MOCK_FIXTURES"),
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Dev(ctx, commands.DevOptions{
						Port:     int(c.Int("port")),
						Target:   c.String("target"),
						Fixtures: c.String("fixtures"),
					})
				},
			},
			{
				Name:      "call",
				Usage:     "Call an endpoint through the API client",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "mock",
						Usage:   "resolve the request locally; only \"false\" calls the real server",
						Sources: cli.EnvVars("USE_MOCK", "VITE_USE_MOCK"),
					},
					&cli.StringFlag{
						Name:    "base-url",
						Usage:   "scheme and host requests are sent to",
						Sources: cli.EnvVars("BASE_URL"),
					},
					&cli.StringFlag{
						Name:  "method",
						Usage: "HTTP method",
						Value: "GET",
					},
					&cli.StringFlag{
						Name:  "data",
						Usage: "JSON request body",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					opts := commands.CallOptions{
						Path:    c.Args().First(),
						Method:  c.String("method"),
						Data:    c.String("data"),
						BaseURL: c.String("base-url"),
					}
					if c.IsSet("mock") {
						useMock := commands.ParseMockToggle(c.String("mock"))
						opts.UseMock = &useMock
					}
					return ctrl.Call(ctx, opts)
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run verify-api")
	}
}
