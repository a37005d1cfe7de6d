package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/test-atlas/pkg/runtime/app"
	"github.com/de-tools/test-atlas/pkg/runtime/terminal"
	"github.com/de-tools/test-atlas/pkg/services/config"
	"github.com/de-tools/test-atlas/pkg/services/dashboard"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	_ = godotenv.Load()

	level := zerolog.WarnLevel
	if os.Getenv("DASHBOARD_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	cli := terminal.NewCLI(terminal.Options{
		Bootstrap: func(ctx context.Context, settings *config.Settings) (dashboard.Service, func() error, error) {
			a, err := app.New(ctx, app.Options{Settings: settings})
			if err != nil {
				return nil, nil, err
			}
			return a.Dashboards, a.Close, nil
		},
		Output: os.Stdout,
	})

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
