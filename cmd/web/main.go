package main

import (
	"fmt"
	"net"
	"os"

	"github.com/de-tools/test-atlas/pkg/runtime/app"
	"github.com/de-tools/test-atlas/pkg/server"
	"github.com/de-tools/test-atlas/pkg/services/config"
	"github.com/de-tools/test-atlas/pkg/services/querycache"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for the test results dashboards",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a YAML settings file (settings can also be set with DASHBOARD_* variables)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	settings, err := config.LoadSettings(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	a, err := app.New(ctx, app.Options{Settings: settings})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close query cache store")
		}
	}()

	dashboards, _ := a.Dashboards.ListDashboards(ctx)
	logger.Info().Msgf("Found the following dashboards:")
	for _, d := range dashboards {
		logger.Info().Msgf("Name: `%s`, Filters: %v", d.Name, d.Filters)
	}

	stopPurger := querycache.NewPurger(a.Cache, settings.Cache.PurgeInterval).Start(ctx)
	defer stopPurger()

	webAPI := server.NewWebAPI(logger, server.Config{
		Addr: net.JoinHostPort(settings.Server.Host, settings.Server.Port),
		Dependencies: server.Dependencies{
			Dashboards: a.Dashboards,
			Gatherer:   a.Metrics,
		},
	})

	return webAPI.Start(ctx)
}
