package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	handlers "github.com/de-tools/test-atlas/pkg/handlers/dashboard"
	"github.com/de-tools/test-atlas/pkg/services/dashboard"

	dashboardmiddleware "github.com/de-tools/test-atlas/pkg/server/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Dashboards dashboard.Service
	// Gatherer backs /metrics; the route is omitted when nil.
	Gatherer prometheus.Gatherer
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	h := handlers.NewHandler(config.Dependencies.Dashboards)

	router := chi.NewRouter()

	router.Use(dashboardmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1/dashboards", func(r chi.Router) {
		r.Get("/", h.ListDashboards)
		r.Route("/{dashboard}", func(r chi.Router) {
			r.Get("/filters", h.GetFilters)
			r.Post("/filters", h.GetFilters)
			r.Get("/summary", h.GetSummary)
			r.Post("/summary", h.GetSummary)
			r.Get("/plot", h.GetPlot)
			r.Post("/plot", h.GetPlot)
			r.Get("/views/{view}", h.GetView)
			r.Post("/views/{view}", h.GetView)
			r.Get("/tests/{kind}", h.GetTests)
			r.Post("/tests/{kind}", h.GetTests)
		})
	})

	if config.Dependencies.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(config.Dependencies.Gatherer, promhttp.HandlerOpts{}))
	}

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

func (w *WebAPI) Handler() http.Handler {
	return w.router
}

// Start serves until the listener fails, ctx is cancelled, or the process receives an
// interrupt, then shuts down gracefully.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(shutdownCtx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
