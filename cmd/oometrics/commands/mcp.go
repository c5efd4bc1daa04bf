package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/oometrics/pkg/mcp"
	"github.com/Sumatoshi-tech/oometrics/pkg/observability"
)

const (
	meterName         = "github.com/Sumatoshi-tech/oometrics"
	metricsPath       = "/metrics"
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func newMCPCommand(global *globalFlags) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the metrics engine to AI agents over MCP",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes two tools:
  - oometrics_compute: measure a source snippet (metrics, version, aggregation)
  - oometrics_catalog: list the available metric keys

With --metrics-addr, request and cache counters are also served in Prometheus
format on that address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd.Context(), global, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")

	return cmd
}

func runMCP(ctx context.Context, global *globalFlags, metricsAddr string) error {
	cfg, err := global.load()
	if err != nil {
		return err
	}

	providers, err := initObservability(cfg, observability.ModeMCP)
	if err != nil {
		return err
	}
	defer shutdown(providers)

	meter := providers.Meter

	var metricsHandler http.Handler

	if metricsAddr != "" {
		handler, provider, promErr := observability.PrometheusHandler()
		if promErr != nil {
			return promErr
		}

		metricsHandler = handler

		meter = provider.Meter(meterName)
	}

	red, err := observability.NewREDMetrics(meter)
	if err != nil {
		return err
	}

	if metricsHandler != nil {
		stop := serveMetrics(ctx, providers, red, metricsAddr, metricsHandler)
		defer stop()
	}

	engine, err := observability.NewEngineMetrics(meter)
	if err != nil {
		return err
	}

	srv := mcp.NewServer(mcp.ServerDeps{
		Logger:   providers.Logger,
		Metrics:  red,
		Tracer:   providers.Tracer,
		Recorder: engine,
		Config:   cfg,
	})

	return srv.Run(ctx)
}

// serveMetrics runs the Prometheus endpoint in the background and returns a
// function that stops it.
func serveMetrics(
	ctx context.Context, providers observability.Providers, red *observability.REDMetrics,
	addr string, handler http.Handler,
) func() {
	mux := http.NewServeMux()
	mux.Handle(metricsPath, observability.HTTPMiddleware(providers.Tracer, red, metricsPath, handler))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		providers.Logger.InfoContext(ctx, "serving metrics", "addr", addr, "path", metricsPath)

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			providers.Logger.ErrorContext(ctx, "metrics server failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			providers.Logger.Warn("metrics server shutdown failed", "error", fmt.Errorf("shutdown: %w", err))
		}
	}
}
