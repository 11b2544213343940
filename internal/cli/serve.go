package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cartogram/internal/server"
	"github.com/matzehuels/cartogram/pkg/observability"
	"github.com/matzehuels/cartogram/pkg/pipeline"
)

// serveCommand creates the serve command, which exposes the pipeline over
// HTTP with Prometheus metrics.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool
	opts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cartogram HTTP API",
		Long: `Serve starts an HTTP server that accepts GeoJSON FeatureCollections on
POST /v1/cartograms and answers with the transformed collection, an SVG or a
PNG. Health and Prometheus metrics are exposed on /healthz and /metrics.`,
		Example: `  cartogram serve
  cartogram serve --addr :9090
  CARTOGRAM_CACHE_BACKEND=redis CARTOGRAM_REDIS_ADDR=localhost:6379 cartogram serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfig(cmd, &opts)
			if !cmd.Flags().Changed("addr") {
				addr = c.Config().Server.Addr
			}
			return c.runServe(cmd.Context(), addr, opts, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", opts.MaxIterations, "default maximum number of displacement passes")
	cmd.Flags().Float64Var(&opts.MaxAverageError, "max-error", opts.MaxAverageError, "default average size error target")
	cmd.Flags().IntVar(&opts.Workers, "workers", opts.Workers, "goroutines used to displace geometries within one pass")
	addRenderFlags(cmd, &opts)

	return cmd
}

// runServe wires the metrics hooks and runs the server until ctx ends.
func (c *CLI) runServe(ctx context.Context, addr string, opts pipeline.Options, noCache bool) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	observability.NewPrometheusHooks(registry).Register()
	defer observability.Reset()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := server.New(runner, c.Logger, server.Config{
		Addr:         addr,
		MaxBodyBytes: c.Config().Server.MaxBodyBytes,
		Defaults:     opts,
		Gatherer:     registry,
	})

	printInfo("Serving on %s", StyleHighlight.Render(addr))
	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	printSuccess("Server stopped")
	return nil
}
