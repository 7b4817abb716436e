package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/ctxindex/internal/config"
	"github.com/Aman-CERP/ctxindex/internal/logging"
	"github.com/Aman-CERP/ctxindex/internal/mcp"
	"github.com/Aman-CERP/ctxindex/internal/telemetry"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		transport   string
		metricsAddr string
		noWatch     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the Model Context Protocol server over stdio.

stdout carries JSON-RPC only; logs go to ~/.ctxindex/logs/server.log.
The config file is watched and indexes are rebuilt when it changes.
With --metrics-addr, Prometheus metrics are served at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return opts.runServe(ctx, transport, metricsAddr, !noWatch)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "MCP transport (stdio)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (default: server.metrics_addr)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload indexes when the config file changes")

	return cmd
}

func (o *rootOptions) runServe(ctx context.Context, transport, metricsAddr string, watch bool) error {
	cfg, _, err := o.loadConfig()
	if err != nil {
		return err
	}

	level := cfg.Server.LogLevel
	if o.debug {
		level = "debug"
	}
	logger, cleanup, err := logging.Setup(logging.ServerConfig(level))
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	a, err := o.openApp(logger)
	if err != nil {
		logger.Error("startup failed", slog.String("error", err.Error()))
		return err
	}
	defer func() { _ = a.Close() }()

	srv, err := mcp.NewServer(a.resolver, a.registry, a.store, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if watch {
		go a.watchConfig(ctx)
	}

	if metricsAddr == "" {
		metricsAddr = a.cfg.Server.MetricsAddr
	}
	if metricsAddr != "" {
		ln, err := net.Listen("tcp", metricsAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", metricsAddr, err)
		}
		go serveMetrics(ctx, ln, a.metrics, logger)
	}

	return srv.Serve(ctx, transport)
}

// watchConfig reloads the registry on config changes until ctx is done.
func (a *app) watchConfig(ctx context.Context) {
	err := a.registry.Watch(ctx, a.cfgPath, a.cfg.WatchDebounce(), config.LoadFile, a.metrics.ObserveReload)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn("config watcher stopped",
			slog.String("path", a.cfgPath),
			slog.String("error", err.Error()))
	}
}

// serveMetrics serves /metrics on ln until ctx is done.
func serveMetrics(ctx context.Context, ln net.Listener, m *telemetry.Metrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", slog.String("addr", ln.Addr().String()))
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", slog.String("error", err.Error()))
	}
}
