package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/metrics"
	"github.com/KaramelBytes/tabula-cli/internal/server"
	"github.com/KaramelBytes/tabula-cli/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	serveData    datasetFlags
	serveRuntime runtimeOptions
	serveAddr    string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve the analysis API over HTTP",
	Long: `Serves POST /api/analyze, POST /api/analyze/batch, session endpoints,
GET /api/health and GET /metrics. An optional file becomes the default table
for requests that carry no rows.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ds *dataset.Dataset
		if len(args) == 1 {
			d, err := serveData.load(args[0])
			if err != nil {
				return err
			}
			ds = d
		}
		h, cleanup, err := newServeHandler(ds)
		if err != nil {
			return err
		}
		defer cleanup()

		addr := serveAddr
		if addr == "" {
			addr = cfg.ServerAddr
		}
		if addr == "" {
			addr = ":8787"
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           h.Router(serveOptions()),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on %s\n", addr)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		case <-ctx.Done():
		}
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// newServeHandler builds the API handler with its own metrics registry.
func newServeHandler(ds *dataset.Dataset) (*server.Handler, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	eng, cleanup, err := buildEngine(cfg, serveRuntime, metrics.New(reg))
	if err != nil {
		return nil, nil, err
	}
	return &server.Handler{
		Engine:           eng,
		Sessions:         session.NewBoundedStore(time.Duration(cfg.SessionIdleMin)*time.Minute, cfg.MaxSessions),
		Default:          ds,
		BatchConcurrency: cfg.BatchConcurrency,
		Gatherer:         reg,
		Logger:           logger,
	}, cleanup, nil
}

func serveOptions() server.Options {
	origins := serveOrigins
	if len(origins) == 0 {
		origins = cfg.AllowedOrigins
	}
	return server.Options{AllowedOrigins: origins}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveData.register(serveCmd)
	serveRuntime.register(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8787)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allowed-origin", nil, "CORS origin allowed to call the API (repeatable)")
}
