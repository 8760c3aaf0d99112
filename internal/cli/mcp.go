package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	eismcp "github.com/valter-silva-au/eisenhower/internal/mcp"
)

var mcpMetricsAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the eis MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the eis MCP server on stdio",
	Long: `Start the eis MCP server on stdio transport.

The server holds one task session and exposes it as MCP tools that AI
assistants can call: add_task, list_tasks, get_matrix, delete_task,
clear_tasks, reclassify, get_metrics.

With --metrics-addr (or observability.metrics_addr), Prometheus metrics are
also served over HTTP at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("engine not initialized")
		}

		var summary eismcp.MetricsSummary
		if Metrics != nil {
			summary = Metrics
		}
		srv := eismcp.NewServer(Engine, summary, appVersion)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		addr := mcpMetricsAddr
		if addr == "" && Config != nil {
			addr = Config.Observability.MetricsAddr
		}
		if addr != "" && Metrics != nil {
			shutdown := serveMetrics(addr)
			defer shutdown()
		}

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

// serveMetrics starts the /metrics endpoint in the background and returns a
// function that stops it.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Metrics.Handler())
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "warning: metrics endpoint on %s stopped: %s\n", addr, err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(ctx)
	}
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
