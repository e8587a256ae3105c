package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/julianshen/unityctx/internal/httpapi"
	"github.com/julianshen/unityctx/internal/logging"
	mcpserver "github.com/julianshen/unityctx/internal/mcp"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

func serveMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the analysis tools over MCP (stdio)",
		Long: `Starts an MCP server over stdin/stdout exposing analyze_unity_file,
analyze_unity_project, get_unity_api_patterns and generate_llm_context.

The server monitors its parent process. When the MCP client exits, the
server shuts down instead of lingering.`,
		Args: cobra.NoArgs,
		RunE: runServeMCP,
	}
}

func runServeMCP(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, mcpserver.DefaultWatchInterval, cancel)

	srv := mcpserver.NewServer(a.svc, version)
	logging.New("mcp").Info("starting MCP server over stdio", "analyzer", cfg.Analyzer.Path)
	err = srv.Run(ctx, &sdkmcp.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serveHTTPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-http",
		Short: "Serve the analysis pipeline as a JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeHTTP,
	}
	cmd.Flags().String("addr", "", "listen address (overrides http.addr)")
	return cmd
}

func runServeHTTP(cmd *cobra.Command, _ []string) error {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.HTTP.Addr = addr
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	api := httpapi.NewServer(a.svc,
		httpapi.WithMetrics(a.metrics),
		httpapi.WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.Burst),
		httpapi.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
	)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serveUntilDone(ctx, srv)
}

// serveUntilDone runs srv until ctx is canceled or the listener fails,
// then shuts it down gracefully.
func serveUntilDone(ctx context.Context, srv *http.Server) error {
	logger := logging.New("http")
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
