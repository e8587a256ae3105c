package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/julianshen/unityctx/internal/config"
	"github.com/julianshen/unityctx/internal/invoke"
	"github.com/julianshen/unityctx/internal/logging"
	"github.com/julianshen/unityctx/internal/metrics"
	"github.com/julianshen/unityctx/internal/pipeline"
	"github.com/julianshen/unityctx/internal/store"
	"github.com/julianshen/unityctx/internal/workspace"
)

// app holds the shared pipeline and the resources behind it.
type app struct {
	svc     *pipeline.Service
	ledger  *store.Store
	metrics *metrics.Metrics
}

// defaultLedgerDSN returns ~/.config/unityctx/runs.db.
func defaultLedgerDSN() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "unityctx", "runs.db"), nil
}

// openLedger opens the configured run ledger.
func openLedger(c config.StoreConfig) (*store.Store, error) {
	dsn := c.DSN
	if dsn == "" {
		var err error
		if dsn, err = defaultLedgerDSN(); err != nil {
			return nil, err
		}
	}
	return store.NewStore(dsn)
}

// newApp wires the pipeline from c. A ledger that cannot be opened is
// logged and skipped: runs still work without history.
func newApp(c *config.Config) (*app, error) {
	b, err := invoke.NewBuilder(c.Analyzer)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}

	root := c.Workspace.Root
	if root == "" {
		root = filepath.Join(os.TempDir(), "unityctx")
	}
	ws, err := workspace.NewManager(root, c.Workspace.Retain)
	if err != nil {
		return nil, err
	}

	a := &app{metrics: metrics.New()}
	opts := []pipeline.Option{
		pipeline.WithMetrics(a.metrics),
		pipeline.WithMaxConcurrent(c.Analyzer.MaxConcurrent),
	}

	ledger, err := openLedger(c.Store)
	if err != nil {
		logging.New("cli").Warn("run ledger unavailable, runs will not be recorded", slog.Any("error", err))
	} else {
		a.ledger = ledger
		opts = append(opts, pipeline.WithLedger(ledger))
	}

	a.svc = pipeline.New(b, ws, opts...)
	return a, nil
}

func (a *app) Close() error {
	if a.ledger == nil {
		return nil
	}
	return a.ledger.Close()
}
