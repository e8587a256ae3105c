// Package pipeline runs one analysis request through build, invoke,
// aggregate, and synthesize. Both front-ends share it and only translate
// their wire shapes to and from Request and Result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/julianshen/unityctx/internal/analysis"
	"github.com/julianshen/unityctx/internal/artifact"
	"github.com/julianshen/unityctx/internal/invoke"
	"github.com/julianshen/unityctx/internal/logging"
	"github.com/julianshen/unityctx/internal/metrics"
	"github.com/julianshen/unityctx/internal/runner"
	"github.com/julianshen/unityctx/internal/store"
	"github.com/julianshen/unityctx/internal/synth"
	"github.com/julianshen/unityctx/internal/workspace"
)

// ProcessRunner executes one analyzer invocation.
type ProcessRunner interface {
	Run(ctx context.Context, spec runner.Spec) (runner.Outcome, error)
}

// Ledger persists finished runs.
type Ledger interface {
	Record(ctx context.Context, r store.Run) error
	List(ctx context.Context, limit int) ([]store.Run, error)
}

// Result is a successful analysis.
type Result struct {
	RunID    string
	Kind     analysis.Kind
	Target   string
	Bundle   *artifact.Bundle
	Context  string
	Stdout   string
	Duration time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithRunner replaces the process runner.
func WithRunner(r ProcessRunner) Option {
	return func(s *Service) { s.runner = r }
}

// WithLedger records every run in l.
func WithLedger(l Ledger) Option {
	return func(s *Service) { s.ledger = l }
}

// WithMetrics reports runs to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMaxConcurrent bounds how many analyzer processes run at once.
func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		if n < 1 {
			n = 1
		}
		s.sem = semaphore.NewWeighted(int64(n))
	}
}

// Service is the shared request pipeline.
type Service struct {
	builder    *invoke.Builder
	workspaces *workspace.Manager
	runner     ProcessRunner
	sem        *semaphore.Weighted
	ledger     Ledger
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates a Service. Without options it runs at most two analyzers at
// once and keeps no ledger.
func New(b *invoke.Builder, ws *workspace.Manager, opts ...Option) *Service {
	s := &Service{
		builder:    b,
		workspaces: ws,
		runner:     runner.New(),
		sem:        semaphore.NewWeighted(2),
		logger:     logging.New("pipeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs req to completion. Failures before or during invocation are
// returned as *analysis.Error; aggregation and synthesis never fail.
func (s *Service) Analyze(ctx context.Context, req analysis.Request) (*Result, error) {
	t := s.track(ctx, uuid.NewString(), req)
	if err := analysis.Validate(req); err != nil {
		return nil, t.reject(err)
	}

	ws, err := s.workspaces.AllocateID(t.id)
	if err != nil {
		return nil, t.fail(analysis.Wrap(analysis.Internal, err, "allocating working directory"))
	}

	inv, err := s.builder.Build(req, ws.Dir)
	if err != nil {
		s.discard(ws)
		return nil, t.reject(err)
	}
	defer func() {
		if err := inv.Close(); err != nil {
			t.logger.Warn("removing snippet file failed", "error", err)
		}
	}()
	t.advance(analysis.StageValidated)

	outcome, err := s.invoke(ctx, inv)
	if err != nil {
		s.discard(ws)
		return nil, t.fail(err)
	}
	if outcome.State == runner.Completed {
		t.exitCode = outcome.ExitCode
	}

	switch {
	case outcome.State == runner.LaunchFailed:
		s.discard(ws)
		return nil, t.fail(analysis.Errorf(analysis.LaunchFailed, "could not start analyzer: %s", outcome.Reason))
	case outcome.State == runner.Canceled:
		s.discard(ws)
		return nil, t.fail(analysis.Errorf(analysis.Canceled, "analysis canceled"))
	case outcome.State == runner.TimedOut:
		s.discard(ws)
		return nil, t.fail(analysis.Errorf(analysis.TimedOut, "analysis timed out (%s)", formatBudget(inv.Timeout())))
	case !outcome.Succeeded():
		s.release(ws, t.logger)
		e := analysis.Errorf(analysis.AnalyzerExit, "analyzer exited with code %d", outcome.ExitCode)
		e.Detail = outcome.Stderr
		e.Stdout = outcome.Stdout
		return nil, t.fail(e)
	}
	t.advance(analysis.StageInvoked)

	bundle := artifact.Collect(ws.Dir)
	t.logger.Debug("artifacts collected", "count", bundle.Len())
	t.advance(analysis.StageAggregated)

	text := s.synthesize(req, inv, bundle, outcome.Stdout, t.logger)
	t.advance(analysis.StageSynthesized)

	s.release(ws, t.logger)
	t.advance(analysis.StageResponded)
	t.finish()

	return &Result{
		RunID:    t.id,
		Kind:     req.Kind(),
		Target:   req.Target(),
		Bundle:   bundle,
		Context:  text,
		Stdout:   outcome.Stdout,
		Duration: time.Since(t.start),
	}, nil
}

// invoke waits for an analyzer slot and runs the child.
func (s *Service) invoke(ctx context.Context, inv *invoke.Invocation) (runner.Outcome, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return runner.Outcome{}, analysis.Wrap(analysis.Canceled, err, "waiting for analyzer slot")
	}
	defer s.sem.Release(1)

	done := s.metrics.AnalyzerStarted()
	defer done()

	outcome, err := s.runner.Run(ctx, inv)
	if err != nil {
		return outcome, analysis.Wrap(analysis.Canceled, err, "analysis canceled")
	}
	return outcome, nil
}

// synthesize renders the report. Only Completed exit-0 outcomes get here.
func (s *Service) synthesize(req analysis.Request, inv *invoke.Invocation, b *artifact.Bundle, stdout string, logger *slog.Logger) string {
	switch r := req.(type) {
	case analysis.Project:
		return synth.Project(synth.Target{Name: r.Dir, APIUsage: synth.ExtractAPIUsage(stdout)}, b)
	case analysis.InlineSnippet:
		return synth.SingleTarget(synth.Target{Name: r.Target(), Source: r.Code}, b)
	default:
		src, err := os.ReadFile(inv.SourcePath())
		if err != nil {
			logger.Warn("reading source for excerpt failed", "error", err)
		}
		return synth.SingleTarget(synth.Target{Name: filepath.Base(inv.SourcePath()), Source: string(src)}, b)
	}
}

func (s *Service) release(ws *workspace.Workspace, logger *slog.Logger) {
	if err := s.workspaces.Release(ws); err != nil {
		logger.Warn("releasing working directory failed", "error", err)
	}
}

func (s *Service) discard(ws *workspace.Workspace) {
	if err := s.workspaces.Discard(ws); err != nil {
		s.logger.Warn("discarding working directory failed", "run_id", ws.ID, "error", err)
	}
}

// formatBudget prints whole minutes as "2m" and everything else as
// time.Duration does.
func formatBudget(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		return fmt.Sprintf("%dm", d/time.Minute)
	}
	return d.String()
}

// Runs lists recent ledger entries, newest first. Without a ledger it
// returns nothing.
func (s *Service) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	if s.ledger == nil {
		return nil, nil
	}
	return s.ledger.List(ctx, limit)
}

// RunDir resolves a retained run's working directory. An empty id selects
// the most recent run.
func (s *Service) RunDir(runID string) (string, error) {
	var (
		ws  *workspace.Workspace
		err error
	)
	if runID == "" {
		ws, err = s.workspaces.Latest()
	} else {
		if _, perr := uuid.Parse(runID); perr != nil {
			return "", analysis.Errorf(analysis.InvalidRequest, "invalid run id %q", runID)
		}
		ws, err = s.workspaces.Lookup(runID)
	}
	if errors.Is(err, workspace.ErrEmpty) || errors.Is(err, os.ErrNotExist) {
		return "", analysis.Errorf(analysis.NoArtifacts, "no analysis results found")
	}
	if err != nil {
		return "", analysis.Wrap(analysis.Internal, err, "locating run")
	}
	return ws.Dir, nil
}

// WriteArchive exports a retained run into a temporary zip under tempDir.
// The caller owns the returned file.
func (s *Service) WriteArchive(runID, tempDir string) (string, error) {
	dir, err := s.RunDir(runID)
	if err != nil {
		return "", err
	}
	return artifact.WriteArchive(dir, tempDir)
}
