package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/julianshen/unityctx/internal/analysis"
	"github.com/julianshen/unityctx/internal/store"
)

// tracker follows one request through the stage machine and records the
// final state.
type tracker struct {
	svc      *Service
	ctx      context.Context
	id       string
	kind     analysis.Kind
	target   string
	stage    analysis.Stage
	start    time.Time
	exitCode int
	logger   *slog.Logger
}

func (s *Service) track(ctx context.Context, id string, req analysis.Request) *tracker {
	t := &tracker{
		svc:      s,
		ctx:      ctx,
		id:       id,
		stage:    analysis.StageReceived,
		start:    time.Now(),
		exitCode: -1,
	}
	if req != nil {
		t.kind = req.Kind()
		t.target = req.Target()
	}
	t.logger = s.logger.With("run_id", id, "kind", t.kind, "target", t.target)
	t.logger.Info("stage", "stage", t.stage)
	return t
}

func (t *tracker) advance(to analysis.Stage) {
	if !analysis.CanTransition(t.stage, to) {
		t.logger.Error("illegal stage transition", "from", t.stage, "to", to)
	}
	t.stage = to
	t.logger.Info("stage", "stage", to)
}

// reject ends a request that failed validation. Errors that are not about
// the request itself are treated as failures.
func (t *tracker) reject(err error) error {
	switch analysis.KindOf(err) {
	case analysis.InvalidRequest, analysis.PathNotFound:
		t.advance(analysis.StageRejected)
		t.logger.Info("request rejected", "error", err)
		t.record(err)
		return err
	}
	return t.fail(err)
}

func (t *tracker) fail(err error) error {
	t.advance(analysis.StageFailed)
	t.logger.Warn("request failed", "error_kind", analysis.KindOf(err), "error", err)
	t.record(err)
	return err
}

func (t *tracker) finish() {
	t.record(nil)
}

func (t *tracker) record(err error) {
	d := time.Since(t.start)
	t.svc.metrics.ObserveRun(string(t.kind), string(t.stage), d)
	if t.svc.ledger == nil {
		return
	}
	run := store.Run{
		ID:        t.id,
		Kind:      string(t.kind),
		Target:    t.target,
		Stage:     string(t.stage),
		ExitCode:  t.exitCode,
		Duration:  d.Milliseconds(),
		StartedAt: t.start,
	}
	if err != nil {
		run.Error = err.Error()
	}
	// Canceled requests are still recorded.
	if lerr := t.svc.ledger.Record(context.WithoutCancel(t.ctx), run); lerr != nil {
		t.logger.Warn("recording run failed", "error", lerr)
	}
}
