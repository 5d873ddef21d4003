// Package schedule runs ingest-all on a cron spec. It is off unless a spec is configured.
package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/anatolykoptev/go_careerlift/internal/ingest"
)

// Batcher is the part of the orchestrator the scheduler drives.
type Batcher interface {
	IngestAll(ctx context.Context, limitPerSource int) ingest.Report
}

// Scheduler wraps robfig/cron around one ingest-all job.
type Scheduler struct {
	cron  *cron.Cron
	spec  string
	limit int
	b     Batcher
}

// New validates spec and returns a stopped Scheduler. Overlapping runs are skipped.
func New(spec string, limitPerSource int, b Batcher) (*Scheduler, error) {
	logger := slogLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse INGEST_SCHEDULE %q: %w", spec, err)
	}
	return &Scheduler{cron: c, spec: spec, limit: limitPerSource, b: b}, nil
}

// Start registers the job and starts the cron loop. ctx bounds every run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	slog.Info("schedule: ingest-all enabled", slog.String("spec", s.spec), slog.Int("limit_per_source", s.limit))
	return nil
}

// Stop halts scheduling and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("schedule: stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	rep := s.b.IngestAll(ctx, s.limit)
	slog.Info("schedule: ingest-all finished",
		slog.Int("total_ingested", rep.TotalCreated),
		slog.Any("by_source", rep.BySource))
}

// slogLogger adapts cron's logger interface to slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
