// Package jobs runs periodic ledger maintenance.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/splitledger/internal/ledger"
)

// Reconciler is the part of the ledger the scheduler drives.
type Reconciler interface {
	ReconcileAll(ctx context.Context, repair bool) ([]*ledger.ReconcileReport, error)
}

// Scheduler runs balance reconciliation on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	ledger  Reconciler
	repair  bool
	timeout time.Duration
}

// NewScheduler registers the reconciliation job. An empty schedule yields a
// scheduler with no jobs.
func NewScheduler(l Reconciler, schedule string, repair bool) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ledger:  l,
		repair:  repair,
		timeout: 5 * time.Minute,
	}
	if schedule == "" {
		return s, nil
	}
	if _, err := s.cron.AddFunc(schedule, s.RunReconcile); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	slog.Info("Reconciliation job scheduled", "schedule", schedule, "repair", repair)
	return s, nil
}

// RunReconcile performs one reconciliation pass.
func (s *Scheduler) RunReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	reports, err := s.ledger.ReconcileAll(ctx, s.repair)
	if err != nil {
		slog.Error("Reconciliation job failed", "error", err)
	}

	drifted := 0
	for _, r := range reports {
		if !r.Clean() {
			drifted++
		}
	}
	slog.Info("Reconciliation job finished",
		"groups", len(reports),
		"drifted_groups", drifted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
