// Package jobs wires the background work of the credit ledger: the periodic
// overdue sweep and its queue plumbing.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/abasto-pos/abasto-pos/internal/sales"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCreditOverdueSweep marks missed credit payments overdue.
	TaskCreditOverdueSweep = "credit:overdue_sweep"
)

// NewOverdueSweepTask constructs the sweep task. The payload is empty: the
// sweep always evaluates against the wall clock at processing time, so a
// stale queue entry cannot sweep against an old cutoff.
func NewOverdueSweepTask() *asynq.Task {
	return asynq.NewTask(TaskCreditOverdueSweep, nil)
}

// OverdueSweeper is the ledger operation the sweep task drives.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) (*sales.SweepReport, error)
}

// NewOverdueSweepHandler builds the asynq handler for the sweep task. The
// sweep is idempotent, so a retried task is harmless.
func NewOverdueSweepHandler(sweeper OverdueSweeper, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		report, err := sweeper.SweepOverdue(ctx, time.Now())
		if err != nil {
			logger.Error("overdue sweep failed", slog.Any("error", err))
			return err
		}
		logger.Info("overdue sweep completed",
			slog.Int("scanned", report.Scanned),
			slog.Int("marked_overdue", report.MarkedOverdue),
			slog.Int("failed", report.Failed))
		return nil
	}
}
