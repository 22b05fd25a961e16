// Package worker runs the periodic sweep when the deployment has no
// external scheduler hitting the auto-check endpoint.
package worker

import (
	"context"
	"time"

	"github.com/rmaulana/rh-tracker-api/internal/email"
	"github.com/rmaulana/rh-tracker-api/internal/service/sweep"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
)

type Sweeper struct {
	sweeper  *sweep.Service
	reporter *email.Service
	interval time.Duration
	logger   *logger.Logger
}

// NewSweeper builds a periodic sweeper. reporter may be nil when mail
// reporting is disabled.
func NewSweeper(service *sweep.Service, reporter *email.Service, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		sweeper:  service,
		reporter: reporter,
		interval: interval,
		logger:   log,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (w *Sweeper) Run(ctx context.Context) {
	w.logger.Info("sweeper started", "interval", w.interval.String())

	w.sweepOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			w.sweepOnce(ctx)
		}
	}
}

func (w *Sweeper) sweepOnce(ctx context.Context) {
	report, err := w.sweeper.RunFull(ctx)
	if err != nil {
		w.logger.Error(err, "sweep failed")
		return
	}

	w.logger.Info("sweep finished",
		"status_updated", report.StatusUpdated,
		"warning_sent", report.WarningSent,
		"expired_sent", report.ExpiredSent,
		"errors", len(report.Errors),
	)
	for _, e := range report.Errors {
		w.logger.Warn("sweep item error", "detail", e)
	}

	if w.reporter != nil && report.TotalNotifications+len(report.Errors) > 0 {
		if err := w.reporter.SendSweepSummary(report); err != nil {
			w.logger.Error(err, "failed to mail sweep summary")
		}
	}
}
