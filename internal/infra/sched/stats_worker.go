package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"intake-review/internal/domain/model"
	"intake-review/internal/infra/metrics"
)

const statsJob = "application_stats"

// StatsSource yields the current application aggregate. usecase.ApplicationUseCase satisfies it.
type StatsSource interface {
	Stats(ctx context.Context) (*model.ApplicationStats, error)
}

// PoolStatsFunc reports connection pool usage; nil for backends without a pool.
type PoolStatsFunc func() (total, idle, inUse int32)

// StatsWorker periodically publishes review-queue gauges and pool stats.
type StatsWorker struct {
	interval time.Duration
	source   StatsSource
	pool     PoolStatsFunc
	log      *zerolog.Logger
}

func NewStatsWorker(interval time.Duration, source StatsSource, pool PoolStatsFunc, logger *zerolog.Logger) *StatsWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "StatsWorker").Logger()
	return &StatsWorker{interval: interval, source: source, pool: pool, log: &l}
}

// Run publishes once immediately, then every interval until ctx is cancelled.
func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting stats worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one publication bounded by the interval.
func (w *StatsWorker) Tick(ctx context.Context) error {
	if w.pool != nil {
		metrics.SetPostgresPool(w.pool())
	}

	runCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()
	st, err := w.source.Stats(runCtx)
	if err != nil {
		metrics.IncJob(statsJob, "failed")
		w.log.Error().Err(err).Msg("stats worker error")
		return err
	}
	for _, s := range []model.ApplicationStatus{model.StatusSubmitted, model.StatusApproved, model.StatusRejected} {
		metrics.SetApplicationStatus(s.String(), st.ByStatus[s])
	}
	metrics.SetApplicationsUnread(st.Unread)
	metrics.IncJob(statsJob, "ok")
	w.log.Debug().Int("total", st.Total).Int("unread", st.Unread).Msg("application stats published")
	return nil
}
