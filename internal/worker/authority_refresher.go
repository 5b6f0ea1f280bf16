package worker

import (
	"context"
	"log/slog"
	"time"

	"retrieval-planner/internal/domain"
	"retrieval-planner/internal/infra/logger"
	"retrieval-planner/internal/infra/metrics"
)

const (
	defaultRefreshInterval = 5 * time.Minute
	refreshTimeout         = 30 * time.Second
)

// AuthorityRefresher periodically reloads domain authority scores from
// storage into the in-memory table. Operator edits to the domain_authority
// table take effect within one interval without a restart. A failed refresh
// keeps the previous snapshot.
type AuthorityRefresher struct {
	repo     domain.AuthorityRepository
	table    *domain.AuthorityTable
	interval time.Duration
	logger   *slog.Logger
	stopChan chan struct{}
}

func NewAuthorityRefresher(
	repo domain.AuthorityRepository,
	table *domain.AuthorityTable,
	interval time.Duration,
	log *slog.Logger,
) *AuthorityRefresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return &AuthorityRefresher{
		repo:     repo,
		table:    table,
		interval: interval,
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

func (w *AuthorityRefresher) Start() {
	w.logger.Info("Starting AuthorityRefresher", "interval", w.interval.String())
	go w.run()
}

func (w *AuthorityRefresher) Stop() {
	w.logger.Info("Stopping AuthorityRefresher")
	close(w.stopChan)
}

func (w *AuthorityRefresher) run() {
	// Load once at startup so the built-in seeds are replaced promptly.
	w.RefreshOnce()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.RefreshOnce()
		}
	}
}

// RefreshOnce loads the score table and swaps it in. Exposed for the CLI.
func (w *AuthorityRefresher) RefreshOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	ctx = logger.WithStage(ctx, "authority_refresh")

	scores, err := w.repo.ListDomainScores(ctx)
	if err != nil {
		metrics.AuthorityRefreshes.WithLabelValues("error").Inc()
		w.logger.Error("authority_refresh_failed", "error", err)
		return
	}
	if len(scores) == 0 {
		// An empty table means nothing was provisioned yet; keep the seeds.
		metrics.AuthorityRefreshes.WithLabelValues("empty").Inc()
		w.logger.Warn("authority_refresh_empty_table")
		return
	}

	w.table.Replace(scores)
	metrics.AuthorityRefreshes.WithLabelValues("ok").Inc()
	metrics.AuthorityTableSize.Set(float64(len(scores)))
	w.logger.Info("authority_table_refreshed", "domain_count", len(scores))
}
