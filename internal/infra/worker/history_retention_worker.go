package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/entity"
)

// HistoryRetentionWorker prunes ingestion history older than the
// retention window on every tick.
type HistoryRetentionWorker struct {
	repo         entity.IngestionRepository
	logger       *zap.Logger
	retention    time.Duration
	tickInterval time.Duration
	now          func() time.Time
}

func NewHistoryRetentionWorker(repo entity.IngestionRepository, retention time.Duration, logger *zap.Logger) *HistoryRetentionWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryRetentionWorker{
		repo:         repo,
		logger:       logger,
		retention:    retention,
		tickInterval: time.Hour,
		now:          time.Now,
	}
}

// Start blocks until ctx is cancelled. A zero retention disables pruning.
func (w *HistoryRetentionWorker) Start(ctx context.Context) {
	if w.retention <= 0 {
		w.logger.Info("history retention disabled")
		return
	}

	w.logger.Info("history retention worker started", zap.Duration("retention", w.retention))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("history retention worker stopped")
			return
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

func (w *HistoryRetentionWorker) prune(ctx context.Context) {
	cutoff := w.now().Add(-w.retention)

	n, err := w.repo.Prune(ctx, cutoff)
	if err != nil {
		w.logger.Error("failed to prune ingestion history", zap.Error(err))
		return
	}
	if n > 0 {
		w.logger.Info("ingestion history pruned", zap.Int64("removed", n), zap.Time("cutoff", cutoff))
	}
}
