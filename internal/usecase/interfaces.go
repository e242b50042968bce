package usecase

import (
	"context"

	"github.com/xavierca1/leadbase/internal/entity"
	"github.com/xavierca1/leadbase/internal/infra/queue"
)

type QueueProducerInterface interface {
	PublishIngestion(ctx context.Context, payload queue.IngestionPayload) error
}

// StatsCache holds the dashboard aggregate between mutations.
// Get returns (nil, nil) on a miss.
type StatsCache interface {
	Get(ctx context.Context) (*entity.Stats, error)
	Set(ctx context.Context, stats *entity.Stats) error
	Invalidate(ctx context.Context) error
}

// IngestionRecorder receives per-row outcome counts for metrics.
type IngestionRecorder interface {
	RecordIngestion(newRows, duplicateRows, invalidRows int)
}

type noopCache struct{}

func (noopCache) Get(context.Context) (*entity.Stats, error) { return nil, nil }
func (noopCache) Set(context.Context, *entity.Stats) error   { return nil }
func (noopCache) Invalidate(context.Context) error           { return nil }

type noopRecorder struct{}

func (noopRecorder) RecordIngestion(int, int, int) {}
