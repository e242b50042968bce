package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xavierca1/leadbase/internal/entity"
)

type IngestionRepository struct {
	mu    sync.Mutex
	items []entity.Ingestion
}

func NewIngestionRepository() *IngestionRepository {
	return &IngestionRepository{}
}

func (r *IngestionRepository) Record(ctx context.Context, ing *entity.Ingestion) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *ing)
	return nil
}

func (r *IngestionRepository) List(ctx context.Context, limit int) ([]entity.Ingestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	out := append([]entity.Ingestion(nil), r.items...)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *IngestionRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.items[:0]
	var n int64
	for _, it := range r.items {
		if it.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, it)
	}
	r.items = kept
	return n, nil
}
