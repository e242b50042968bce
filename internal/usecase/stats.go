package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/entity"
)

type StatsUseCase struct {
	Repo   entity.LeadRepository
	Cache  StatsCache
	Logger *zap.Logger
	Now    func() time.Time
}

func NewStatsUseCase(repo entity.LeadRepository, cache StatsCache, logger *zap.Logger) *StatsUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsUseCase{Repo: repo, Cache: cache, Logger: logger, Now: time.Now}
}

// Execute returns the dashboard aggregate, served from cache when fresh.
// Cache failures only cost a store round trip.
func (uc *StatsUseCase) Execute(ctx context.Context) (*entity.Stats, error) {
	if cached, err := uc.Cache.Get(ctx); err != nil {
		uc.Logger.Warn("stats cache read failed", zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	now := uc.Now()
	stats, err := uc.Repo.Stats(ctx, WeekStart(now), MonthStart(now))
	if err != nil {
		return nil, storeError("stats", err)
	}

	if err := uc.Cache.Set(ctx, stats); err != nil {
		uc.Logger.Warn("stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

// WeekStart is midnight of the Monday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
