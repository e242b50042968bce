package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/leadbase/internal/entity"
	"github.com/xavierca1/leadbase/internal/infra/memstore"
	"github.com/xavierca1/leadbase/internal/infra/queue"
)

var errStoreDown = errors.New("connection refused")

// MockQueueProducer
type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishIngestion(ctx context.Context, payload queue.IngestionPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// MockStatsCache
type MockStatsCache struct {
	mock.Mock
}

func (m *MockStatsCache) Get(ctx context.Context) (*entity.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Stats), args.Error(1)
}

func (m *MockStatsCache) Set(ctx context.Context, stats *entity.Stats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStatsCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockLeadFinder
type MockLeadFinder struct {
	mock.Mock
}

func (m *MockLeadFinder) FindByEmails(ctx context.Context, emails []string) ([]entity.Lead, error) {
	args := m.Called(ctx, emails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

// brokenRepo fails every write while reads keep working.
type brokenRepo struct {
	*memstore.LeadRepository
}

func (brokenRepo) UpsertLeads(context.Context, []entity.Lead, string) (entity.UpsertResult, error) {
	return entity.UpsertResult{}, errStoreDown
}

func (brokenRepo) Stats(context.Context, time.Time, time.Time) (*entity.Stats, error) {
	return nil, errStoreDown
}

func (brokenRepo) DeleteAll(context.Context) (int64, error) {
	return 0, errStoreDown
}

var testNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func newMemRepo() *memstore.LeadRepository {
	r := memstore.NewLeadRepository()
	r.Now = func() time.Time { return testNow }
	return r
}
