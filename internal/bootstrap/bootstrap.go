// Package bootstrap wires configuration into repositories, optional
// infrastructure and use cases. Both binaries share it.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/config"
	"github.com/xavierca1/leadbase/internal/entity"
	"github.com/xavierca1/leadbase/internal/infra/cache"
	"github.com/xavierca1/leadbase/internal/infra/database"
	"github.com/xavierca1/leadbase/internal/infra/http/handlers"
	"github.com/xavierca1/leadbase/internal/infra/memstore"
	"github.com/xavierca1/leadbase/internal/infra/queue"
	"github.com/xavierca1/leadbase/internal/usecase"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger

	Leads      entity.LeadRepository
	Ingestions entity.IngestionRepository
	Cache      usecase.StatsCache
	Producer   usecase.QueueProducerInterface

	DB     *sql.DB
	Redis  *redis.Client
	Rabbit *queue.RabbitMQ

	Ingest *usecase.IngestLeadsUseCase
	Search *usecase.SearchLeadsUseCase
	Export *usecase.ExportLeadsUseCase
	Manage *usecase.ManageLeadsUseCase
	Stats  *usecase.StatsUseCase
}

// Open connects the store and builds the use cases. Redis and RabbitMQ
// are optional: when unreachable the app runs without cache or events.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{Config: cfg, Logger: logger}

	if err := app.openStore(ctx); err != nil {
		return nil, err
	}
	app.openCache(ctx)
	app.openQueue()

	app.Ingest = usecase.NewIngestLeadsUseCase(app.Leads, app.Ingestions, app.Producer, app.Cache, logger)
	if cfg.UploadMaxBytes > 0 {
		app.Ingest.MaxBytes = cfg.UploadMaxBytes
	}
	app.Search = usecase.NewSearchLeadsUseCase(app.Leads)
	app.Export = usecase.NewExportLeadsUseCase(app.Leads, app.Cache, logger)
	app.Manage = usecase.NewManageLeadsUseCase(app.Leads, app.Ingestions, app.Cache, logger)
	app.Stats = usecase.NewStatsUseCase(app.Leads, app.Cache, logger)

	return app, nil
}

func (a *App) openStore(ctx context.Context) error {
	if a.Config.Store.Driver == config.DriverMemory {
		a.Logger.Warn("using in-memory store, data is lost on exit")
		a.Leads = memstore.NewLeadRepository()
		a.Ingestions = memstore.NewIngestionRepository()
		return nil
	}

	db, err := database.NewDBConnection(ctx, a.Config.Store.URL, a.Config.Store.AccessKey)
	if err != nil {
		return err
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("ensure schema: %w", err)
	}

	a.DB = db
	a.Leads = database.NewLeadRepository(db)
	a.Ingestions = database.NewIngestionRepository(db)
	a.Logger.Info("connected to postgres")
	return nil
}

func (a *App) openCache(ctx context.Context) {
	if a.Config.RedisURL == "" {
		return
	}
	rdb, err := cache.NewClient(ctx, a.Config.RedisURL)
	if err != nil {
		a.Logger.Warn("redis unavailable, stats cache disabled", zap.Error(err))
		return
	}
	a.Redis = rdb
	a.Cache = cache.NewStatsCache(rdb, a.Config.StatsTTL)
}

func (a *App) openQueue() {
	a.Producer = queue.NoopProducer{}
	if a.Config.AMQPURL == "" {
		return
	}
	rabbit, err := queue.NewRabbitMQ(a.Config.AMQPURL)
	if err != nil {
		a.Logger.Warn("rabbitmq unavailable, ingestion events disabled", zap.Error(err))
		return
	}
	a.Rabbit = rabbit
	a.Producer = queue.NewProducer(rabbit.Ch)
}

// Checks reports each configured dependency for the health endpoint.
func (a *App) Checks() map[string]handlers.Checker {
	checks := map[string]handlers.Checker{"store": nil, "cache": nil, "queue": nil}
	switch {
	case a.DB != nil:
		checks["store"] = a.DB.PingContext
	case a.Leads != nil:
		checks["store"] = func(context.Context) error { return nil }
	}
	if a.Redis != nil {
		checks["cache"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	if a.Rabbit != nil {
		checks["queue"] = func(context.Context) error { return a.Rabbit.Ping() }
	}
	return checks
}

func (a *App) Close() {
	if a.Rabbit != nil {
		if err := a.Rabbit.Close(); err != nil {
			a.Logger.Warn("closing rabbitmq", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("closing redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("closing database", zap.Error(err))
		}
	}
}
