package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/bootstrap"
	"github.com/xavierca1/leadbase/internal/config"
	"github.com/xavierca1/leadbase/internal/infra/http/handlers"
	"github.com/xavierca1/leadbase/internal/infra/http/middleware"
	"github.com/xavierca1/leadbase/internal/infra/mail"
	"github.com/xavierca1/leadbase/internal/infra/notify"
	"github.com/xavierca1/leadbase/internal/infra/queue"
	"github.com/xavierca1/leadbase/internal/infra/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, cfgErr := config.Load()
	var missing *config.ConfigError
	if cfgErr != nil && !errors.As(cfgErr, &missing) {
		return cfgErr
	}

	logger, err := bootstrap.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var router http.Handler
	if missing != nil {
		// Keep serving so the operator sees what is missing instead of a crash loop.
		logger.Error("store credentials missing, serving setup-required responses",
			zap.Strings("missing", missing.Missing))
		router = handlers.NewRouter(handlers.Routes{
			Health:         handlers.NewHealthHandler(nil, missing.Missing),
			Logger:         logger.Named("http"),
			AllowedOrigins: cfg.AllowedOrigins,
			Missing:        missing.Missing,
		})
	} else {
		app, err := bootstrap.Open(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		router = buildRouter(ctx, app)
		startWorkers(ctx, app)
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("leadbase api listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildRouter(ctx context.Context, app *bootstrap.App) http.Handler {
	app.Ingest.Metrics = middleware.IngestionMetrics{}

	limiter := middleware.NewRateLimiter(app.Config.UploadsPerMinute, time.Minute)
	go limiter.Janitor(ctx, 10*time.Minute)

	return handlers.NewRouter(handlers.Routes{
		Upload:         handlers.NewUploadHandler(app.Ingest, app.Logger),
		Leads:          handlers.NewLeadHandler(app.Search, app.Manage, app.Logger),
		Export:         handlers.NewExportHandler(app.Export, app.Logger),
		Dashboard:      handlers.NewDashboardHandler(app.Manage, app.Stats, app.Logger),
		Health:         handlers.NewHealthHandler(app.Checks(), nil),
		Logger:         app.Logger.Named("http"),
		Limiter:        limiter,
		AllowedOrigins: app.Config.AllowedOrigins,
	})
}

func startWorkers(ctx context.Context, app *bootstrap.App) {
	retention := worker.NewHistoryRetentionWorker(app.Ingestions, app.Config.HistoryRetention, app.Logger.Named("retention"))
	go retention.Start(ctx)

	if app.Rabbit == nil {
		return
	}

	var notifiers notify.Fanout
	if smtp := app.Config.SMTP; smtp.Enabled() {
		notifiers = append(notifiers, mail.NewSummarySender(smtp.Host, smtp.Port, smtp.User, smtp.Password, smtp.From, smtp.Recipients))
	}
	if app.Config.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookClient(app.Config.WebhookURL, app.Config.WebhookToken, app.Logger.Named("webhook")))
	}
	if len(notifiers) == 0 {
		return
	}

	w := queue.NewWorker(app.Rabbit.Ch, notifiers, app.Logger.Named("summary"))
	go func() {
		if err := w.Start(ctx, queue.QueueName); err != nil {
			app.Logger.Error("summary worker stopped", zap.Error(err))
		}
	}()
}
