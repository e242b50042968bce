package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// SummaryNotifier is told about every committed ingestion.
type SummaryNotifier interface {
	SendIngestionSummary(ctx context.Context, payload IngestionPayload) error
}

type Worker struct {
	Channel  *amqp.Channel
	Notifier SummaryNotifier
	Logger   *zap.Logger
}

func NewWorker(ch *amqp.Channel, notifier SummaryNotifier, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		Channel:  ch,
		Notifier: notifier,
		Logger:   logger,
	}
}

// Start registers the consumer and blocks until ctx is done or the
// delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.ConsumeWithContext(ctx,
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	w.Logger.Info("worker waiting for messages", zap.String("queue", queueName))
	w.Run(ctx, msgs)
	return nil
}

func (w *Worker) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				return
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var payload IngestionPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		// Malformed messages go straight to the DLQ.
		w.Logger.Error("invalid ingestion payload", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	log := w.Logger.With(
		zap.String("ingestion_id", payload.IngestionID),
		zap.String("campaign", payload.Campaign),
	)

	if err := w.Notifier.SendIngestionSummary(ctx, payload); err != nil {
		log.Error("ingestion summary failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	log.Info("ingestion summary sent", zap.Int("new_rows", payload.NewRows))
	_ = d.Ack(false)
}
