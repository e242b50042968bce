package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// IngestionPayload is published once an upload has been committed.
type IngestionPayload struct {
	EventID       string    `json:"event_id"`
	IngestionID   string    `json:"ingestion_id"`
	Filename      string    `json:"filename"`
	Campaign      string    `json:"campaign"`
	EmailColumn   string    `json:"email_column"`
	TotalRows     int       `json:"total_rows"`
	NewRows       int       `json:"new_rows"`
	DuplicateRows int       `json:"duplicate_rows"`
	InvalidRows   int       `json:"invalid_rows"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher is the subset of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishIngestion(ctx context.Context, payload IngestionPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal ingestion payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    payload.EventID,
			Timestamp:    payload.OccurredAt,
			Type:         EventIngestionCompleted,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}
	return nil
}

// NoopProducer is used when no broker is configured.
type NoopProducer struct{}

func (NoopProducer) PublishIngestion(context.Context, IngestionPayload) error { return nil }
