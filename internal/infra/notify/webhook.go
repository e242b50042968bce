// Package notify delivers ingestion summaries to chat webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadbase/internal/infra/queue"
)

// WebhookClient posts a Slack-compatible {"text": ...} message per ingestion.
type WebhookClient struct {
	url        string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewWebhookClient(url, token string, logger *zap.Logger) *WebhookClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookClient{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type webhookMessage struct {
	Text        string                 `json:"text"`
	IngestionID string                 `json:"ingestion_id"`
	Summary     queue.IngestionPayload `json:"summary"`
}

func (c *WebhookClient) SendIngestionSummary(ctx context.Context, payload queue.IngestionPayload) error {
	if c.url == "" {
		return fmt.Errorf("webhook url not configured")
	}

	body, err := json.Marshal(webhookMessage{
		Text: fmt.Sprintf("%s: %d new, %d duplicates, %d invalid (%s)",
			payload.Campaign, payload.NewRows, payload.DuplicateRows, payload.InvalidRows, payload.Filename),
		IngestionID: payload.IngestionID,
		Summary:     payload,
	})
	if err != nil {
		return fmt.Errorf("encode webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	c.logger.Debug("ingestion summary posted", zap.String("ingestion_id", payload.IngestionID))
	return nil
}

// Fanout forwards each summary to every notifier. Every notifier is
// attempted; the first error is returned.
type Fanout []queue.SummaryNotifier

func (f Fanout) SendIngestionSummary(ctx context.Context, payload queue.IngestionPayload) error {
	var first error
	for _, n := range f {
		if err := n.SendIngestionSummary(ctx, payload); err != nil && first == nil {
			first = err
		}
	}
	return first
}
