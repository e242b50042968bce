package mail

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/leadbase/internal/infra/queue"
)

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var summaryTemplate = template.Must(template.New("summary").Parse(
	`Upload "{{.Filename}}" was added to campaign "{{.Campaign}}".

Rows read:        {{.TotalRows}}
New leads:        {{.NewRows}}
Duplicates:       {{.DuplicateRows}}
Invalid emails:   {{.InvalidRows}}

Processed at {{.OccurredAt.Format "2006-01-02 15:04 MST"}}.
`))

func NewSummarySender(host string, port int, user, password, from string, recipients []string) *SummarySender {
	return &SummarySender{
		From:       from,
		Recipients: recipients,
		Dialer:     gomail.NewDialer(host, port, user, password),
	}
}

// SendIngestionSummary mails the ingestion counts to every recipient.
func (s *SummarySender) SendIngestionSummary(ctx context.Context, payload queue.IngestionPayload) error {
	if len(s.Recipients) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := s.buildMessage(payload)
	if err != nil {
		return err
	}

	if err := s.Dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send summary email: %w", err)
	}
	return nil
}

func (s *SummarySender) buildMessage(payload queue.IngestionPayload) (*gomail.Message, error) {
	data := SummaryEmailData{
		Campaign:      payload.Campaign,
		Filename:      payload.Filename,
		TotalRows:     payload.TotalRows,
		NewRows:       payload.NewRows,
		DuplicateRows: payload.DuplicateRows,
		InvalidRows:   payload.InvalidRows,
		OccurredAt:    payload.OccurredAt,
	}

	var body bytes.Buffer
	if err := summaryTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render summary template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.Recipients...)
	m.SetHeader("Subject", fmt.Sprintf("%d new leads in %s", payload.NewRows, payload.Campaign))
	m.SetBody("text/plain", body.String())
	return m, nil
}
