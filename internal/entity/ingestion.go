package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ingestion is the history record of one uploaded file.
type Ingestion struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	Campaign      string    `json:"campaign"`
	EmailColumn   string    `json:"email_column"`
	TotalRows     int       `json:"total_rows"`
	NewRows       int       `json:"new_rows"`
	DuplicateRows int       `json:"duplicate_rows"`
	InvalidRows   int       `json:"invalid_rows"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewIngestion(filename, campaign, emailColumn string) *Ingestion {
	return &Ingestion{
		ID:          uuid.New().String(),
		Filename:    filename,
		Campaign:    campaign,
		EmailColumn: emailColumn,
		CreatedAt:   time.Now().UTC(),
	}
}

type IngestionRepository interface {
	Record(ctx context.Context, ing *Ingestion) error
	List(ctx context.Context, limit int) ([]Ingestion, error)
	// Prune deletes history recorded before cutoff.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
