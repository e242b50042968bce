package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/xavierca1/leadbase/internal/entity"
)

type IngestionRepository struct {
	DB *sql.DB
}

func NewIngestionRepository(db *sql.DB) *IngestionRepository {
	return &IngestionRepository{DB: db}
}

func (r *IngestionRepository) Record(ctx context.Context, ing *entity.Ingestion) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO ingestions
			(id, filename, campaign, email_column, total_rows, new_rows, duplicate_rows, invalid_rows, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		ing.ID,
		ing.Filename,
		ing.Campaign,
		ing.EmailColumn,
		ing.TotalRows,
		ing.NewRows,
		ing.DuplicateRows,
		ing.InvalidRows,
		ing.CreatedAt,
	)
	return mapError("record ingestion", err)
}

func (r *IngestionRepository) List(ctx context.Context, limit int) ([]entity.Ingestion, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, filename, campaign, email_column, total_rows, new_rows, duplicate_rows, invalid_rows, created_at
		FROM ingestions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, mapError("list ingestions", err)
	}
	defer rows.Close()

	out := make([]entity.Ingestion, 0)
	for rows.Next() {
		var ing entity.Ingestion
		if err := rows.Scan(
			&ing.ID,
			&ing.Filename,
			&ing.Campaign,
			&ing.EmailColumn,
			&ing.TotalRows,
			&ing.NewRows,
			&ing.DuplicateRows,
			&ing.InvalidRows,
			&ing.CreatedAt,
		); err != nil {
			return nil, mapError("list ingestions", err)
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

func (r *IngestionRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM ingestions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, mapError("prune ingestions", err)
	}
	return res.RowsAffected()
}
