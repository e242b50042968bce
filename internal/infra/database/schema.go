package database

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS leads (
		email          TEXT PRIMARY KEY,
		display_name   TEXT NOT NULL DEFAULT '',
		campaigns      TEXT[] NOT NULL DEFAULT '{}',
		source_data    JSONB NOT NULL DEFAULT '{}'::jsonb,
		source_columns TEXT[] NOT NULL DEFAULT '{}',
		date_added     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_updated   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_date_added ON leads (date_added DESC, email)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_campaigns ON leads USING GIN (campaigns)`,
	`CREATE TABLE IF NOT EXISTS ingestions (
		id             UUID PRIMARY KEY,
		filename       TEXT NOT NULL,
		campaign       TEXT NOT NULL,
		email_column   TEXT NOT NULL,
		total_rows     INTEGER NOT NULL DEFAULT 0,
		new_rows       INTEGER NOT NULL DEFAULT 0,
		duplicate_rows INTEGER NOT NULL DEFAULT 0,
		invalid_rows   INTEGER NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ingestions_created_at ON ingestions (created_at DESC)`,
}

// EnsureSchema creates the tables and indexes if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
