package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// NewDBConnection opens a pooled handle on the store and pings it.
// accessKey, when set, overrides any password embedded in storeURL.
func NewDBConnection(ctx context.Context, storeURL, accessKey string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(storeURL)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	if accessKey != "" {
		cfg.Password = accessKey
	}

	db := stdlib.OpenDB(*cfg)

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}

	return db, nil
}
