package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xavierca1/leadbase/internal/entity"
)

const uniqueViolation = "23505"

// mapError translates driver errors into entity errors where one applies.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrLeadNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, entity.ErrEmailAlreadyExists)
	}
	return fmt.Errorf("%s: %w", op, err)
}
