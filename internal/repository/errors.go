package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes the services care about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MapError converts a database error into a domain error. It returns nil for
// a nil error.
func MapError(err error, op, resource, id string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.Unavailable(err, op)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(op, resource, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.Wrap(err, domain.ECONFLICT, op, resource+" already exists")
		case pgForeignKeyViolation, pgCheckViolation:
			return domain.Wrap(err, domain.EINVALID, op, "invalid "+resource)
		}
	}

	return domain.Internal(err, op, "database error")
}
