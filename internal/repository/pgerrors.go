package repository

import (
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// wrapPgError turns constraint violations into caller-facing errors and
// everything else into an internal error carrying msg.
func wrapPgError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Wrap(err, errors.ErrCodeConflict, "a record with the same unique value already exists")
		case pgForeignKeyViolation:
			return errors.Wrap(err, errors.ErrCodeInvalidInput, "referenced record does not exist or is still in use")
		case pgCheckViolation:
			return errors.Wrap(err, errors.ErrCodeInvalidInput, "value violates a record constraint")
		}
	}
	return errors.Wrap(err, errors.ErrCodeInternal, msg)
}
