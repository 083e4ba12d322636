package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/revenue-ledger/internal/domain/shared"
)

// integrityViolationClass is SQLSTATE class 23: foreign key, unique, check and not-null violations
const integrityViolationClass = "23"

// storeError classifies a driver error for op. Integrity violations are permanent for the
// rejected write; every other failure is treated as transient.
func storeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, integrityViolationClass) {
		return shared.ConstraintViolationError{Op: op, Constraint: pgErr.ConstraintName, Err: err}
	}
	return shared.StoreUnavailable(op, err)
}
