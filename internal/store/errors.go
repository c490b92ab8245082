package store

import (
	"errors"
	"fmt"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound and ErrConflict wrap the domain kinds so an untranslated store
// error still classifies correctly.
var (
	ErrNotFound = fmt.Errorf("record %w", domain.ErrNotFound)
	ErrConflict = fmt.Errorf("write %w", domain.ErrConflict)
	// ErrChainContinued is returned when a verification already has a
	// differential child.
	ErrChainContinued = errors.New("verification already continued")
)

const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// mapError translates driver errors into the store's sentinels. Errors it does
// not recognise are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return errors.Join(ErrConflict, err)
		case pgForeignKeyViolation:
			return errors.Join(ErrNotFound, err)
		}
	}
	return err
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
