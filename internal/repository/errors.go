package repository

import (
	"errors"

	"github.com/Domenick1991/cafebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"

	bookingSlotIndex = "bookings_active_slot_key"
)

// isRetryable reports whether err aborted the transaction in a way that a
// fresh attempt may succeed.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
}

// translate maps storage errors onto the domain taxonomy. Domain errors pass through.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == bookingSlotIndex {
		return domain.Errorf(domain.ErrConflict, "table is already booked for this slot and date")
	}
	return err
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Errorf(domain.ErrNotFound, format, args...)
	}
	return err
}
