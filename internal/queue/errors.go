package queue

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound covers entries, tracks and queues that do not exist or do
	// not belong to the caller. Ownership is never disclosed: a foreign
	// entry id and a nonexistent one are indistinguishable to the client.
	ErrNotFound = errors.New("not found")

	// ErrConflict is a concurrent-mutation serialization failure. Safe to
	// retry.
	ErrConflict = errors.New("conflict")
)

// ValidationError reports malformed or missing input. Always a 400 at the
// HTTP edge.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// translateDBError maps postgres lock/serialization failures to ErrConflict
// so callers can retry; everything else passes through untouched.
func translateDBError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40001", "40P01": // lock_not_available, serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
		}
	}
	return err
}
