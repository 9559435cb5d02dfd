package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Sentinel errors returned by the service layer. Handlers map these onto
// HTTP statuses; nothing below the handlers knows about HTTP.
var (
	// ErrNotFound covers missing users, profiles and programs.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller's role does not permit the
	// operation or the target row belongs to someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation covers malformed or semantically invalid input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTarget is returned when an operation names a plan or
	// add-on type that does not exist.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrNoEligibleLot is returned by consumption when the user holds no
	// active lot with units remaining.
	ErrNoEligibleLot = errors.New("no eligible add-on lot")

	// ErrConflict is returned when a write loses a uniqueness race.
	ErrConflict = errors.New("conflict")

	// ErrUpstream is returned when an external dependency answered but
	// the answer is unusable.
	ErrUpstream = errors.New("upstream failure")

	// ErrRetryable wraps transient database failures such as
	// serialization aborts. Callers may retry the whole transaction.
	ErrRetryable = errors.New("retryable")
)

// translateDBError folds driver-level errors into the service taxonomy.
// Postgres error codes: 23505 unique violation, 23503 foreign key,
// 40001/40P01/55P03 transient concurrency failures.
func translateDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return errors.Join(ErrConflict, err)
		case "23503":
			return errors.Join(ErrValidation, err)
		case "40001", "40P01", "55P03":
			return errors.Join(ErrRetryable, err)
		}
	}
	return err
}
