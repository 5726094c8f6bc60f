package lending

import (
	"errors"
	"fmt"

	"Gin_postgres_redis_library/db"

	"gorm.io/gorm"
)

// Kind groups lending errors by how a caller should react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidArgument
	KindConflict
)

// Error is the typed failure returned by every Service operation.
// Two errors match under errors.Is when their codes are equal.
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrNotFound             = &Error{KindNotFound, "NOT_FOUND", "not found"}
	ErrInvalidArgument      = &Error{KindInvalidArgument, "INVALID_ARGUMENT", "invalid argument"}
	ErrOutOfStock           = &Error{KindConflict, "OUT_OF_STOCK", "no copy available"}
	ErrAlreadyReturned      = &Error{KindConflict, "ALREADY_RETURNED", "borrow record already returned"}
	ErrNotReturned          = &Error{KindConflict, "NOT_RETURNED", "borrow record is still active"}
	ErrDuplicateLoan        = &Error{KindConflict, "DUPLICATE_LOAN", "customer already holds this book"}
	ErrDuplicateReservation = &Error{KindConflict, "DUPLICATE_RESERVATION", "customer already has a pending reservation for this book"}
	ErrReservationClosed    = &Error{KindConflict, "RESERVATION_CLOSED", "reservation is no longer pending"}
	ErrConflict             = &Error{KindConflict, "CONFLICT", "record was modified concurrently, retry"}
)

func notFound(what string) error {
	return &Error{KindNotFound, ErrNotFound.Code, what + " not found"}
}

func invalid(format string, args ...any) error {
	return &Error{KindInvalidArgument, ErrInvalidArgument.Code, fmt.Sprintf(format, args...)}
}

// KindOf reports the Kind of err, KindInternal for anything that is not a lending error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}

// missing turns a storage miss into NotFound for the named entity.
func missing(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what)
	}
	return err
}

// translate maps storage errors that leak out of a transaction.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, db.ErrStaleVersion), errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	}
	return err
}
