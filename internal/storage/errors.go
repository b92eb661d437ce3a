package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/DukeRupert/ordoflow/internal/domain"
)

var (
	ErrNotFound     = errors.New("object not found")
	ErrInvalidKey   = errors.New("invalid storage key")
	ErrTooLarge     = errors.New("object exceeds maximum size")
	ErrAccessDenied = errors.New("access denied")
)

// StorageError names the call and key behind a failure.
type StorageError struct {
	Op  string // Put, Open or Link
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsTooLarge(err error) bool { return errors.Is(err, ErrTooLarge) }

// ToDomain turns a storage failure into a domain error for op.
//
//	canceled or timed out    EUNAVAILABLE
//	missing object           ENOTFOUND
//	too large or bad key     EINVALID, retrying cannot help
//	anything else            EINTERNAL
func ToDomain(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.Unavailable(err, op)
	case IsNotFound(err):
		return domain.Wrap(err, domain.ENOTFOUND, op, "Nie znaleziono pliku raportu.")
	case IsTooLarge(err), errors.Is(err, ErrInvalidKey):
		return domain.Wrap(err, domain.EINVALID, op, "Raport nie może zostać zapisany.")
	}
	return domain.Internal(err, op, "report storage failed")
}
