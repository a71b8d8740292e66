package archive

import (
	"errors"
	"fmt"

	"github.com/abhisek/medquiz/internal/store"
)

var (
	ErrUnknownMode      = errors.New("unknown mode")
	ErrNegativeID       = errors.New("question id must not be negative")
	ErrNegativeChoice   = errors.New("answer index must not be negative")
	ErrUnknownCategory  = errors.New("category must not be empty")
	ErrUnknownQuestion  = errors.New("no such question")
	ErrChoiceOutOfRange = errors.New("answer index out of range")
	ErrNegativeCount    = errors.New("count must not be negative")
)

// ValidationError reports a rejected input. Nothing was written.
type ValidationError struct {
	Field string
	Value any
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError reports a store failure. Undecodable values are not
// returned as errors; they are logged and replaced by empty defaults.
type PersistenceError struct {
	Op  string
	Key store.Key
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("archive %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("archive %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is a *PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
