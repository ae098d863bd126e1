package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNoResults is returned by list queries that match nothing.
	ErrNoResults = errors.New("store: no results")
	// ErrConflict wraps unique and primary key violations.
	ErrConflict = errors.New("store: unique constraint violated")
	// ErrMissingReference wraps foreign key violations.
	ErrMissingReference = errors.New("store: referenced row does not exist")
)

// WriteFaultError reports a persistence failure that survived the retry.
type WriteFaultError struct {
	Table string
	Err   error
}

func (e *WriteFaultError) Error() string {
	return fmt.Sprintf("store: write to %s failed: %v", e.Table, e.Err)
}

func (e *WriteFaultError) Unwrap() error { return e.Err }

// IsWriteFault reports whether err is a WriteFaultError.
func IsWriteFault(err error) bool {
	var wf *WriteFaultError
	return errors.As(err, &wf)
}

// classify maps constraint violations onto the store sentinels and
// returns nil for anything else. Drivers without an error translator are
// recognised by message.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "duplicate key value"):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated),
		strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "violates foreign key constraint"):
		return fmt.Errorf("%w: %v", ErrMissingReference, err)
	}
	return nil
}
