package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrRowCountMismatch reports a bulk insert that persisted fewer rows than
// requested. Callers treat it as a partial write and roll the transaction back.
var ErrRowCountMismatch = errors.New("persisted row count does not match request")

// RowCountError wraps ErrRowCountMismatch with the table and the two counts.
type RowCountError struct {
	Table    string
	Expected int64
	Actual   int64
}

func (e *RowCountError) Error() string {
	return fmt.Sprintf("%s: expected %d rows, persisted %d", e.Table, e.Expected, e.Actual)
}

func (e *RowCountError) Unwrap() error {
	return ErrRowCountMismatch
}

// NewRowCountError builds a RowCountError for the given table.
func NewRowCountError(table string, expected, actual int64) error {
	return &RowCountError{Table: table, Expected: expected, Actual: actual}
}

// IsNotFoundError reports whether err means the requested row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsRowCountMismatch reports whether err is a partial bulk write.
func IsRowCountMismatch(err error) bool {
	return errors.Is(err, ErrRowCountMismatch)
}
