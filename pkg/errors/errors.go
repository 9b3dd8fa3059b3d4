package errors

import (
	"fmt"
	"time"
)

// ErrValidation indicates a record violates a schema or business rule.
// Non-fatal: recorded against the offending record only.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// ErrTransform indicates a platform adapter could not normalize a raw record.
// Non-fatal: the batch continues past the record.
type ErrTransform struct {
	Platform string
	Reason   string
}

func (e *ErrTransform) Error() string {
	return fmt.Sprintf("cannot transform %s record: %s", e.Platform, e.Reason)
}

// ErrPersistence indicates a single-record store write failed. Only that
// record is rolled back.
type ErrPersistence struct {
	Operation string
	Key       string
	Err       error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("persistence failure during %s for %q: %v", e.Operation, e.Key, e.Err)
}

func (e *ErrPersistence) Unwrap() error { return e.Err }

// ErrConfiguration indicates an unknown/inactive platform or a malformed fee
// config. Fatal to the one calculation or validation call that hit it.
type ErrConfiguration struct {
	Platform string
	Message  string
}

func (e *ErrConfiguration) Error() string {
	if e.Platform != "" {
		return fmt.Sprintf("configuration error for platform %s: %s", e.Platform, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// ErrFatalIO indicates the raw batch store or catalog store is unreachable.
// Aborts the remainder of the affected platform's run.
type ErrFatalIO struct {
	Resource string
	Err      error
}

func (e *ErrFatalIO) Error() string {
	return fmt.Sprintf("fatal I/O error on %s: %v", e.Resource, e.Err)
}

func (e *ErrFatalIO) Unwrap() error { return e.Err }

// ErrNotFound indicates a requested resource does not exist.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// RecordError is the per-record error shape accumulated by batch operations.
type RecordError struct {
	ProductID string    `json:"productId"`
	Platform  string    `json:"platform"`
	Message   string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordError captures a per-record failure with the current time.
func NewRecordError(productID, platform string, err error) RecordError {
	return RecordError{
		ProductID: productID,
		Platform:  platform,
		Message:   err.Error(),
		Timestamp: time.Now(),
	}
}
