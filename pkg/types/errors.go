package types

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors. Surfaced to the caller, never retried automatically.
var (
	ErrStrategyUnknown     = errors.New("unknown key generation strategy")
	ErrSaveModeUnknown     = errors.New("unknown save mode")
	ErrStoreKindUnknown    = errors.New("unknown store kind")
	ErrChannelKindUnknown  = errors.New("unknown channel kind")
	ErrInvalidColumnType   = errors.New("invalid writeback column type")
	ErrDuplicateKeyField   = errors.New("duplicate key dimension field")
	ErrDuplicateKeyOrder   = errors.New("duplicate key dimension order")
	ErrColumnNameEmpty     = errors.New("writeback column name must not be empty")
	ErrEndpointMissing     = errors.New("store endpoint not configured")
	ErrAutoDelayInvalid    = errors.New("auto save delay must be positive")
	ErrBatchIntervalInvalid = errors.New("batch save interval must be positive")
)

// Entity errors.
var (
	ErrInvalidStatus = errors.New("invalid session status")
	ErrInvalidRowKey = errors.New("malformed row key")
)

// Transport errors. A failed write leaves pending edits intact for retry;
// a failed read degrades to an empty baseline.
var (
	ErrTransport = errors.New("store transport failure")
	ErrNoStore   = errors.New("no writeback store configured")
)

// Violation describes one field value that failed its declared rules.
type Violation struct {
	// RowKey identifies the edited row.
	RowKey string `json:"row_key"`

	// Field is the edited field name as staged (possibly a UI label).
	Field string `json:"field"`

	// Rule names the failed constraint (required, min, max, min_length,
	// max_length, type, read_only).
	Rule string `json:"rule"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s/%s: %s", v.RowKey, v.Field, v.Message)
}

// ValidationError aggregates every violation found across all pending edits.
// A save that returns a ValidationError wrote nothing and left the edit
// buffer unchanged for correction.
type ValidationError struct {
	Violations []Violation
}

// Error implements the error interface, listing every violation.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("validation failed (%d): %s", len(e.Violations), strings.Join(parts, "; "))
}

// AsValidationError unwraps err to a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
