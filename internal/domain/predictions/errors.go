package predictions

import (
	"errors"
	"strings"
)

// Validation messages shared with the HTTP layer.
const (
	MsgNoData          = "No data provided"
	MsgMissingFeatures = "Missing features"
	MsgNonNumeric      = "Non-numeric features"
	MsgOutOfRange      = "Features out of range"
)

// ErrNotAvailable is returned by history lookups when the store never connected.
var ErrNotAvailable = errors.New("database not connected")

// ValidationError rejects a request before any work is done.
type ValidationError struct {
	Message string
	// Fields lists the offending input keys, when the failure is per-field.
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}
