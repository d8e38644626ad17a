package lookup

import (
	"fmt"
	"strings"
)

// LookupError classifies a failed metadata lookup. It always carries the key
// it belongs to so the failure can be isolated to a single record.
type LookupError struct {
	Key        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *LookupError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "lookup error")

	if key := strings.TrimSpace(e.Key); key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", key))
	}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *LookupError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
