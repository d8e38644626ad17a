package domain

import (
	"fmt"
	"strings"
)

// RecordStatus represents the enrichment state of a banned address.
type RecordStatus string

const (
	RecordStatusPending RecordStatus = "PENDING"
	RecordStatusOK      RecordStatus = "OK"
	RecordStatusFailed  RecordStatus = "FAILED"
)

func (s RecordStatus) String() string { return string(s) }

func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusPending, RecordStatusOK, RecordStatusFailed:
		return true
	}
	return false
}

func ParseRecordStatusFromString(s string) (RecordStatus, error) {
	st := RecordStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid record status %q", ErrValidation, s)
	}
	return st, nil
}

// Record holds the lookup metadata collected for one banned IP address.
// A record is created pending when its key is discovered and written exactly
// once when the lookup for that key resolves.
type Record struct {
	Key      string
	Country  string
	City     string
	Provider string
	Status   RecordStatus
}
