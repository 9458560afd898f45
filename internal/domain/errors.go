package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("not found")

// ValidationError rejects malformed input before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError means availability failed at commit time. No partial state
// is left behind; the caller should re-query and retry.
type ConflictError struct {
	RoomTypeID string
	UnitID     *int
	CheckIn    time.Time
	CheckOut   time.Time
}

func (e *ConflictError) Error() string {
	if e.UnitID != nil {
		return fmt.Sprintf("room %s unit %d not available for [%s,%s)",
			e.RoomTypeID, *e.UnitID, e.CheckIn.Format("2006-01-02"), e.CheckOut.Format("2006-01-02"))
	}
	return fmt.Sprintf("room %s not available for [%s,%s)",
		e.RoomTypeID, e.CheckIn.Format("2006-01-02"), e.CheckOut.Format("2006-01-02"))
}

// FeedFetchError means the external calendar could not be fetched or parsed
// at all. The sync run aborts with no ledger changes.
type FeedFetchError struct {
	URL string
	Err error
}

func (e *FeedFetchError) Error() string { return fmt.Sprintf("fetch feed %s: %v", e.URL, e.Err) }
func (e *FeedFetchError) Unwrap() error { return e.Err }

// SyncResult aggregates one reconciliation run. Per-entry failures land in
// Errors and skipped entries in Warnings; neither fails the run.
type SyncResult struct {
	RoomTypeID string   `json:"room_type_id"`
	Imported   int      `json:"imported"`
	Cancelled  int      `json:"cancelled"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}
