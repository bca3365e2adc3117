package domain

import (
	"strings"
	"time"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// criticalFailCount is the consecutive-failure threshold at which an
// erroring feed is escalated to critical.
const criticalFailCount = 3

// maxErrorMessageLen caps stored error messages.
const maxErrorMessageLen = 1000

// FeedStatus is the per-feed health record. One row per feed, created lazily
// on the first recorded outcome.
type FeedStatus struct {
	ID           int64     `db:"id"`
	FeedID       int64     `db:"feed_id"`
	Status       string    `db:"status"`
	ErrorMessage string    `db:"error_message"`
	LastChecked  time.Time `db:"last_checked"`
	FailCount    int       `db:"fail_count"`
	IsCritical   bool      `db:"is_critical"`
}

// ApplySuccess transitions the status to ok, clearing the failure streak.
func (s *FeedStatus) ApplySuccess(now time.Time) {
	s.Status = StatusOK
	s.ErrorMessage = ""
	s.LastChecked = now
	s.FailCount = 0
	s.IsCritical = false
}

// ApplyFailure records one more failure. The feed becomes critical once it
// has failed three times in a row, or immediately when the error indicates
// the provider is gone or blocking us (404/403).
func (s *FeedStatus) ApplyFailure(message string, now time.Time) {
	if len(message) > maxErrorMessageLen {
		message = message[:maxErrorMessageLen]
	}
	s.Status = StatusError
	s.ErrorMessage = message
	s.LastChecked = now
	s.FailCount++
	s.IsCritical = s.FailCount >= criticalFailCount || mentionsBlockedStatus(message)
}

func mentionsBlockedStatus(message string) bool {
	return strings.Contains(message, "404") || strings.Contains(message, "403")
}

// ValidationResult is the outcome of an out-of-band feed check. Validation
// is a query, not a mutation, so failures are reported here rather than as
// errors.
type ValidationResult struct {
	Valid   bool
	Message string
}

// SweepStats summarizes one full pass over all feeds.
type SweepStats struct {
	Feeds      int
	NewEntries int
	Skipped    int
	Filtered   int
	Errors     int
	Duration   time.Duration
}
