package domain

import (
	"strings"
	"time"
)

// Feed is a polled source. Feeds are managed elsewhere and treated as
// read-only during a sweep.
type Feed struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	URL        string `db:"url"`
	CategoryID int64  `db:"category_id"`
}

// Entry is one piece of content observed from a feed. At most one entry
// exists per (feed_id, link) pair; entries with an empty link are never
// matched against existing rows.
type Entry struct {
	ID               int64     `db:"id"`
	Title            string    `db:"title"`
	Description      string    `db:"description"`
	Link             string    `db:"link"`
	Published        time.Time `db:"published"`
	FeedID           int64     `db:"feed_id"`
	Read             bool      `db:"read"`
	Filtered         bool      `db:"filtered"`
	Starred          bool      `db:"starred"`
	ManuallyFiltered bool      `db:"manually_filtered"`
	FilterReason     *string   `db:"filter_reason"`
}

// Filter marks matching entries as filtered without deleting them. Term is
// matched as a case-sensitive substring against the fields whose flag is set.
// A filter with both flags unset matches nothing.
type Filter struct {
	ID          int64  `db:"id"`
	Term        string `db:"term"`
	Title       bool   `db:"title"`
	Description bool   `db:"description"`
}

// Matches reports whether the filter matches the given entry fields.
func (f Filter) Matches(title, description string) bool {
	if f.Term == "" {
		return false
	}
	if f.Title && strings.Contains(title, f.Term) {
		return true
	}
	if f.Description && strings.Contains(description, f.Term) {
		return true
	}
	return false
}
