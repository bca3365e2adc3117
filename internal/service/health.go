package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"feed_poller/internal/domain"
)

// Tracker maintains per-feed operational status. The ingestion sweep and the
// bulk validator both record outcomes here, possibly for the same feed at
// the same time, so writes are serialized per feed.
type Tracker struct {
	statuses StatusStore
	feeds    FeedStore
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewTracker(statuses StatusStore, feeds FeedStore, logger *slog.Logger) *Tracker {
	return &Tracker{
		statuses: statuses,
		feeds:    feeds,
		logger:   logger.With("component", "tracker"),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// RecordSuccess transitions the feed to ok, clearing any failure streak.
func (t *Tracker) RecordSuccess(ctx context.Context, feedID int64) {
	t.record(ctx, feedID, func(status *domain.FeedStatus, now time.Time) {
		status.ApplySuccess(now)
	})
}

// RecordFailure records one more failure with the given message.
func (t *Tracker) RecordFailure(ctx context.Context, feedID int64, message string) {
	t.record(ctx, feedID, func(status *domain.FeedStatus, now time.Time) {
		status.ApplyFailure(message, now)
	})
}

// record applies a transition under the feed's lock. Tracking failures are
// logged, never escalated; health bookkeeping must not take down a sweep.
func (t *Tracker) record(ctx context.Context, feedID int64, apply func(*domain.FeedStatus, time.Time)) {
	lock := t.feedLock(feedID)
	lock.Lock()
	defer lock.Unlock()

	exists, err := t.feeds.Exists(ctx, feedID)
	if err != nil {
		t.logger.Error("check feed existence", "feed_id", feedID, "error", err)
		return
	}
	if !exists {
		// Feed deleted since the outcome was produced; nothing to track.
		return
	}

	status, err := t.statuses.Get(ctx, feedID)
	if err != nil {
		t.logger.Error("load feed status", "feed_id", feedID, "error", err)
		return
	}
	if status == nil {
		status = &domain.FeedStatus{FeedID: feedID}
	}

	apply(status, time.Now())

	if err := t.statuses.Upsert(ctx, status); err != nil {
		t.logger.Error("update feed status", "feed_id", feedID, "error", err)
	}
}

func (t *Tracker) feedLock(feedID int64) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[feedID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[feedID] = lock
	}
	return lock
}
