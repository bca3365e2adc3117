package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feed_poller/internal/domain"
)

// ValidateService checks every feed out-of-band and records the outcome on
// its status row. It shares the tracker with the ingestion sweep but never
// touches entry data.
type ValidateService struct {
	feeds   FeedStore
	checker FeedChecker
	tracker *Tracker
	pause   time.Duration
	logger  *slog.Logger
}

func NewValidateService(feeds FeedStore, checker FeedChecker, tracker *Tracker, pause time.Duration, logger *slog.Logger) *ValidateService {
	return &ValidateService{
		feeds:   feeds,
		checker: checker,
		tracker: tracker,
		pause:   pause,
		logger:  logger.With("component", "validate"),
	}
}

// Run validates all feeds sequentially, pausing briefly between feeds to
// avoid provider-side throttling.
func (s *ValidateService) Run(ctx context.Context) error {
	feeds, err := s.feeds.List(ctx)
	if err != nil {
		return fmt.Errorf("load feeds: %w", err)
	}
	s.logger.Info("validating feeds", "count", len(feeds))

	for i := range feeds {
		f := &feeds[i]

		result := s.ValidateFeed(ctx, f)
		s.logger.Info("validated feed",
			"feed", f.Name,
			"valid", result.Valid,
			"message", result.Message,
		)

		if i == len(feeds)-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pause):
		}
	}

	return nil
}

// ValidateFeed checks one feed and records the outcome. Also the entry point
// for on-demand checks when a feed is added or edited.
func (s *ValidateService) ValidateFeed(ctx context.Context, f *domain.Feed) domain.ValidationResult {
	result := s.checker.Validate(ctx, f.URL)

	if result.Valid {
		s.tracker.RecordSuccess(ctx, f.ID)
	} else {
		s.tracker.RecordFailure(ctx, f.ID, result.Message)
	}

	return result
}
