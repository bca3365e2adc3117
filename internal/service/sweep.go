package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feed_poller/internal/domain"
	"feed_poller/internal/feed"
	"feed_poller/internal/storage/postgres"
)

// SweepService runs one full ingestion pass over all feeds: resolve, fetch,
// sanitize, parse, dedup, insert, filter, and track health. Feeds are
// processed sequentially; one feed's failure never aborts the sweep.
type SweepService struct {
	feeds     FeedStore
	entries   EntryStore
	filters   FilterStore
	statuses  StatusStore
	txManager TransactionManager
	resolver  URLResolver
	fetcher   ContentFetcher
	parser    *feed.Parser
	tracker   *Tracker
	publisher Publisher
	logger    *slog.Logger
}

func NewSweepService(
	feeds FeedStore,
	entries EntryStore,
	filters FilterStore,
	statuses StatusStore,
	txManager TransactionManager,
	resolver URLResolver,
	fetcher ContentFetcher,
	tracker *Tracker,
	publisher Publisher,
	logger *slog.Logger,
) *SweepService {
	return &SweepService{
		feeds:     feeds,
		entries:   entries,
		filters:   filters,
		statuses:  statuses,
		txManager: txManager,
		resolver:  resolver,
		fetcher:   fetcher,
		parser:    feed.NewParser(),
		tracker:   tracker,
		publisher: publisher,
		logger:    logger.With("component", "sweep"),
	}
}

// Run executes one sweep. It satisfies scheduler.Runner.
func (s *SweepService) Run(ctx context.Context) error {
	_, err := s.Sweep(ctx)
	return err
}

// Sweep runs one full ingestion pass and reports what happened.
func (s *SweepService) Sweep(ctx context.Context) (*domain.SweepStats, error) {
	startTime := time.Now()
	s.logger.Info("starting feed sweep")

	// Reconcile status rows against live feeds before doing any work.
	// Cleanup failures are logged and swallowed.
	if deleted, err := s.statuses.DeleteOrphans(ctx); err != nil {
		s.logger.Error("clean up orphaned feed status", "error", err)
	} else if deleted > 0 {
		s.logger.Info("cleaned up orphaned feed status rows", "count", deleted)
	}

	filters, err := s.filters.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load filters: %w", err)
	}
	s.logger.Info("loaded filters", "count", len(filters))

	feeds, err := s.feeds.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feeds: %w", err)
	}
	s.logger.Info("found feeds to refresh", "count", len(feeds))

	stats := &domain.SweepStats{Feeds: len(feeds)}

	for i := range feeds {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		f := &feeds[i]
		if err := s.ingestFeed(ctx, f, len(filters) > 0, stats); err != nil {
			stats.Errors++
			message := s.describeFailure(ctx, err)
			s.logger.Error("feed ingestion failed",
				"feed", f.Name,
				"url", f.URL,
				"error", err,
			)
			s.tracker.RecordFailure(ctx, f.ID, message)
			continue
		}

		s.tracker.RecordSuccess(ctx, f.ID)
	}

	stats.Duration = time.Since(startTime)
	s.logger.Info("feed sweep completed",
		"feeds", stats.Feeds,
		"new", stats.NewEntries,
		"skipped", stats.Skipped,
		"filtered", stats.Filtered,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *SweepService) ingestFeed(ctx context.Context, f *domain.Feed, haveFilters bool, stats *domain.SweepStats) error {
	s.logger.Info("fetching feed", "feed", f.Name, "url", f.URL)

	feedURL := s.resolver.Resolve(ctx, f.URL)
	if feedURL != f.URL {
		s.logger.Info("feed url resolved", "from", f.URL, "to", feedURL)
	}

	content, err := s.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return err
	}

	items, err := s.parser.Parse(feed.Sanitize(content))
	if err != nil {
		return err
	}
	s.logger.Info("parsed feed", "feed", f.Name, "items", len(items))

	for _, item := range items {
		// Empty links are never matched against existing rows; feeds
		// without stable links accumulate duplicates.
		if item.Link != "" {
			exists, err := s.entries.ExistsByLink(ctx, f.ID, item.Link)
			if err != nil {
				return err
			}
			if exists {
				stats.Skipped++
				continue
			}
		}

		entry := &domain.Entry{
			Title:       item.Title,
			Description: item.Description,
			Link:        item.Link,
			Published:   item.Published,
			FeedID:      f.ID,
		}

		filtered := false
		txErr := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			id, err := s.entries.Insert(txCtx, entry)
			if err != nil {
				return fmt.Errorf("insert entry: %w", err)
			}
			if haveFilters {
				matched, err := s.entries.ApplyFilters(txCtx, id)
				if err != nil {
					return fmt.Errorf("apply filters: %w", err)
				}
				filtered = matched
			}
			return nil
		})
		if txErr != nil {
			return txErr
		}

		stats.NewEntries++
		if filtered {
			stats.Filtered++
		}
		s.logger.Info("added new entry", "feed", f.Name, "title", entry.Title, "filtered", filtered)

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, f, entry); err != nil {
				s.logger.Error("publish entry", "feed", f.Name, "title", entry.Title, "error", err)
			}
		}
	}

	return nil
}

// describeFailure maps a feed failure to the message stored on its status
// row, recovering from foreign-key violations along the way.
func (s *SweepService) describeFailure(ctx context.Context, err error) string {
	if postgres.IsForeignKeyViolation(err) {
		// The feed was probably deleted while its entries were being
		// inserted. Clean up whatever was left behind; best effort.
		if _, cleanupErr := s.entries.DeleteOrphans(ctx); cleanupErr != nil {
			s.logger.Error("clean up orphaned entries", "error", cleanupErr)
		}
		return "Foreign key constraint error. This may occur if the feed was deleted while processing entries."
	}
	return err.Error()
}
