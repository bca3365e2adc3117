package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"feed_poller/internal/domain"
)

type FeedStore interface {
	List(ctx context.Context) ([]domain.Feed, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type EntryStore interface {
	ExistsByLink(ctx context.Context, feedID int64, link string) (bool, error)
	Insert(ctx context.Context, entry *domain.Entry) (int64, error)
	ApplyFilters(ctx context.Context, entryID int64) (bool, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}

type FilterStore interface {
	List(ctx context.Context) ([]domain.Filter, error)
}

type StatusStore interface {
	Get(ctx context.Context, feedID int64) (*domain.FeedStatus, error)
	Upsert(ctx context.Context, status *domain.FeedStatus) error
	DeleteOrphans(ctx context.Context) (int64, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ContentFetcher retrieves a feed body over HTTP.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// URLResolver maps redirect-wrapper URLs to the underlying feed URL. It
// never fails; at worst it returns its input.
type URLResolver interface {
	Resolve(ctx context.Context, url string) string
}

// FeedChecker classifies a feed URL without mutating entry data.
type FeedChecker interface {
	Validate(ctx context.Context, url string) domain.ValidationResult
}

// Publisher announces newly stored entries to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, feed *domain.Feed, entry *domain.Entry) error
	Close() error
}
