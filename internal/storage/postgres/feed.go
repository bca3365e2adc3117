package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"feed_poller/internal/domain"
)

type FeedStore struct {
	db *sqlx.DB
}

func NewFeedStore(db *sqlx.DB) *FeedStore {
	return &FeedStore{db: db}
}

func (s *FeedStore) List(ctx context.Context) ([]domain.Feed, error) {
	var feeds []domain.Feed
	query := `SELECT id, name, url, category_id FROM feeds ORDER BY id`

	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &feeds, query)
	return feeds, err
}

func (s *FeedStore) Exists(ctx context.Context, id int64) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count,
		"SELECT COUNT(*) FROM feeds WHERE id = $1", id)
	return count > 0, err
}
