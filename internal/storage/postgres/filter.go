package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"feed_poller/internal/domain"
)

type FilterStore struct {
	db *sqlx.DB
}

func NewFilterStore(db *sqlx.DB) *FilterStore {
	return &FilterStore{db: db}
}

func (s *FilterStore) List(ctx context.Context) ([]domain.Filter, error) {
	var filters []domain.Filter
	query := `SELECT id, term, title, description FROM filters ORDER BY id`

	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &filters, query)
	return filters, err
}
