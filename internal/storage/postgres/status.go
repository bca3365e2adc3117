package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"feed_poller/internal/domain"
)

type StatusStore struct {
	db *sqlx.DB
}

func NewStatusStore(db *sqlx.DB) *StatusStore {
	return &StatusStore{db: db}
}

// Get returns the status row for a feed, or nil when none exists yet.
func (s *StatusStore) Get(ctx context.Context, feedID int64) (*domain.FeedStatus, error) {
	var status domain.FeedStatus
	query := `
		SELECT id, feed_id, status, error_message, last_checked, fail_count, is_critical
		FROM feed_status
		WHERE feed_id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &status, query, feedID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Upsert writes the full status row for a feed in one statement.
func (s *StatusStore) Upsert(ctx context.Context, status *domain.FeedStatus) error {
	query := `
		INSERT INTO feed_status (feed_id, status, error_message, last_checked, fail_count, is_critical)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (feed_id) DO UPDATE SET
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			last_checked = EXCLUDED.last_checked,
			fail_count = EXCLUDED.fail_count,
			is_critical = EXCLUDED.is_critical`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		status.FeedID,
		status.Status,
		status.ErrorMessage,
		status.LastChecked,
		status.FailCount,
		status.IsCritical,
	)
	return err
}

// DeleteOrphans removes status rows whose feed no longer exists. Run at the
// start of each sweep, independent of the schema's cascade.
func (s *StatusStore) DeleteOrphans(ctx context.Context) (int64, error) {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM feed_status WHERE feed_id NOT IN (SELECT id FROM feeds)")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
