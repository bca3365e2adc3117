package postgres

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"feed_poller/internal/domain"
)

type EntryStore struct {
	db *sqlx.DB
}

func NewEntryStore(db *sqlx.DB) *EntryStore {
	return &EntryStore{db: db}
}

// ExistsByLink reports whether an entry with this link already exists for
// the feed. Callers must not use it for empty links; those are always
// treated as distinct.
func (s *EntryStore) ExistsByLink(ctx context.Context, feedID int64, link string) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count,
		"SELECT COUNT(*) FROM entries WHERE feed_id = $1 AND link = $2",
		feedID, link)
	return count > 0, err
}

func (s *EntryStore) Insert(ctx context.Context, entry *domain.Entry) (int64, error) {
	query := `
		INSERT INTO entries (title, description, link, published, feed_id, read, filtered, starred, manually_filtered)
		VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, FALSE, FALSE)
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		entry.Title,
		entry.Description,
		entry.Link,
		entry.Published,
		entry.FeedID,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	entry.ID = id
	return id, nil
}

// ApplyFilters marks the just-inserted entry as filtered when any filter
// rule matches its title or description as a case-sensitive substring, and
// records the first matching term. Returns whether the entry was filtered.
func (s *EntryStore) ApplyFilters(ctx context.Context, entryID int64) (bool, error) {
	query := `
		UPDATE entries
		SET filtered = TRUE,
		    filter_reason = (
		        SELECT f.term FROM filters f
		        WHERE (f.title AND entries.title LIKE '%' || f.term || '%')
		           OR (f.description AND entries.description LIKE '%' || f.term || '%')
		        ORDER BY f.id
		        LIMIT 1
		    )
		WHERE id = $1
		  AND EXISTS (
		      SELECT 1 FROM filters f
		      WHERE (f.title AND entries.title LIKE '%' || f.term || '%')
		         OR (f.description AND entries.description LIKE '%' || f.term || '%')
		  )`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, entryID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteOrphans removes entries whose feed no longer exists. Used as a
// recovery step after a foreign-key violation mid-sweep.
func (s *EntryStore) DeleteOrphans(ctx context.Context) (int64, error) {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM entries WHERE feed_id NOT IN (SELECT id FROM feeds)")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// IsForeignKeyViolation reports whether err is a Postgres foreign-key
// constraint failure, typically from a feed deleted while its entries were
// being inserted.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return false
}
