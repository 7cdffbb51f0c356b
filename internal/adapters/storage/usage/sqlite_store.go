package usage

import (
	"context"
	"time"

	"sunrise/internal/adapters/storage"
	domain "sunrise/internal/domain/usage"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteStore implements Store using the resource_usage table.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Increment bumps the counter and returns the new value.
// PRE: resource is normalised
func (s *SQLiteStore) Increment(ctx context.Context, clientID, resource string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO resource_usage (client_id, resource, count, last_opened_at) VALUES (?, ?, 1, ?)
		 ON CONFLICT(client_id, resource) DO UPDATE SET count = count + 1, last_opened_at = excluded.last_opened_at
		 RETURNING count`,
		clientID, resource, s.now().UTC().Format(timeLayout),
	).Scan(&count)
	return count, err
}

// List returns the client's counters ordered by count descending.
func (s *SQLiteStore) List(ctx context.Context, clientID string) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT resource, count FROM resource_usage WHERE client_id = ? ORDER BY count DESC, resource`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.Resource, &e.Count); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
