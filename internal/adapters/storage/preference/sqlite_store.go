package preference

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"sunrise/internal/adapters/storage"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteStore implements Store using the client_preference table.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore.
// PRE: db has the schema from storage.InitDB
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Get returns one preference; ok is false when it was never set.
func (s *SQLiteStore) Get(ctx context.Context, clientID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_preference WHERE client_id = ? AND key = ?`, clientID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// All returns every preference stored for clientID.
func (s *SQLiteStore) All(ctx context.Context, clientID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM client_preference WHERE client_id = ?`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Set inserts or replaces one preference.
// PRE: clientID and key are non-empty
func (s *SQLiteStore) Set(ctx context.Context, clientID, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_preference (client_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(client_id, key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		clientID, key, value, s.now().UTC().Format(timeLayout),
	)
	return err
}

// Delete removes the given keys. Missing keys are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, clientID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, 0, len(keys)+1)
	args = append(args, clientID)
	for _, k := range keys {
		args = append(args, k)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM client_preference WHERE client_id = ? AND key IN (`+placeholders+`)`, args...)
	return err
}
