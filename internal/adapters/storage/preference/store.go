package preference

import "context"

// Store persists per-client key/value preferences (theme, drafts, counters).
type Store interface {
	Get(ctx context.Context, clientID, key string) (string, bool, error)
	All(ctx context.Context, clientID string) (map[string]string, error)
	Set(ctx context.Context, clientID, key, value string) error
	Delete(ctx context.Context, clientID string, keys ...string) error
}
