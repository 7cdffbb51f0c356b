package orchestrators

import (
	"context"
	"log/slog"

	domain "sunrise/internal/domain/usage"
)

// UsageStore counts resource opens.
type UsageStore interface {
	Increment(ctx context.Context, clientID, resource string) (int, error)
	List(ctx context.Context, clientID string) ([]domain.Entry, error)
}

// ExecuteTrackResourceUsage records that a client opened a study resource.
// PRE: name is non-blank
// POST: the counter is incremented and its new value returned
func ExecuteTrackResourceUsage(ctx context.Context, clientID, name string, store UsageStore) (int, error) {
	resource, err := domain.Normalize(name)
	if err != nil {
		return 0, err
	}
	n, err := store.Increment(ctx, clientID, resource)
	if err != nil {
		return 0, err
	}
	slog.Debug("usage_event", "event", "resource_opened", "client_id", clientID, "resource", resource, "count", n)
	return n, nil
}
