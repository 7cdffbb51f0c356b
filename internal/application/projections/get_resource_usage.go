package projections

import (
	"context"

	"sunrise/internal/domain/usage"
)

// QueryResourceUsage lists a client's most-opened resources first.
func QueryResourceUsage(ctx context.Context, clientID string, store UsageLister) ([]usage.Entry, error) {
	entries, err := store.List(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return usage.Ranked(entries), nil
}
