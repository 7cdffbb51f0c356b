package usage

import (
	"context"

	domain "sunrise/internal/domain/usage"
)

// Store counts study-resource opens per client.
type Store interface {
	Increment(ctx context.Context, clientID, resource string) (int, error)
	List(ctx context.Context, clientID string) ([]domain.Entry, error)
}
