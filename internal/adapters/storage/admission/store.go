package admission

import (
	"context"

	domain "sunrise/internal/domain/admission"
)

// Store persists submitted admission applications.
type Store interface {
	Save(ctx context.Context, clientID string, a domain.Application) error
	GetByID(ctx context.Context, id string) (domain.Application, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Application, error)
}
