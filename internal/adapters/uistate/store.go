// Package uistate keeps each viewer's forum client state between requests.
package uistate

import (
	"context"
	"errors"

	"sunrise/internal/domain/forum"
)

// ErrUnavailable wraps failures of the backing store, as opposed to the
// forum backend errors that orchestrators record in the state itself.
var ErrUnavailable = errors.New("ui state store unavailable")

// Store holds one forum.State per viewer key. Apply reduces and persists atomically per key.
type Store interface {
	Load(ctx context.Context, key string) (forum.State, error)
	Apply(ctx context.Context, key string, actions ...forum.Action) (forum.State, error)
	Delete(ctx context.Context, key string) error
}

// Handle binds a Store to one viewer.
type Handle struct {
	store Store
	key   string
}

// Bind returns the Handle for key.
func Bind(store Store, key string) Handle {
	return Handle{store: store, key: key}
}

// Get returns the viewer's current state.
func (h Handle) Get(ctx context.Context) (forum.State, error) {
	return h.store.Load(ctx, h.key)
}

// Apply reduces actions into the viewer's state and returns the result.
func (h Handle) Apply(ctx context.Context, actions ...forum.Action) (forum.State, error) {
	return h.store.Apply(ctx, h.key, actions...)
}
