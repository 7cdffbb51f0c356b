package orchestrators

import (
	"context"
	"log/slog"

	"sunrise/internal/domain/theme"
)

// PreferenceStore is the per-client key/value store.
type PreferenceStore interface {
	Get(ctx context.Context, clientID, key string) (string, bool, error)
	All(ctx context.Context, clientID string) (map[string]string, error)
	Set(ctx context.Context, clientID, key, value string) error
	Delete(ctx context.Context, clientID string, keys ...string) error
}

// ThemeInput identifies the client and its color-scheme hint.
type ThemeInput struct {
	ClientID string
	Hint     string
}

// ExecuteResolveTheme returns the client's theme.
func ExecuteResolveTheme(ctx context.Context, input ThemeInput, prefs PreferenceStore) (string, error) {
	all, err := prefs.All(ctx, input.ClientID)
	if err != nil {
		return "", err
	}
	return theme.Resolve(all, input.Hint), nil
}

// ExecuteToggleTheme flips and persists the theme.
// POST: preferredTheme holds the new theme; legacy keys are removed
func ExecuteToggleTheme(ctx context.Context, input ThemeInput, prefs PreferenceStore) (string, error) {
	current, err := ExecuteResolveTheme(ctx, input, prefs)
	if err != nil {
		return "", err
	}
	next := theme.Toggle(current)
	if err := prefs.Set(ctx, input.ClientID, theme.KeyPreferred, next); err != nil {
		return "", err
	}
	if err := prefs.Delete(ctx, input.ClientID, theme.LegacyKeys...); err != nil {
		return "", err
	}
	slog.Info("theme_event", "event", "theme_toggled", "client_id", input.ClientID, "theme", next)
	return next, nil
}
