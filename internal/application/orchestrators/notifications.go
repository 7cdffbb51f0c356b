package orchestrators

import (
	"context"
	"log/slog"

	"sunrise/internal/domain/notification"
)

// MarkNotificationSeenInput identifies the clicked notification.
type MarkNotificationSeenInput struct {
	ID       int64
	ItemType string
}

// ExecuteMarkNotificationSeen acknowledges a notification and returns the refreshed list.
// PRE: ID > 0; ItemType is one of the notification types
// POST: the backend has recorded the view; the returned list is newest first
func ExecuteMarkNotificationSeen(ctx context.Context, input MarkNotificationSeenInput, backend NotificationBackend) ([]notification.Notification, error) {
	if err := notification.ValidateSeen(input.ID, input.ItemType); err != nil {
		return nil, err
	}
	if err := backend.MarkNotificationSeen(ctx, input.ID, input.ItemType); err != nil {
		slog.Error("notification_seen_failed", "notification_id", input.ID, "error", err)
		return nil, err
	}
	slog.Info("notification_event", "event", "notification_seen", "notification_id", input.ID, "item_type", input.ItemType)
	list, err := backend.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}
	return notification.SortNewestFirst(list), nil
}
