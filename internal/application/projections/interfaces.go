package projections

import (
	"context"

	"sunrise/internal/domain/notification"
	"sunrise/internal/domain/usage"
)

// NotificationLister fetches the viewer's notifications.
type NotificationLister interface {
	ListNotifications(ctx context.Context) ([]notification.Notification, error)
}

// UsageLister reads resource-usage counters.
type UsageLister interface {
	List(ctx context.Context, clientID string) ([]usage.Entry, error)
}
