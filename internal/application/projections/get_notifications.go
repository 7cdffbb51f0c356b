package projections

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"

	"sunrise/internal/domain/forum"
	"sunrise/internal/domain/notification"
)

// NotificationPanel is the navbar notification dropdown.
type NotificationPanel struct {
	Items      []NotificationItem
	Count      int
	ShowBadge  bool
	NeedsLogin bool
}

// NotificationItem is one notification row.
type NotificationItem struct {
	ID       int64
	Message  string
	Sender   string
	ItemType string
	Age      string
}

// QueryNotifications builds the notification panel, newest first.
// PRE: none
// POST: an unauthenticated viewer gets an empty panel with NeedsLogin set and no error
func QueryNotifications(ctx context.Context, lister NotificationLister, now time.Time) (NotificationPanel, error) {
	list, err := lister.ListNotifications(ctx)
	if err != nil {
		if errors.Is(err, forum.ErrUnauthorized) {
			return NotificationPanel{NeedsLogin: true}, nil
		}
		return NotificationPanel{}, err
	}
	return BuildNotificationPanel(list, now), nil
}

// BuildNotificationPanel projects an already fetched list.
func BuildNotificationPanel(list []notification.Notification, now time.Time) NotificationPanel {
	list = notification.SortNewestFirst(list)
	panel := NotificationPanel{Count: len(list), ShowBadge: len(list) > 0}
	for _, n := range list {
		panel.Items = append(panel.Items, NotificationItem{
			ID:       n.ID,
			Message:  n.Message,
			Sender:   n.Sender(),
			ItemType: n.ItemType,
			Age:      humanize.RelTime(n.CreatedAt, now, "ago", "from now"),
		})
	}
	return panel
}
