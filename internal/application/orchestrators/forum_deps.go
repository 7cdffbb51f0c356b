package orchestrators

import (
	"context"

	"sunrise/internal/adapters/forumapi"
	"sunrise/internal/domain/forum"
	"sunrise/internal/domain/notification"
)

// ForumState reads and atomically updates one viewer's forum state.
type ForumState interface {
	Get(ctx context.Context) (forum.State, error)
	Apply(ctx context.Context, actions ...forum.Action) (forum.State, error)
}

// MessageLister fetches a topic's messages.
type MessageLister interface {
	ListMessages(ctx context.Context, topicID string) ([]forum.Message, error)
}

// MessageBackend is the write side of the forum backend.
type MessageBackend interface {
	MessageLister
	CreateMessage(ctx context.Context, in forumapi.CreateMessageRequest) error
	DeleteMessage(ctx context.Context, id int64) error
	Vote(ctx context.Context, id int64, vote forum.VoteType) error
}

// UserSearcher looks up mention candidates.
type UserSearcher interface {
	SearchUsers(ctx context.Context, query string) ([]forum.Suggestion, error)
}

// NotificationBackend lists and acknowledges navbar notifications.
type NotificationBackend interface {
	ListNotifications(ctx context.Context) ([]notification.Notification, error)
	MarkNotificationSeen(ctx context.Context, id int64, itemType string) error
}

var _ MessageBackend = (*forumapi.Client)(nil)
var _ UserSearcher = (*forumapi.Client)(nil)
var _ NotificationBackend = (*forumapi.Client)(nil)
