package orchestrators

import (
	"context"
	"sync"
	"time"

	"sunrise/internal/adapters/forumapi"
	"sunrise/internal/adapters/uistate"
	"sunrise/internal/domain/forum"
	"sunrise/internal/domain/notification"
)

// fakeBackend implements MessageBackend, UserSearcher and NotificationBackend.
type fakeBackend struct {
	mu sync.Mutex

	messages map[string][]forum.Message
	listErr  error
	sendErr  error
	delErr   error
	voteErr  error

	// beforeList runs inside ListMessages, letting a test interleave other operations.
	beforeList func(topicID string)

	listCalls []string
	created   []forumapi.CreateMessageRequest
	deleted   []int64
	votes     []forum.VoteType
	searches  []string
	users     []forum.Suggestion
	seen      []int64
	notes     []notification.Notification
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{messages: map[string][]forum.Message{}}
}

func (f *fakeBackend) ListMessages(_ context.Context, topicID string) ([]forum.Message, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, topicID)
	hook := f.beforeList
	f.mu.Unlock()
	if hook != nil {
		hook(topicID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.messages[topicID], nil
}

func (f *fakeBackend) CreateMessage(_ context.Context, in forumapi.CreateMessageRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	return f.sendErr
}

func (f *fakeBackend) DeleteMessage(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.delErr
}

func (f *fakeBackend) Vote(_ context.Context, _ int64, vote forum.VoteType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.votes = append(f.votes, vote)
	return f.voteErr
}

func (f *fakeBackend) SearchUsers(_ context.Context, query string) ([]forum.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, query)
	return f.users, nil
}

func (f *fakeBackend) ListNotifications(context.Context) ([]notification.Notification, error) {
	return f.notes, nil
}

func (f *fakeBackend) MarkNotificationSeen(_ context.Context, id int64, _ string) error {
	f.seen = append(f.seen, id)
	return nil
}

func (f *fakeBackend) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

func newForumState() uistate.Handle {
	return uistate.Bind(uistate.NewMemoryStore(), "viewer-1")
}

var testCatalogue = forum.Catalogue{
	{ID: "11", Name: "Class 11 Physics"},
	{ID: "12", Name: "Class 12 Chemistry", PaidOnly: true},
	{ID: "gen", Name: "General"},
}.ForViewer(false)

var forumTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func forumNow() time.Time { return forumTime }

func forumID() string { return "app-001" }
