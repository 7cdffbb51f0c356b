package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"sunrise/internal/domain/forum"
)

// SelectTopicInput carries the topic the viewer clicked.
type SelectTopicInput struct {
	TopicID string
}

// SelectTopicDeps holds dependencies for SelectTopic.
type SelectTopicDeps struct {
	State     ForumState
	Backend   MessageLister
	Catalogue forum.Catalogue // already locked for the viewer
}

// ExecuteSelectTopic switches topics and fetches the new topic's messages.
// PRE: Catalogue reflects the viewer's subscription
// POST: a locked topic leaves CurrentTopic unchanged, raises a notice and fetches nothing;
// otherwise CurrentTopic is switched and a fetch is issued
func ExecuteSelectTopic(ctx context.Context, input SelectTopicInput, deps SelectTopicDeps) (forum.State, error) {
	topic, ok := deps.Catalogue.Find(input.TopicID)
	if !ok {
		return forum.State{}, fmt.Errorf("%w: %q", forum.ErrUnknownTopic, input.TopicID)
	}
	if topic.AccessLocked {
		s, err := deps.State.Apply(ctx, forum.TopicBlocked{Notice: forum.NoticeTopicLocked})
		if err != nil {
			return s, err
		}
		slog.Info("forum_event", "event", "topic_blocked", "topic_id", topic.ID)
		return s, forum.ErrTopicLocked
	}
	if _, err := deps.State.Apply(ctx, forum.TopicSelected{Topic: topic}); err != nil {
		return forum.State{}, err
	}
	slog.Info("forum_event", "event", "topic_selected", "topic_id", topic.ID)
	return ExecuteRefreshMessages(ctx, RefreshMessagesDeps{State: deps.State, Backend: deps.Backend})
}

// OpenForumInput describes the viewer opening the forum page.
type OpenForumInput struct {
	Role string
}

// ExecuteOpenForum selects the default topic on first visit and refreshes the current one after that.
// POST: CurrentTopic is set; the list reflects a fetch issued by this call
func ExecuteOpenForum(ctx context.Context, input OpenForumInput, deps SelectTopicDeps) (forum.State, error) {
	s, err := deps.State.Get(ctx)
	if err != nil {
		return s, err
	}
	if s.CurrentTopic.ID != "" {
		if current, ok := deps.Catalogue.Find(s.CurrentTopic.ID); ok && !current.AccessLocked {
			return ExecuteRefreshMessages(ctx, RefreshMessagesDeps{State: deps.State, Backend: deps.Backend})
		}
	}
	topic := deps.Catalogue.DefaultTopic(input.Role)
	return ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: topic.ID}, deps)
}
