package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"sunrise/internal/domain/forum"
)

// RefreshMessagesDeps holds dependencies for RefreshMessages.
type RefreshMessagesDeps struct {
	State   ForumState
	Backend MessageLister
}

// ExecuteRefreshMessages refetches the current topic's messages.
// The fetch carries a fresh generation; a response that arrives after a newer
// fetch or a topic switch is dropped by the reducer.
// PRE: none; with no topic selected nothing is fetched
// POST: on success the list is replaced; on failure the last good list stays and FeedError is set
func ExecuteRefreshMessages(ctx context.Context, deps RefreshMessagesDeps) (forum.State, error) {
	s, err := deps.State.Get(ctx)
	if err != nil {
		return s, err
	}
	if s.CurrentTopic.ID == "" {
		return s, nil
	}

	s, err = deps.State.Apply(ctx, forum.FetchStarted{})
	if err != nil {
		return s, err
	}
	generation, topicID := s.Generation, s.CurrentTopic.ID

	msgs, fetchErr := deps.Backend.ListMessages(ctx, topicID)
	if fetchErr != nil {
		if !errors.Is(fetchErr, forum.ErrUnauthorized) {
			slog.Error("forum_fetch_failed", "topic_id", topicID, "generation", generation, "error", fetchErr)
		}
		s, err = deps.State.Apply(ctx, forum.FetchFailed{
			Generation:   generation,
			TopicID:      topicID,
			Notice:       forum.LoadNotice(fetchErr),
			Unauthorized: errors.Is(fetchErr, forum.ErrUnauthorized),
		})
		if err != nil {
			return s, err
		}
		return s, fetchErr
	}

	s, err = deps.State.Apply(ctx, forum.FetchSucceeded{Generation: generation, TopicID: topicID, Messages: msgs})
	if err != nil {
		return s, err
	}
	if s.Applied != generation {
		slog.Debug("forum_fetch_discarded", "topic_id", topicID, "generation", generation, "current_topic", s.CurrentTopic.ID)
	}
	return s, nil
}
