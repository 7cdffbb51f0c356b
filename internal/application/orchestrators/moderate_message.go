package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"sunrise/internal/domain/forum"
)

// ModerateMessageDeps holds dependencies for DeleteMessage and VoteMessage.
type ModerateMessageDeps struct {
	State   ForumState
	Backend MessageBackend
}

// ExecuteDeleteMessage deletes a message and refetches the topic.
// Who may delete what is decided by the backend.
// POST: on success the message is removed locally and a refetch reconciles;
// on failure a notice is raised and the list is untouched
func ExecuteDeleteMessage(ctx context.Context, id int64, deps ModerateMessageDeps) (forum.State, error) {
	if err := deps.Backend.DeleteMessage(ctx, id); err != nil {
		slog.Warn("forum_delete_failed", "message_id", id, "error", err)
		notice := forum.NoticeDeleteFailed
		if errors.Is(err, forum.ErrUnauthorized) {
			notice = forum.NoticeLoginToSend
		}
		s, applyErr := deps.State.Apply(ctx, forum.NoticeRaised{Notice: notice})
		if applyErr != nil {
			return s, applyErr
		}
		return s, err
	}
	if _, err := deps.State.Apply(ctx, forum.MessageRemoved{MessageID: id}); err != nil {
		return forum.State{}, err
	}
	slog.Info("forum_event", "event", "message_deleted", "message_id", id)
	return ExecuteRefreshMessages(ctx, RefreshMessagesDeps{State: deps.State, Backend: deps.Backend})
}

// ExecuteVoteMessage records a vote and refetches the topic.
// PRE: vote is up or down
// POST: vote failures are logged only; the list is refetched on success
func ExecuteVoteMessage(ctx context.Context, id int64, vote forum.VoteType, deps ModerateMessageDeps) (forum.State, error) {
	if !vote.Valid() {
		return forum.State{}, forum.ErrInvalidVote
	}
	if err := deps.Backend.Vote(ctx, id, vote); err != nil {
		slog.Warn("forum_vote_failed", "message_id", id, "vote", vote, "error", err)
		s, getErr := deps.State.Get(ctx)
		if getErr != nil {
			return s, getErr
		}
		return s, err
	}
	if _, err := deps.State.Apply(ctx, forum.VoteApplied{MessageID: id, Vote: vote}); err != nil {
		return forum.State{}, err
	}
	return ExecuteRefreshMessages(ctx, RefreshMessagesDeps{State: deps.State, Backend: deps.Backend})
}
