package orchestrators

import (
	"context"
	"log/slog"

	"sunrise/internal/adapters/forumapi"
	"sunrise/internal/domain/forum"
)

// SendMessageInput carries the composer contents at the moment Send is pressed.
// Media overrides any attachment already held in the draft.
type SendMessageInput struct {
	Text  string
	Media *forum.Media
}

// SendMessageDeps holds dependencies for SendMessage.
type SendMessageDeps struct {
	State   ForumState
	Backend MessageBackend
}

// ExecuteSendMessage posts the draft to the current topic.
// PRE: none
// POST: no backend call when the draft is empty or no postable topic is selected;
// on success the draft and reply target are cleared and the topic refreshed;
// on failure the draft is kept and Notice explains why
func ExecuteSendMessage(ctx context.Context, input SendMessageInput, deps SendMessageDeps) (forum.State, error) {
	s, err := deps.State.Get(ctx)
	if err != nil {
		return s, err
	}
	draft := s.Draft
	draft.Text = input.Text
	if input.Media != nil {
		draft.Media = input.Media
	}

	if draft.IsEmpty() {
		return s, forum.ErrEmptyDraft
	}
	if !s.CurrentTopic.Postable() {
		reason := forum.ErrNoTopic
		if s.CurrentTopic.AccessLocked {
			reason = forum.ErrTopicLocked
		}
		s, err = deps.State.Apply(ctx, forum.DraftChanged{Text: input.Text}, forum.SendFailed{Notice: forum.SendNotice(reason)})
		if err != nil {
			return s, err
		}
		return s, reason
	}
	if draft.Media != nil {
		if err := draft.Media.Validate(); err != nil {
			s, applyErr := deps.State.Apply(ctx, forum.DraftChanged{Text: input.Text}, forum.SendFailed{Notice: forum.SendNotice(err)})
			if applyErr != nil {
				return s, applyErr
			}
			return s, err
		}
	}

	if _, err := deps.State.Apply(ctx, forum.DraftChanged{Text: input.Text}, forum.SendStarted{}); err != nil {
		return forum.State{}, err
	}

	sendErr := deps.Backend.CreateMessage(ctx, forumapi.CreateMessageRequest{
		Message:  draft.TrimmedText(),
		TopicID:  s.CurrentTopic.ID,
		ParentID: draft.ParentID(),
		Media:    draft.Media,
	})
	if sendErr != nil {
		slog.Warn("forum_send_failed", "topic_id", s.CurrentTopic.ID, "error", sendErr)
		s, err = deps.State.Apply(ctx, forum.SendFailed{Notice: forum.SendNotice(sendErr)})
		if err != nil {
			return s, err
		}
		return s, sendErr
	}

	if _, err := deps.State.Apply(ctx, forum.SendSucceeded{}); err != nil {
		return forum.State{}, err
	}
	slog.Info("forum_event", "event", "message_sent", "topic_id", s.CurrentTopic.ID,
		"reply_to", draft.ParentID(), "has_media", draft.Media != nil)
	return ExecuteRefreshMessages(ctx, RefreshMessagesDeps{State: deps.State, Backend: deps.Backend})
}

// StartReplyInput identifies the message being answered.
type StartReplyInput struct {
	MessageID int64
}

// ExecuteStartReply puts the composer into reply mode for a message on screen.
// PRE: MessageID is in the displayed list
// POST: Draft.Reply is set; an unknown id leaves the state unchanged
func ExecuteStartReply(ctx context.Context, input StartReplyInput, state ForumState) (forum.State, error) {
	s, err := state.Get(ctx)
	if err != nil {
		return s, err
	}
	for _, m := range s.Messages {
		if m.ID == input.MessageID {
			return state.Apply(ctx, forum.ReplyStarted{Target: forum.ReplyTarget{
				MessageID: m.ID, Username: m.Username, Original: m.Message,
			}})
		}
	}
	return s, nil
}

// ExecuteAttachMedia validates and attaches a file to the draft.
// POST: invalid files are rejected with a notice; the previous attachment stays
func ExecuteAttachMedia(ctx context.Context, media forum.Media, state ForumState) (forum.State, error) {
	if err := media.Validate(); err != nil {
		s, applyErr := state.Apply(ctx, forum.NoticeRaised{Notice: forum.SendNotice(err)})
		if applyErr != nil {
			return s, applyErr
		}
		return s, err
	}
	return state.Apply(ctx, forum.MediaAttached{Media: media})
}
