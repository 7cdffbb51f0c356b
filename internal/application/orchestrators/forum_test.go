package orchestrators

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"sunrise/internal/domain/forum"
)

func selectDeps(state ForumState, backend *fakeBackend) SelectTopicDeps {
	return SelectTopicDeps{State: state, Backend: backend, Catalogue: testCatalogue}
}

// TestExecuteSelectTopic_FetchesMessages tests that selecting a topic fetches and displays its messages.
func TestExecuteSelectTopic_FetchesMessages(t *testing.T) {
	ctx := context.Background()
	state := newForumState()
	backend := newFakeBackend()
	backend.messages["11"] = []forum.Message{{ID: 1, Username: "jatin", Message: "hi", TopicID: 11}}

	s, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "11"}, selectDeps(state, backend))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.CurrentTopic.ID != "11" {
		t.Errorf("CurrentTopic = %q, want 11", s.CurrentTopic.ID)
	}
	if !s.Loaded || len(s.Messages) != 1 {
		t.Errorf("Loaded=%v Messages=%d, want loaded with 1 message", s.Loaded, len(s.Messages))
	}
}

// TestExecuteSelectTopic_Locked tests that a locked topic is never fetched and leaves the selection alone.
func TestExecuteSelectTopic_Locked(t *testing.T) {
	ctx := context.Background()
	state := newForumState()
	backend := newFakeBackend()

	if _, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "11"}, selectDeps(state, backend)); err != nil {
		t.Fatalf("select 11: %v", err)
	}
	calls := backend.listCount()

	s, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "12"}, selectDeps(state, backend))
	if !errors.Is(err, forum.ErrTopicLocked) {
		t.Fatalf("expected ErrTopicLocked, got %v", err)
	}
	if s.CurrentTopic.ID != "11" {
		t.Errorf("CurrentTopic = %q, want unchanged 11", s.CurrentTopic.ID)
	}
	if s.Notice != forum.NoticeTopicLocked {
		t.Errorf("Notice = %q", s.Notice)
	}
	if backend.listCount() != calls {
		t.Error("expected no fetch for a locked topic")
	}
}

// TestExecuteSelectTopic_Unknown tests that an id outside the catalogue is rejected.
func TestExecuteSelectTopic_Unknown(t *testing.T) {
	_, err := ExecuteSelectTopic(context.Background(), SelectTopicInput{TopicID: "99"}, selectDeps(newForumState(), newFakeBackend()))
	if !errors.Is(err, forum.ErrUnknownTopic) {
		t.Errorf("expected ErrUnknownTopic, got %v", err)
	}
}

// TestExecuteOpenForum_DefaultTopic tests role-based default selection on first visit.
func TestExecuteOpenForum_DefaultTopic(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		role string
		want string
	}{
		{"physics", "11"},
		{"chemistry", "11"}, // the matching topic is locked
		{"admin", "11"},
		{"", "11"},
		{"general", "gen"},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			s, err := ExecuteOpenForum(ctx, OpenForumInput{Role: tt.role}, selectDeps(newForumState(), newFakeBackend()))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.CurrentTopic.ID != tt.want {
				t.Errorf("CurrentTopic = %q, want %q", s.CurrentTopic.ID, tt.want)
			}
		})
	}
}

// TestExecuteOpenForum_KeepsSelection tests that reopening the page refreshes the topic already selected.
func TestExecuteOpenForum_KeepsSelection(t *testing.T) {
	ctx := context.Background()
	state := newForumState()
	backend := newFakeBackend()
	if _, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "gen"}, selectDeps(state, backend)); err != nil {
		t.Fatal(err)
	}
	s, err := ExecuteOpenForum(ctx, OpenForumInput{Role: "physics"}, selectDeps(state, backend))
	if err != nil {
		t.Fatal(err)
	}
	if s.CurrentTopic.ID != "gen" {
		t.Errorf("CurrentTopic = %q, want gen", s.CurrentTopic.ID)
	}
}

// TestExecuteRefreshMessages_StaleResponseDropped tests that a response for a topic the viewer
// has left never replaces the list of the topic now selected.
func TestExecuteRefreshMessages_StaleResponseDropped(t *testing.T) {
	ctx := context.Background()
	state := newForumState()
	backend := newFakeBackend()
	backend.messages["11"] = []forum.Message{{ID: 1, Message: "physics"}}
	backend.messages["gen"] = []forum.Message{{ID: 2, Message: "general"}}

	if _, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "11"}, selectDeps(state, backend)); err != nil {
		t.Fatal(err)
	}

	// While a poll of topic 11 is in flight, the viewer switches to gen.
	switched := false
	backend.beforeList = func(topicID string) {
		if topicID != "11" || switched {
			return
		}
		switched = true
		if _, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "gen"}, selectDeps(state, backend)); err != nil {
			t.Errorf("switch: %v", err)
		}
	}
	if _, err := ExecuteRefreshMessages(ctx, RefreshMessagesDeps{State: state, Backend: backend}); err != nil {
		t.Fatal(err)
	}

	s, _ := state.Get(ctx)
	if s.CurrentTopic.ID != "gen" {
		t.Fatalf("CurrentTopic = %q", s.CurrentTopic.ID)
	}
	if len(s.Messages) != 1 || s.Messages[0].Message != "general" {
		t.Errorf("Messages = %+v, want the general list", s.Messages)
	}
}

// TestExecuteRefreshMessages_Failures tests load-failure notices and that the last list is kept.
func TestExecuteRefreshMessages_Failures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantText  string
		wantLogin bool
	}{
		{"unauthorized", forum.ErrUnauthorized, forum.NoticeLoginToView, true},
		{"server error", &forum.APIError{Status: http.StatusInternalServerError}, forum.NoticeLoadFailed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			state := newForumState()
			backend := newFakeBackend()
			backend.messages["11"] = []forum.Message{{ID: 1}}
			if _, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "11"}, selectDeps(state, backend)); err != nil {
				t.Fatal(err)
			}

			backend.listErr = tt.err
			s, err := ExecuteRefreshMessages(ctx, RefreshMessagesDeps{State: state, Backend: backend})
			if !errors.Is(err, tt.err) {
				t.Errorf("err = %v, want %v", err, tt.err)
			}
			if s.FeedError != tt.wantText || s.NeedsLogin != tt.wantLogin {
				t.Errorf("FeedError=%q NeedsLogin=%v", s.FeedError, s.NeedsLogin)
			}
			if len(s.Messages) != 1 {
				t.Errorf("expected the last good list to be kept, got %d messages", len(s.Messages))
			}
		})
	}
}

// TestExecuteRefreshMessages_NoTopic tests that nothing is fetched before a topic is chosen.
func TestExecuteRefreshMessages_NoTopic(t *testing.T) {
	backend := newFakeBackend()
	if _, err := ExecuteRefreshMessages(context.Background(), RefreshMessagesDeps{State: newForumState(), Backend: backend}); err != nil {
		t.Fatal(err)
	}
	if backend.listCount() != 0 {
		t.Error("expected no fetch")
	}
}

// TestExecuteSendMessage_NoNetworkCall tests the cases where Send never reaches the backend.
func TestExecuteSendMessage_NoNetworkCall(t *testing.T) {
	ctx := context.Background()

	t.Run("empty draft", func(t *testing.T) {
		state := newForumState()
		backend := newFakeBackend()
		if _, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "11"}, selectDeps(state, backend)); err != nil {
			t.Fatal(err)
		}
		_, err := ExecuteSendMessage(ctx, SendMessageInput{Text: "   \n\t"}, SendMessageDeps{State: state, Backend: backend})
		if !errors.Is(err, forum.ErrEmptyDraft) {
			t.Errorf("expected ErrEmptyDraft, got %v", err)
		}
		if len(backend.created) != 0 {
			t.Error("expected no create call")
		}
	})

	t.Run("no topic", func(t *testing.T) {
		state := newForumState()
		backend := newFakeBackend()
		s, err := ExecuteSendMessage(ctx, SendMessageInput{Text: "hello"}, SendMessageDeps{State: state, Backend: backend})
		if !errors.Is(err, forum.ErrNoTopic) {
			t.Errorf("expected ErrNoTopic, got %v", err)
		}
		if s.Notice != forum.NoticeSelectTopic {
			t.Errorf("Notice = %q", s.Notice)
		}
		if s.Draft.Text != "hello" {
			t.Errorf("draft should be kept, got %q", s.Draft.Text)
		}
		if len(backend.created) != 0 {
			t.Error("expected no create call")
		}
	})

	t.Run("unsupported media", func(t *testing.T) {
		state := newForumState()
		backend := newFakeBackend()
		if _, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "11"}, selectDeps(state, backend)); err != nil {
			t.Fatal(err)
		}
		media := &forum.Media{Filename: "notes.pdf", ContentType: "application/pdf", Size: 10, Data: []byte("x")}
		_, err := ExecuteSendMessage(ctx, SendMessageInput{Media: media}, SendMessageDeps{State: state, Backend: backend})
		if !errors.Is(err, forum.ErrUnsupportedMedia) {
			t.Errorf("expected ErrUnsupportedMedia, got %v", err)
		}
		if len(backend.created) != 0 {
			t.Error("expected no create call")
		}
	})
}

// TestExecuteSendMessage_Reply tests a successful reply: trimmed text, parent id, cleared draft and a refetch.
func TestExecuteSendMessage_Reply(t *testing.T) {
	ctx := context.Background()
	state := newForumState()
	backend := newFakeBackend()
	backend.messages["11"] = []forum.Message{{ID: 7, Username: "jatin", Message: "What is torque?"}}
	if _, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "11"}, selectDeps(state, backend)); err != nil {
		t.Fatal(err)
	}
	s, err := ExecuteStartReply(ctx, StartReplyInput{MessageID: 7}, state)
	if err != nil {
		t.Fatal(err)
	}
	if s.Draft.Placeholder() != "Replying to jatin..." {
		t.Errorf("Placeholder = %q", s.Draft.Placeholder())
	}
	calls := backend.listCount()

	s, err = ExecuteSendMessage(ctx, SendMessageInput{Text: "  force times radius  "}, SendMessageDeps{State: state, Backend: backend})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(backend.created) != 1 {
		t.Fatalf("created = %d, want 1", len(backend.created))
	}
	got := backend.created[0]
	if got.Message != "force times radius" || got.TopicID != "11" || got.ParentID != 7 {
		t.Errorf("request = %+v", got)
	}
	if s.Draft.Text != "" || s.Draft.Reply != nil || s.Draft.Media != nil || s.Sending {
		t.Errorf("draft not cleared: %+v sending=%v", s.Draft, s.Sending)
	}
	if backend.listCount() != calls+1 {
		t.Error("expected a refetch after sending")
	}
}

// TestExecuteSendMessage_BackendErrors tests the notice shown for each kind of send failure.
func TestExecuteSendMessage_BackendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", forum.ErrUnauthorized, forum.NoticeLoginToSend},
		{"access denied", &forum.AccessDeniedError{}, forum.NoticeUpgradeRequired},
		{"server message", &forum.APIError{Status: 400, Message: "Message too long"}, "Message too long"},
		{"generic", &forum.APIError{Status: 502}, forum.NoticeSendFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			state := newForumState()
			backend := newFakeBackend()
			if _, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "11"}, selectDeps(state, backend)); err != nil {
				t.Fatal(err)
			}
			backend.sendErr = tt.err
			s, err := ExecuteSendMessage(ctx, SendMessageInput{Text: "hello"}, SendMessageDeps{State: state, Backend: backend})
			if !errors.Is(err, tt.err) {
				t.Errorf("err = %v", err)
			}
			if s.Notice != tt.want {
				t.Errorf("Notice = %q, want %q", s.Notice, tt.want)
			}
			if s.Draft.Text != "hello" || s.Sending {
				t.Errorf("draft should be kept and sending cleared: %+v %v", s.Draft, s.Sending)
			}
		})
	}
}

// TestExecuteAttachMedia tests validation of attachments.
func TestExecuteAttachMedia(t *testing.T) {
	ctx := context.Background()
	state := newForumState()
	s, err := ExecuteAttachMedia(ctx, forum.Media{Filename: "a.png", ContentType: "image/png", Size: 3, Data: []byte("png")}, state)
	if err != nil || s.Draft.Media == nil {
		t.Fatalf("attach image: %v %+v", err, s.Draft)
	}
	s, err = ExecuteAttachMedia(ctx, forum.Media{Filename: "a.zip", ContentType: "application/zip", Size: 3}, state)
	if !errors.Is(err, forum.ErrUnsupportedMedia) {
		t.Errorf("err = %v", err)
	}
	if s.Draft.Media == nil || s.Draft.Media.Filename != "a.png" {
		t.Error("previous attachment should be kept")
	}
}

// TestExecuteDeleteMessage tests optimistic removal followed by a refetch.
func TestExecuteDeleteMessage(t *testing.T) {
	ctx := context.Background()
	state := newForumState()
	backend := newFakeBackend()
	backend.messages["11"] = []forum.Message{{ID: 1}, {ID: 2}}
	if _, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "11"}, selectDeps(state, backend)); err != nil {
		t.Fatal(err)
	}
	backend.messages["11"] = []forum.Message{{ID: 1}}

	s, err := ExecuteDeleteMessage(ctx, 2, ModerateMessageDeps{State: state, Backend: backend})
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Messages) != 1 || s.Messages[0].ID != 1 {
		t.Errorf("Messages = %+v", s.Messages)
	}

	backend.delErr = &forum.APIError{Status: 403}
	s, err = ExecuteDeleteMessage(ctx, 1, ModerateMessageDeps{State: state, Backend: backend})
	if err == nil {
		t.Fatal("expected error")
	}
	if s.Notice != forum.NoticeDeleteFailed || len(s.Messages) != 1 {
		t.Errorf("Notice=%q Messages=%d", s.Notice, len(s.Messages))
	}
}

// TestExecuteVoteMessage tests vote validation and refetch.
func TestExecuteVoteMessage(t *testing.T) {
	ctx := context.Background()
	state := newForumState()
	backend := newFakeBackend()
	backend.messages["11"] = []forum.Message{{ID: 1, Upvotes: 2}}
	if _, err := ExecuteSelectTopic(ctx, SelectTopicInput{TopicID: "11"}, selectDeps(state, backend)); err != nil {
		t.Fatal(err)
	}

	if _, err := ExecuteVoteMessage(ctx, 1, "sideways", ModerateMessageDeps{State: state, Backend: backend}); !errors.Is(err, forum.ErrInvalidVote) {
		t.Errorf("expected ErrInvalidVote, got %v", err)
	}
	backend.messages["11"] = []forum.Message{{ID: 1, Upvotes: 3}}
	s, err := ExecuteVoteMessage(ctx, 1, forum.VoteUp, ModerateMessageDeps{State: state, Backend: backend})
	if err != nil {
		t.Fatal(err)
	}
	if s.Messages[0].Upvotes != 3 {
		t.Errorf("Upvotes = %d, want 3", s.Messages[0].Upvotes)
	}
	if len(backend.votes) != 1 || backend.votes[0] != forum.VoteUp {
		t.Errorf("votes = %v", backend.votes)
	}
}
