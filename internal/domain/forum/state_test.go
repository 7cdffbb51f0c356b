package forum_test

import (
	"testing"

	"sunrise/internal/domain/forum"
)

func selected(id string) forum.State {
	return forum.Reduce(forum.State{}, forum.TopicSelected{Topic: forum.Topic{ID: id, Name: "Class " + id}})
}

// TestReduce_FetchGenerations tests that stale list responses never render.
func TestReduce_FetchGenerations(t *testing.T) {
	s := selected("5")
	s = forum.Reduce(s, forum.FetchStarted{})
	first := s.Generation
	s = forum.Reduce(s, forum.FetchStarted{})
	second := s.Generation

	s = forum.Reduce(s, forum.FetchSucceeded{Generation: second, TopicID: "5", Messages: []forum.Message{{ID: 2}}})
	s = forum.Reduce(s, forum.FetchSucceeded{Generation: first, TopicID: "5", Messages: []forum.Message{{ID: 1}}})
	if len(s.Messages) != 1 || s.Messages[0].ID != 2 {
		t.Fatalf("older response overwrote newer one: %+v", s.Messages)
	}

	// A fetch issued for topic 5 lands after a switch to topic 6.
	s = forum.Reduce(s, forum.FetchStarted{})
	late := s.Generation
	s = forum.Reduce(s, forum.TopicSelected{Topic: forum.Topic{ID: "6"}})
	s = forum.Reduce(s, forum.FetchSucceeded{Generation: late, TopicID: "5", Messages: []forum.Message{{ID: 99}}})
	if len(s.Messages) != 0 || s.Loaded {
		t.Fatalf("late response for old topic rendered: %+v", s.Messages)
	}

	// Same topic re-selected: the pre-switch generation is still stale.
	s = forum.Reduce(s, forum.TopicSelected{Topic: forum.Topic{ID: "5"}})
	s = forum.Reduce(s, forum.FetchSucceeded{Generation: late, TopicID: "5", Messages: []forum.Message{{ID: 99}}})
	if s.Loaded {
		t.Fatal("generation issued before the switch was accepted")
	}
}

// TestReduce_FetchFailedKeepsMessages tests that a failed refresh keeps the last good list.
func TestReduce_FetchFailedKeepsMessages(t *testing.T) {
	s := forum.Reduce(selected("5"), forum.FetchStarted{})
	s = forum.Reduce(s, forum.FetchSucceeded{Generation: s.Generation, TopicID: "5", Messages: []forum.Message{{ID: 1}}})
	s = forum.Reduce(s, forum.FetchStarted{})
	s = forum.Reduce(s, forum.FetchFailed{Generation: s.Generation, TopicID: "5", Notice: forum.NoticeLoginToView, Unauthorized: true})

	if len(s.Messages) != 1 {
		t.Errorf("messages dropped on failure: %+v", s.Messages)
	}
	if !s.NeedsLogin || s.FeedError != forum.NoticeLoginToView {
		t.Errorf("failure not recorded: needsLogin=%v feedError=%q", s.NeedsLogin, s.FeedError)
	}

	s = forum.Reduce(s, forum.FetchStarted{})
	s = forum.Reduce(s, forum.FetchSucceeded{Generation: s.Generation, TopicID: "5"})
	if s.NeedsLogin || s.FeedError != "" {
		t.Error("success did not clear the failure")
	}
}

// TestReduce_TopicBlocked tests that a blocked switch leaves the current topic alone.
func TestReduce_TopicBlocked(t *testing.T) {
	s := selected("5")
	gen := s.Generation
	s = forum.Reduce(s, forum.TopicBlocked{Notice: forum.NoticeTopicLocked})
	if s.CurrentTopic.ID != "5" || s.Generation != gen {
		t.Errorf("blocked switch changed state: topic=%s gen=%d", s.CurrentTopic.ID, s.Generation)
	}
	if s.Notice != forum.NoticeTopicLocked {
		t.Errorf("Notice = %q", s.Notice)
	}
}

// TestReduce_Composer tests reply mode and the send lifecycle.
func TestReduce_Composer(t *testing.T) {
	s := selected("5")
	s = forum.Reduce(s,
		forum.DraftChanged{Text: "hello"},
		forum.MediaAttached{Media: forum.Media{Filename: "a.png", ContentType: "image/png"}},
		forum.ReplyStarted{Target: forum.ReplyTarget{MessageID: 3, Username: "amy", Original: "question"}},
	)
	if got := s.Draft.Placeholder(); got != "Replying to amy..." {
		t.Errorf("Placeholder = %q", got)
	}
	if s.Draft.ParentID() != 3 || s.Draft.Media == nil {
		t.Fatalf("draft = %+v", s.Draft)
	}

	failed := forum.Reduce(s, forum.SendStarted{}, forum.SendFailed{Notice: forum.NoticeSendFailed})
	if failed.Sending || failed.Draft.Text != "hello" || failed.Notice != forum.NoticeSendFailed {
		t.Errorf("failed send: %+v", failed)
	}

	sent := forum.Reduce(s, forum.SendStarted{})
	if !sent.Sending {
		t.Error("Sending not set")
	}
	sent = forum.Reduce(sent, forum.SendSucceeded{})
	if sent.Sending || sent.Draft.Text != "" || sent.Draft.Media != nil || sent.Draft.Reply != nil {
		t.Errorf("draft not cleared: %+v", sent.Draft)
	}
	if got := sent.Draft.Placeholder(); got != forum.PlaceholderDefault {
		t.Errorf("Placeholder = %q", got)
	}

	cancelled := forum.Reduce(s, forum.ReplyCancelled{}, forum.MediaRemoved{})
	if cancelled.Draft.Reply != nil || cancelled.Draft.Media != nil || cancelled.Draft.Text != "hello" {
		t.Errorf("cancel: %+v", cancelled.Draft)
	}
	if s.Draft.Reply == nil {
		t.Error("Reduce mutated its input")
	}
}

// TestReduce_Mentions tests query ids, navigation and acceptance.
func TestReduce_Mentions(t *testing.T) {
	s := forum.Reduce(selected("5"), forum.MentionOpened{Query: "j"})
	stale := s.Mention.QueryID
	s = forum.Reduce(s, forum.MentionOpened{Query: "ja"})
	current := s.Mention.QueryID
	if current == stale {
		t.Fatal("query id not advanced")
	}

	s = forum.Reduce(s, forum.MentionResults{QueryID: stale, Suggestions: []forum.Suggestion{{Username: "jo"}}})
	if len(s.Mention.Suggestions) != 0 {
		t.Fatal("stale suggestions applied")
	}
	s = forum.Reduce(s, forum.MentionResults{QueryID: current, Suggestions: []forum.Suggestion{{Username: "jatin"}, {Username: "jay"}}})
	if got, ok := s.Mention.Selected(); !ok || got.Username != "jatin" {
		t.Fatalf("first entry not highlighted: %+v", s.Mention)
	}

	s = forum.Reduce(s, forum.MentionMoved{Delta: -1})
	if s.Mention.SelectedIndex != 1 {
		t.Errorf("wrap up = %d, want 1", s.Mention.SelectedIndex)
	}
	s = forum.Reduce(s, forum.MentionHovered{Index: 0}, forum.MentionHovered{Index: 7})
	if s.Mention.SelectedIndex != 0 {
		t.Errorf("hover = %d, want 0", s.Mention.SelectedIndex)
	}

	s = forum.Reduce(s, forum.MentionAccepted{Text: "hello @jatin "})
	if s.Mention.Open || s.Draft.Text != "hello @jatin " {
		t.Errorf("accept: open=%v text=%q", s.Mention.Open, s.Draft.Text)
	}

	closed := forum.Reduce(s, forum.MentionClosed{}, forum.MentionResults{QueryID: current, Suggestions: []forum.Suggestion{{Username: "x"}}})
	if closed.Mention.Open || len(closed.Mention.Suggestions) != 0 {
		t.Error("results applied after close")
	}
}

// TestReduce_OptimisticPatches tests vote and delete patches.
func TestReduce_OptimisticPatches(t *testing.T) {
	s := forum.Reduce(selected("5"), forum.FetchStarted{})
	s = forum.Reduce(s, forum.FetchSucceeded{Generation: s.Generation, TopicID: "5",
		Messages: []forum.Message{{ID: 1, Upvotes: 1}, {ID: 2}}})
	original := s.Messages

	voted := forum.Reduce(s, forum.VoteApplied{MessageID: 1, Vote: forum.VoteUp}, forum.VoteApplied{MessageID: 2, Vote: forum.VoteDown})
	if voted.Messages[0].Upvotes != 2 || voted.Messages[1].Downvotes != 1 {
		t.Errorf("votes not applied: %+v", voted.Messages)
	}
	if original[0].Upvotes != 1 {
		t.Error("vote patch mutated the previous state")
	}

	removed := forum.Reduce(s, forum.MessageRemoved{MessageID: 1})
	if len(removed.Messages) != 1 || removed.Messages[0].ID != 2 {
		t.Errorf("remove: %+v", removed.Messages)
	}
	if len(s.Messages) != 2 {
		t.Error("remove patch mutated the previous state")
	}
}
