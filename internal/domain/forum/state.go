package forum

// State is one viewer's forum client state. It is a value: Reduce returns a new
// State and never mutates slices reachable from its input.
type State struct {
	CurrentTopic Topic `json:"current_topic"`

	// Generation is the latest list-fetch generation issued. Applied is the
	// generation whose outcome is on display; results at or below it are stale.
	Generation uint64 `json:"generation"`
	Applied    uint64 `json:"applied"`

	Messages   []Message `json:"messages"`
	Loaded     bool      `json:"loaded"`
	FeedError  string    `json:"feed_error,omitempty"`
	NeedsLogin bool      `json:"needs_login,omitempty"`

	Notice  string       `json:"notice,omitempty"`
	Draft   Draft        `json:"draft"`
	Sending bool         `json:"sending,omitempty"`
	Mention MentionQuery `json:"mention"`

	MentionSeq uint64 `json:"mention_seq"`
}

// Action is an event applied to State by Reduce.
type Action interface {
	apply(State) State
}

// TopicSelected makes Topic current and invalidates in-flight fetches.
type TopicSelected struct{ Topic Topic }

// TopicBlocked reports an attempt to open a locked topic. CurrentTopic is unchanged.
type TopicBlocked struct{ Notice string }

// FetchStarted issues a new list generation.
type FetchStarted struct{}

// FetchSucceeded carries a list response for the generation it was issued under.
type FetchSucceeded struct {
	Generation uint64
	TopicID    string
	Messages   []Message
}

// FetchFailed carries a list failure for the generation it was issued under.
type FetchFailed struct {
	Generation   uint64
	TopicID      string
	Notice       string
	Unauthorized bool
}

// DraftChanged replaces the composer text.
type DraftChanged struct{ Text string }

// MediaAttached sets the single draft attachment.
type MediaAttached struct{ Media Media }

// MediaRemoved clears the draft attachment.
type MediaRemoved struct{}

// ReplyStarted puts the composer in reply mode.
type ReplyStarted struct{ Target ReplyTarget }

// ReplyCancelled leaves reply mode.
type ReplyCancelled struct{}

// SendStarted disables the send button.
type SendStarted struct{}

// SendSucceeded clears the draft.
type SendSucceeded struct{}

// SendFailed keeps the draft and shows Notice.
type SendFailed struct{ Notice string }

// NoticeRaised shows a transient notice.
type NoticeRaised struct{ Notice string }

// NoticeDismissed clears the notice.
type NoticeDismissed struct{}

// MentionOpened starts a suggestion query and assigns it the next query id.
type MentionOpened struct{ Query string }

// MentionResults delivers suggestions for QueryID.
type MentionResults struct {
	QueryID     uint64
	Suggestions []Suggestion
}

// MentionMoved shifts the highlight, wrapping.
type MentionMoved struct{ Delta int }

// MentionHovered highlights Index.
type MentionHovered struct{ Index int }

// MentionClosed dismisses the suggestion list.
type MentionClosed struct{}

// MentionAccepted writes the rewritten composer text and closes the list.
type MentionAccepted struct{ Text string }

// VoteApplied patches the vote counts of one message ahead of the refetch.
type VoteApplied struct {
	MessageID int64
	Vote      VoteType
}

// MessageRemoved drops one message ahead of the refetch.
type MessageRemoved struct{ MessageID int64 }

// Reduce applies actions in order.
func Reduce(s State, actions ...Action) State {
	for _, a := range actions {
		if a != nil {
			s = a.apply(s)
		}
	}
	return s
}

func (a TopicSelected) apply(s State) State {
	s.CurrentTopic = a.Topic
	s.Applied = s.Generation
	s.Messages = nil
	s.Loaded = false
	s.FeedError = ""
	s.NeedsLogin = false
	s.Notice = ""
	s.Draft.Reply = nil
	s.Mention = MentionQuery{}
	return s
}

func (a TopicBlocked) apply(s State) State {
	s.Notice = a.Notice
	return s
}

func (FetchStarted) apply(s State) State {
	s.Generation++
	return s
}

func (s State) accepts(generation uint64, topicID string) bool {
	return topicID == s.CurrentTopic.ID && generation > s.Applied && generation <= s.Generation
}

func (a FetchSucceeded) apply(s State) State {
	if !s.accepts(a.Generation, a.TopicID) {
		return s
	}
	s.Applied = a.Generation
	s.Messages = append([]Message(nil), a.Messages...)
	s.Loaded = true
	s.FeedError = ""
	s.NeedsLogin = false
	return s
}

func (a FetchFailed) apply(s State) State {
	if !s.accepts(a.Generation, a.TopicID) {
		return s
	}
	s.Applied = a.Generation
	s.FeedError = a.Notice
	s.NeedsLogin = a.Unauthorized
	return s
}

func (a DraftChanged) apply(s State) State {
	s.Draft.Text = a.Text
	return s
}

func (a MediaAttached) apply(s State) State {
	m := a.Media
	s.Draft.Media = &m
	return s
}

func (MediaRemoved) apply(s State) State {
	s.Draft.Media = nil
	return s
}

func (a ReplyStarted) apply(s State) State {
	t := a.Target
	s.Draft.Reply = &t
	return s
}

func (ReplyCancelled) apply(s State) State {
	s.Draft.Reply = nil
	return s
}

func (SendStarted) apply(s State) State {
	s.Sending = true
	s.Notice = ""
	return s
}

func (SendSucceeded) apply(s State) State {
	s.Sending = false
	s.Draft = Draft{}
	s.Mention = MentionQuery{}
	return s
}

func (a SendFailed) apply(s State) State {
	s.Sending = false
	s.Notice = a.Notice
	return s
}

func (a NoticeRaised) apply(s State) State {
	s.Notice = a.Notice
	return s
}

func (NoticeDismissed) apply(s State) State {
	s.Notice = ""
	return s
}

func (a MentionOpened) apply(s State) State {
	s.MentionSeq++
	s.Mention = MentionQuery{
		Open:          true,
		RawQuery:      a.Query,
		Suggestions:   s.Mention.Suggestions,
		SelectedIndex: s.Mention.SelectedIndex,
		QueryID:       s.MentionSeq,
	}
	return s
}

func (a MentionResults) apply(s State) State {
	if !s.Mention.Open || a.QueryID != s.Mention.QueryID {
		return s
	}
	s.Mention.Suggestions = append([]Suggestion(nil), CapSuggestions(a.Suggestions)...)
	s.Mention.SelectedIndex = 0
	return s
}

func (a MentionMoved) apply(s State) State {
	s.Mention = s.Mention.Move(a.Delta)
	return s
}

func (a MentionHovered) apply(s State) State {
	if a.Index >= 0 && a.Index < len(s.Mention.Suggestions) {
		s.Mention.SelectedIndex = a.Index
	}
	return s
}

func (MentionClosed) apply(s State) State {
	s.Mention = MentionQuery{}
	return s
}

func (a MentionAccepted) apply(s State) State {
	s.Draft.Text = a.Text
	s.Mention = MentionQuery{}
	return s
}

func (a VoteApplied) apply(s State) State {
	msgs := make([]Message, len(s.Messages))
	copy(msgs, s.Messages)
	for i := range msgs {
		if msgs[i].ID != a.MessageID {
			continue
		}
		switch a.Vote {
		case VoteUp:
			msgs[i].Upvotes++
		case VoteDown:
			msgs[i].Downvotes++
		}
	}
	s.Messages = msgs
	return s
}

func (a MessageRemoved) apply(s State) State {
	msgs := make([]Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m.ID != a.MessageID {
			msgs = append(msgs, m)
		}
	}
	s.Messages = msgs
	return s
}
