package projections

import (
	"time"

	"github.com/dustin/go-humanize"

	"sunrise/internal/domain/forum"
)

// ForumViewInput holds the viewer context needed to render the forum.
type ForumViewInput struct {
	Identity  string
	Catalogue forum.Catalogue
	Now       time.Time
	Location  *time.Location
}

// ForumView is everything the forum page and feed fragment render.
type ForumView struct {
	Topics       []TopicTab
	CurrentTopic forum.Topic
	NoTopics     bool

	Messages   []MessageView
	Loaded     bool
	EmptyText  string
	FeedError  string
	NeedsLogin bool

	Notice  string
	Sending bool
	Draft   DraftView
	Mention MentionView
}

// TopicTab is one entry of the topic selector.
type TopicTab struct {
	ID     string
	Name   string
	Active bool
	Locked bool
}

// MessageView is one rendered message.
type MessageView struct {
	ID        int64
	Revision  string
	Username  string
	Initial   string
	Own       bool
	CanDelete bool
	TimeLabel string
	Body      MessageBody
	MediaURL  string
	MediaKind forum.MediaKind
	HasReply  bool
	ReplyTo   string
	ReplyText string
	Upvotes   int
	Downvotes int
}

// MessageBody is message text split around its first URL, which is rendered as a link.
type MessageBody struct {
	Before string
	Link   string
	After  string
}

// Plain returns the body text without markup.
func (b MessageBody) Plain() string {
	return b.Before + b.Link + b.After
}

// DraftView describes the composer.
type DraftView struct {
	Text         string
	Placeholder  string
	Replying     bool
	ReplyPreview string
	ReplyTo      string
	MediaName    string
	MediaSize    string
	MediaKind    forum.MediaKind
}

// BuildForumView projects a viewer's state into its rendered form.
// PRE: Catalogue is already locked for the viewer
// POST: messages keep server order; only user-controlled text is carried, never markup
func BuildForumView(s forum.State, in ForumViewInput) ForumView {
	v := ForumView{
		CurrentTopic: s.CurrentTopic,
		NoTopics:     len(in.Catalogue) == 0,
		Loaded:       s.Loaded,
		FeedError:    s.FeedError,
		NeedsLogin:   s.NeedsLogin,
		Notice:       s.Notice,
		Sending:      s.Sending,
		Draft:        buildDraftView(s.Draft),
		Mention:      BuildMentionView(s.Mention),
	}
	for _, t := range in.Catalogue {
		v.Topics = append(v.Topics, TopicTab{ID: t.ID, Name: t.Name, Active: t.ID == s.CurrentTopic.ID, Locked: t.AccessLocked})
	}
	for _, m := range s.Messages {
		v.Messages = append(v.Messages, BuildMessageView(m, in.Identity, in.Now, in.Location))
	}
	if s.Loaded && len(s.Messages) == 0 && s.FeedError == "" {
		v.EmptyText = forum.NoticeEmptyList
	}
	if v.NoTopics {
		v.Notice = forum.NoticeNoTopics
	}
	return v
}

// BuildMessageView renders one message for identity at now.
func BuildMessageView(m forum.Message, identity string, now time.Time, loc *time.Location) MessageView {
	before, link, after, _ := forum.SplitFirstURL(m.Message)
	own := m.IsOwn(identity)
	return MessageView{
		ID:        m.ID,
		Revision:  m.Revision(),
		Username:  m.Username,
		Initial:   m.Initial(),
		Own:       own,
		CanDelete: own,
		TimeLabel: forum.FormatRelative(m.Timestamp.Time, now, loc),
		Body:      MessageBody{Before: before, Link: link, After: after},
		MediaURL:  m.MediaURL,
		MediaKind: m.Media(),
		HasReply:  m.HasReply(),
		ReplyTo:   m.ReplyToUsername,
		ReplyText: m.ReplyQuote(),
		Upvotes:   m.Upvotes,
		Downvotes: m.Downvotes,
	}
}

func buildDraftView(d forum.Draft) DraftView {
	v := DraftView{Text: d.Text, Placeholder: d.Placeholder()}
	if d.Reply != nil {
		v.Replying = true
		v.ReplyTo = d.Reply.Username
		v.ReplyPreview = d.Reply.Preview()
	}
	if d.Media != nil {
		v.MediaName = d.Media.Filename
		v.MediaSize = humanize.Bytes(uint64(d.Media.Size))
		v.MediaKind = d.Media.Kind()
	}
	return v
}
