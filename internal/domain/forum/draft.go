package forum

import (
	"strings"
)

// Composer limits.
const (
	ReplyPreviewLimit = 100
	MaxMediaBytes     = 25 << 20

	PlaceholderDefault = "Type your message..."
)

// Media is a file picked for upload. Data is held in memory until the draft is sent.
type Media struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// Kind classifies the attachment by MIME type.
func (m Media) Kind() MediaKind {
	return MediaKindOfType(m.ContentType)
}

// Validate checks the attachment can be sent.
// PRE: Media struct is populated
// POST: Returns nil if the MIME type is image/* or video/* and the size is within MaxMediaBytes
func (m Media) Validate() error {
	if m.Kind() == MediaNone {
		return ErrUnsupportedMedia
	}
	if m.Size > MaxMediaBytes {
		return ErrMediaTooLarge
	}
	return nil
}

// ReplyTarget is the message a draft answers.
type ReplyTarget struct {
	MessageID int64  `json:"message_id"`
	Username  string `json:"username"`
	Original  string `json:"original"`
}

// Preview is the indicator text above the composer.
func (r ReplyTarget) Preview() string {
	return Truncate(r.Original, ReplyPreviewLimit)
}

// Draft is the composer's unsent message.
type Draft struct {
	Text  string       `json:"text"`
	Media *Media       `json:"media,omitempty"`
	Reply *ReplyTarget `json:"reply,omitempty"`
}

// IsEmpty reports whether sending the draft would be a no-op.
// INVARIANT: true iff trimmed text is empty and no media is attached
func (d Draft) IsEmpty() bool {
	return strings.TrimSpace(d.Text) == "" && d.Media == nil
}

// TrimmedText is the text actually sent.
func (d Draft) TrimmedText() string {
	return strings.TrimSpace(d.Text)
}

// Placeholder is the composer hint for the current reply mode.
func (d Draft) Placeholder() string {
	if d.Reply != nil {
		return "Replying to " + d.Reply.Username + "..."
	}
	return PlaceholderDefault
}

// ParentID is the reply target's message id, or 0.
func (d Draft) ParentID() int64 {
	if d.Reply == nil {
		return 0
	}
	return d.Reply.MessageID
}
