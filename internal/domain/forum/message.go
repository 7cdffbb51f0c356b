package forum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// ReplyQuoteLimit is the number of characters of the quoted message shown in a reply block.
const ReplyQuoteLimit = 50

// BackendLocation is the zone used for backend timestamps that carry no offset.
// Set once at startup from configuration.
var BackendLocation = time.UTC

// VoteType is the direction of a vote on a message.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Valid reports whether v is one of the two supported vote directions.
func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Message is a forum post as returned by the backend.
// Identity is ID; a message is never edited client-side.
type Message struct {
	ID              int64     `json:"id"`
	Username        string    `json:"username"`
	Message         string    `json:"message"`
	Timestamp       Timestamp `json:"timestamp"`
	MediaURL        string    `json:"media_url,omitempty"`
	ReplyToUsername string    `json:"reply_to_username,omitempty"`
	ReplyToMessage  string    `json:"reply_to_message,omitempty"`
	Upvotes         int       `json:"upvotes"`
	Downvotes       int       `json:"downvotes"`
	TopicID         int64     `json:"topic_id"`
}

// IsOwn reports whether the message was written by identity.
// An empty identity never owns a message.
func (m Message) IsOwn(identity string) bool {
	return identity != "" && m.Username == identity
}

// Initial returns the avatar letter for the author.
func (m Message) Initial() string {
	return Initial(m.Username)
}

// HasReply reports whether the message quotes another one.
func (m Message) HasReply() bool {
	return m.ReplyToUsername != "" && m.ReplyToMessage != ""
}

// ReplyQuote returns the quoted text shortened to ReplyQuoteLimit characters.
func (m Message) ReplyQuote() string {
	return Truncate(m.ReplyToMessage, ReplyQuoteLimit)
}

// Media returns the kind of media attached to the message, judged by file suffix.
func (m Message) Media() MediaKind {
	return MediaKindOfURL(m.MediaURL)
}

// Initial returns the upper-cased first letter of name, or "U" when name is empty.
func Initial(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || r == utf8.RuneError {
		return "U"
	}
	return string(unicode.ToUpper(r))
}

// Truncate shortens s to limit runes and appends "..." when anything was cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

// MediaKind classifies an attachment.
type MediaKind string

const (
	MediaNone  MediaKind = ""
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

var (
	imageSuffix = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)
	videoSuffix = regexp.MustCompile(`(?i)\.(mp4|webm|ogg)$`)
)

// MediaKindOfURL matches the file suffix of a media URL.
func MediaKindOfURL(url string) MediaKind {
	switch {
	case url == "":
		return MediaNone
	case imageSuffix.MatchString(url):
		return MediaImage
	case videoSuffix.MatchString(url):
		return MediaVideo
	}
	return MediaNone
}

// MediaKindOfType classifies a MIME type by its image/ or video/ prefix.
func MediaKindOfType(contentType string) MediaKind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaImage
	case strings.HasPrefix(contentType, "video/"):
		return MediaVideo
	}
	return MediaNone
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// SplitFirstURL splits text around its first http(s) URL.
// ok is false when the text contains no URL.
func SplitFirstURL(text string) (before, url, after string, ok bool) {
	loc := urlPattern.FindStringIndex(text)
	if loc == nil {
		return text, "", "", false
	}
	return text[:loc[0]], text[loc[0]:loc[1]], text[loc[1]:], true
}

// Timestamp accepts the several time encodings the backend has used.
type Timestamp struct {
	time.Time
}

// zonedLayouts carry their own offset; localLayouts are read in BackendLocation.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		time.RFC1123, // Flask jsonify: "Fri, 01 Mar 2024 09:00:00 GMT"
		time.RFC1123Z,
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999",
		"2006-01-02 15:04:05.999999",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}
)

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		// An unreadable value decodes as the zero time so the rest of the list still renders.
		slog.Warn("forum_timestamp_unparsed", "value", raw)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// ParseTimestamp parses a backend timestamp; zone-less values are read in BackendLocation.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range zonedLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	for _, layout := range localLayouts {
		if ts, err := time.ParseInLocation(layout, raw, BackendLocation); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp: unrecognised format %q", raw)
}
