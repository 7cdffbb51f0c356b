package forum

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Mention search limits.
const (
	MinQueryLen    = 2
	MaxSuggestions = 50
	noClass        = "No Class"
)

// AvatarPalette holds the suggestion avatar colours, indexed by a hash of the username.
var AvatarPalette = []string{"#6a82fb", "#fc5c7d", "#64c864", "#ffc107", "#9c27b0", "#ff5722"}

// Suggestion is a user returned by the mention search.
type Suggestion struct {
	Username  string `json:"username"`
	ClassName string `json:"class_name,omitempty"`
	Mobile    string `json:"mobile_no,omitempty"`
	Email     string `json:"email_address,omitempty"`
}

// Label is the display name, with the class in parentheses when known.
func (s Suggestion) Label() string {
	if s.ClassName == "" || s.ClassName == noClass {
		return s.Username
	}
	return s.Username + " (" + s.ClassName + ")"
}

// Contact joins whichever of mobile and email are present.
func (s Suggestion) Contact() string {
	var parts []string
	if s.Mobile != "" {
		parts = append(parts, "📱 "+s.Mobile)
	}
	if s.Email != "" {
		parts = append(parts, "📧 "+s.Email)
	}
	return strings.Join(parts, " • ")
}

// Color is the avatar colour for the username.
func (s Suggestion) Color() string {
	return ColorFor(s.Username)
}

// ColorFor hashes name over UTF-16 code units with 32-bit shift semantics and picks a palette entry.
func ColorFor(name string) string {
	var hash int64
	for _, c := range utf16.Encode([]rune(name)) {
		shifted := int64(int32(uint32(int32(hash)) << 5))
		hash = int64(c) + (shifted - hash)
	}
	if hash < 0 {
		hash = -hash
	}
	return AvatarPalette[hash%int64(len(AvatarPalette))]
}

// Trigger is an @-mention being typed. Offsets are rune indexes into the text.
type Trigger struct {
	At     int    `json:"at"`
	Cursor int    `json:"cursor"`
	Query  string `json:"query"`
}

// ShouldSearch applies the query policy: empty lists everyone, one character waits, two or more filters.
func (t Trigger) ShouldSearch() bool {
	n := utf8.RuneCountInString(t.Query)
	return n == 0 || n >= MinQueryLen
}

// DetectMention finds an @ followed only by word characters immediately before cursor.
// PRE: cursor is a rune offset; out-of-range values are clamped
// POST: ok is true iff the text before the cursor matches @\w*$
func DetectMention(text string, cursor int) (Trigger, bool) {
	runes := []rune(text)
	cursor = clamp(cursor, 0, len(runes))
	i := cursor
	for i > 0 && isWordRune(runes[i-1]) {
		i--
	}
	if i == 0 || runes[i-1] != '@' {
		return Trigger{}, false
	}
	return Trigger{At: i - 1, Cursor: cursor, Query: string(runes[i:cursor])}, true
}

// AcceptMention replaces the mention at or before cursor with "@username ".
// The replaced span runs from the nearest @ before the cursor through every word
// character that follows it, including any after the cursor.
// POST: newCursor sits immediately after the inserted trailing space
func AcceptMention(text string, cursor int, username string) (newText string, newCursor int, err error) {
	runes := []rune(text)
	cursor = clamp(cursor, 0, len(runes))
	at := -1
	for i := cursor - 1; i >= 0; i-- {
		if runes[i] == '@' {
			at = i
			break
		}
	}
	if at < 0 {
		return text, cursor, ErrNoMention
	}
	end := at + 1
	for end < len(runes) && isWordRune(runes[end]) {
		end++
	}
	inserted := "@" + username + " "
	newText = string(runes[:at]) + inserted + string(runes[end:])
	return newText, at + utf8.RuneCountInString(inserted), nil
}

// MentionQuery is the open suggestion list.
type MentionQuery struct {
	Open          bool         `json:"open"`
	RawQuery      string       `json:"raw_query"`
	Suggestions   []Suggestion `json:"suggestions"`
	SelectedIndex int          `json:"selected_index"`
	QueryID       uint64       `json:"query_id"`
}

// Selected returns the highlighted suggestion.
func (q MentionQuery) Selected() (Suggestion, bool) {
	if !q.Open || q.SelectedIndex < 0 || q.SelectedIndex >= len(q.Suggestions) {
		return Suggestion{}, false
	}
	return q.Suggestions[q.SelectedIndex], true
}

// Move shifts the highlight by delta, wrapping at both ends.
func (q MentionQuery) Move(delta int) MentionQuery {
	n := len(q.Suggestions)
	if n == 0 {
		return q
	}
	q.SelectedIndex = ((q.SelectedIndex+delta)%n + n) % n
	return q
}

// CapSuggestions truncates a search result to MaxSuggestions.
func CapSuggestions(list []Suggestion) []Suggestion {
	if len(list) > MaxSuggestions {
		return list[:MaxSuggestions]
	}
	return list
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
