package forum_test

import (
	"errors"
	"testing"

	"sunrise/internal/domain/forum"
)

// TestDetectMention tests trigger detection and the search policy.
func TestDetectMention(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		cursor     int
		wantOK     bool
		wantQuery  string
		wantAt     int
		wantSearch bool
	}{
		{name: "two characters search", text: "hello @ja", cursor: 9, wantOK: true, wantQuery: "ja", wantAt: 6, wantSearch: true},
		{name: "one character waits", text: "hello @j", cursor: 8, wantOK: true, wantQuery: "j", wantAt: 6, wantSearch: false},
		{name: "bare at lists everyone", text: "hello @", cursor: 7, wantOK: true, wantQuery: "", wantAt: 6, wantSearch: true},
		{name: "cursor mid word", text: "@jatin rest", cursor: 3, wantOK: true, wantQuery: "ja", wantAt: 0, wantSearch: true},
		{name: "no at sign", text: "hello", cursor: 5, wantOK: false},
		{name: "space after mention", text: "@ja rest", cursor: 8, wantOK: false},
		{name: "punctuation breaks word", text: "@ja-x", cursor: 5, wantOK: false},
		{name: "cursor clamped", text: "@abc", cursor: 99, wantOK: true, wantQuery: "abc", wantAt: 0, wantSearch: true},
		{name: "rune offsets", text: "héllo @ab", cursor: 9, wantOK: true, wantQuery: "ab", wantAt: 6, wantSearch: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := forum.DetectMention(tt.text, tt.cursor)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Query != tt.wantQuery || got.At != tt.wantAt {
				t.Errorf("trigger = %+v, want query %q at %d", got, tt.wantQuery, tt.wantAt)
			}
			if got.ShouldSearch() != tt.wantSearch {
				t.Errorf("ShouldSearch = %v, want %v", got.ShouldSearch(), tt.wantSearch)
			}
		})
	}
}

// TestAcceptMention tests span replacement and caret placement.
func TestAcceptMention(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		cursor     int
		username   string
		wantText   string
		wantCursor int
	}{
		{name: "end of text", text: "hello @ja", cursor: 9, username: "jatin", wantText: "hello @jatin ", wantCursor: 13},
		{name: "bare at", text: "@", cursor: 1, username: "amy", wantText: "@amy ", wantCursor: 5},
		{name: "consumes word after cursor", text: "hi @ja there", cursor: 5, username: "jatin", wantText: "hi @jatin  there", wantCursor: 10},
		{name: "replaces trailing word chars", text: "@jaXYZ", cursor: 3, username: "jatin", wantText: "@jatin ", wantCursor: 7},
		{name: "nearest at wins", text: "@amy and @bo", cursor: 12, username: "bob", wantText: "@amy and @bob ", wantCursor: 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotText, gotCursor, err := forum.AcceptMention(tt.text, tt.cursor, tt.username)
			if err != nil {
				t.Fatalf("AcceptMention: %v", err)
			}
			if gotText != tt.wantText || gotCursor != tt.wantCursor {
				t.Errorf("got (%q, %d), want (%q, %d)", gotText, gotCursor, tt.wantText, tt.wantCursor)
			}
		})
	}
}

// TestAcceptMention_NoAt tests the error path.
func TestAcceptMention_NoAt(t *testing.T) {
	text, cursor, err := forum.AcceptMention("hello", 5, "jatin")
	if !errors.Is(err, forum.ErrNoMention) {
		t.Fatalf("err = %v, want ErrNoMention", err)
	}
	if text != "hello" || cursor != 5 {
		t.Errorf("text changed to (%q, %d)", text, cursor)
	}
}

// TestMentionQuery_Move tests wrap-around navigation.
func TestMentionQuery_Move(t *testing.T) {
	q := forum.MentionQuery{Open: true, Suggestions: []forum.Suggestion{{Username: "a"}, {Username: "b"}, {Username: "c"}}}
	if got := q.Move(-1).SelectedIndex; got != 2 {
		t.Errorf("up from first = %d, want 2", got)
	}
	q.SelectedIndex = 2
	if got := q.Move(1).SelectedIndex; got != 0 {
		t.Errorf("down from last = %d, want 0", got)
	}
	empty := forum.MentionQuery{Open: true}
	if got := empty.Move(1).SelectedIndex; got != 0 {
		t.Errorf("empty list moved to %d", got)
	}
	if _, ok := empty.Selected(); ok {
		t.Error("empty list reported a selection")
	}
}

// TestSuggestion_Display tests label, contact line and avatar colour.
func TestSuggestion_Display(t *testing.T) {
	s := forum.Suggestion{Username: "jatin", ClassName: "Class 11", Mobile: "98765", Email: "j@x.in"}
	if got := s.Label(); got != "jatin (Class 11)" {
		t.Errorf("Label = %q", got)
	}
	if got := s.Contact(); got != "📱 98765 • 📧 j@x.in" {
		t.Errorf("Contact = %q", got)
	}
	noClass := forum.Suggestion{Username: "amy", ClassName: "No Class", Email: "a@x.in"}
	if got := noClass.Label(); got != "amy" {
		t.Errorf("Label = %q, want bare username", got)
	}
	if got := noClass.Contact(); got != "📧 a@x.in" {
		t.Errorf("Contact = %q", got)
	}

	colours := map[string]string{
		"jatin": "#6a82fb",
		"admin": "#ff5722",
		"a":     "#fc5c7d",
		"":      "#6a82fb",
		"averyveryverylongusernamethatoverflows_thirtytwo_bits_for_sure": "#fc5c7d",
	}
	for name, want := range colours {
		if got := forum.ColorFor(name); got != want {
			t.Errorf("ColorFor(%q) = %s, want %s", name, got, want)
		}
	}
}

// TestCapSuggestions tests the all-users cap.
func TestCapSuggestions(t *testing.T) {
	list := make([]forum.Suggestion, forum.MaxSuggestions+10)
	if got := len(forum.CapSuggestions(list)); got != forum.MaxSuggestions {
		t.Errorf("len = %d, want %d", got, forum.MaxSuggestions)
	}
	if got := len(forum.CapSuggestions(list[:3])); got != 3 {
		t.Errorf("len = %d, want 3", got)
	}
}
