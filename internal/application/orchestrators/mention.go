package orchestrators

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sunrise/internal/domain/forum"
)

// DefaultMentionDebounce is the quiet period before a suggestion search is sent.
const DefaultMentionDebounce = 250 * time.Millisecond

// MentionInput is the composer text and caret position (in runes) after a keystroke.
type MentionInput struct {
	Text   string
	Cursor int
}

// MentionDeps holds dependencies for the mention orchestrators.
type MentionDeps struct {
	State    ForumState
	Searcher UserSearcher
}

// ExecuteMentionInput reacts to the composer changing.
// PRE: Cursor is a rune offset into Text
// POST: no trigger or a one-character query closes the list without a search;
// otherwise a query id is issued and only that query's results are applied
func ExecuteMentionInput(ctx context.Context, input MentionInput, deps MentionDeps) (forum.State, error) {
	trigger, ok := forum.DetectMention(input.Text, input.Cursor)
	if !ok || !trigger.ShouldSearch() {
		return deps.State.Apply(ctx, forum.DraftChanged{Text: input.Text}, forum.MentionClosed{})
	}

	s, err := deps.State.Apply(ctx, forum.DraftChanged{Text: input.Text}, forum.MentionOpened{Query: trigger.Query})
	if err != nil {
		return s, err
	}
	queryID := s.Mention.QueryID

	found, searchErr := deps.Searcher.SearchUsers(ctx, trigger.Query)
	if searchErr != nil {
		slog.Warn("mention_search_failed", "query", trigger.Query, "error", searchErr)
		found = nil
	}
	return deps.State.Apply(ctx, forum.MentionResults{QueryID: queryID, Suggestions: found})
}

// Mention navigation keys.
const (
	KeyArrowDown = "ArrowDown"
	KeyArrowUp   = "ArrowUp"
	KeyEnter     = "Enter"
	KeyTab       = "Tab"
	KeyEscape    = "Escape"
)

// MentionKeyInput is a key pressed while the suggestion list is open.
type MentionKeyInput struct {
	Key    string
	Text   string
	Cursor int
}

// MentionKeyResult reports how a key was handled.
// Handled is false when the key should fall through to the composer.
type MentionKeyResult struct {
	State   forum.State
	Handled bool
	Cursor  int
}

// ExecuteMentionKey applies list navigation.
// POST: arrows wrap; Enter and Tab accept the highlighted entry; Escape closes the list
func ExecuteMentionKey(ctx context.Context, input MentionKeyInput, state ForumState) (MentionKeyResult, error) {
	s, err := state.Get(ctx)
	if err != nil {
		return MentionKeyResult{}, err
	}
	if !s.Mention.Open || len(s.Mention.Suggestions) == 0 {
		return MentionKeyResult{State: s, Cursor: input.Cursor}, nil
	}

	var action forum.Action
	switch input.Key {
	case KeyArrowDown:
		action = forum.MentionMoved{Delta: 1}
	case KeyArrowUp:
		action = forum.MentionMoved{Delta: -1}
	case KeyEscape:
		action = forum.MentionClosed{}
	case KeyEnter, KeyTab:
		selected, _ := s.Mention.Selected()
		return ExecuteAcceptMention(ctx, AcceptMentionInput{Text: input.Text, Cursor: input.Cursor, Username: selected.Username}, state)
	default:
		return MentionKeyResult{State: s, Cursor: input.Cursor}, nil
	}
	s, err = state.Apply(ctx, action)
	if err != nil {
		return MentionKeyResult{}, err
	}
	return MentionKeyResult{State: s, Handled: true, Cursor: input.Cursor}, nil
}

// ExecuteMentionHover moves the highlight to the row under the pointer.
// POST: an index outside the open list leaves the highlight where it was
func ExecuteMentionHover(ctx context.Context, index int, state ForumState) (forum.State, error) {
	return state.Apply(ctx, forum.MentionHovered{Index: index})
}

// AcceptMentionInput is a suggestion picked by key or click.
type AcceptMentionInput struct {
	Text     string
	Cursor   int
	Username string
}

// ExecuteAcceptMention writes "@username " over the mention under the caret.
// PRE: Username is non-empty
// POST: the draft holds the rewritten text, the list is closed, Cursor follows the inserted space
func ExecuteAcceptMention(ctx context.Context, input AcceptMentionInput, state ForumState) (MentionKeyResult, error) {
	text, cursor, err := forum.AcceptMention(input.Text, input.Cursor, input.Username)
	if err != nil {
		s, applyErr := state.Apply(ctx, forum.MentionClosed{})
		if applyErr != nil {
			return MentionKeyResult{}, applyErr
		}
		return MentionKeyResult{State: s, Cursor: input.Cursor}, err
	}
	s, err := state.Apply(ctx, forum.MentionAccepted{Text: text})
	if err != nil {
		return MentionKeyResult{}, err
	}
	slog.Debug("mention_event", "event", "mention_accepted", "username", input.Username)
	return MentionKeyResult{State: s, Handled: true, Cursor: cursor}, nil
}

// MentionDebouncer delays searches per viewer. A call that is overtaken by a
// newer call for the same key during its quiet period reports false.
type MentionDebouncer struct {
	Delay time.Duration

	mu   sync.Mutex
	seqs map[string]uint64
}

// NewMentionDebouncer creates a debouncer. A non-positive delay uses DefaultMentionDebounce.
func NewMentionDebouncer(delay time.Duration) *MentionDebouncer {
	if delay <= 0 {
		delay = DefaultMentionDebounce
	}
	return &MentionDebouncer{Delay: delay, seqs: map[string]uint64{}}
}

// Wait blocks for the quiet period.
// POST: true iff no newer Wait for key started meanwhile and ctx is still live
func (d *MentionDebouncer) Wait(ctx context.Context, key string) bool {
	d.mu.Lock()
	d.seqs[key]++
	mine := d.seqs[key]
	d.mu.Unlock()

	timer := time.NewTimer(d.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seqs[key] != mine {
		return false
	}
	delete(d.seqs, key)
	return true
}
