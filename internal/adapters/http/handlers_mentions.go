package web

import (
	"errors"
	"net/http"
	"strconv"

	"sunrise/internal/adapters/http/middleware"
	"sunrise/internal/application/orchestrators"
	"sunrise/internal/application/projections"
	"sunrise/internal/domain/forum"
)

// mentionResult is returned by every mention endpoint.
// Cursor is a rune offset; forum.js converts it to and from UTF-16.
type mentionResult struct {
	Handled bool                    `json:"handled"`
	Text    string                  `json:"text"`
	Cursor  int                     `json:"cursor"`
	Mention projections.MentionView `json:"mention"`
}

func mentionResponse(w http.ResponseWriter, res orchestrators.MentionKeyResult) {
	writeJSON(w, http.StatusOK, mentionResult{
		Handled: res.Handled,
		Text:    res.State.Draft.Text,
		Cursor:  res.Cursor,
		Mention: projections.BuildMentionView(res.State.Mention),
	})
}

// handleMentionSuggestions searches users for the mention under the caret (GET /forum/mentions?text=&cursor=)
// PRE: cursor is a rune offset into text
// POST: 204 when a newer keystroke superseded this one during the debounce; otherwise the suggestion view
func handleMentionSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cursor, err := strconv.Atoi(q.Get("cursor"))
	if err != nil || cursor < 0 {
		http.Error(w, "invalid cursor", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	if !deps.Debouncer.Wait(ctx, middleware.GetClientID(ctx)) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	v := viewerFor(r)
	s, err := orchestrators.ExecuteMentionInput(ctx, orchestrators.MentionInput{Text: q.Get("text"), Cursor: cursor},
		orchestrators.MentionDeps{State: v.state, Searcher: v.backend})
	if err != nil {
		internalError(w, err)
		return
	}
	mentionResponse(w, orchestrators.MentionKeyResult{State: s, Cursor: cursor})
}

// mentionKeyRequest is posted by forum.js while the suggestion list is open.
type mentionKeyRequest struct {
	Key    string `json:"key"`
	Text   string `json:"text"`
	Cursor int    `json:"cursor"`
}

// handleMentionKey applies list navigation (POST /forum/mentions/key, JSON)
// POST: handled is false when the key should reach the composer unchanged
func handleMentionKey(w http.ResponseWriter, r *http.Request) {
	var req mentionKeyRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	v := viewerFor(r)
	res, err := orchestrators.ExecuteMentionKey(r.Context(), orchestrators.MentionKeyInput{
		Key: req.Key, Text: req.Text, Cursor: req.Cursor,
	}, v.state)
	if err != nil && !errors.Is(err, forum.ErrNoMention) {
		internalError(w, err)
		return
	}
	if !res.Handled {
		res.State.Draft.Text = req.Text
	}
	mentionResponse(w, res)
}

// mentionAcceptRequest is a suggestion clicked in the list.
type mentionAcceptRequest struct {
	Text     string `json:"text"`
	Cursor   int    `json:"cursor"`
	Username string `json:"username"`
}

// handleMentionAccept inserts a clicked suggestion (POST /forum/mentions/accept, JSON)
// PRE: username is non-empty
// POST: text holds "@username " in place of the partial mention and cursor follows it
func handleMentionAccept(w http.ResponseWriter, r *http.Request) {
	var req mentionAcceptRequest
	if err := strictDecode(r, &req); err != nil || req.Username == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	v := viewerFor(r)
	res, err := orchestrators.ExecuteAcceptMention(r.Context(), orchestrators.AcceptMentionInput{
		Text: req.Text, Cursor: req.Cursor, Username: req.Username,
	}, v.state)
	if err != nil && !errors.Is(err, forum.ErrNoMention) {
		internalError(w, err)
		return
	}
	if !res.Handled {
		res.State.Draft.Text = req.Text
	}
	mentionResponse(w, res)
}

// mentionHoverRequest is the suggestion row under the pointer.
type mentionHoverRequest struct {
	Index int `json:"index"`
}

// handleMentionHover moves the highlight to a hovered row (POST /forum/mentions/hover, JSON)
// POST: a later Enter or Tab accepts the hovered row
func handleMentionHover(w http.ResponseWriter, r *http.Request) {
	var req mentionHoverRequest
	if err := strictDecode(r, &req); err != nil || req.Index < 0 {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	v := viewerFor(r)
	s, err := orchestrators.ExecuteMentionHover(r.Context(), req.Index, v.state)
	if err != nil {
		internalError(w, err)
		return
	}
	mentionResponse(w, orchestrators.MentionKeyResult{State: s})
}
