package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"sunrise/internal/adapters/forumapi"
	"sunrise/internal/adapters/http/middleware"
	"sunrise/internal/adapters/uistate"
	"sunrise/internal/application/orchestrators"
	"sunrise/internal/application/projections"
	"sunrise/internal/domain/forum"
)

// viewer is the per-request view of who is looking at the forum.
type viewer struct {
	session   middleware.Session
	state     uistate.Handle
	backend   *forumapi.Client
	catalogue forum.Catalogue
}

// viewerFor binds the request's client id to its forum state and the session's backend cookie.
// Anonymous viewers still get a state; the backend answers them with 401.
func viewerFor(r *http.Request) viewer {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return viewer{
		session:   sess,
		state:     uistate.Bind(deps.UIState, middleware.GetClientID(r.Context())),
		backend:   deps.Backend.As(sess.BackendCookie),
		catalogue: deps.Config.Catalogue().ForViewer(sess.Paid),
	}
}

func (v viewer) view(s forum.State) projections.ForumView {
	return projections.BuildForumView(s, projections.ForumViewInput{
		Identity:  v.session.Username,
		Catalogue: v.catalogue,
		Now:       timeNow(),
		Location:  deps.Config.Location(),
	})
}

// stateFailed writes a 500 when the ui state store itself failed.
// Backend and validation errors are already recorded in the state and render normally.
func stateFailed(w http.ResponseWriter, err error) bool {
	if errors.Is(err, uistate.ErrUnavailable) {
		internalError(w, err)
		return true
	}
	return false
}

// forumPageData is the data for forum.html.
type forumPageData struct {
	View        projections.ForumView
	PollSeconds int
	MaxMediaMB  int
}

// handleForumPage renders the forum (GET /forum)
// PRE: none; anonymous viewers see the login prompt in place of the feed
// POST: the default topic is selected on first visit and the current topic is refetched
func handleForumPage(w http.ResponseWriter, r *http.Request) {
	v := viewerFor(r)
	s, err := orchestrators.ExecuteOpenForum(r.Context(), orchestrators.OpenForumInput{Role: v.session.Role},
		orchestrators.SelectTopicDeps{State: v.state, Backend: v.backend, Catalogue: v.catalogue})
	if err != nil && stateFailed(w, err) {
		return
	}
	renderTemplate(w, r, "forum.html", forumPageData{
		View:        v.view(s),
		PollSeconds: int(deps.Config.Forum.PollInterval.Seconds()),
		MaxMediaMB:  forum.MaxMediaBytes >> 20,
	}, "feed.html")
}

// handleForumFeed refetches the current topic and renders the message list fragment (GET /forum/feed)
// The poll timer sends ?poll=1 so its ticks are counted separately.
func handleForumFeed(w http.ResponseWriter, r *http.Request) {
	v := viewerFor(r)
	s, err := orchestrators.ExecuteRefreshMessages(r.Context(), orchestrators.RefreshMessagesDeps{State: v.state, Backend: v.backend})
	if r.URL.Query().Get("poll") == "1" {
		deps.Metrics.PollTick(err)
	}
	if err != nil && stateFailed(w, err) {
		return
	}
	renderFragment(w, r, "feed.html", "feed", v.view(s))
}

// respondForum answers a forum action: the feed fragment for forum.js, a redirect for plain forms.
func respondForum(w http.ResponseWriter, r *http.Request, v viewer, s forum.State) {
	if isFetch(r) {
		renderFragment(w, r, "feed.html", "feed", v.view(s))
		return
	}
	redirectBack(w, r, "/forum")
}

// handleSelectTopic switches the current topic (POST /forum/topic)
// PRE: form field topic_id names a catalogue topic or "all"
// POST: a locked topic raises a notice and keeps the current topic
func handleSelectTopic(w http.ResponseWriter, r *http.Request) {
	v := viewerFor(r)
	s, err := orchestrators.ExecuteSelectTopic(r.Context(), orchestrators.SelectTopicInput{TopicID: r.FormValue("topic_id")},
		orchestrators.SelectTopicDeps{State: v.state, Backend: v.backend, Catalogue: v.catalogue})
	switch {
	case errors.Is(err, forum.ErrUnknownTopic):
		http.Error(w, "unknown topic", http.StatusBadRequest)
		return
	case err != nil && stateFailed(w, err):
		return
	}
	respondForum(w, r, v, s)
}

// sendResult is the JSON reply to a fetch-based send.
type sendResult struct {
	Sent   bool   `json:"sent"`
	Notice string `json:"notice,omitempty"`
}

// handleSendMessage posts the composer (POST /forum/send, multipart)
// PRE: form field message, optional file field media
// POST: empty drafts are a no-op; failures keep the draft and set a notice
func handleSendMessage(w http.ResponseWriter, r *http.Request) {
	v := viewerFor(r)
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, forum.MaxMediaBytes+1<<20)

	if err := r.ParseMultipartForm(8 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		s, applyErr := v.state.Apply(ctx, forum.SendFailed{Notice: forum.SendNotice(forum.ErrMediaTooLarge)})
		if applyErr != nil {
			internalError(w, applyErr)
			return
		}
		respondSend(w, r, s, false)
		return
	}

	media, err := mediaFromRequest(r)
	if err != nil {
		http.Error(w, "invalid media upload", http.StatusBadRequest)
		return
	}
	// The posted form is the whole composer: no file part means no attachment.
	if media == nil {
		if _, err := v.state.Apply(ctx, forum.MediaRemoved{}); err != nil {
			internalError(w, err)
			return
		}
	} else {
		s, err := orchestrators.ExecuteAttachMedia(ctx, *media, v.state)
		if err != nil {
			if !stateFailed(w, err) {
				respondSend(w, r, s, false)
			}
			return
		}
	}

	s, err := orchestrators.ExecuteSendMessage(ctx, orchestrators.SendMessageInput{Text: r.FormValue("message"), Media: media},
		orchestrators.SendMessageDeps{State: v.state, Backend: v.backend})
	if err != nil && stateFailed(w, err) {
		return
	}
	if errors.Is(err, forum.ErrEmptyDraft) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondSend(w, r, s, err == nil)
}

func respondSend(w http.ResponseWriter, r *http.Request, s forum.State, sent bool) {
	if isFetch(r) {
		writeJSON(w, http.StatusOK, sendResult{Sent: sent, Notice: s.Notice})
		return
	}
	redirectBack(w, r, "/forum")
}

// mediaFromRequest reads the optional media file. The MIME type falls back to content sniffing.
func mediaFromRequest(r *http.Request) (*forum.Media, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile("media")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, forum.MaxMediaBytes+1))
	if err != nil {
		return nil, err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &forum.Media{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Data:        data,
	}, nil
}

// handleRemoveMedia drops the draft attachment (POST /forum/media/remove)
func handleRemoveMedia(w http.ResponseWriter, r *http.Request) {
	v := viewerFor(r)
	if _, err := v.state.Apply(r.Context(), forum.MediaRemoved{}); err != nil {
		internalError(w, err)
		return
	}
	if isFetch(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	redirectBack(w, r, "/forum#composer")
}

// handleStartReply puts the composer into reply mode (POST /forum/reply)
func handleStartReply(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.FormValue("message_id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	v := viewerFor(r)
	s, err := orchestrators.ExecuteStartReply(r.Context(), orchestrators.StartReplyInput{MessageID: id}, v.state)
	if err != nil {
		internalError(w, err)
		return
	}
	respondComposer(w, r, v, s)
}

// handleCancelReply leaves reply mode (POST /forum/reply/cancel)
func handleCancelReply(w http.ResponseWriter, r *http.Request) {
	v := viewerFor(r)
	s, err := v.state.Apply(r.Context(), forum.ReplyCancelled{})
	if err != nil {
		internalError(w, err)
		return
	}
	respondComposer(w, r, v, s)
}

// composerResult is the JSON reply to a fetch-based reply toggle.
type composerResult struct {
	Replying     bool   `json:"replying"`
	ReplyTo      string `json:"reply_to,omitempty"`
	ReplyPreview string `json:"reply_preview,omitempty"`
	Placeholder  string `json:"placeholder"`
}

func respondComposer(w http.ResponseWriter, r *http.Request, v viewer, s forum.State) {
	if !isFetch(r) {
		redirectBack(w, r, "/forum#composer")
		return
	}
	d := v.view(s).Draft
	writeJSON(w, http.StatusOK, composerResult{
		Replying:     d.Replying,
		ReplyTo:      d.ReplyTo,
		ReplyPreview: d.ReplyPreview,
		Placeholder:  d.Placeholder,
	})
}

// handleDismissNotice clears the notice bar (POST /forum/notice/dismiss)
func handleDismissNotice(w http.ResponseWriter, r *http.Request) {
	v := viewerFor(r)
	s, err := v.state.Apply(r.Context(), forum.NoticeDismissed{})
	if err != nil {
		internalError(w, err)
		return
	}
	respondForum(w, r, v, s)
}

func messageID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// handleDeleteMessage deletes a message (POST /forum/messages/{id}/delete)
// Whether the viewer may delete it is the backend's decision.
func handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := messageID(r)
	if !ok {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	v := viewerFor(r)
	s, err := orchestrators.ExecuteDeleteMessage(r.Context(), id, orchestrators.ModerateMessageDeps{State: v.state, Backend: v.backend})
	if err != nil && stateFailed(w, err) {
		return
	}
	respondForum(w, r, v, s)
}

// handleVoteMessage records an up or down vote (POST /forum/messages/{id}/vote)
// PRE: form field vote is "up" or "down"
func handleVoteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := messageID(r)
	if !ok {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	v := viewerFor(r)
	s, err := orchestrators.ExecuteVoteMessage(r.Context(), id, forum.VoteType(r.FormValue("vote")),
		orchestrators.ModerateMessageDeps{State: v.state, Backend: v.backend})
	switch {
	case errors.Is(err, forum.ErrInvalidVote):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil && stateFailed(w, err):
		return
	}
	respondForum(w, r, v, s)
}
