// Package forumapi is the HTTP client for the forum and notification backend.
package forumapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sunrise/internal/domain/forum"
	"sunrise/internal/domain/notification"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 10 * time.Second

// Client calls the backend REST API. A Client is safe for concurrent use;
// As returns a copy that forwards one viewer's session cookie.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cookie     string
	metrics    *Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records every call.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient constructs a backend client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// As returns a client that sends cookie (a raw Cookie header value) on every request.
func (c *Client) As(cookie string) *Client {
	cp := *c
	cp.cookie = cookie
	return &cp
}

// ListMessages fetches a topic's messages in server order. The all topic is unfiltered.
func (c *Client) ListMessages(ctx context.Context, topicID string) ([]forum.Message, error) {
	path := "/api/forum/messages"
	if topicID != "" && topicID != forum.AllTopicID {
		path += "?topic_id=" + url.QueryEscape(topicID)
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var out []forum.Message
	if err := c.do(req, "list_messages", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMessageRequest is a new post or reply.
type CreateMessageRequest struct {
	Message  string
	TopicID  string
	ParentID int64
	Media    *forum.Media
}

type createMessageJSON struct {
	Message  string `json:"message"`
	TopicID  string `json:"topic_id"`
	ParentID int64  `json:"parent_id,omitempty"`
}

type resultResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateMessage posts a message. It is sent as JSON, or as multipart/form-data when media is attached.
func (c *Client) CreateMessage(ctx context.Context, in CreateMessageRequest) error {
	var (
		req *http.Request
		err error
	)
	if in.Media == nil {
		body, mErr := json.Marshal(createMessageJSON{Message: in.Message, TopicID: in.TopicID, ParentID: in.ParentID})
		if mErr != nil {
			return mErr
		}
		req, err = c.newRequest(ctx, http.MethodPost, "/api/forum/messages", bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		var buf bytes.Buffer
		contentType, mErr := writeMultipart(&buf, in)
		if mErr != nil {
			return mErr
		}
		req, err = c.newRequest(ctx, http.MethodPost, "/api/forum/messages", &buf)
		if err == nil {
			req.Header.Set("Content-Type", contentType)
		}
	}
	if err != nil {
		return err
	}
	var res resultResponse
	if err := c.do(req, "create_message", &res); err != nil {
		return err
	}
	if !res.Success {
		return &forum.APIError{Status: http.StatusOK, Message: res.Error}
	}
	return nil
}

func writeMultipart(buf *bytes.Buffer, in CreateMessageRequest) (string, error) {
	w := multipart.NewWriter(buf)
	fields := [][2]string{{"message", in.Message}, {"topic_id", in.TopicID}}
	if in.ParentID != 0 {
		fields = append(fields, [2]string{"parent_id", strconv.FormatInt(in.ParentID, 10)})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return "", err
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename=%q`, in.Media.Filename))
	h.Set("Content-Type", in.Media.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(in.Media.Data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return w.FormDataContentType(), nil
}

// DeleteMessage deletes a message. Authorisation is decided by the backend.
func (c *Client) DeleteMessage(ctx context.Context, id int64) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/forum/messages/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return err
	}
	return c.do(req, "delete_message", nil)
}

// Vote records an up or down vote.
func (c *Client) Vote(ctx context.Context, id int64, vote forum.VoteType) error {
	if !vote.Valid() {
		return forum.ErrInvalidVote
	}
	body, _ := json.Marshal(map[string]string{"vote_type": string(vote)})
	req, err := c.newRequest(ctx, http.MethodPost, "/api/forum/messages/"+strconv.FormatInt(id, 10)+"/vote", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, "vote", nil)
}

// SearchUsers returns mention candidates. An empty query lists all users, capped at forum.MaxSuggestions.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]forum.Suggestion, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/forum/search-users?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	var out []forum.Suggestion
	if err := c.do(req, "search_users", &out); err != nil {
		return nil, err
	}
	return forum.CapSuggestions(out), nil
}

type notificationsResponse struct {
	Success       bool                        `json:"success"`
	Error         string                      `json:"error"`
	Notifications []notification.Notification `json:"notifications"`
	Count         int                         `json:"count"`
}

// ListNotifications returns the viewer's unread notifications.
// The backend reports a missing session as success=false with HTTP 200; that maps to forum.ErrUnauthorized.
func (c *Client) ListNotifications(ctx context.Context) ([]notification.Notification, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/notifications", nil)
	if err != nil {
		return nil, err
	}
	var res notificationsResponse
	if err := c.do(req, "list_notifications", &res); err != nil {
		return nil, err
	}
	if !res.Success {
		if strings.Contains(strings.ToLower(res.Error), "not logged in") {
			return nil, forum.ErrUnauthorized
		}
		return nil, &forum.APIError{Status: http.StatusOK, Message: res.Error}
	}
	return res.Notifications, nil
}

// MarkNotificationSeen marks one item seen. itemType selects the backend table.
func (c *Client) MarkNotificationSeen(ctx context.Context, id int64, itemType string) error {
	body, _ := json.Marshal(map[string]string{"type": itemType})
	req, err := c.newRequest(ctx, http.MethodPost, "/api/mark-notification-seen/"+strconv.FormatInt(id, 10), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, "mark_notification_seen", nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	return req, nil
}

type errorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          string `json:"code"`
	AccessDenied  bool   `json:"access_denied"`
	UpgradeNeeded bool   `json:"upgrade_required"`
}

func (c *Client) do(req *http.Request, op string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(op, -1, start)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	c.metrics.observe(op, resp.StatusCode, start)

	if resp.StatusCode == http.StatusUnauthorized {
		return forum.ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)
	msg := body.Error
	if body.Message != "" && (msg == "" || msg == "access_denied") {
		msg = body.Message
	}
	if resp.StatusCode == http.StatusForbidden && (body.Error == "access_denied" || body.AccessDenied || body.UpgradeNeeded) {
		return &forum.AccessDeniedError{Message: body.Message}
	}
	return &forum.APIError{Status: resp.StatusCode, Message: msg, Code: body.Code}
}
