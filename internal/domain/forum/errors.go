package forum

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrEmptyDraft       = errors.New("draft has neither text nor media")
	ErrNoTopic          = errors.New("no topic selected")
	ErrTopicLocked      = errors.New("topic is locked for this subscription")
	ErrUnknownTopic     = errors.New("unknown topic")
	ErrUnsupportedMedia = errors.New("only image and video files can be attached")
	ErrMediaTooLarge    = errors.New("media file is too large")
	ErrInvalidVote      = errors.New("vote type must be up or down")
	ErrNoMention        = errors.New("no mention before the cursor")

	// ErrUnauthorized is returned by the backend client on HTTP 401.
	ErrUnauthorized = errors.New("backend session is not authenticated")
)

// User-facing notices.
const (
	NoticeLoginToView     = "Please login first to access the forum"
	NoticeLoginToSend     = "Please login first to send messages"
	NoticeLoadFailed      = "Failed to load messages. Please try again."
	NoticeSendFailed      = "Failed to send message. Please try again."
	NoticeSelectTopic     = "Please select a topic first"
	NoticeTopicLocked     = "This topic is locked for your subscription. Upgrade to participate."
	NoticeUpgradeRequired = "Your subscription does not include this topic. Upgrade to participate."
	NoticeDeleteFailed    = "Failed to delete message"
	NoticeNoTopics        = "No topics available"
	NoticeEmptyList       = "No messages yet. Start the conversation!"
	NoticeNoUsers         = "No users found"
)

// AccessDeniedError is a 403 whose payload marks the topic as outside the viewer's subscription.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string {
	if e.Message == "" {
		return "access denied"
	}
	return "access denied: " + e.Message
}

// APIError is any other non-2xx reply from the backend.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// SendNotice maps a send failure to the message shown above the composer.
func SendNotice(err error) string {
	var denied *AccessDeniedError
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return NoticeLoginToSend
	case errors.Is(err, ErrNoTopic):
		return NoticeSelectTopic
	case errors.Is(err, ErrTopicLocked):
		return NoticeTopicLocked
	case errors.Is(err, ErrUnsupportedMedia), errors.Is(err, ErrMediaTooLarge):
		return capitalise(err.Error())
	case errors.As(err, &denied):
		return NoticeUpgradeRequired
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	}
	return NoticeSendFailed
}

// LoadNotice maps a list failure to the message shown in place of the feed.
func LoadNotice(err error) string {
	if errors.Is(err, ErrUnauthorized) {
		return NoticeLoginToView
	}
	var denied *AccessDeniedError
	if errors.As(err, &denied) {
		return NoticeTopicLocked
	}
	return NoticeLoadFailed
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
