// Package email delivers admission confirmations and office notifications.
package email

import (
	"context"
	"time"
)

// SendRequest is one outgoing email.
type SendRequest struct {
	To      []string
	From    string // empty means the sender's default address
	Subject string
	HTML    string
	ReplyTo string
}

// SendResult is the provider's receipt for one email.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers email through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
	SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error)
}
