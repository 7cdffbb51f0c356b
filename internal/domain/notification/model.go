package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"sunrise/internal/domain/forum"
)

// Item types accepted by the mark-seen endpoint.
const (
	TypeGeneral      = "general"
	TypePersonal     = "personal"
	TypeMention      = "mention"
	TypePersonalChat = "personal_chat"
)

// ValidTypes contains all item types the backend distinguishes.
var ValidTypes = []string{TypeGeneral, TypePersonal, TypeMention, TypePersonalChat}

// Domain errors
var (
	ErrInvalidType = errors.New("notification type must be one of: general, personal, mention, personal_chat")
	ErrInvalidID   = errors.New("notification id must be positive")
)

// Notification is an unread navbar item.
// The backend encodes it as the tuple
// [id, message, created_at, status, notification_type, scheduled_time, item_type, sender_name].
type Notification struct {
	ID            int64
	Message       string
	CreatedAt     time.Time
	Status        string
	Kind          string
	ScheduledTime time.Time
	ItemType      string
	SenderName    string
}

// UnmarshalJSON decodes the positional tuple. Missing trailing elements are left zero.
func (n *Notification) UnmarshalJSON(b []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(b, &tuple); err != nil {
		return fmt.Errorf("notification: %w", err)
	}
	if len(tuple) < 2 {
		return fmt.Errorf("notification: tuple has %d elements", len(tuple))
	}
	var out Notification
	if err := json.Unmarshal(tuple[0], &out.ID); err != nil {
		return fmt.Errorf("notification id: %w", err)
	}
	str := func(i int) (string, error) {
		if i >= len(tuple) {
			return "", nil
		}
		var s *string
		if err := json.Unmarshal(tuple[i], &s); err != nil {
			return "", fmt.Errorf("notification field %d: %w", i, err)
		}
		if s == nil {
			return "", nil
		}
		return *s, nil
	}
	var created, scheduled string
	var err error
	fields := []*string{&out.Message, &created, &out.Status, &out.Kind, &scheduled, &out.ItemType, &out.SenderName}
	for i, dst := range fields {
		if *dst, err = str(i + 1); err != nil {
			return err
		}
	}
	if out.CreatedAt, err = forum.ParseTimestamp(created); err != nil {
		return err
	}
	if out.ScheduledTime, err = forum.ParseTimestamp(scheduled); err != nil {
		return err
	}
	if out.ItemType == "" {
		out.ItemType = TypeGeneral
	}
	*n = out
	return nil
}

// Sender is the display name of whoever raised the notification.
func (n Notification) Sender() string {
	if n.SenderName == "" {
		return "Admin"
	}
	return n.SenderName
}

// ValidateSeen checks a mark-seen request.
// PRE: none
// POST: returns nil if id is positive and itemType is known
func ValidateSeen(id int64, itemType string) error {
	if id <= 0 {
		return ErrInvalidID
	}
	for _, t := range ValidTypes {
		if t == itemType {
			return nil
		}
	}
	return ErrInvalidType
}

// SortNewestFirst orders notifications by creation time, newest first, keeping backend order for ties.
func SortNewestFirst(list []Notification) []Notification {
	out := append([]Notification(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
