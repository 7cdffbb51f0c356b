package forum

import (
	"hash/fnv"
	"strconv"
)

// ChangeKind classifies one entry of a keyed list diff.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeUpdated ChangeKind = "updated"
	ChangeRemoved ChangeKind = "removed"
)

// Change is one keyed difference between two message lists.
type Change struct {
	Kind    ChangeKind
	Message Message
}

// DiffMessages compares two lists keyed by message ID.
// Added and updated entries follow next's order; removed entries follow prev's order and come last.
func DiffMessages(prev, next []Message) []Change {
	before := make(map[int64]Message, len(prev))
	for _, m := range prev {
		before[m.ID] = m
	}
	seen := make(map[int64]bool, len(next))
	var changes []Change
	for _, m := range next {
		seen[m.ID] = true
		old, ok := before[m.ID]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: ChangeAdded, Message: m})
		case old.Revision() != m.Revision():
			changes = append(changes, Change{Kind: ChangeUpdated, Message: m})
		}
	}
	for _, m := range prev {
		if !seen[m.ID] {
			changes = append(changes, Change{Kind: ChangeRemoved, Message: m})
		}
	}
	return changes
}

// Revision identifies the rendered content of a message. Two messages with the
// same ID and Revision render identically.
func (m Message) Revision() string {
	h := fnv.New32a()
	for _, part := range []string{m.Username, m.Message, m.MediaURL, m.ReplyToUsername, m.ReplyToMessage,
		strconv.Itoa(m.Upvotes), strconv.Itoa(m.Downvotes), m.Timestamp.UTC().String()} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return strconv.FormatUint(uint64(h.Sum32()), 16)
}
