package forum

import "strings"

// AllTopicID selects the unfiltered message list.
const AllTopicID = "all"

// Roles that never match a topic by name.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// Topic is a named discussion channel, typically one per class.
type Topic struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	PaidOnly     bool   `json:"paid_only" yaml:"paid_only"`
	AccessLocked bool   `json:"access_locked" yaml:"-"`
}

// AllTopic returns the synthetic topic that lists every message.
func AllTopic() Topic {
	return Topic{ID: AllTopicID, Name: "All"}
}

// IsAll reports whether t is the unfiltered topic (or no topic at all).
func (t Topic) IsAll() bool {
	return t.ID == "" || t.ID == AllTopicID
}

// Postable reports whether messages can be sent to t.
// The synthetic all topic is read-only.
func (t Topic) Postable() bool {
	return !t.IsAll() && !t.AccessLocked
}

// Catalogue is the ordered list of topics visible to a viewer.
type Catalogue []Topic

// ForViewer returns a copy of c with AccessLocked set for paid-only topics when paid is false.
// INVARIANT: the receiver is not mutated
func (c Catalogue) ForViewer(paid bool) Catalogue {
	out := make(Catalogue, len(c))
	for i, t := range c {
		t.AccessLocked = t.PaidOnly && !paid
		out[i] = t
	}
	return out
}

// Find looks a topic up by id. The all topic is always found.
func (c Catalogue) Find(id string) (Topic, bool) {
	if id == AllTopicID {
		return AllTopic(), true
	}
	for _, t := range c {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}

// DefaultTopic picks the topic shown on page load.
// PRE: role may be empty
// POST: a role-matching unlocked topic, else the first unlocked topic, else AllTopic
func (c Catalogue) DefaultTopic(role string) Topic {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != "" && role != RoleAdmin && role != RoleTeacher {
		for _, t := range c {
			if !t.AccessLocked && strings.Contains(strings.ToLower(t.Name), role) {
				return t
			}
		}
	}
	for _, t := range c {
		if !t.AccessLocked {
			return t
		}
	}
	return AllTopic()
}
