package usage

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptyResource is returned when a resource name is blank.
var ErrEmptyResource = errors.New("resource name cannot be empty")

// Entry is the open count of one study resource for one client.
type Entry struct {
	Resource string
	Count    int
}

// Normalize trims and validates a resource name.
// PRE: none
// POST: returns the trimmed name, or ErrEmptyResource
func Normalize(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyResource
	}
	return name, nil
}

// Ranked orders entries by count descending, then name.
func Ranked(entries []Entry) []Entry {
	out := append([]Entry(nil), entries...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Resource < out[j].Resource
	})
	return out
}
