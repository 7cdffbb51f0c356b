package projections

import "sunrise/internal/domain/forum"

// MentionView is the suggestion dropdown.
type MentionView struct {
	Open      bool          `json:"open"`
	QueryID   uint64        `json:"query_id"`
	Items     []MentionItem `json:"items"`
	EmptyText string        `json:"empty_text,omitempty"`
}

// MentionItem is one suggestion row.
type MentionItem struct {
	Username string `json:"username"`
	Label    string `json:"label"`
	Contact  string `json:"contact,omitempty"`
	Initial  string `json:"initial"`
	Color    string `json:"color"`
	Selected bool   `json:"selected"`
}

// BuildMentionView projects the open suggestion list.
// POST: a closed query yields an empty closed view; an open query with no rows carries "No users found"
func BuildMentionView(q forum.MentionQuery) MentionView {
	if !q.Open {
		return MentionView{}
	}
	v := MentionView{Open: true, QueryID: q.QueryID, Items: make([]MentionItem, 0, len(q.Suggestions))}
	for i, s := range q.Suggestions {
		v.Items = append(v.Items, MentionItem{
			Username: s.Username,
			Label:    s.Label(),
			Contact:  s.Contact(),
			Initial:  forum.Initial(s.Username),
			Color:    s.Color(),
			Selected: i == q.SelectedIndex,
		})
	}
	if len(v.Items) == 0 {
		v.EmptyText = forum.NoticeNoUsers
	}
	return v
}
