package forumctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"sunrise/internal/domain/forum"
)

// stubBackend answers the forum API with canned data and records writes.
type stubBackend struct {
	mu      sync.Mutex
	lists   []string // successive GET /api/forum/messages bodies; the last one repeats
	gets    int
	posts   []string
	cookies []string
}

func (s *stubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = append(s.cookies, r.Header.Get("Cookie"))
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/forum/messages":
		i := s.gets
		if i >= len(s.lists) {
			i = len(s.lists) - 1
		}
		s.gets++
		io.WriteString(w, s.lists[i])
	case r.Method == http.MethodPost && r.URL.Path == "/api/forum/messages":
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/") {
			r.ParseMultipartForm(1 << 20)
			_, h, _ := r.FormFile("media")
			s.posts = append(s.posts, "multipart:"+r.FormValue("topic_id")+":"+r.FormValue("message")+":"+h.Filename)
		} else {
			raw, _ := io.ReadAll(r.Body)
			s.posts = append(s.posts, string(raw))
		}
		io.WriteString(w, `{"success":true}`)
	case strings.HasSuffix(r.URL.Path, "/vote"):
		raw, _ := io.ReadAll(r.Body)
		s.posts = append(s.posts, r.URL.Path+" "+string(raw))
		io.WriteString(w, `{"success":true}`)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":"You can only delete your own messages"}`)
	case r.URL.Path == "/api/forum/search-users":
		io.WriteString(w, `[{"username":"asha","class_name":"10","email_address":"asha@example.com"}]`)
	case r.URL.Path == "/api/notifications":
		io.WriteString(w, `{"success":true,"notifications":[[3,"Mock test on Monday","2024-03-01 09:00:00","active","general",null,"general","Office"]],"count":1}`)
	case strings.HasPrefix(r.URL.Path, "/api/mark-notification-seen/"):
		io.WriteString(w, `{"success":true}`)
	default:
		http.NotFound(w, r)
	}
}

const oneMessage = `[{"id":1,"username":"amy","message":"hello","timestamp":"2024-03-01 09:00:00","upvotes":1,"downvotes":0,"topic_id":11}]`

// run executes forumctl with args against backend and returns stdout.
func run(t *testing.T, backend http.Handler, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sunrise.yaml")
	yaml := "timezone: UTC\nforum:\n  topics:\n    - {id: \"11\", name: Physics}\n    - {id: \"12\", name: Chemistry, paid_only: true}\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	cmd := New()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--backend", srv.URL, "--cookie", "session=abc"}, args...))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// TestTopics verifies the catalogue is read from the config file.
func TestTopics(t *testing.T) {
	out, err := run(t, &stubBackend{}, "topics")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Physics", "Chemistry", "paid"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestMessages verifies messages are printed and the session cookie is forwarded.
func TestMessages(t *testing.T) {
	b := &stubBackend{lists: []string{oneMessage}}
	out, err := run(t, b, "messages", "--topic", "11")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "#1") || !strings.Contains(out, "amy") || !strings.Contains(out, "+1/-0") {
		t.Errorf("output = %q", out)
	}
	if b.cookies[0] != "session=abc" {
		t.Errorf("cookie = %q", b.cookies[0])
	}
}

// TestMessages_Empty verifies the empty-list text.
func TestMessages_Empty(t *testing.T) {
	out, err := run(t, &stubBackend{lists: []string{"[]"}}, "messages")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, forum.NoticeEmptyList) {
		t.Errorf("output = %q", out)
	}
}

// TestPost table-tests posting text, replies and media.
func TestPost(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "graph.png")
	os.WriteFile(img, []byte("\x89PNG\r\n\x1a\nfake"), 0o600)
	doc := filepath.Join(dir, "notes.txt")
	os.WriteFile(doc, []byte("plain text"), 0o600)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		want    string
	}{
		{"text", []string{"--topic", "11", "--text", " hi "}, nil, `"message":"hi","topic_id":"11"`},
		{"reply", []string{"--topic", "11", "--text", "thanks", "--reply-to", "1"}, nil, `"parent_id":1`},
		{"media", []string{"--topic", "11", "--media", img}, nil, "multipart:11::graph.png"},
		{"empty", []string{"--topic", "11", "--text", "  "}, forum.ErrEmptyDraft, ""},
		{"all topic", []string{"--topic", "all", "--text", "hi"}, forum.ErrNoTopic, ""},
		{"bad media", []string{"--topic", "11", "--media", doc}, forum.ErrUnsupportedMedia, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &stubBackend{lists: []string{oneMessage}}
			_, err := run(t, b, append([]string{"post"}, tt.args...)...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if len(b.posts) != 0 {
					t.Errorf("backend saw %v", b.posts)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(b.posts) != 1 || !strings.Contains(b.posts[0], tt.want) {
				t.Errorf("posts = %v, want one containing %s", b.posts, tt.want)
			}
		})
	}
}

// TestVote verifies the direction is validated before any request.
func TestVote(t *testing.T) {
	b := &stubBackend{}
	if _, err := run(t, b, "vote", "5", "sideways"); !errors.Is(err, forum.ErrInvalidVote) {
		t.Errorf("err = %v", err)
	}
	if _, err := run(t, b, "vote", "5", "down"); err != nil {
		t.Fatal(err)
	}
	var body struct {
		VoteType string `json:"vote_type"`
	}
	last := b.posts[len(b.posts)-1]
	json.Unmarshal([]byte(last[strings.Index(last, " ")+1:]), &body)
	if !strings.HasPrefix(last, "/api/forum/messages/5/vote") || body.VoteType != "down" {
		t.Errorf("vote request = %q", last)
	}
}

// TestDelete_Forbidden verifies the backend's refusal is reported.
func TestDelete_Forbidden(t *testing.T) {
	_, err := run(t, &stubBackend{}, "delete", "9")
	var apiErr *forum.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("err = %v", err)
	}
}

// TestMentions verifies labels and contact details are printed.
func TestMentions(t *testing.T) {
	out, err := run(t, &stubBackend{}, "mentions", "@as")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "@asha") || !strings.Contains(out, "asha (10)") {
		t.Errorf("output = %q", out)
	}
}

// TestWatch verifies polled changes are printed as a keyed diff.
func TestWatch(t *testing.T) {
	second := `[{"id":1,"username":"amy","message":"hello","timestamp":"2024-03-01 09:00:00","upvotes":3,"downvotes":0,"topic_id":11},` +
		`{"id":2,"username":"ravi","message":"new here","timestamp":"2024-03-01 09:05:00","upvotes":0,"downvotes":0,"topic_id":11}]`
	b := &stubBackend{lists: []string{oneMessage, second}}
	out, err := run(t, b, "watch", "--topic", "11", "--interval", "10ms", "--ticks", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "updated\t#1") || !strings.Contains(out, "added\t#2") {
		t.Errorf("output = %q", out)
	}
}

// TestNotificationsAndSeen verifies listing and acknowledging.
func TestNotificationsAndSeen(t *testing.T) {
	out, err := run(t, &stubBackend{}, "notifications")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Mock test on Monday") || !strings.Contains(out, "Office") {
		t.Errorf("output = %q", out)
	}

	if _, err := run(t, &stubBackend{}, "seen", "3", "--type", "broadcast"); err == nil {
		t.Error("invalid type accepted")
	}
	if _, err := run(t, &stubBackend{}, "seen", "3", "--type", "general"); err != nil {
		t.Errorf("seen: %v", err)
	}
}
