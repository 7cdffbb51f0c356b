//go:build browser

package browser_test

import (
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"sunrise/internal/adapters/forumapi"
	web "sunrise/internal/adapters/http"
	"sunrise/internal/adapters/storage"
	admissionStore "sunrise/internal/adapters/storage/admission"
	preferenceStore "sunrise/internal/adapters/storage/preference"
	usageStore "sunrise/internal/adapters/storage/usage"
	"sunrise/internal/adapters/uistate"
	"sunrise/internal/config"
	"sunrise/internal/domain/forum"
)

// forumBackend is a tiny in-memory forum API: posted messages show up in the next list.
type forumBackend struct {
	mu     sync.Mutex
	nextID int
	items  []string
	media  []string // file names of uploaded attachments
}

func newForumBackend() *forumBackend {
	return &forumBackend{nextID: 2, items: []string{
		`{"id":1,"username":"amy","message":"Welcome to Physics","timestamp":"2024-03-01T09:00:00Z","upvotes":0,"downvotes":0,"topic_id":11}`,
	}}
}

func (b *forumBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Cookie") == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/forum/messages":
		io.WriteString(w, "["+strings.Join(b.items, ",")+"]")
	case r.Method == http.MethodPost && r.URL.Path == "/api/forum/messages":
		var text string
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			r.ParseMultipartForm(1 << 20)
			text = r.FormValue("message")
			if _, h, err := r.FormFile("media"); err == nil {
				b.media = append(b.media, h.Filename)
			}
		} else {
			raw, _ := io.ReadAll(r.Body)
			text = string(raw)
		}
		b.items = append(b.items, fmt.Sprintf(`{"id":%d,"username":"ravi","message":%q,"timestamp":%q,"upvotes":0,"downvotes":0,"topic_id":11}`,
			b.nextID, text, time.Now().UTC().Format(time.RFC3339)))
		b.nextID++
		io.WriteString(w, `{"success":true}`)
	case r.URL.Path == "/api/forum/search-users":
		if q := r.URL.Query().Get("q"); q != "" && !strings.HasPrefix("ash", q) && !strings.HasPrefix(q, "ash") {
			io.WriteString(w, "[]")
			return
		}
		io.WriteString(w, `[{"username":"asha","class_name":"10"},{"username":"ashok","class_name":"11"}]`)
	case r.URL.Path == "/api/notifications":
		io.WriteString(w, `{"success":true,"notifications":[],"count":0}`)
	default:
		http.NotFound(w, r)
	}
}

// uploads returns the attachment names the backend has received.
func (b *forumBackend) uploads() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.media...)
}

// testApp holds the running site, its fake backend and Playwright handles.
type testApp struct {
	BaseURL string
	Backend *forumBackend
	PW      *playwright.Playwright
	Browser playwright.Browser
}

// newTestApp wires the site against a fake backend and a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}

	backend := newForumBackend()
	backendSrv := httptest.NewServer(backend)
	t.Cleanup(backendSrv.Close)

	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		t.Fatalf("failed to init test DB: %v", err)
	}

	cfg := config.Defaults()
	cfg.Backend.URL = backendSrv.URL
	cfg.Forum.MentionDebounce = 50 * time.Millisecond
	cfg.Forum.Topics = []forum.Topic{
		{ID: "11", Name: "Physics"},
		{ID: "12", Name: "Chemistry", PaidOnly: true},
	}

	web.RateLimitPerSecond = 1000
	handler, _, err := web.NewMux(&web.Deps{
		Config:      cfg,
		Backend:     forumapi.NewClient(backendSrv.URL),
		UIState:     uistate.NewMemoryStore(),
		Preferences: preferenceStore.NewSQLiteStore(db),
		Admissions:  admissionStore.NewSQLiteStore(db),
		Usage:       usageStore.NewSQLiteStore(db),
	})
	if err != nil {
		t.Fatalf("NewMux: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})

	return &testApp{
		BaseURL: "http://" + listener.Addr().String(),
		Backend: backend,
		PW:      pw,
		Browser: browser,
	}
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login signs in as a free-tier student carrying a backend cookie and lands on the forum.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=username]").Fill("ravi"); err != nil {
		t.Fatalf("failed to fill username: %v", err)
	}
	if err := page.Locator("input[name=backend_cookie]").Fill("session=test"); err != nil {
		t.Fatalf("failed to fill backend cookie: %v", err)
	}
	if _, err := page.Locator("select[name=role]").SelectOption(playwright.SelectOptionValues{Values: &[]string{"student"}}); err != nil {
		t.Fatalf("failed to pick role: %v", err)
	}
	if err := page.Locator("section.card form button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+"/forum", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to the forum: %v", err)
	}
}

// waitText waits for text to appear inside selector.
func waitText(t *testing.T, page playwright.Page, selector, text string) {
	t.Helper()
	err := page.Locator(selector + " >> text=" + text).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	})
	if err != nil {
		t.Fatalf("%q did not appear in %s: %v", text, selector, err)
	}
}
