package web

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/hkdf"

	"sunrise/internal/adapters/content"
	"sunrise/internal/adapters/email"
	"sunrise/internal/adapters/forumapi"
	"sunrise/internal/adapters/http/middleware"
	"sunrise/internal/adapters/perf"
	admissionStore "sunrise/internal/adapters/storage/admission"
	preferenceStore "sunrise/internal/adapters/storage/preference"
	usageStore "sunrise/internal/adapters/storage/usage"
	"sunrise/internal/adapters/uistate"
	"sunrise/internal/application/orchestrators"
	"sunrise/internal/config"
)

// Deps holds everything the web front end talks to.
type Deps struct {
	Config      config.Config
	Backend     *forumapi.Client
	Metrics     *forumapi.Metrics
	UIState     uistate.Store
	Preferences preferenceStore.Store
	Admissions  admissionStore.Store
	Usage       usageStore.Store
	Mailer      email.Sender
	Pages       *content.Library
	Collector   *perf.Collector
	Registry    *prometheus.Registry
	Debouncer   *orchestrators.MentionDebouncer
}

// Global dependencies (set by NewMux)
var deps *Deps

// Global session store instance
var sessions *middleware.SessionStore

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// timeNow is a variable for testability.
var timeNow = time.Now

// deriveKey expands the configured secret into a 32-byte key for purpose.
// PRE: secret may be empty outside production
// POST: equal secrets and purposes give equal keys; an empty secret gives a random key
func deriveKey(secret, purpose string) ([]byte, error) {
	key := make([]byte, 32)
	if secret == "" {
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate %s key: %w", purpose, err)
		}
		slog.Warn("config_event", "event", "random_key", "purpose", purpose,
			"hint", "set SUNRISE_SECRET so sessions survive restarts")
		return key, nil
	}
	r := hkdf.New(sha256.New, []byte(secret), []byte("sunrise"), []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}

// NewMux wires HTTP handlers for the site and returns the wrapped handler and its rate limiter.
// PRE: d.Backend, d.UIState and the stores are non-nil
// POST: routes are registered; middleware order is Timing -> RateLimit -> ClientID -> Auth -> CSRF -> SecurityHeaders -> mux
func NewMux(d *Deps) (http.Handler, *middleware.RateLimiter, error) {
	if d.Backend == nil || d.UIState == nil {
		return nil, nil, errors.New("web: backend client and ui state store are required")
	}
	if d.Debouncer == nil {
		d.Debouncer = orchestrators.NewMentionDebouncer(d.Config.Forum.MentionDebounce)
	}
	if d.Pages == nil {
		d.Pages = content.Open(d.Config.ContentDir)
	}
	if d.Mailer == nil {
		d.Mailer = email.NewNoopSender()
	}
	deps = d
	sessions = middleware.NewSessionStore()
	middleware.SecureCookies = d.Config.IsProduction()

	csrfKey, err := deriveKey(d.Config.Secret, "csrf")
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, nil, err
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	return middleware.Chain(mux,
		middleware.SecurityHeaders(backendOrigin(d.Config.Backend.URL)),
		middleware.CSRF(csrfKey, d.Config.IsProduction(), nil),
		middleware.Auth(sessions),
		middleware.ClientID,
		middleware.RateLimit(limiter),
		middleware.Timing(d.Collector, d.Config.Perf.SlowRequest),
	), limiter, nil
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", handleHome)
	mux.HandleFunc("GET /pages/{slug}", handlePage)

	mux.HandleFunc("GET /forum", handleForumPage)
	mux.HandleFunc("GET /forum/feed", handleForumFeed)
	mux.HandleFunc("POST /forum/topic", handleSelectTopic)
	mux.HandleFunc("POST /forum/send", handleSendMessage)
	mux.HandleFunc("POST /forum/reply", handleStartReply)
	mux.HandleFunc("POST /forum/reply/cancel", handleCancelReply)
	mux.HandleFunc("POST /forum/media/remove", handleRemoveMedia)
	mux.HandleFunc("POST /forum/notice/dismiss", handleDismissNotice)
	mux.HandleFunc("POST /forum/messages/{id}/delete", handleDeleteMessage)
	mux.HandleFunc("POST /forum/messages/{id}/vote", handleVoteMessage)

	mux.HandleFunc("GET /forum/mentions", handleMentionSuggestions)
	mux.HandleFunc("POST /forum/mentions/key", handleMentionKey)
	mux.HandleFunc("POST /forum/mentions/hover", handleMentionHover)
	mux.HandleFunc("POST /forum/mentions/accept", handleMentionAccept)

	mux.HandleFunc("GET /notifications", handleNotifications)
	mux.HandleFunc("POST /notifications/{id}/seen", handleNotificationSeen)

	mux.HandleFunc("POST /theme/toggle", handleThemeToggle)
	mux.HandleFunc("GET /admission", handleAdmissionPage)
	mux.HandleFunc("POST /admission/autosave", handleAdmissionAutosave)
	mux.HandleFunc("POST /admission/submit", handleAdmissionSubmit)
	mux.HandleFunc("POST /resources/{name}/open", handleResourceOpen)

	mux.HandleFunc("GET /login", handleLoginPage)
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("POST /logout", handleLogout)

	mux.HandleFunc("GET /debug/perf", handlePerfSnapshot)
	if deps.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}
}

// backendOrigin returns scheme://host of the backend so media URLs pass the CSP.
func backendOrigin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
