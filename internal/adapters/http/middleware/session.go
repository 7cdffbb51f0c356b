package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	sessionContextKey contextKey = "session"
	clientContextKey  contextKey = "client"
)

// SessionTTL is how long a sign-in lasts.
const SessionTTL = 24 * time.Hour

// SecureCookies marks every cookie Secure. Set once at startup in production.
var SecureCookies bool

// Session is a signed-in viewer. The backend owns authentication; the front end
// keeps the identity it renders and the backend cookie it forwards.
type Session struct {
	Username      string
	Role          string
	Paid          bool
	BackendCookie string
	CreatedAt     time.Time
}

// Tier names the subscription shown in the profile dropdown.
func (s Session) Tier() string {
	if s.Paid {
		return "Paid"
	}
	return "Free"
}

// SessionStore is an in-memory session store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]Session)}
}

// Create stores a session and returns its token.
// PRE: s.Username is non-empty
// POST: the session is retrievable with the token until SessionTTL passes
func (ss *SessionStore) Create(s Session) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = s
	return token, nil
}

// Get retrieves a live session by token.
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.RLock()
	session, ok := ss.sessions[token]
	ss.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	if time.Since(session.CreatedAt) > SessionTTL {
		ss.Delete(token)
		return Session{}, false
	}
	return session, true
}

// Delete removes a session.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

const (
	sessionCookieName = "sunrise_session"
	clientCookieName  = "sunrise_client"
)

// Auth puts the viewer's session, if any, in the request context. It never blocks.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
				if session, ok := sessions.Get(cookie.Value); ok {
					r = r.WithContext(ContextWithSession(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientID gives every browser a stable anonymous id, used to key preferences and forum state.
func ClientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(clientCookieName); err == nil {
			if _, perr := uuid.Parse(cookie.Value); perr == nil {
				id = cookie.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     clientCookieName,
				Value:    id,
				HttpOnly: true,
				Secure:   SecureCookies,
				SameSite: http.SameSiteLaxMode,
				Path:     "/",
				MaxAge:   365 * 24 * 60 * 60,
			})
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClientID(r.Context(), id)))
	})
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

// ContextWithSession returns a context carrying sess.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// GetClientID returns the browser's client id, or "" outside the ClientID middleware.
func GetClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientContextKey).(string)
	return id
}

// ContextWithClientID returns a context carrying id.
func ContextWithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientContextKey, id)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(SessionTTL / time.Second),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// SessionToken returns the raw session cookie value.
func SessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
