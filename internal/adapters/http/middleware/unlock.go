package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const unlockContextKey contextKey = "unlock"

// UnlockSession marks a browser that has entered the local passcode.
type UnlockSession struct {
	CreatedAt time.Time
}

// SessionStore is an in-memory store of unlocked browser sessions. The
// dashboard runs on one machine, so sessions do not need to survive a
// restart.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]UnlockSession
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]UnlockSession),
	}
}

// Create stores a new unlocked session and returns the token.
// POST: Session is stored, token is returned
func (ss *SessionStore) Create() (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = UnlockSession{CreatedAt: time.Now()}
	return token, nil
}

// Get retrieves a session by token.
// PRE: token is non-empty
// POST: Returns session if valid and not expired
func (ss *SessionStore) Get(token string) (UnlockSession, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	session, ok := ss.sessions[token]
	if !ok {
		return UnlockSession{}, false
	}
	// Unlocks expire after 12 hours
	if time.Since(session.CreatedAt) > 12*time.Hour {
		delete(ss.sessions, token)
		return UnlockSession{}, false
	}
	return session, true
}

// Delete removes a session by token.
// PRE: token is non-empty
// POST: Session with given token is removed
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

const sessionCookieName = "coachdesk_session"

// Unlock returns middleware that extracts the unlock session from the cookie
// and sets it in context. It does NOT block locked requests; use
// RequireUnlocked for that.
func Unlock(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err == nil && cookie.Value != "" {
				if session, ok := sessions.Get(cookie.Value); ok {
					ctx := context.WithValue(r.Context(), unlockContextKey, session)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUnlocked returns middleware that blocks requests until the passcode
// has been entered. When no passcode is configured the gate is open.
func RequireUnlocked(enabled func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled() {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := GetUnlockFromContext(r.Context()); !ok {
				http.Error(w, "locked", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUnlockFromContext extracts the unlock session from the request context.
func GetUnlockFromContext(ctx context.Context) (UnlockSession, bool) {
	session, ok := ctx.Value(unlockContextKey).(UnlockSession)
	return session, ok
}

// SetSessionCookie sets the unlock cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   43200, // 12 hours
	})
}

// ClearSessionCookie removes the unlock cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// ContextWithUnlock returns a context with an unlock session set.
// Intended for use in tests.
func ContextWithUnlock(ctx context.Context) context.Context {
	return context.WithValue(ctx, unlockContextKey, UnlockSession{CreatedAt: time.Now()})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
