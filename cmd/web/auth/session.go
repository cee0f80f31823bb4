package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	SessionName = "lumenfeed_session"
	UserIDKey   = "user_id"
	UsernameKey = "username"
	LoggedInKey = "logged_in"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
)

// SessionManager reads the identity an upstream auth service stored in
// the session cookie. This service only consumes sessions, it never
// issues credentials.
type SessionManager struct {
	store *sessions.CookieStore
}

func NewSessionManager(secret string) *SessionManager {
	if secret == "" {
		secret = generateSecret()
	}
	return &SessionManager{
		store: sessions.NewCookieStore([]byte(secret)),
	}
}

func generateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}

// SaveSession writes the identity values into the cookie. Used by the
// upstream auth callback and by tests.
func (sm *SessionManager) SaveSession(w http.ResponseWriter, r *http.Request, userID, username string) error {
	session, _ := sm.store.Get(r, SessionName)
	session.Values[UserIDKey] = userID
	session.Values[UsernameKey] = username
	session.Values[LoggedInKey] = true

	isHTTPS := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"

	session.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   isHTTPS,
	}

	return session.Save(r, w)
}

// GetSession returns the identity stored in the cookie. The logged-in
// flag must be set and both identity values must be present.
func (sm *SessionManager) GetSession(r *http.Request) (userID, username string, err error) {
	session, err := sm.store.Get(r, SessionName)
	if err != nil {
		_, cookieErr := r.Cookie(SessionName)
		slog.Warn("failed to decode session", "error", err, "host", r.Host, "has_cookie", cookieErr == nil)
		return "", "", err
	}

	loggedIn, ok := session.Values[LoggedInKey].(bool)
	if !ok || !loggedIn {
		return "", "", ErrNotAuthenticated
	}

	uid, ok := session.Values[UserIDKey].(string)
	if !ok || uid == "" {
		return "", "", ErrNotAuthenticated
	}

	uname, ok := session.Values[UsernameKey].(string)
	if !ok {
		return "", "", ErrNotAuthenticated
	}

	return uid, uname, nil
}

func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	_, _, err := sm.GetSession(r)
	return err == nil
}

func (sm *SessionManager) ClearSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := sm.store.Get(r, SessionName)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
