package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	// SessionCookieName is the name of the login session cookie.
	SessionCookieName = "yatube_session"
	// StateCookieName is the name of the cookie holding the OIDC state.
	StateCookieName = "yatube_oidc_state"
	// StateCookieMaxAge is how long the state cookie is valid (5 minutes).
	StateCookieMaxAge = 5 * 60

	// MinSessionSecretLength is the minimum length of the cookie signing secret.
	MinSessionSecretLength = 32
)

const (
	keyUserID = "uid"
	keyState  = "state"
	keyNonce  = "nonce"
	keyNext   = "next"
	keyFlash  = "flash"
)

// ErrNoState is returned when the OIDC state cookie is missing or does not
// match the callback.
var ErrNoState = errors.New("oidc state missing or mismatched")

// SessionManager handles the signed login and OIDC state cookies.
type SessionManager struct {
	store    *sessions.CookieStore
	duration time.Duration
	secure   bool
}

// NewSessionManager creates a session manager signing cookies with secret.
func NewSessionManager(secret []byte, duration time.Duration, secure bool) (*SessionManager, error) {
	if len(secret) < MinSessionSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes, got %d", MinSessionSecretLength, len(secret))
	}

	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(duration.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(duration.Seconds()))

	return &SessionManager{store: store, duration: duration, secure: secure}, nil
}

// Login stores the user id in the session cookie.
func (sm *SessionManager) Login(w http.ResponseWriter, r *http.Request, userID int64) error {
	session, _ := sm.store.Get(r, SessionCookieName)
	session.Values[keyUserID] = userID
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// UserID returns the id of the logged-in user, if any.
func (sm *SessionManager) UserID(r *http.Request) (int64, bool) {
	session, err := sm.store.Get(r, SessionCookieName)
	if err != nil {
		return 0, false
	}
	id, ok := session.Values[keyUserID].(int64)
	return id, ok && id != 0
}

// Logout clears the session cookie.
func (sm *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := sm.store.Get(r, SessionCookieName)
	session.Values = map[any]any{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// AddFlash stores a message shown on the next rendered page.
func (sm *SessionManager) AddFlash(w http.ResponseWriter, r *http.Request, msg string) error {
	session, _ := sm.store.Get(r, SessionCookieName)
	session.Values[keyFlash] = msg
	return session.Save(r, w)
}

// Flash pops the stored message, if any.
func (sm *SessionManager) Flash(w http.ResponseWriter, r *http.Request) string {
	session, err := sm.store.Get(r, SessionCookieName)
	if err != nil {
		return ""
	}
	msg, _ := session.Values[keyFlash].(string)
	if msg == "" {
		return ""
	}
	delete(session.Values, keyFlash)
	_ = session.Save(r, w)
	return msg
}

// StateData holds the state and nonce of a pending OIDC login.
type StateData struct {
	State string
	Nonce string
	Next  string
}

// GenerateState creates a state/nonce pair and stores it in a short-lived
// cookie together with the page to return to.
func (sm *SessionManager) GenerateState(w http.ResponseWriter, r *http.Request, next string) (*StateData, error) {
	state, err := GenerateSecureString(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}
	nonce, err := GenerateSecureString(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	session, _ := sm.store.Get(r, StateCookieName)
	session.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   StateCookieMaxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	}
	session.Values[keyState] = state
	session.Values[keyNonce] = nonce
	session.Values[keyNext] = next
	if err := session.Save(r, w); err != nil {
		return nil, fmt.Errorf("failed to save state: %w", err)
	}

	return &StateData{State: state, Nonce: nonce, Next: next}, nil
}

// ValidateState checks the callback state against the cookie and clears it.
func (sm *SessionManager) ValidateState(w http.ResponseWriter, r *http.Request, state string) (*StateData, error) {
	session, err := sm.store.Get(r, StateCookieName)
	if err != nil || session.IsNew {
		return nil, ErrNoState
	}

	data := &StateData{}
	data.State, _ = session.Values[keyState].(string)
	data.Nonce, _ = session.Values[keyNonce].(string)
	data.Next, _ = session.Values[keyNext].(string)

	session.Options.MaxAge = -1
	_ = session.Save(r, w)

	if data.State == "" || subtle.ConstantTimeCompare([]byte(data.State), []byte(state)) != 1 {
		return nil, ErrNoState
	}
	return data, nil
}
