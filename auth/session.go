package auth

import (
	"net/http"

	"github.com/gorilla/sessions"

	"warbler/domain"
)

const (
	// SessionName is the name of the session cookie.
	SessionName = "warbler-session"
	// CurrUserKey is the session value holding the logged in user's ID.
	CurrUserKey = "curr_user"
	// oauthStateKey is the session value holding a pending oauth state.
	oauthStateKey = "oauth_state"
)

// SessionManager keeps the session identity in a signed and encrypted cookie.
// A session is Anonymous until Login stores a user ID in it, and goes back to
// Anonymous on Logout.
type SessionManager struct {
	store *sessions.CookieStore
}

// NewSessionManager returns a SessionManager using the given key pairs, see
// sessions.NewCookieStore. Set secure in production so the cookie only travels over https.
func NewSessionManager(secure bool, keyPairs ...[]byte) *SessionManager {
	store := sessions.NewCookieStore(keyPairs...)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store}
}

// Login marks the session as authenticated as user. It must only be called
// after the user's credentials have been verified.
func (sm *SessionManager) Login(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	session, _ := sm.store.Get(r, SessionName)
	session.Values[CurrUserKey] = user.ID
	return session.Save(r, w)
}

// Logout makes the session anonymous again, no matter what state it was in.
func (sm *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := sm.store.Get(r, SessionName)
	delete(session.Values, CurrUserKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// UserID returns the ID of the user the session is logged in as, if any.
// Missing, expired or tampered cookies all count as anonymous.
func (sm *SessionManager) UserID(r *http.Request) (int, bool) {
	session, err := sm.store.Get(r, SessionName)
	if err != nil {
		return 0, false
	}
	id, ok := session.Values[CurrUserKey].(int)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// SetOAuthState remembers the state parameter of an oauth flow that is about to start.
func (sm *SessionManager) SetOAuthState(w http.ResponseWriter, r *http.Request, state string) error {
	session, _ := sm.store.Get(r, SessionName)
	session.Values[oauthStateKey] = state
	return session.Save(r, w)
}

// PopOAuthState returns the pending oauth state and removes it from the session.
func (sm *SessionManager) PopOAuthState(w http.ResponseWriter, r *http.Request) (string, error) {
	session, _ := sm.store.Get(r, SessionName)
	state, _ := session.Values[oauthStateKey].(string)
	delete(session.Values, oauthStateKey)
	return state, session.Save(r, w)
}
