// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/covenantapps/flockhub/internal/app/system/webjson"
)

const (
	SessionName = "flockhub-session"

	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
	userEmail = "user_email"
	userRole  = "user_role"
)

// SessionUser is what we cache in the session and inject into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// Manager owns the cookie session store. It is created by the composition
// root and injected into the features that sign users in and out.
type Manager struct {
	store *sessions.CookieStore
	log   *zap.Logger
}

// NewManager builds a session manager. The session key must be at least 32
// random characters; the secure flag controls cookie Secure/SameSite modes.
//
// In production (secure=true) cookies are Secure + SameSite=None so they work
// in cross-site contexts over HTTPS. In local dev over http://localhost use
// secure=false so the browser accepts them.
func NewManager(sessionKey, domain string, secure bool, logger *zap.Logger) (*Manager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &Manager{store: store, log: logger}, nil
}

// SignIn writes the user into the session cookie.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, _ := m.store.Get(r, SessionName)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userName] = u.Name
	sess.Values[userEmail] = u.Email
	sess.Values[userRole] = u.Role
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, SessionName)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are signed in.
func (m *Manager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := m.store.Get(r, SessionName)

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:    getString(sess, userIDKey),
				Name:  getString(sess, userName),
				Email: getString(sess, userEmail),
				Role:  getString(sess, userRole),
			}
			r = WithUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithUser returns a request whose context carries u. Handler tests use it to
// simulate a signed-in user without going through the cookie store.
func WithUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// This is a JSON API, so unsigned requests get a plain 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			webjson.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures there is a signed-in user with one of the allowed roles.
// Missing user is a 401; wrong role is a 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				webjson.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				webjson.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}
