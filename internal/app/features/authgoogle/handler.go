// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/covenantapps/flockhub/internal/app/store/audit"
	userstore "github.com/covenantapps/flockhub/internal/app/store/users"
	"github.com/covenantapps/flockhub/internal/app/system/auditlog"
	"github.com/covenantapps/flockhub/internal/app/system/auth"
	"github.com/covenantapps/flockhub/internal/app/system/timeouts"
	"github.com/covenantapps/flockhub/internal/app/system/webjson"
	"github.com/covenantapps/flockhub/internal/domain/models"
)

const (
	stateCookie = "flockhub-oauth-state"
	stateMaxAge = 600 // seconds
)

// Handler implements the Google OAuth sign-in flow. State round-trips in a
// signed cookie so the callback can verify it without server-side storage.
type Handler struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	Users    *userstore.Store
	Sessions *auth.Manager
	Audit    *auditlog.Logger
	Log      *zap.Logger

	sc *securecookie.SecureCookie
}

func NewHandler(clientID, clientSecret, redirectURL, stateKey string,
	users *userstore.Store, sessions *auth.Manager, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {

	return &Handler{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Users:        users,
		Sessions:     sessions,
		Audit:        auditLog,
		Log:          logger,
		sc:           securecookie.New([]byte(stateKey), nil),
	}
}

// IsConfigured reports whether Google sign-in can be offered at all.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != "" && h.RedirectURL != ""
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ServeStart redirects the browser to Google's consent screen.
func (h *Handler) ServeStart(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		webjson.Error(w, http.StatusNotImplemented, "google sign-in is not configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("oauth state generation failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	encoded, err := h.sc.Encode(stateCookie, state)
	if err != nil {
		h.Log.Error("oauth state encode failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    encoded,
		Path:     "/",
		MaxAge:   stateMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusFound)
}

// ServeCallback exchanges the code, fetches the Google profile and signs
// the user in, creating a viewer account on first sign-in.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		webjson.Error(w, http.StatusNotImplemented, "google sign-in is not configured")
		return
	}

	if err := h.verifyState(r); err != nil {
		h.Log.Warn("oauth state mismatch", zap.Error(err))
		webjson.Error(w, http.StatusBadRequest, "invalid oauth state")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "google oauth exchange")
	defer cancel()

	cfg := h.oauth2Config()
	token, err := cfg.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		h.Log.Warn("oauth code exchange failed", zap.Error(err))
		webjson.Error(w, http.StatusBadGateway, "google sign-in failed")
		return
	}

	profile, err := fetchProfile(ctx, cfg, token)
	if err != nil {
		h.Log.Warn("google profile fetch failed", zap.Error(err))
		webjson.Error(w, http.StatusBadGateway, "google sign-in failed")
		return
	}
	if profile.Email == "" {
		webjson.Error(w, http.StatusBadGateway, "google account has no email")
		return
	}

	u, err := h.Users.GetByEmail(ctx, profile.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		created, cerr := h.Users.Create(ctx, models.User{
			FullName:   profile.Name,
			Email:      profile.Email,
			AuthMethod: "google",
			Role:       "viewer",
		})
		if cerr != nil {
			h.Log.Error("google account create failed", zap.Error(cerr))
			webjson.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		u = &created
	} else if err != nil {
		h.Log.Error("google account lookup failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	su := auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role}
	if err := h.Sessions.SignIn(w, r, su); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Audit.AuthEvent(ctx, r, audit.EventGoogleSignIn, &u.ID, true, "")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) verifyState(r *http.Request) error {
	c, err := r.Cookie(stateCookie)
	if err != nil {
		return fmt.Errorf("state cookie missing: %w", err)
	}
	var stored string
	if err := h.sc.Decode(stateCookie, c.Value, &stored); err != nil {
		return fmt.Errorf("state cookie invalid: %w", err)
	}
	if got := r.URL.Query().Get("state"); got == "" || got != stored {
		return errors.New("state parameter does not match cookie")
	}
	return nil
}

type googleProfile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func fetchProfile(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token) (*googleProfile, error) {
	resp, err := cfg.Client(ctx, token).Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %d", resp.StatusCode)
	}
	var p googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
