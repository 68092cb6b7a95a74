package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"ytfree/models"
	"ytfree/services/sessions"
)

const oauthStateCookie = "ytfree_oauth_state"

// AuthHandler serves the Google OAuth flow and session endpoints.
// When OAuth is nil (no Google credentials configured) login falls
// back to a mock demo account so library features still demonstrate.
type AuthHandler struct {
	Sessions *sessions.Service
	OAuth    *oauth2.Config

	userinfoURL string
}

func NewAuthHandler(s *sessions.Service, oauthCfg *oauth2.Config) *AuthHandler {
	return &AuthHandler{
		Sessions:    s,
		OAuth:       oauthCfg,
		userinfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

type authStatusResponse struct {
	OAuthAvailable bool         `json:"oauthAvailable"`
	LoggedIn       bool         `json:"loggedIn"`
	User           *models.User `json:"user"`
}

// HandleStatus reports whether OAuth is configured and who is signed in.
func (h *AuthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := authStatusResponse{OAuthAvailable: h.OAuth != nil}
	if sess, err := h.currentSession(r); err == nil {
		resp.LoggedIn = true
		user := sess.User
		resp.User = &user
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleLogin starts the OAuth flow, or signs in the demo account when
// no Google credentials are configured.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.OAuth == nil {
		user := models.DemoUser()
		user.Picture = "https://ui-avatars.com/api/?name=Demo&background=7c3aed&color=fff"
		sess := h.Sessions.Create(user, nil)
		h.setSessionCookie(w, sess)
		log.Printf("[auth] mock login for %s", user.Email)
		http.Redirect(w, r, "/?loggedIn=1", http.StatusFound)
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((5 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	url := h.OAuth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	http.Redirect(w, r, url, http.StatusFound)
}

// HandleCallback exchanges the authorization code, loads the user's
// profile and creates the session.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if h.OAuth == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		log.Printf("[auth] state mismatch on callback")
		http.Redirect(w, r, "/?authError=1", http.StatusFound)
		return
	}

	token, err := h.OAuth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Printf("[auth] code exchange failed: %v", err)
		http.Redirect(w, r, "/?authError=1", http.StatusFound)
		return
	}

	user, err := h.fetchUserInfo(r, token)
	if err != nil {
		log.Printf("[auth] userinfo fetch failed: %v", err)
		http.Redirect(w, r, "/?authError=1", http.StatusFound)
		return
	}

	sess := h.Sessions.Create(user, token)
	h.setSessionCookie(w, sess)
	log.Printf("[auth] login for %s", user.Email)
	http.Redirect(w, r, "/?loggedIn=1", http.StatusFound)
}

// HandleLogout destroys the session and clears the cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessions.CookieName); err == nil {
		h.Sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessions.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (h *AuthHandler) fetchUserInfo(r *http.Request, token *oauth2.Token) (models.User, error) {
	client := h.OAuth.Client(r.Context(), token)
	resp, err := client.Get(h.userinfoURL)
	if err != nil {
		return models.User{}, err
	}
	defer resp.Body.Close()

	var info struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return models.User{}, err
	}
	return models.User{
		ID:      info.ID,
		Name:    info.Name,
		Email:   info.Email,
		Picture: info.Picture,
	}, nil
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sess sessions.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessions.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) currentSession(r *http.Request) (sessions.Session, error) {
	cookie, err := r.Cookie(sessions.CookieName)
	if err != nil {
		return sessions.Session{}, err
	}
	return h.Sessions.Get(cookie.Value)
}
