package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"

	"ytfree/models"
	librarypkg "ytfree/services/library"
	"ytfree/services/sessions"
)

type libraryService interface {
	Playlists(ctx context.Context, token *oauth2.Token) ([]models.Playlist, error)
	PlaylistItems(ctx context.Context, token *oauth2.Token, playlistID string) ([]models.PlaylistItem, error)
	Liked(ctx context.Context, token *oauth2.Token) ([]models.PlaylistItem, error)
	Subscriptions(ctx context.Context, token *oauth2.Token) ([]models.Subscription, error)
	Overview(ctx context.Context, token *oauth2.Token) (models.LibraryOverview, error)
}

var _ libraryService = (*librarypkg.Service)(nil)

// LibraryHandler serves the authenticated /api/my/* endpoints.
type LibraryHandler struct {
	Sessions *sessions.Service
	Service  libraryService
}

func NewLibraryHandler(s *sessions.Service, svc libraryService) *LibraryHandler {
	return &LibraryHandler{Sessions: s, Service: svc}
}

// requireSession resolves the session cookie, writing a 401 when the
// caller is not signed in.
func (h *LibraryHandler) requireSession(w http.ResponseWriter, r *http.Request) (sessions.Session, bool) {
	cookie, err := r.Cookie(sessions.CookieName)
	if err == nil {
		if sess, err := h.Sessions.Get(cookie.Value); err == nil {
			return sess, true
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "Not authenticated"})
	return sessions.Session{}, false
}

func (h *LibraryHandler) HandlePlaylists(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	playlists, err := h.Service.Playlists(r.Context(), sess.Token)
	h.respond(w, "playlists", playlists, err)
}

func (h *LibraryHandler) HandlePlaylistItems(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	items, err := h.Service.PlaylistItems(r.Context(), sess.Token, mux.Vars(r)["id"])
	h.respond(w, "playlist items", items, err)
}

func (h *LibraryHandler) HandleLiked(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	liked, err := h.Service.Liked(r.Context(), sess.Token)
	h.respond(w, "liked", liked, err)
}

func (h *LibraryHandler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	subs, err := h.Service.Subscriptions(r.Context(), sess.Token)
	h.respond(w, "subscriptions", subs, err)
}

// HandleOverview returns all three feeds in one response so the frontend
// can render the library page with a single request.
func (h *LibraryHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	overview, err := h.Service.Overview(r.Context(), sess.Token)
	h.respond(w, "overview", overview, err)
}

func (h *LibraryHandler) respond(w http.ResponseWriter, what string, payload any, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		log.Printf("[library] %s fetch failed: %v", what, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(payload)
}
