package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"

	"ytfree/models"
	"ytfree/services/sessions"
)

type fakeLibrary struct {
	lastToken      *oauth2.Token
	lastPlaylistID string
}

func (f *fakeLibrary) Playlists(ctx context.Context, token *oauth2.Token) ([]models.Playlist, error) {
	f.lastToken = token
	return []models.Playlist{{ID: "PL1", Title: "Mixes"}}, nil
}

func (f *fakeLibrary) PlaylistItems(ctx context.Context, token *oauth2.Token, playlistID string) ([]models.PlaylistItem, error) {
	f.lastToken = token
	f.lastPlaylistID = playlistID
	return nil, nil
}

func (f *fakeLibrary) Liked(ctx context.Context, token *oauth2.Token) ([]models.PlaylistItem, error) {
	f.lastToken = token
	return nil, nil
}

func (f *fakeLibrary) Subscriptions(ctx context.Context, token *oauth2.Token) ([]models.Subscription, error) {
	f.lastToken = token
	return nil, nil
}

func (f *fakeLibrary) Overview(ctx context.Context, token *oauth2.Token) (models.LibraryOverview, error) {
	f.lastToken = token
	return models.LibraryOverview{}, nil
}

func TestLibraryRequiresSession(t *testing.T) {
	h := NewLibraryHandler(sessions.NewService(time.Hour), &fakeLibrary{})

	req := httptest.NewRequest(http.MethodGet, "/api/my/playlists", nil)
	rec := httptest.NewRecorder()
	h.HandlePlaylists(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] != "Not authenticated" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestLibraryPassesSessionToken(t *testing.T) {
	svc := sessions.NewService(time.Hour)
	token := &oauth2.Token{AccessToken: "token-abc"}
	sess := svc.Create(models.User{ID: "u1", Name: "Real User"}, token)

	lib := &fakeLibrary{}
	h := NewLibraryHandler(svc, lib)

	req := httptest.NewRequest(http.MethodGet, "/api/my/playlists", nil)
	req.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sess.ID})
	rec := httptest.NewRecorder()
	h.HandlePlaylists(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if lib.lastToken != token {
		t.Error("handler should pass the session's token through")
	}
	var playlists []models.Playlist
	if err := json.Unmarshal(rec.Body.Bytes(), &playlists); err != nil || len(playlists) != 1 {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestLibraryPlaylistItemsUsesPathID(t *testing.T) {
	svc := sessions.NewService(time.Hour)
	sess := svc.Create(models.DemoUser(), nil)

	lib := &fakeLibrary{}
	h := NewLibraryHandler(svc, lib)

	router := mux.NewRouter()
	router.HandleFunc("/api/my/playlist/{id}", h.HandlePlaylistItems)

	req := httptest.NewRequest(http.MethodGet, "/api/my/playlist/PL42", nil)
	req.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sess.ID})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if lib.lastPlaylistID != "PL42" {
		t.Errorf("playlist id = %q, want PL42", lib.lastPlaylistID)
	}
}

func TestLibraryDemoSessionHasNilToken(t *testing.T) {
	svc := sessions.NewService(time.Hour)
	sess := svc.Create(models.DemoUser(), nil)

	lib := &fakeLibrary{lastToken: &oauth2.Token{AccessToken: "stale"}}
	h := NewLibraryHandler(svc, lib)

	req := httptest.NewRequest(http.MethodGet, "/api/my/liked", nil)
	req.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sess.ID})
	rec := httptest.NewRecorder()
	h.HandleLiked(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if lib.lastToken != nil {
		t.Error("demo session should carry a nil token")
	}
}
