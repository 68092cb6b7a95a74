package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"ytfree/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Range, Content-Type, Accept, Origin")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts all endpoints onto the provided router.
func Register(
	r *mux.Router,
	streamHandler *handlers.StreamHandler,
	searchHandler *handlers.SearchHandler,
	authHandler *handlers.AuthHandler,
	libraryHandler *handlers.LibraryHandler,
	thumbnailHandler *handlers.ThumbnailHandler,
	staticDir string,
) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	api.HandleFunc("/search", searchHandler.HandleSearch).Methods(http.MethodGet)
	api.HandleFunc("/search", handleOptions).Methods(http.MethodOptions)

	api.HandleFunc("/stream", streamHandler.HandleStream).Methods(http.MethodGet)
	api.HandleFunc("/stream", streamHandler.HandleOptions).Methods(http.MethodOptions)

	api.HandleFunc("/images/proxy", thumbnailHandler.HandleProxy).Methods(http.MethodGet)
	api.HandleFunc("/images/proxy", handleOptions).Methods(http.MethodOptions)

	// Library endpoints require a session
	api.HandleFunc("/my/playlists", libraryHandler.HandlePlaylists).Methods(http.MethodGet)
	api.HandleFunc("/my/playlists", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/my/playlist/{id}", libraryHandler.HandlePlaylistItems).Methods(http.MethodGet)
	api.HandleFunc("/my/playlist/{id}", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/my/liked", libraryHandler.HandleLiked).Methods(http.MethodGet)
	api.HandleFunc("/my/liked", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/my/subscriptions", libraryHandler.HandleSubscriptions).Methods(http.MethodGet)
	api.HandleFunc("/my/subscriptions", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/my/overview", libraryHandler.HandleOverview).Methods(http.MethodGet)
	api.HandleFunc("/my/overview", handleOptions).Methods(http.MethodOptions)

	// OAuth flow lives outside /api to keep the callback URL short
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/status", authHandler.HandleStatus).Methods(http.MethodGet)
	auth.HandleFunc("/google", authHandler.HandleLogin).Methods(http.MethodGet)
	auth.HandleFunc("/google/callback", authHandler.HandleCallback).Methods(http.MethodGet)
	auth.HandleFunc("/logout", authHandler.HandleLogout).Methods(http.MethodGet)

	// SPA: serve static assets, fall back to index.html for client routes
	r.PathPrefix("/").Handler(spaHandler(staticDir))
}

// spaHandler serves files from staticDir and rewrites unknown paths to
// index.html so client-side routing works on refresh.
func spaHandler(staticDir string) http.Handler {
	fileServer := http.FileServer(http.Dir(staticDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			if r.URL.Path != "/" {
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
		}
		fileServer.ServeHTTP(w, r)
	})
}
