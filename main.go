package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gopkg.in/natefinch/lumberjack.v2"

	"ytfree/api"
	"ytfree/config"
	"ytfree/handlers"
	"ytfree/services/extractor"
	"ytfree/services/library"
	"ytfree/services/relay"
	"ytfree/services/search"
	"ytfree/services/sessions"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 ytfree Backend Starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("YTFREE_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Google OAuth is optional; without credentials the app still works
	// with a mock demo account for library features.
	var oauthCfg *oauth2.Config
	clientID := strings.TrimSpace(settings.Google.ClientID)
	clientSecret := strings.TrimSpace(settings.Google.ClientSecret)
	if clientID != "" && clientSecret != "" {
		publicURL := strings.TrimRight(settings.Server.PublicURL, "/")
		if publicURL == "" {
			publicURL = fmt.Sprintf("http://localhost:%d", settings.Server.Port)
		}
		oauthCfg = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  publicURL + "/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/youtube.readonly",
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		}
		fmt.Println("🔑 Google OAuth configured")
	} else {
		fmt.Println("⚠️  No Google credentials; library features use a demo account")
	}

	// Services
	extractorService := extractor.NewService(settings.Stream.UserAgent)
	relayService := relay.NewService(settings.Stream.UserAgent)
	searchService := search.NewService(settings.Stream.UserAgent, settings.Search.MaxResults)
	sessionService := sessions.NewService(time.Duration(settings.Session.TTLHours) * time.Hour)
	libraryService := library.NewService()

	// Handlers
	streamHandler := handlers.NewStreamHandler(extractorService, relayService, settings.Stream.MaxHeight)
	searchHandler := handlers.NewSearchHandler(searchService)
	authHandler := handlers.NewAuthHandler(sessionService, oauthCfg)
	libraryHandler := handlers.NewLibraryHandler(sessionService, libraryService)
	thumbnailHandler := handlers.NewThumbnailHandler(settings.Server.CacheDir)

	r := mux.NewRouter()
	api.Register(r, streamHandler, searchHandler, authHandler, libraryHandler, thumbnailHandler, settings.Server.StaticDir)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // No write timeout for streaming
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
