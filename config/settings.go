package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server  ServerSettings  `json:"server"`
	Google  GoogleSettings  `json:"google"`
	Session SessionSettings `json:"session"`
	Stream  StreamSettings  `json:"stream"`
	Search  SearchSettings  `json:"search"`
	Log     LogConfig       `json:"log"`
}

type ServerSettings struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	PublicURL string `json:"publicUrl"` // external base URL used for OAuth redirects
	StaticDir string `json:"staticDir"`
	CacheDir  string `json:"cacheDir"`
}

// GoogleSettings holds the OAuth2 credentials for the YouTube Data API.
// When empty, account features fall back to a mock demo login.
type GoogleSettings struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type SessionSettings struct {
	Secret   string `json:"secret"`
	TTLHours int    `json:"ttlHours"`
}

// StreamSettings controls format selection and origin relay behavior.
type StreamSettings struct {
	MaxHeight int    `json:"maxHeight"` // resolution ceiling for video selection
	UserAgent string `json:"userAgent"` // sent on origin requests; YouTube rejects unknown clients
}

type SearchSettings struct {
	MaxResults int `json:"maxResults"`
}

// LogConfig represents file logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

func DefaultSettings() Settings {
	return Settings{
		Server:  ServerSettings{Host: "0.0.0.0", Port: 3000, PublicURL: "", StaticDir: "public", CacheDir: "cache"},
		Google:  GoogleSettings{},
		Session: SessionSettings{Secret: "", TTLHours: 24},
		Stream:  StreamSettings{MaxHeight: 720, UserAgent: defaultUserAgent},
		Search:  SearchSettings{MaxResults: 20},
		Log: LogConfig{
			File:       "cache/logs/backend.log",
			MaxSize:    50, // 50 MB per file
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	// Backfill defaults for configs that predate newer settings
	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = "0.0.0.0"
	}
	if s.Server.Port == 0 {
		s.Server.Port = 3000
	}
	if strings.TrimSpace(s.Server.StaticDir) == "" {
		s.Server.StaticDir = "public"
	}
	if strings.TrimSpace(s.Server.CacheDir) == "" {
		s.Server.CacheDir = "cache"
	}
	if s.Session.TTLHours == 0 {
		s.Session.TTLHours = 24
	}
	if s.Stream.MaxHeight == 0 {
		s.Stream.MaxHeight = 720
	}
	if strings.TrimSpace(s.Stream.UserAgent) == "" {
		s.Stream.UserAgent = defaultUserAgent
	}
	if s.Search.MaxResults == 0 {
		s.Search.MaxResults = 20
	}
	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = "cache/logs/backend.log"
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = 50
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = 3
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = 7
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
