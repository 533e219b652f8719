package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultTimeout bounds a single HTTP round trip.
const DefaultTimeout = 30 * time.Second

// Config holds CLI configuration stored at ~/.repack/config. Every key can be
// overridden from the environment (or a .env file in the working directory).
type Config struct {
	BaseURL   string        `yaml:"base_url" env:"REPACK_BASE_URL"`
	Email     string        `yaml:"email,omitempty" env:"REPACK_EMAIL"`
	SessionID string        `yaml:"session_id,omitempty" env:"REPACK_SESSION_ID"`
	CSRFToken string        `yaml:"csrf_token,omitempty" env:"REPACK_CSRF_TOKEN"`
	RoomID    int           `yaml:"room_id,omitempty" env:"REPACK_ROOM_ID"`
	LogPath   string        `yaml:"log_path,omitempty" env:"REPACK_LOG_PATH"`
	LogLevel  string        `yaml:"log_level,omitempty" env:"REPACK_LOG_LEVEL"`
	Timeout   time.Duration `yaml:"timeout,omitempty" env:"REPACK_TIMEOUT"`

	origin *snapshot
}

// snapshot remembers what Load read from disk and what the env overlay
// turned it into, so Save can tell caller edits from overrides.
type snapshot struct {
	file   Config
	loaded Config
}

// EnvFiles are loaded, when present, before env overrides are applied.
var EnvFiles = []string{".env", ".env.local"}

// Dir returns the config directory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".repack")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(Dir(), "config")
}

// DefaultLogPath is used when log_path is unset.
func DefaultLogPath() string {
	return filepath.Join(Dir(), "repack.log")
}

// Load reads and parses the config file, then applies env overrides. Returns
// an error wrapping os.ErrNotExist when the file is missing, and an error when
// it is readable by others or lacks a base URL.
func Load() (*Config, error) {
	path := Path()

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "config not found")
	}

	perm := info.Mode().Perm()
	if perm != 0o600 {
		return nil, errors.Errorf("config permissions too open: %04o (want 0600)", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	file := cfg
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.origin = &snapshot{file: file, loaded: cfg}
	return &cfg, nil
}

// ApplyEnv loads EnvFiles and overlays REPACK_* variables onto c.
func (c *Config) ApplyEnv() error {
	if _, err := LoadEnvFiles(EnvFiles); err != nil {
		return errors.Wrap(err, "load env files")
	}
	if err := env.Parse(c); err != nil {
		return errors.Wrap(err, "parse env")
	}
	return nil
}

// LoadEnvFiles loads the files that exist and reports how many were read.
// Variables already present in the environment win.
func LoadEnvFiles(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Validate checks the fields every command relies on.
func (c *Config) Validate() error {
	raw := strings.TrimSpace(c.BaseURL)
	if raw == "" {
		return errors.New("config missing base_url")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("config base_url %q is not an absolute URL", raw)
	}
	if c.Timeout < 0 {
		return errors.Errorf("config timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// HTTPTimeout returns the configured timeout or DefaultTimeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c == nil || c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// ResolvedLogPath returns log_path or DefaultLogPath.
func (c *Config) ResolvedLogPath() string {
	if c == nil || strings.TrimSpace(c.LogPath) == "" {
		return DefaultLogPath()
	}
	return c.LogPath
}

// Save writes the config to disk with secure permissions. Values that only
// came from the environment are not written; the file keeps its own value
// unless the field was changed after Load.
func (c *Config) Save() error {
	path := Path()
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	out := c.persisted()
	data, err := yaml.Marshal(&out)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "write config")
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o600); err != nil {
		return errors.Wrap(err, "chmod config")
	}
	if c.origin != nil {
		loaded := *c
		loaded.origin = nil
		c.origin = &snapshot{file: out, loaded: loaded}
	}
	return nil
}

func (c *Config) persisted() Config {
	out := *c
	out.origin = nil
	if c.origin == nil {
		return out
	}
	f, l := c.origin.file, c.origin.loaded
	out.BaseURL = keep(c.BaseURL, l.BaseURL, f.BaseURL)
	out.Email = keep(c.Email, l.Email, f.Email)
	out.SessionID = keep(c.SessionID, l.SessionID, f.SessionID)
	out.CSRFToken = keep(c.CSRFToken, l.CSRFToken, f.CSRFToken)
	out.RoomID = keep(c.RoomID, l.RoomID, f.RoomID)
	out.LogPath = keep(c.LogPath, l.LogPath, f.LogPath)
	out.LogLevel = keep(c.LogLevel, l.LogLevel, f.LogLevel)
	out.Timeout = keep(c.Timeout, l.Timeout, f.Timeout)
	return out
}

// keep returns current when the caller changed it since Load, else the
// value the file held.
func keep[T comparable](current, loaded, file T) T {
	if current != loaded {
		return current
	}
	return file
}

// ClearSession forgets the stored session and CSRF token.
func (c *Config) ClearSession() {
	c.SessionID = ""
	c.CSRFToken = ""
}
