package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Backend contains the classification/persistence service connection settings.
type Backend struct {
	BaseURL                string `toml:"base_url"`
	RequestTimeoutSeconds  int    `toml:"request_timeout_seconds"`
	ClassifyTimeoutSeconds int    `toml:"classify_timeout_seconds"`
	CommitTimeoutSeconds   int    `toml:"commit_timeout_seconds"`
}

// Camera contains capture device settings.
type Camera struct {
	Device      string `toml:"device"`
	JPEGQuality int    `toml:"jpeg_quality"`
	Hotplug     bool   `toml:"hotplug"`
}

// Room is one entry of the static room/drawer layout.
type Room struct {
	Name    string   `toml:"name"`
	Drawers []string `toml:"drawers"`
}

// Layout is the static room/drawer table shown before the server tree is known.
type Layout struct {
	Rooms []Room `toml:"room"`
}

// Display contains presentation settings.
type Display struct {
	Language string `toml:"language"`
}

// Journal contains configuration for the local capture history.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Commits        bool   `toml:"commits"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for filingdesk.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Backend: classification service URL and per-call deadlines
//   - Camera: capture device and frame settings
//   - Layout: static room/drawer table
//   - Display: collation language for room/drawer ordering
//   - Journal: local capture history
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Backend       Backend       `toml:"backend"`
	Camera        Camera        `toml:"camera"`
	Layout        Layout        `toml:"layout"`
	Display       Display       `toml:"display"`
	Journal       Journal       `toml:"journal"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file in the working directory is read
// before environment fallbacks are applied; it never overrides variables already set.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if err := loadDotEnv(); err != nil {
		return nil, "", false, err
	}

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		// A file that declares rooms replaces the default table rather than appending to it.
		cfg.Layout.Rooms = nil
		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("filingdesk.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the capture journal database location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// CameraLockPath returns the lock file guarding exclusive camera ownership.
func (c *Config) CameraLockPath() string {
	name := strings.Trim(strings.ReplaceAll(c.Camera.Device, "/", "-"), "-")
	if name == "" {
		name = "camera"
	}
	return filepath.Join(c.Paths.StateDir, name+".lock")
}

// LogPath returns the log file written while the console owns the terminal.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "filingdesk.log")
}

// RequestTimeout returns the default deadline for lightweight backend calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeoutSeconds) * time.Second
}

// ClassifyTimeout returns the deadline applied to a single classification call.
func (c *Config) ClassifyTimeout() time.Duration {
	return time.Duration(c.Backend.ClassifyTimeoutSeconds) * time.Second
}

// CommitTimeout returns the deadline applied to a single folder commit.
func (c *Config) CommitTimeout() time.Duration {
	return time.Duration(c.Backend.CommitTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
