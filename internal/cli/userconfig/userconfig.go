package userconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jobtrack-dev/jobtrack/internal/cli/session"
)

const (
	configDirName   = "jobtrack"
	configFileName  = "config.yaml"
	sessionFilePrefix = "session-"

	DefaultServerURL = "http://localhost:8080"

	StorageFile    = "file"
	StorageKeyring = "keyring"

	envConfigDir = "JOBTRACK_CONFIG_DIR"
	envServerURL = "JOBTRACK_SERVER_URL"
)

// Settable keys for Set
const (
	KeyServerURL      = "server_url"
	KeySessionStorage = "session_storage"
)

var ErrUnknownKey = errors.New("unknown config key")

// UserConfig represents the user's local configuration stored in ~/.config/jobtrack/config.yaml
type UserConfig struct {
	ServerURL      string `yaml:"server_url"`
	SessionStorage string `yaml:"session_storage"`
}

func defaults() UserConfig {
	return UserConfig{ServerURL: DefaultServerURL, SessionStorage: StorageFile}
}

// Dir returns the directory holding the config and the file-backed session
func Dir() (string, error) {
	if dir := os.Getenv(envConfigDir); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName), nil
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the user configuration file. Missing files and fields fall back
// to defaults, and JOBTRACK_SERVER_URL overrides the stored server.
func Load() (*UserConfig, error) {
	cfg, err := loadFile()
	if err != nil {
		return nil, err
	}
	if serverURL := os.Getenv(envServerURL); serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := defaults()
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	if cfg.SessionStorage == "" {
		cfg.SessionStorage = StorageFile
	}
	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	return nil
}

// Set updates one key in the stored file. Environment overrides are not persisted.
func Set(key, value string) (*UserConfig, error) {
	cfg, err := loadFile()
	if err != nil {
		return nil, err
	}

	switch key {
	case KeyServerURL:
		cfg.ServerURL = strings.TrimRight(value, "/")
	case KeySessionStorage:
		cfg.SessionStorage = strings.ToLower(value)
	default:
		return nil, fmt.Errorf("%w: %s (expected %s or %s)", ErrUnknownKey, key, KeyServerURL, KeySessionStorage)
	}

	if err := Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *UserConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server_url %q: must be an http(s) URL", c.ServerURL)
	}
	switch c.SessionStorage {
	case StorageFile, StorageKeyring:
		return nil
	default:
		return fmt.Errorf("invalid session_storage %q: must be %s or %s", c.SessionStorage, StorageFile, StorageKeyring)
	}
}

// OpenSessionStorage returns the persisted-session backend selected by the config
func (c *UserConfig) OpenSessionStorage() (session.Storage, error) {
	if c.SessionStorage == StorageKeyring {
		return session.NewKeyringStorage(c.ServerURL), nil
	}
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return session.NewFileStorage(filepath.Join(dir, SessionFileName(c.ServerURL))), nil
}

// SessionFileName names the session file for serverURL. Each server gets its
// own file so a token is only ever sent to the server that issued it.
func SessionFileName(serverURL string) string {
	sum := sha256.Sum256([]byte(strings.TrimRight(serverURL, "/")))
	return sessionFilePrefix + hex.EncodeToString(sum[:6]) + ".json"
}
