// Package config resolves client settings from ~/.tada/config.yaml, the
// environment and flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	fileName = "config.yaml"

	DefaultAPIURL   = "http://localhost:4000"
	DefaultTheme    = "classic"
	DefaultLogLevel = "warn"
)

// Config holds everything the client needs to talk to the API.
type Config struct {
	// APIURL is the base URL of the todo API.
	APIURL string `yaml:"api_url"`
	// Dir holds config.yaml, the session blob and the optional log file.
	Dir string `yaml:"-"`
	// Token overrides the persisted session token (TADA_TOKEN).
	Token string `yaml:"-"`
	// Theme picks the terminal palette: classic, neon or mono.
	Theme    string `yaml:"theme"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// DefaultDir is ~/.tada unless TADA_CONFIG_DIR says otherwise.
func DefaultDir() (string, error) {
	if d := strings.TrimSpace(os.Getenv("TADA_CONFIG_DIR")); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

// Load reads <dir>/config.yaml (missing is fine) and applies env overrides.
// An empty dir means DefaultDir.
func Load(dir string) (Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return Config{}, err
		}
		dir = d
	}
	cfg := Config{
		APIURL:   DefaultAPIURL,
		Dir:      dir,
		Theme:    DefaultTheme,
		LogLevel: DefaultLogLevel,
	}

	b, err := os.ReadFile(filepath.Join(dir, fileName))
	switch {
	case err == nil:
		var fileCfg Config
		if err := yaml.Unmarshal(b, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", fileName, err)
		}
		cfg.merge(fileCfg)
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read %s: %w", fileName, err)
	}

	cfg.merge(Config{
		APIURL:   os.Getenv("TADA_API_URL"),
		Token:    os.Getenv("TADA_TOKEN"),
		Theme:    os.Getenv("TADA_THEME"),
		LogLevel: os.Getenv("TADA_LOG_LEVEL"),
	})
	return cfg, nil
}

// Save writes the file-backed fields to <Dir>/config.yaml.
func Save(cfg Config) error {
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Dir, fileName), b, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", fileName, err)
	}
	return nil
}

// Validate is called by commands that reach the server.
func (c Config) Validate() error {
	u := strings.TrimSpace(c.APIURL)
	if u == "" {
		return errors.New("api_url is not configured (set TADA_API_URL or api_url in config.yaml)")
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("api_url %q must start with http:// or https://", u)
	}
	return nil
}

func (c *Config) merge(o Config) {
	if v := strings.TrimSpace(o.APIURL); v != "" {
		c.APIURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(o.Token); v != "" {
		c.Token = v
	}
	if v := strings.TrimSpace(o.Theme); v != "" {
		c.Theme = v
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(o.LogFile); v != "" {
		c.LogFile = v
	}
}

// Merge applies non-empty overrides, used for flags.
func (c *Config) Merge(o Config) { c.merge(o) }
