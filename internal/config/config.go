// Package config resolves client settings from an optional YAML file and
// the environment. Environment values override the file; flags, handled by
// the CLI layer, override both.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvPanelURL        = "RW_PANEL_URL"
	EnvTimeout         = "RW_TIMEOUT"
	EnvCredentialsFile = "RW_CREDENTIALS_FILE"
	EnvLogLevel        = "RW_LOG_LEVEL"
)

const defaultTimeout = 30 * time.Second

// Config is the resolved client configuration.
type Config struct {
	PanelURL        string        `yaml:"panel_url"`
	Timeout         time.Duration `yaml:"timeout"`
	CredentialsFile string        `yaml:"credentials_file"`
	LogLevel        string        `yaml:"log_level"`
}

// DefaultPath resolves the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "rwctl", "config.yaml"), nil
}

// Load resolves the configuration from the file and the environment. An
// explicitly given path must exist; the default path is skipped silently
// when absent. The result is not validated: the CLI layer applies flag
// overrides first and calls Validate on the final value.
func Load(path string) (Config, error) {
	cfg := Config{
		Timeout:  defaultTimeout,
		LogLevel: "info",
	}

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			if explicit || !os.IsNotExist(err) {
				return Config{}, err
			}
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvPanelURL)); v != "" {
		cfg.PanelURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v := strings.TrimSpace(os.Getenv(EnvCredentialsFile)); v != "" {
		cfg.CredentialsFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Validate checks the resolved configuration is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.PanelURL) == "" {
		return fmt.Errorf("panel url is required (set %s or panel_url in the config file)", EnvPanelURL)
	}
	u, err := url.Parse(c.PanelURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("panel url %q must be absolute", c.PanelURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
