// Package config provides configuration management for the rss CLI tool
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Davincible/rss/pkg/crypto/mac"
	"github.com/Davincible/rss/pkg/crypto/secretsharing"
)

// Config represents the main configuration structure
type Config struct {
	Version  string          `json:"version"`
	Defaults DefaultSettings `json:"defaults"`
	Security SecurityConfig  `json:"security"`
	UI       UIConfig        `json:"ui"`
	Storage  StorageConfig   `json:"storage"`
}

// DefaultSettings contains default values for split operations
type DefaultSettings struct {
	Threshold    int    `json:"threshold"`     // Default: 2
	Parts        int    `json:"parts"`         // Default: 3
	MACAlgorithm string `json:"mac_algorithm"` // Default: hmac-sha256
}

// SecurityConfig contains security-related settings
type SecurityConfig struct {
	EncryptShareFiles bool `json:"encrypt_share_files"` // Ask for a password when writing share files
	MinPasswordLength int  `json:"min_password_length"`
	WipeMemory        bool `json:"wipe_memory"`
}

// UIConfig contains user interface settings
type UIConfig struct {
	UseColor  bool   `json:"use_color"`
	Verbosity string `json:"verbosity"` // quiet, normal, verbose
}

// StorageConfig contains storage-related settings
type StorageConfig struct {
	DefaultPath string `json:"default_path"` // Directory for per-share files
}

// ConfigManager manages configuration loading and saving
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager loads the configuration from the default location,
// writing the defaults there when no file exists yet.
func NewConfigManager() (*ConfigManager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewConfigManagerAt(configPath)
}

// NewConfigManagerAt is NewConfigManager with an explicit path.
func NewConfigManagerAt(configPath string) (*ConfigManager, error) {
	cm := &ConfigManager{configPath: configPath}

	if err := cm.LoadConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cm.config = DefaultConfig()
		if err := cm.SaveConfig(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	}

	return cm, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0.0",
		Defaults: DefaultSettings{
			Threshold:    2,
			Parts:        3,
			MACAlgorithm: mac.AlgHMACSHA256,
		},
		Security: SecurityConfig{
			EncryptShareFiles: false,
			MinPasswordLength: 8,
			WipeMemory:        true,
		},
		UI: UIConfig{
			UseColor:  true,
			Verbosity: "normal",
		},
		Storage: StorageConfig{
			DefaultPath: "~/.rss/shares",
		},
	}
}

// LoadConfig loads the configuration from disk
func (cm *ConfigManager) LoadConfig() error {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", cm.configPath, err)
	}

	cm.config = config
	return nil
}

// SaveConfig saves the configuration to disk
func (cm *ConfigManager) SaveConfig() error {
	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cm.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// Path returns the file the manager reads and writes.
func (cm *ConfigManager) Path() string {
	return cm.configPath
}

// Validate checks the defaults against the sharing constraints.
func (c *Config) Validate() error {
	sc := c.SharingConfig()
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	if c.Security.MinPasswordLength < 0 {
		return fmt.Errorf("security: min_password_length cannot be negative")
	}

	switch c.UI.Verbosity {
	case "", "quiet", "normal", "verbose":
	default:
		return fmt.Errorf("ui: unknown verbosity %q", c.UI.Verbosity)
	}

	return nil
}

// SharingConfig converts the defaults into sharer parameters.
func (c *Config) SharingConfig() secretsharing.Config {
	return secretsharing.Config{
		Parts:        c.Defaults.Parts,
		Threshold:    c.Defaults.Threshold,
		MACAlgorithm: c.Defaults.MACAlgorithm,
	}
}

// ValidatePassword enforces the configured minimum password length.
func (c *Config) ValidatePassword(password []byte) error {
	if len(password) < c.Security.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", c.Security.MinPasswordLength)
	}
	return nil
}

// StorageDir returns the share directory with a leading ~ expanded.
func (c *Config) StorageDir() (string, error) {
	path := c.Storage.DefaultPath
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}

// getConfigPath returns the configuration file path
func getConfigPath() (string, error) {
	if customPath := os.Getenv("RSS_CONFIG"); customPath != "" {
		return customPath, nil
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "rss", "config.json"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "rss", "config.json"), nil
}
