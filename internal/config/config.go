// Package config handles global glance configuration and per-library
// settings.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the global glance configuration.
type Config struct {
	// DefaultLibrary is the name of the default library (from Libraries map).
	DefaultLibrary string `toml:"default_library"`

	// Libraries is a map of library names to directory paths.
	Libraries map[string]string `toml:"libraries"`

	// LogLevel is one of debug, info, warn or error. Defaults to warn.
	LogLevel string `toml:"log_level"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered code blocks.
	CodeTheme string `toml:"code_theme"`
}

// GetLibraryPath returns the path for a named library.
// If name is empty, returns the default library path.
func (c *Config) GetLibraryPath(name string) (string, error) {
	if name == "" {
		name = c.DefaultLibrary
	}
	if name == "" {
		return "", fmt.Errorf("no default library configured")
	}
	if path, ok := c.Libraries[name]; ok {
		return expandHome(path), nil
	}
	return "", fmt.Errorf("library '%s' not found in config", name)
}

// ListLibraries returns the configured library names, sorted.
func (c *Config) ListLibraries() []string {
	names := make([]string, 0, len(c.Libraries))
	for name := range c.Libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Level returns the configured slog level, defaulting to warn.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path.
// Honors $GLANCE_CONFIG, then ~/.config/glance/config.toml,
// then the OS-specific config directory.
func DefaultPath() string {
	if env := os.Getenv("GLANCE_CONFIG"); env != "" {
		return env
	}

	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "glance", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "glance", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// CreateDefault creates a commented config file at path if none exists.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# glance configuration

# Default library name (must exist in [libraries] below)
# default_library = "photos"

# Named libraries
# [libraries]
# photos = "~/Pictures"
# music = "/srv/music"

# Log level for diagnostics written to stderr: debug, info, warn, error
# log_level = "warn"

# Optional accent color for headers in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
# code_theme = "monokai"
`

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
