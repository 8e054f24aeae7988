package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/glance/internal/atomicfile"
)

// onDisk mirrors Config with every field optional, so unset values are left
// out of the file instead of written as empty strings.
type onDisk struct {
	DefaultLibrary *string           `toml:"default_library,omitempty"`
	LogLevel       *string           `toml:"log_level,omitempty"`
	Libraries      map[string]string `toml:"libraries,omitempty"`
	UI             *onDiskUI         `toml:"ui,omitempty"`
}

type onDiskUI struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func (c *Config) onDisk() onDisk {
	out := onDisk{
		DefaultLibrary: optional(c.DefaultLibrary),
		LogLevel:       optional(c.LogLevel),
	}
	if len(c.Libraries) > 0 {
		out.Libraries = c.Libraries
	}
	if ui := (onDiskUI{Accent: optional(c.UI.Accent), CodeTheme: optional(c.UI.CodeTheme)}); ui.Accent != nil || ui.CodeTheme != nil {
		out.UI = &ui
	}
	return out
}

// Save writes the global config to the default config path.
func Save(cfg *Config) error {
	return SaveTo(DefaultPath(), cfg)
}

// SaveTo replaces the config file at path. Comments in an existing file are
// not preserved.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	err := atomicfile.Write(path, 0o644, func(w io.Writer) error {
		return toml.NewEncoder(w).Encode(cfg.onDisk())
	})
	if err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
