package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/glance/internal/atomicfile"
)

// LibraryConfigFile is the name of the per-library settings file.
const LibraryConfigFile = "glance.yaml"

// ErrViewNotFound is returned when a named view does not exist.
var ErrViewNotFound = errors.New("view not found")

// LibraryConfig represents library-level settings from glance.yaml.
type LibraryConfig struct {
	// Views maps view names to saved query text. Names are matched
	// case-insensitively.
	Views map[string]*View `yaml:"views,omitempty"`

	// Columns lists the attributes shown by default in query results.
	Columns []string `yaml:"columns,omitempty"`

	// SkipDirectories lists directory names the walker never descends into.
	SkipDirectories []string `yaml:"skip_directories,omitempty"`
}

// View is a named query stored in glance.yaml.
//
// Either form is accepted:
//
//	views:
//	  recent: select "**" where modified > date("2024-01-01")
//	  best:
//	    query: select recent where rating >= 4
//	    description: Highly rated recent files
type View struct {
	Query       string `yaml:"query"`
	Description string `yaml:"description,omitempty"`
}

// UnmarshalYAML accepts a bare query string as shorthand.
func (v *View) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		v.Query = node.Value
		return nil
	}
	type plain View
	return node.Decode((*plain)(v))
}

// LoadLibraryConfig loads glance.yaml from the library root.
// Returns an empty config if the file doesn't exist.
func LoadLibraryConfig(libraryPath string) (*LibraryConfig, error) {
	configPath := filepath.Join(libraryPath, LibraryConfigFile)

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return &LibraryConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read library config %s: %w", configPath, err)
	}

	var cfg LibraryConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse library config %s: %w", configPath, err)
	}
	seen := make(map[string]string, len(cfg.Views))
	for name, v := range cfg.Views {
		if v == nil || strings.TrimSpace(v.Query) == "" {
			return nil, fmt.Errorf("library config %s: view %q has no query", configPath, name)
		}
		folded := strings.ToLower(name)
		if other, ok := seen[folded]; ok {
			a, b := other, name
			if b < a {
				a, b = b, a
			}
			return nil, fmt.Errorf("library config %s: views %q and %q differ only in case", configPath, a, b)
		}
		seen[folded] = name
	}
	return &cfg, nil
}

// SaveLibraryConfig writes the config back to glance.yaml.
func SaveLibraryConfig(libraryPath string, cfg *LibraryConfig) error {
	configPath := filepath.Join(libraryPath, LibraryConfigFile)

	var buf strings.Builder
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal library config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal library config: %w", err)
	}

	if err := atomicfile.WriteFile(configPath, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", LibraryConfigFile, err)
	}
	return nil
}

// lookup finds a view by name, exact spelling first, then the first name
// in byte order that matches ignoring case.
func (c *LibraryConfig) lookup(name string) (string, *View, bool) {
	if v, ok := c.Views[name]; ok {
		return name, v, true
	}
	stored := make([]string, 0, len(c.Views))
	for k := range c.Views {
		if strings.EqualFold(k, name) {
			stored = append(stored, k)
		}
	}
	if len(stored) == 0 {
		return "", nil, false
	}
	sort.Strings(stored)
	return stored[0], c.Views[stored[0]], true
}

// View returns the query text of a named view.
func (c *LibraryConfig) View(name string) (string, bool) {
	_, v, ok := c.lookup(name)
	if !ok {
		return "", false
	}
	return v.Query, true
}

// GetView returns a view and its stored name.
func (c *LibraryConfig) GetView(name string) (string, *View, error) {
	stored, v, ok := c.lookup(name)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	return stored, v, nil
}

// ViewNames returns the view names sorted case-insensitively.
func (c *LibraryConfig) ViewNames() []string {
	names := make([]string, 0, len(c.Views))
	for name := range c.Views {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// ValidateViewName rejects names that cannot be written in a query.
func ValidateViewName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("view name is required")
	}
	if strings.ContainsAny(name, "\n\r") {
		return fmt.Errorf("view name %q contains a line break", name)
	}
	return nil
}

// AddView stores a view, replacing any view with the same name. The
// previous spelling of a replaced name is dropped.
func (c *LibraryConfig) AddView(name, query, description string) error {
	if err := ValidateViewName(name); err != nil {
		return err
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("view %s: query is required", name)
	}
	if stored, _, ok := c.lookup(name); ok {
		delete(c.Views, stored)
	}
	if c.Views == nil {
		c.Views = make(map[string]*View)
	}
	c.Views[name] = &View{Query: query, Description: description}
	return nil
}

// RemoveView deletes a view.
func (c *LibraryConfig) RemoveView(name string) error {
	stored, _, ok := c.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	delete(c.Views, stored)
	return nil
}
