// Package pattern implements the glob-like path patterns used as query sources.
//
// A pattern is a '/'-separated list of segments relative to the library root.
// Within a segment '*', '?' and '[...]' follow path.Match; a segment that is
// exactly "**" matches zero or more segments. Matching is case-insensitive.
package pattern

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aidanlsb/glance/internal/entity"
)

// ErrInvalidPattern is wrapped by every pattern syntax error.
var ErrInvalidPattern = errors.New("invalid pattern")

// Pattern is a parsed path pattern. It is immutable.
type Pattern struct {
	text     string
	raw      []string // segments as written, used to locate the walk base on disk
	segments []string // normalized segments used for matching
	base     int      // leading literal segments: every match lies below them
	deep     bool     // contains "**"
}

// Parse parses and validates a pattern.
func Parse(text string) (*Pattern, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	if strings.HasPrefix(trimmed, "/") {
		return nil, fmt.Errorf("%w: %q must be relative to the library root", ErrInvalidPattern, text)
	}

	p := &Pattern{text: text}
	for _, seg := range strings.Split(trimmed, "/") {
		switch {
		case seg == "" || seg == ".":
			continue
		case seg == "..":
			return nil, fmt.Errorf("%w: %q must not leave the library root", ErrInvalidPattern, text)
		case seg == "**":
			p.deep = true
		case strings.Contains(seg, "**"):
			return nil, fmt.Errorf("%w: '**' must be a whole path segment in %q", ErrInvalidPattern, text)
		default:
			if _, err := path.Match(seg, ""); err != nil {
				return nil, fmt.Errorf("%w: malformed segment %q", ErrInvalidPattern, seg)
			}
		}
		p.raw = append(p.raw, seg)
		p.segments = append(p.segments, entity.Key(seg))
	}
	if len(p.segments) == 0 {
		return nil, fmt.Errorf("%w: %q names no path", ErrInvalidPattern, text)
	}

	for p.base < len(p.raw) && !hasMeta(p.raw[p.base]) {
		p.base++
	}
	if p.base == len(p.raw) {
		// A literal pattern names a single entry inside its parent directory.
		p.base--
	}
	return p, nil
}

func hasMeta(seg string) bool {
	return strings.ContainsAny(seg, `*?[\`)
}

// String returns the pattern as written.
func (p *Pattern) String() string { return p.text }

// Base returns the directory, relative to the library root, below which
// every match lies.
func (p *Pattern) Base() string {
	return strings.Join(p.raw[:p.base], "/")
}

// MaxDepth returns how many segments below Base a match can have, or -1
// when the pattern contains "**".
func (p *Pattern) MaxDepth() int {
	if p.deep {
		return -1
	}
	return len(p.segments) - p.base
}

// Match reports whether a library-relative path matches. The path must lie
// strictly below Base, which keeps Match in agreement with enumeration.
func (p *Pattern) Match(relPath string) bool {
	key := entity.Key(relPath)
	if key == "" {
		return false
	}
	name := strings.Split(key, "/")
	if len(name) <= p.base {
		return false
	}
	return matchSegments(p.segments, name)
}

func matchSegments(pat, name []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			pat = pat[1:]
			if len(pat) == 0 {
				return true
			}
			for i := 0; i <= len(name); i++ {
				if matchSegments(pat, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		if ok, _ := path.Match(pat[0], name[0]); !ok {
			return false
		}
		pat, name = pat[1:], name[1:]
	}
	return len(name) == 0
}
