package syncengine

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileFilter decides which source entries a folder sync copies.
type FileFilter interface {
	// ShouldInclude returns true if the entry with the given name should be copied.
	ShouldInclude(name string) bool
}

// GlobFilter implements FileFilter with a case-insensitive doublestar pattern.
// Brace alternatives work, so "*.{jpg,heic,mov}" selects common media files.
type GlobFilter struct {
	normalizedPattern string
	isEmpty           bool
}

// NewGlobFilter creates a GlobFilter. An empty pattern includes every entry.
func NewGlobFilter(pattern string) (*GlobFilter, error) {
	if pattern == "" {
		return &GlobFilter{isEmpty: true}, nil
	}

	normalized := strings.ToLower(pattern)

	if !doublestar.ValidatePattern(normalized) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	return &GlobFilter{normalizedPattern: normalized}, nil
}

// ShouldInclude reports whether name matches the pattern.
func (f *GlobFilter) ShouldInclude(name string) bool {
	if f == nil || f.isEmpty {
		return true
	}

	matched, err := doublestar.Match(f.normalizedPattern, strings.ToLower(name))
	if err != nil {
		return false
	}

	return matched
}

// isHidden reports whether an entry name is hidden (dot-prefixed).
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
