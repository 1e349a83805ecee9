package errors

import (
	"errors"
	iofs "io/fs"
	"strings"
	"syscall"
)

// PatternMatcher maps an error to a category.
type PatternMatcher interface {
	Match(err error) ErrorCategory
}

// NewPatternMatcher creates a PatternMatcher that checks well-known sentinel
// errors first and falls back to message patterns.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		sentinels: []sentinelRule{
			{target: iofs.ErrPermission, category: CategoryPermission},
			{target: syscall.ENOSPC, category: CategoryDiskSpace},
			{target: syscall.EDQUOT, category: CategoryDiskSpace},
			{target: iofs.ErrExist, category: CategoryConflict},
			{target: iofs.ErrNotExist, category: CategoryPath},
			{target: syscall.EIO, category: CategoryCopy},
		},
		// Checked in order; the first hit wins.
		patterns: []patternRule{
			{category: CategoryPermission, substrings: []string{
				"permission denied",
				"access denied",
				"operation not permitted",
			}},
			{category: CategoryDiskSpace, substrings: []string{
				"no space left on device",
				"disk full",
				"quota exceeded",
			}},
			{category: CategoryConflict, substrings: []string{
				"file exists",
				"already exists",
			}},
			{category: CategoryPath, substrings: []string{
				"no such file or directory",
				"not a directory",
				"file not found",
			}},
			{category: CategoryCopy, substrings: []string{
				"short write",
				"input/output error",
				"i/o error",
			}},
		},
	}
}

type sentinelRule struct {
	target   error
	category ErrorCategory
}

type patternRule struct {
	category   ErrorCategory
	substrings []string
}

type patternMatcher struct {
	sentinels []sentinelRule
	patterns  []patternRule
}

// Match returns the category for err, or CategoryUnknown.
func (m *patternMatcher) Match(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	for _, rule := range m.sentinels {
		if errors.Is(err, rule.target) {
			return rule.category
		}
	}

	lowerMsg := strings.ToLower(err.Error())

	for _, rule := range m.patterns {
		for _, substring := range rule.substrings {
			if strings.Contains(lowerMsg, substring) {
				return rule.category
			}
		}
	}

	return CategoryUnknown
}
