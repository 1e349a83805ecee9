package errors

import (
	"errors"
	iofs "io/fs"
	"regexp"
	"strings"
)

// Enricher turns plain errors into ActionableErrors.
type Enricher interface {
	Enrich(err error, affectedPath string) error
}

// NewEnricher creates an Enricher with the default matcher and suggestions.
func NewEnricher() Enricher {
	return &enricher{
		matcher:   NewPatternMatcher(),
		generator: NewSuggestionGenerator(),
	}
}

// unexported variables.
var (
	//nolint:gochecknoglobals // Compiled once and shared by every enricher
	pathExtractionPatterns = []*regexp.Regexp{
		// Unix paths (absolute and relative)
		regexp.MustCompile(`\b\w+\s+([./][^\s:]+):`),
		// Windows paths with backslashes
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:\\[^\s:]+):`),
		// Windows paths with forward slashes
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:/[^\s:]+):`),
	}
)

type enricher struct {
	matcher   PatternMatcher
	generator SuggestionGenerator
}

// Enrich wraps err with a category and suggestions. nil stays nil and an
// error that is already actionable is returned unchanged. When affectedPath
// is empty the path comes from the first *fs.PathError in the chain, or failing that
// from the message text.
func (e *enricher) Enrich(err error, affectedPath string) error {
	if err == nil {
		return nil
	}

	var actionableErr ActionableError
	if errors.As(err, &actionableErr) {
		return err
	}

	if affectedPath == "" {
		affectedPath = extractPath(err)
	}

	category := e.matcher.Match(err)

	return NewActionableError(err, category, e.generator.Generate(category, affectedPath), affectedPath)
}

// extractPath finds the path a failure concerns. It prefers *fs.PathError and
// falls back to the "op /path: reason" shape of Go error messages.
func extractPath(err error) string {
	var pathErr *iofs.PathError
	if errors.As(err, &pathErr) && pathErr.Path != "" {
		return pathErr.Path
	}

	errorMsg := err.Error()

	for _, pattern := range pathExtractionPatterns {
		if matches := pattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
			path := strings.TrimSpace(matches[1])
			if path != "" {
				return path
			}
		}
	}

	return ""
}
