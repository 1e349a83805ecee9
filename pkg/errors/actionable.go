// Package errors turns copy and listing failures into messages a person can act on.
//
// Each failure is sorted into a category (permission, disk space, path, conflict,
// copy) and paired with suggestions for that category:
//
//	enricher := errors.NewEnricher()
//	if err != nil {
//	    enriched := enricher.Enrich(err, "")
//	    fmt.Println(enriched.Error())
//	    fmt.Println(errors.FormatSuggestions(enriched))
//	}
//
// When no path is given, the enricher pulls one out of the message
// ("open /Volumes/Backup/a.jpg: permission denied" yields /Volumes/Backup/a.jpg).
package errors

import (
	"errors"
	"strings"
)

// Exported constants.
const (
	CategoryConflict   ErrorCategory = "conflict"
	CategoryCopy       ErrorCategory = "copy"
	CategoryDiskSpace  ErrorCategory = "disk_space"
	CategoryPath       ErrorCategory = "path"
	CategoryPermission ErrorCategory = "permission"
	CategoryUnknown    ErrorCategory = "unknown"
)

// ActionableError is an error with a category and suggestions for the user.
type ActionableError interface {
	error
	Unwrap() error
	Category() ErrorCategory
	Suggestions() []string
	AffectedPath() string
}

// ErrorCategory names the kind of failure.
type ErrorCategory string

// NewActionableError wraps cause with a category, suggestions and the affected path.
func NewActionableError(
	cause error,
	category ErrorCategory,
	suggestions []string,
	affectedPath string,
) ActionableError {
	return &actionableError{
		cause:        cause,
		category:     category,
		suggestions:  suggestions,
		affectedPath: affectedPath,
	}
}

// CategoryOf returns the category of the first ActionableError in err's chain,
// or CategoryUnknown.
func CategoryOf(err error) ErrorCategory {
	var actionable ActionableError
	if errors.As(err, &actionable) {
		return actionable.Category()
	}

	return CategoryUnknown
}

// FormatSuggestions renders the suggestions of an ActionableError as a bulleted
// list. It returns "" when err carries no suggestions.
func FormatSuggestions(err error) string {
	var actionable ActionableError
	if err == nil || !errors.As(err, &actionable) {
		return ""
	}

	suggestions := actionable.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}

	var builder strings.Builder

	for i, suggestion := range suggestions {
		if i > 0 {
			builder.WriteString("\n")
		}

		builder.WriteString("  • ")
		builder.WriteString(suggestion)
	}

	return builder.String()
}

type actionableError struct {
	cause        error
	category     ErrorCategory
	suggestions  []string
	affectedPath string
}

// AffectedPath returns the file or folder the failure concerns.
func (e *actionableError) AffectedPath() string {
	return e.affectedPath
}

// Category returns the error category.
func (e *actionableError) Category() ErrorCategory {
	return e.category
}

// Error returns the underlying error message unchanged.
func (e *actionableError) Error() string {
	return e.cause.Error()
}

// Suggestions returns the suggested remedies.
func (e *actionableError) Suggestions() []string {
	return e.suggestions
}

// Unwrap returns the enriched error so errors.Is keeps seeing through it.
func (e *actionableError) Unwrap() error {
	return e.cause
}
