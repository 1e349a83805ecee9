package errors

import "fmt"

// SuggestionGenerator produces suggestions for a category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a new SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

type suggestionGenerator struct{}

// Generate returns suggestions for category, mentioning affectedPath when known.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	switch category {
	case CategoryPermission:
		return g.generatePermissionSuggestions(affectedPath)
	case CategoryDiskSpace:
		return g.generateDiskSpaceSuggestions(affectedPath)
	case CategoryPath:
		return g.generatePathSuggestions(affectedPath)
	case CategoryConflict:
		return g.generateConflictSuggestions(affectedPath)
	case CategoryCopy:
		return g.generateCopySuggestions(affectedPath)
	case CategoryUnknown:
		return g.generateUnknownSuggestions(affectedPath)
	default:
		return g.generateUnknownSuggestions(affectedPath)
	}
}

func (g *suggestionGenerator) generateConflictSuggestions(path string) []string {
	suggestions := []string{
		"A file with the same name appeared in the destination while the run was in progress",
		"Run the sync again; existing files are skipped, never overwritten",
	}

	if path != "" {
		suggestions = append(suggestions, "Compare the two copies of "+path+" by hand if they differ")
	}

	return suggestions
}

func (g *suggestionGenerator) generateCopySuggestions(_ string) []string {
	return []string{
		"Check that the backup drive is still connected",
		"Run the sync again; files already copied are skipped",
		"Check system logs for hardware issues",
	}
}

func (g *suggestionGenerator) generateDiskSpaceSuggestions(path string) []string {
	suggestions := []string{
		"Free up space on the backup drive",
		"Check available space with 'df -h'",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify disk usage for the filesystem containing "+path)
	}

	suggestions = append(suggestions, "Run the sync again once space is available; copied files are kept")

	return suggestions
}

func (g *suggestionGenerator) generatePathSuggestions(path string) []string {
	suggestions := []string{
		"Verify the folder exists and the drive is mounted",
	}

	if path != "" {
		suggestions = append(suggestions, "Check if the path exists: "+path)
	}

	return append(suggestions, "Check the --source-root and --dest settings")
}

func (g *suggestionGenerator) generatePermissionSuggestions(path string) []string {
	suggestions := []string{
		"Re-grant access to the source and backup folders, then retry the sync",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Check permissions with 'ls -la %s'", path))
	} else {
		suggestions = append(suggestions, "Check permissions with 'ls -la' on the affected folder")
	}

	return append(suggestions,
		"On macOS, allow Full Disk Access for your terminal in System Settings > Privacy & Security")
}

func (g *suggestionGenerator) generateUnknownSuggestions(path string) []string {
	suggestions := []string{
		"Check the error message for more details",
		"Run again with --log-level debug --log-file to capture a log",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify the path is accessible: "+path)
	}

	return suggestions
}
