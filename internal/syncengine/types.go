package syncengine

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Exported constants.
const (
	StateIdle RunState = iota
	StateRunning
	StateCompleted
	StateFailed
)

// SyncStats counts processed entries against the total for one folder or run.
// FilesCopied advances for skipped, hidden and copied entries alike.
type SyncStats struct {
	FilesCopied int
	TotalFiles  int
}

// Done reports whether every entry has been processed.
func (s SyncStats) Done() bool {
	return s.FilesCopied >= s.TotalFiles
}

// FolderPair maps one logical source folder to a subfolder of the destination root.
type FolderPair struct {
	Name               string
	Source             string
	DestinationSubpath string
	Pattern            string // Optional glob; empty copies every non-hidden entry
}

// Label returns the pair's display name.
func (p FolderPair) Label() string {
	if p.Name != "" {
		return p.Name
	}

	return p.Source
}

// RunState is the orchestrator's run state.
type RunState int32

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("RunState(%d)", int32(s))
	}
}

// ValidatePairs checks that pairs is non-empty, that every destination subpath
// stays inside the destination root, and that no two destinations are equal or nested.
func ValidatePairs(pairs []FolderPair) error {
	if len(pairs) == 0 {
		return ErrNoPairs
	}

	cleaned := make([]string, len(pairs))

	for i, pair := range pairs {
		sub := filepath.Clean(pair.DestinationSubpath)
		if pair.DestinationSubpath == "" || filepath.IsAbs(sub) || sub == "." ||
			sub == ".." || strings.HasPrefix(sub, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: pair %s: destination subpath %q must be a relative path inside the destination root",
				ErrOverlappingPairs, pair.Label(), pair.DestinationSubpath)
		}

		for j := range i {
			if isWithin(cleaned[j], sub) || isWithin(sub, cleaned[j]) {
				return fmt.Errorf("%w: %s (%s) and %s (%s)",
					ErrOverlappingPairs, pairs[j].Label(), cleaned[j], pair.Label(), sub)
			}
		}

		cleaned[i] = sub
	}

	return nil
}

// isWithin reports whether path equals base or lies beneath it.
func isWithin(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
