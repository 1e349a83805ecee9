package history

import (
	"errors"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Exported constants.
const (
	// AppName is the directory name used under the per-user data directory
	AppName = "media-mirror"
	// FileName is the history database file name
	FileName = "history.db"
)

// Exported variables.
var (
	ErrNoDataDir = errors.New("no per-user data directory")
)

// DataDir returns the per-user directory for application data:
//   - macOS: ~/Library/Application Support/media-mirror
//   - Windows: %LOCALAPPDATA%/media-mirror
//   - others: $XDG_DATA_HOME/media-mirror or ~/.local/share/media-mirror
func DataDir() (string, error) {
	if xdg.DataHome == "" {
		return "", ErrNoDataDir
	}

	return filepath.Join(xdg.DataHome, AppName), nil
}

// DefaultPath returns the default history database path. The directory is
// created by OpenSQLite, not here.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, FileName), nil
}
