// Package config handles application configuration and command-line argument parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/joe/media-mirror/internal/history"
	"github.com/joe/media-mirror/internal/logging"
	"github.com/joe/media-mirror/internal/syncengine"
)

// Mode is what the program does once configured.
type Mode int

// Exported constants.
const (
	// ModeOnce runs one sync pass and exits
	ModeOnce Mode = iota
	// ModeEvery runs a pass immediately and then on a fixed interval
	ModeEvery
	// ModeWatch runs a pass immediately and again after source folders change
	ModeWatch
	// ModeShowHistory prints the run history and exits
	ModeShowHistory

	// DefaultDebounce is how long source folders must be quiet before a watch-triggered run
	DefaultDebounce = 2 * time.Second
)

// Exported variables.
var (
	ErrConflictingModes = errors.New("--every and --watch cannot be combined")
	ErrInvalidPair      = errors.New("invalid folder pair")
	ErrMissingPath      = errors.New("required path missing")
)

// String returns the string representation of Mode
func (m Mode) String() string {
	switch m {
	case ModeOnce:
		return "once"
	case ModeEvery:
		return "every"
	case ModeWatch:
		return "watch"
	case ModeShowHistory:
		return "show-history"
	default:
		return "unknown"
	}
}

// Pair is one --pair flag value: a named source folder and its destination subfolder.
type Pair struct {
	Name   string
	Source string
	Dest   string
}

// ParsePair parses "name=source:dest", "source:dest" or "folder".
// A missing name defaults to the source and a missing dest to the source.
func ParsePair(s string) (Pair, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Pair{}, fmt.Errorf("%w: empty value", ErrInvalidPair)
	}

	var pair Pair

	if name, rest, found := strings.Cut(s, "="); found {
		pair.Name = strings.TrimSpace(name)
		s = rest
	}

	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		pair.Source = strings.TrimSpace(s[:idx])
		pair.Dest = strings.TrimSpace(s[idx+1:])
	} else {
		pair.Source = strings.TrimSpace(s)
		pair.Dest = pair.Source
	}

	if pair.Source == "" || pair.Dest == "" {
		return Pair{}, fmt.Errorf("%w: %q (want name=source:dest)", ErrInvalidPair, s)
	}

	if pair.Name == "" {
		pair.Name = pair.Source
	}

	return pair, nil
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg
func (p *Pair) UnmarshalText(text []byte) error {
	parsed, err := ParsePair(string(text))
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}

// String returns the flag form of the pair
func (p Pair) String() string {
	return p.Name + "=" + p.Source + ":" + p.Dest
}

// DefaultPairs returns the two media folders mirrored when no --pair is given.
func DefaultPairs() []Pair {
	return []Pair{
		{Name: "Originals", Source: "Originals", Dest: "Originals"},
		{Name: "Pictures", Source: "Pictures", Dest: "Pictures"},
	}
}

// Config holds the application configuration
//
//nolint:lll // Struct tags carry the help text
type Config struct {
	SourceRoot  string        `arg:"-s,--source-root,env:MEDIA_MIRROR_SOURCE_ROOT" help:"Directory holding the source folders"`
	DestRoot    string        `arg:"-d,--dest,env:MEDIA_MIRROR_DEST" help:"Destination root directory (created if missing)"`
	Pairs       []Pair        `arg:"-p,--pair,separate" help:"Folder pair as name=source:dest, repeatable (default: Originals and Pictures)"`
	Pattern     string        `arg:"--pattern" help:"Only copy entries whose name matches this glob, e.g. '*.{jpg,heic,mov}'"`
	Delay       time.Duration `arg:"--delay" help:"Pause between successive file copies (0 disables)"`
	Every       time.Duration `arg:"--every" help:"Run on this interval instead of once"`
	Watch       bool          `arg:"--watch" help:"Run again whenever a source folder changes"`
	Debounce    time.Duration `arg:"--debounce" help:"Quiet period before a watch-triggered run"`
	HistoryPath string        `arg:"--history,env:MEDIA_MIRROR_HISTORY" help:"History database path (default: per-user data directory)"`
	NoHistory   bool          `arg:"--no-history" help:"Keep run history in memory only"`
	ShowHistory bool          `arg:"--show-history" help:"Print the run history and exit"`
	LogFile     string        `arg:"--log-file" help:"Write logs to this file"`
	LogLevel    string        `arg:"--log-level" help:"Log level: debug|info|warn|error"`
	LogFormat   string        `arg:"--log-format" help:"Log format: text|json"`
	Plain       bool          `arg:"--plain" help:"Print plain progress lines instead of the terminal UI"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Copies new photos and videos from media folders into a mirrored backup tree"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "media-mirror 1.0.0"
}

// Mode returns what the configuration asks the program to do.
func (cfg *Config) Mode() Mode {
	switch {
	case cfg.ShowHistory:
		return ModeShowHistory
	case cfg.Watch:
		return ModeWatch
	case cfg.Every > 0:
		return ModeEvery
	default:
		return ModeOnce
	}
}

// FolderPairs converts the configured pairs for the sync engine.
func (cfg *Config) FolderPairs() []syncengine.FolderPair {
	pairs := make([]syncengine.FolderPair, len(cfg.Pairs))
	for i, pair := range cfg.Pairs {
		pairs[i] = syncengine.FolderPair{
			Name:               pair.Name,
			Source:             pair.Source,
			DestinationSubpath: pair.Dest,
			Pattern:            cfg.Pattern,
		}
	}

	return pairs
}

// ParseFlags parses command-line flags and returns configuration
func ParseFlags() (*Config, error) {
	cfg := newDefaultConfig()

	arg.MustParse(cfg)

	return PostProcessConfig(cfg)
}

// Parse parses args (without the program name) and post-processes the result.
func Parse(args []string) (*Config, error) {
	cfg := newDefaultConfig()

	parser, err := arg.NewParser(arg.Config{Program: "media-mirror"}, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build argument parser: %w", err)
	}

	err = parser.Parse(args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse arguments: %w", err)
	}

	return PostProcessConfig(cfg)
}

func newDefaultConfig() *Config {
	return &Config{
		Delay:     syncengine.DefaultDelay,
		Debounce:  DefaultDebounce,
		LogLevel:  "info",
		LogFormat: logging.FormatText,
	}
}

// PostProcessConfig validates a parsed config and fills in defaults
func PostProcessConfig(cfg *Config) (*Config, error) {
	_, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.LogFormat != logging.FormatText && cfg.LogFormat != logging.FormatJSON {
		return nil, fmt.Errorf("invalid log format: %s (valid: text, json)", cfg.LogFormat) //nolint:err113 // Includes the bad value
	}

	if !cfg.NoHistory && cfg.HistoryPath == "" {
		cfg.HistoryPath, err = history.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	// Showing history needs nothing else
	if cfg.ShowHistory {
		return cfg, nil
	}

	if len(cfg.Pairs) == 0 {
		cfg.Pairs = DefaultPairs()
	}

	err = cfg.validateRun()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validateRun() error {
	if cfg.Watch && cfg.Every > 0 {
		return ErrConflictingModes
	}

	if cfg.Delay < 0 || cfg.Every < 0 || cfg.Debounce < 0 {
		return fmt.Errorf("durations must not be negative (delay %s, every %s, debounce %s)", //nolint:err113 // Includes the values
			cfg.Delay, cfg.Every, cfg.Debounce)
	}

	if cfg.Pattern != "" && !doublestar.ValidatePattern(cfg.Pattern) {
		return fmt.Errorf("invalid pattern %q: %w", cfg.Pattern, doublestar.ErrBadPattern)
	}

	err := cfg.ValidatePaths()
	if err != nil {
		return err
	}

	err = syncengine.ValidatePairs(cfg.FolderPairs())
	if err != nil {
		return fmt.Errorf("invalid --pair configuration: %w", err)
	}

	return nil
}

// ValidatePaths checks that both roots are given and that the source root is a directory.
// The destination root does not need to exist yet.
func (cfg *Config) ValidatePaths() error {
	if cfg.SourceRoot == "" {
		return fmt.Errorf("%w: --source-root", ErrMissingPath)
	}

	if cfg.DestRoot == "" {
		return fmt.Errorf("%w: --dest", ErrMissingPath)
	}

	sourceInfo, err := os.Stat(cfg.SourceRoot)
	if os.IsNotExist(err) {
		return fmt.Errorf("source root does not exist: %s", cfg.SourceRoot) //nolint:err113 // Includes the path
	}

	if err != nil {
		return fmt.Errorf("cannot access source root: %w", err)
	}

	if !sourceInfo.IsDir() {
		return fmt.Errorf("source root is not a directory: %s", cfg.SourceRoot) //nolint:err113 // Includes the path
	}

	destInfo, err := os.Stat(cfg.DestRoot)
	if err == nil && !destInfo.IsDir() {
		return fmt.Errorf("destination root is not a directory: %s", cfg.DestRoot) //nolint:err113 // Includes the path
	}

	return nil
}
