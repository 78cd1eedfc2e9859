package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultPageTimeout bounds the primary page fetch. Marketing sites
	// behind consent-management layers and tag chains can be slow to
	// respond; 20 seconds keeps false Timeout errors rare.
	DefaultPageTimeout = 20 * time.Second

	// DefaultScriptTimeout bounds each external script fetch. Scripts are
	// best-effort; a shorter deadline keeps one slow CDN from stalling the
	// whole audit.
	DefaultScriptTimeout = 8 * time.Second

	// DefaultFetchConcurrency is the number of external scripts downloaded
	// in parallel. Script sets on tag-heavy pages rarely exceed a dozen
	// fetch-worthy entries.
	DefaultFetchConcurrency = 5

	// DefaultFetchRate limits outbound script fetches per second.
	// This is a politeness setting toward the audited site's own origin.
	DefaultFetchRate = 10

	// DefaultBatchSize is the number of concurrent audits when the CLI is
	// given multiple URLs.
	DefaultBatchSize = 4

	// DefaultMaxScripts caps how many external scripts one audit downloads.
	DefaultMaxScripts = 25

	// AppName is the application name used for XDG directory paths.
	AppName = "pixelaudit"
)

// Config holds all configuration options for an audit run.
// It is populated from CLI flags and passed through the application via
// dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs.
// The number of options is manageable, and nesting would add complexity
// without significant benefit.
type Config struct {
	// Targets is the list of page URLs to audit.
	Targets []string

	// PageTimeout bounds the primary page fetch. Exceeding it fails the
	// audit with a Timeout error.
	PageTimeout time.Duration

	// ScriptTimeout bounds each individual external script fetch.
	// Script fetch failures never fail the audit.
	ScriptTimeout time.Duration

	// FetchConcurrency is the maximum number of parallel script fetches.
	FetchConcurrency int

	// MaxScripts caps external script downloads per audit.
	MaxScripts int

	// BatchSize is the number of concurrent audits for multi-URL runs.
	BatchSize int

	// IncludeDetails adds fetched script bodies and raw validation
	// intermediates to the report.
	IncludeDetails bool

	// AllowMixedCaseIDs accepts lowercase or mixed-case measurement IDs
	// and normalizes them to uppercase. Off by default: minified code
	// frequently lowercases string fragments that look like IDs.
	AllowMixedCaseIDs bool

	// IDDenylist adds identifiers to the detectors' false-positive
	// denylists (e.g. placeholder IDs baked into a site template).
	IDDenylist []string

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// JSONReport selects JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to this path instead of stdout.
	ReportFile string

	// ConfigFilePath is an explicit path to the .pixelaudit file.
	// If empty, the file is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-site request overrides from the config file.
	SiteConfigs *File
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		PageTimeout:      DefaultPageTimeout,
		ScriptTimeout:    DefaultScriptTimeout,
		FetchConcurrency: DefaultFetchConcurrency,
		MaxScripts:       DefaultMaxScripts,
		BatchSize:        DefaultBatchSize,
	}
}

// XDGConfigDir returns the XDG config directory for pixelaudit.
// On Linux: ~/.config/pixelaudit
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It is called once after CLI parsing, before any network activity.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.PageTimeout <= 0 || c.ScriptTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.FetchConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxScripts < 0 {
		return ErrInvalidMaxScripts
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
