package config

import (
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError is one rejected config field.
type ValidationError struct {
	Field   string // dotted key, e.g. "board.mixed_stage"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is returned by Load when any field is rejected.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err)
	}
	return sb.String()
}

func ValidLogLevels() []string   { return []string{"debug", "info", "warn", "error"} }
func ValidMixedStages() []string { return []string{"in_progress", "backlog"} }
func ValidSummarizers() []string { return []string{"none", "cli", "anthropic"} }

const (
	maxWatchDebounceMs = 10000
	maxTimeoutSeconds  = 120
	maxLogSizeMB       = 1000
)

// checker accumulates failures so Validate reports every problem at once.
type checker []ValidationError

func (c *checker) fail(field string, value any, format string, args ...any) {
	*c = append(*c, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) oneOf(field, value string, allowed []string) {
	if !slices.Contains(allowed, value) {
		c.fail(field, value, "must be one of: %s", strings.Join(allowed, ", "))
	}
}

func (c *checker) between(field string, value, lo, hi int) {
	if value < lo || value > hi {
		c.fail(field, value, "must be between %d and %d", lo, hi)
	}
}

func (c *checker) nonNegative(field string, value int) {
	if value < 0 {
		c.fail(field, value, "must be non-negative")
	}
}

// Validate returns every invalid field in c. An empty result means the
// config is usable.
func (c *Config) Validate() []ValidationError {
	var chk checker

	src := c.Sources
	if !src.Teams.Enabled && !src.Tasks.Enabled {
		chk.fail("sources", "teams=false, tasks=false", "at least one source must be enabled")
	}
	switch {
	case strings.TrimSpace(src.ClaudeDir) == "":
		chk.fail("sources.claude_dir", src.ClaudeDir, "cannot be empty")
	case strings.ContainsRune(src.ClaudeDir, 0):
		chk.fail("sources.claude_dir", src.ClaudeDir, "contains invalid null character")
	}
	for i, pattern := range src.Exclude {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			chk.fail(fmt.Sprintf("sources.exclude[%d]", i), pattern, "invalid glob pattern: %v", err)
		}
	}
	if src.Teams.Enabled && strings.TrimSpace(src.LeadInbox) == "" {
		chk.fail("sources.lead_inbox", src.LeadInbox, "cannot be empty when the teams source is enabled")
	}
	chk.nonNegative("sources.activity_window_seconds", src.ActivityWindowSeconds)
	chk.between("sources.watch_debounce_ms", src.WatchDebounceMs, 0, maxWatchDebounceMs)

	chk.oneOf("board.mixed_stage", c.Board.MixedStage, ValidMixedStages())

	chk.oneOf("titles.summarizer", c.Titles.Summarizer, ValidSummarizers())
	if c.Titles.Summarizer == "cli" && strings.TrimSpace(c.Titles.Command) == "" {
		chk.fail("titles.command", c.Titles.Command, "cannot be empty when summarizer is cli")
	}
	chk.between("titles.timeout_seconds", c.Titles.TimeoutSeconds, 1, maxTimeoutSeconds)

	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		chk.fail("server.addr", c.Server.Addr, "must be a host:port address")
	}
	chk.nonNegative("server.debounce_ms", c.Server.DebounceMs)

	if c.Logging.Level != "" {
		chk.oneOf("logging.level", c.Logging.Level, ValidLogLevels())
	}
	if c.Logging.MaxSizeMB <= 0 {
		chk.fail("logging.max_size_mb", c.Logging.MaxSizeMB, "must be positive")
	} else if c.Logging.MaxSizeMB > maxLogSizeMB {
		chk.fail("logging.max_size_mb", c.Logging.MaxSizeMB, "exceeds maximum of %dMB", maxLogSizeMB)
	}
	chk.nonNegative("logging.max_backups", c.Logging.MaxBackups)

	return chk
}
