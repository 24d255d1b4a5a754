package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete agentboard configuration
type Config struct {
	Sources SourcesConfig `mapstructure:"sources" yaml:"sources" toml:"sources"`
	Board   BoardConfig   `mapstructure:"board" yaml:"board" toml:"board"`
	Titles  TitlesConfig  `mapstructure:"titles" yaml:"titles" toml:"titles"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server" toml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" toml:"logging"`
}

// SourcesConfig controls which session sources are read and how
type SourcesConfig struct {
	// ClaudeDir is the root holding teams/ and tasks/ (default: ~/.claude).
	// Supports ~ for home directory expansion.
	ClaudeDir string `mapstructure:"claude_dir" yaml:"claude_dir" toml:"claude_dir"`
	// Teams enables the multi-agent team source
	Teams SourceToggle `mapstructure:"teams" yaml:"teams" toml:"teams"`
	// Tasks enables the solo task-list source
	Tasks SourceToggle `mapstructure:"tasks" yaml:"tasks" toml:"tasks"`
	// Exclude lists glob patterns matched against workspace keys; matches are skipped
	Exclude []string `mapstructure:"exclude" yaml:"exclude" toml:"exclude"`
	// LeadInbox names the inbox whose unread messages need a human response
	LeadInbox string `mapstructure:"lead_inbox" yaml:"lead_inbox" toml:"lead_inbox"`
	// ActivityWindowSeconds marks a session active if anything changed this recently
	ActivityWindowSeconds int `mapstructure:"activity_window_seconds" yaml:"activity_window_seconds" toml:"activity_window_seconds"`
	// WatchDebounceMs coalesces bursts of file events into one re-scan
	WatchDebounceMs int `mapstructure:"watch_debounce_ms" yaml:"watch_debounce_ms" toml:"watch_debounce_ms"`
}

// SourceToggle enables or disables a single source
type SourceToggle struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
}

// BoardConfig holds the board policy constants
type BoardConfig struct {
	// MixedStage is the stage for sessions with completed and pending tasks
	// but none in progress. Options: "in_progress", "backlog"
	MixedStage string `mapstructure:"mixed_stage" yaml:"mixed_stage" toml:"mixed_stage"`
	// ResumeOnNewTasks opens a new epoch when a done session gains open tasks
	ResumeOnNewTasks bool `mapstructure:"resume_on_new_tasks" yaml:"resume_on_new_tasks" toml:"resume_on_new_tasks"`
	// ResumeOnNewMessages opens a new epoch when a done session gains messages
	ResumeOnNewMessages bool `mapstructure:"resume_on_new_messages" yaml:"resume_on_new_messages" toml:"resume_on_new_messages"`
}

// TitlesConfig controls the title summarizer fallback
type TitlesConfig struct {
	// Summarizer selects the backend. Options: "none", "cli", "anthropic"
	Summarizer string `mapstructure:"summarizer" yaml:"summarizer" toml:"summarizer"`
	// Command is the CLI invoked when Summarizer is "cli" (default: "claude")
	Command string `mapstructure:"command" yaml:"command" toml:"command"`
	// Model is the model name passed to the summarizer
	Model string `mapstructure:"model" yaml:"model" toml:"model"`
	// TimeoutSeconds bounds each summarizer call
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

// ServerConfig controls the HTTP boundary
type ServerConfig struct {
	// Addr is the listen address (default: "127.0.0.1:7420")
	Addr string `mapstructure:"addr" yaml:"addr" toml:"addr"`
	// DebounceMs coalesces registry changes before re-evaluating
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms" toml:"debounce_ms"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is written to a file (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level" toml:"level"`
	// Dir holds agentboard.log. Empty means ConfigDir()/logs.
	Dir string `mapstructure:"dir" yaml:"dir" toml:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb" toml:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups" toml:"max_backups"`
	// Compress gzips rotated backups (default: true)
	Compress bool `mapstructure:"compress" yaml:"compress" toml:"compress"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			ClaudeDir:             "~/.claude",
			Teams:                 SourceToggle{Enabled: true},
			Tasks:                 SourceToggle{Enabled: true},
			Exclude:               []string{},
			LeadInbox:             "team-lead",
			ActivityWindowSeconds: 120,
			WatchDebounceMs:       100,
		},
		Board: BoardConfig{
			MixedStage:          "in_progress",
			ResumeOnNewTasks:    true,
			ResumeOnNewMessages: true,
		},
		Titles: TitlesConfig{
			Summarizer:     "none",
			Command:        "claude",
			Model:          "claude-haiku-4-5",
			TimeoutSeconds: 15,
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:7420",
			DebounceMs: 250,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   true,
		},
	}
}

// ResolveClaudeDir expands a leading ~ in ClaudeDir.
func (s *SourcesConfig) ResolveClaudeDir() string {
	return expandHome(s.ClaudeDir)
}

// ActivityWindow returns the activity window as a time.Duration
func (s *SourcesConfig) ActivityWindow() time.Duration {
	return time.Duration(s.ActivityWindowSeconds) * time.Second
}

// WatchDebounce returns the watch debounce as a time.Duration
func (s *SourcesConfig) WatchDebounce() time.Duration {
	return time.Duration(s.WatchDebounceMs) * time.Millisecond
}

// Timeout returns the summarizer timeout as a time.Duration
func (t *TitlesConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutSeconds) * time.Second
}

// Debounce returns the evaluation debounce as a time.Duration
func (s *ServerConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// ResolveDir returns the log directory, defaulting to ConfigDir()/logs.
func (l *LoggingConfig) ResolveDir() string {
	if l.Dir == "" {
		return filepath.Join(ConfigDir(), "logs")
	}
	return expandHome(l.Dir)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Source defaults
	viper.SetDefault("sources.claude_dir", defaults.Sources.ClaudeDir)
	viper.SetDefault("sources.teams.enabled", defaults.Sources.Teams.Enabled)
	viper.SetDefault("sources.tasks.enabled", defaults.Sources.Tasks.Enabled)
	viper.SetDefault("sources.exclude", defaults.Sources.Exclude)
	viper.SetDefault("sources.lead_inbox", defaults.Sources.LeadInbox)
	viper.SetDefault("sources.activity_window_seconds", defaults.Sources.ActivityWindowSeconds)
	viper.SetDefault("sources.watch_debounce_ms", defaults.Sources.WatchDebounceMs)

	// Board defaults
	viper.SetDefault("board.mixed_stage", defaults.Board.MixedStage)
	viper.SetDefault("board.resume_on_new_tasks", defaults.Board.ResumeOnNewTasks)
	viper.SetDefault("board.resume_on_new_messages", defaults.Board.ResumeOnNewMessages)

	// Title defaults
	viper.SetDefault("titles.summarizer", defaults.Titles.Summarizer)
	viper.SetDefault("titles.command", defaults.Titles.Command)
	viper.SetDefault("titles.model", defaults.Titles.Model)
	viper.SetDefault("titles.timeout_seconds", defaults.Titles.TimeoutSeconds)

	// Server defaults
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.debounce_ms", defaults.Server.DebounceMs)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when the
// loaded values do not validate.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "agentboard")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentboard"
	}
	return filepath.Join(home, ".config", "agentboard")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
