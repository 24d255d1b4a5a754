package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Iron-Ham/agentboard/internal/attention"
	"github.com/Iron-Ham/agentboard/internal/board"
	"github.com/Iron-Ham/agentboard/internal/config"
	"github.com/Iron-Ham/agentboard/internal/hub"
	"github.com/Iron-Ham/agentboard/internal/logging"
	"github.com/Iron-Ham/agentboard/internal/namer"
	"github.com/Iron-Ham/agentboard/internal/registry"
	"github.com/Iron-Ham/agentboard/internal/session"
	"github.com/Iron-Ham/agentboard/internal/source"
)

// pipeline is the wired set of components behind every command that reads
// sessions.
type pipeline struct {
	cfg      *config.Config
	logger   *logging.Logger
	registry *registry.Registry
	hub      *hub.Hub
}

// loadConfig reads and validates the viper configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger creates the file logger described by cfg. Disabled logging
// yields a no-op logger.
func newLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	if !cfg.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLoggerWithRotation(cfg.ResolveDir(), cfg.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	})
}

// newPipeline wires sources, registry, classifier, board engine and hub.
func newPipeline(cfg *config.Config, logger *logging.Logger) (*pipeline, error) {
	sources, err := buildSources(cfg.Sources, logger)
	if err != nil {
		return nil, err
	}

	reg := registry.New(registry.WithLogger(logger))
	for _, src := range sources {
		reg.RegisterSource(src)
	}

	engineOpts := []board.Option{
		board.WithPolicy(policyFromConfig(cfg.Board)),
		board.WithLogger(logger),
	}
	titles, err := namer.FromConfig(cfg.Titles, logger)
	if err != nil {
		return nil, err
	}
	// A nil *Namer must not reach the engine as a non-nil interface.
	if titles != nil {
		engineOpts = append(engineOpts, board.WithSummarizer(titles))
	}

	h := hub.New(reg,
		attention.New(attention.WithLogger(logger)),
		board.NewEngine(engineOpts...),
		hub.WithDebounce(cfg.Server.Debounce()),
		hub.WithLogger(logger),
	)

	return &pipeline{cfg: cfg, logger: logger, registry: reg, hub: h}, nil
}

// buildSources returns the enabled session sources.
func buildSources(cfg config.SourcesConfig, logger *logging.Logger) ([]session.Source, error) {
	exclude, err := source.NewFilter(cfg.Exclude)
	if err != nil {
		return nil, err
	}
	opts := source.Options{
		Root:           cfg.ResolveClaudeDir(),
		Exclude:        exclude,
		ActivityWindow: cfg.ActivityWindow(),
		Debounce:       cfg.WatchDebounce(),
		LeadInbox:      cfg.LeadInbox,
		Logger:         logger,
	}

	var sources []session.Source
	if cfg.Teams.Enabled {
		sources = append(sources, source.NewTeamsSource(opts))
	}
	if cfg.Tasks.Enabled {
		sources = append(sources, source.NewTasksSource(opts))
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no session sources enabled")
	}
	return sources, nil
}

func policyFromConfig(cfg config.BoardConfig) board.Policy {
	p := board.DefaultPolicy()
	if stage := board.Stage(cfg.MixedStage); stage.Valid() {
		p.MixedStage = stage
	}
	p.ResumeOnNewTasks = cfg.ResumeOnNewTasks
	p.ResumeOnNewMessages = cfg.ResumeOnNewMessages
	return p
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
