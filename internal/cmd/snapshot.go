package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/agentboard/internal/config"
	"github.com/Iron-Ham/agentboard/internal/hub"
	"github.com/Iron-Ham/agentboard/internal/logging"
)

var snapshotFormat string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Scan sessions once and print the consolidated state",
	Long: `Scan every enabled source once, evaluate attention and the board, and
print the result.

Examples:
  agentboard snapshot
  agentboard snapshot --format yaml
  agentboard snapshot --format toml > board.toml`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotFormat, "format", "f", "json", "output format: json, yaml, toml")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	state, err := takeSnapshot(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	return writeState(cmd.OutOrStdout(), state, snapshotFormat)
}

// takeSnapshot runs one evaluation over the configured sources.
func takeSnapshot(ctx context.Context, cfg *config.Config, logger *logging.Logger) (hub.State, error) {
	p, err := newPipeline(cfg, logger)
	if err != nil {
		return hub.State{}, err
	}
	defer p.registry.Close()

	if err := p.registry.Initialize(ctx); err != nil {
		return hub.State{}, err
	}
	return p.hub.Evaluate(ctx), nil
}

// writeState encodes state to w in the named format.
func writeState(w io.Writer, state hub.State, format string) error {
	switch strings.ToLower(format) {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(state); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(state)
	default:
		return fmt.Errorf("unsupported format: %s (supported: json, yaml, toml)", format)
	}
}
