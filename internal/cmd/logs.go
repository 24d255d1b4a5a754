package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/agentboard/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View agentboard logs",
	Long: `View and filter the agentboard log file.

Examples:
  # Show the last 50 entries
  agentboard logs

  # Warnings and errors from the teams source in the last hour
  agentboard logs --level warn --source teams --since 1h

  # Export everything for one workspace as CSV
  agentboard logs -n 0 --workspace alpha --format csv`,
	RunE: runLogs,
}

var (
	logsTail      int
	logsLevel     string
	logsSince     string
	logsSource    string
	logsWorkspace string
	logsSession   string
	logsGrep      string
	logsFormat    string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsSource, "source", "", "Filter by session source")
	logsCmd.Flags().StringVar(&logsWorkspace, "workspace", "", "Filter by workspace key")
	logsCmd.Flags().StringVar(&logsSession, "session", "", "Filter by session ID")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter messages containing text")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "Output format: text, json, csv")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	filter := logging.LogFilter{
		Level:     logsLevel,
		Source:    logsSource,
		Workspace: logsWorkspace,
		SessionID: logsSession,
		Contains:  logsGrep,
	}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since duration %q: %w", logsSince, err)
		}
		filter.Since = time.Now().Add(-d)
	}

	entries, err := logging.AggregateLogs(cfg.Logging.ResolveDir())
	if err != nil {
		return err
	}
	entries = tail(logging.FilterLogs(entries, filter), logsTail)
	return logging.WriteLogEntries(cmd.OutOrStdout(), entries, logsFormat)
}

// tail returns the last n entries; n <= 0 returns all of them.
func tail(entries []logging.LogEntry, n int) []logging.LogEntry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}
