package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/agentboard/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the live board in the terminal",
	Long: `Watch sessions and render the attention queue and kanban board.

Keys: ←/→ switch column, ↑/↓ select card, d dismiss a done card, ? help, q quit.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("watch requires a terminal; use 'agentboard snapshot' or 'agentboard serve' instead")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	app := tui.New(p.hub)
	return runWithHub(ctx, cancel, p, func(ctx context.Context) error {
		return app.Run(ctx)
	})
}
