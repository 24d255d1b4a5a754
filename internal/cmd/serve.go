package cmd

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/agentboard/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over HTTP and server-sent events",
	Long: `Watch sessions and serve the consolidated state.

Endpoints:
  GET  /api/state                 current state as JSON
  GET  /api/events                server-sent events, one "state" event per update
  POST /api/cards/{id}/dismiss    dismiss a done card
  GET  /healthz                   liveness`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
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

	srv := server.New(p.hub, server.WithLogger(logger))
	fmt.Fprintf(cmd.OutOrStdout(), "agentboard listening on http://%s\n", cfg.Server.Addr)

	return runWithHub(ctx, cancel, p, func(ctx context.Context) error {
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	})
}

// runWithHub runs the hub alongside fn. Whichever returns first cancels the
// other; the first error wins.
func runWithHub(ctx context.Context, cancel context.CancelFunc, p *pipeline, fn func(context.Context) error) error {
	var hubErr, fnErr error
	var wg conc.WaitGroup
	wg.Go(func() {
		defer cancel()
		hubErr = p.hub.Run(ctx)
	})
	wg.Go(func() {
		defer cancel()
		fnErr = fn(ctx)
	})
	wg.Wait()

	if fnErr != nil {
		return fnErr
	}
	return hubErr
}
