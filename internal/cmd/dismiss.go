package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/agentboard/internal/errors"
)

var dismissServer string

var dismissCmd = &cobra.Command{
	Use:   "dismiss <card-id>",
	Short: "Dismiss a done card on a running server",
	Long: `Send a dismiss command to a running 'agentboard serve'.

Only cards in the done stage can be dismissed. A dismissed card never
comes back; if its session resumes, the work shows up as a new card.`,
	Args: cobra.ExactArgs(1),
	RunE: runDismiss,
}

func init() {
	rootCmd.AddCommand(dismissCmd)
	dismissCmd.Flags().StringVar(&dismissServer, "server", "", "server URL (default http://{server.addr})")
}

func runDismiss(cmd *cobra.Command, args []string) error {
	base := dismissServer
	if base == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		base = "http://" + cfg.Server.Addr
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	if err := dismissRemote(ctx, http.DefaultClient, base, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Dismissed %s\n", args[0])
	return nil
}

// dismissRemote posts a dismiss command and maps error statuses back onto
// the domain errors.
func dismissRemote(ctx context.Context, client *http.Client, base, cardID string) error {
	if cardID == "" {
		return errors.NewValidationError("card id cannot be empty").WithField("card-id")
	}
	endpoint := strings.TrimRight(base, "/") + "/api/cards/" + url.PathEscape(cardID) + "/dismiss"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("contact server at %s: %w", base, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return nil
	}

	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return newRemoteError(body.Error, errors.ErrCardNotFound)
	case http.StatusConflict:
		return newRemoteError(body.Error, errors.ErrCardNotDismissable)
	default:
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
}

// remoteError reports the server's message as is and matches the sentinel
// its status code stands for.
type remoteError struct {
	msg  string
	kind error
}

func newRemoteError(msg string, kind error) *remoteError {
	if msg == "" {
		msg = kind.Error()
	}
	return &remoteError{msg: msg, kind: kind}
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.kind }
