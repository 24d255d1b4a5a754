package namer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CLIClient shells out to a local agent CLI in print mode and reads the
// title from stdout.
type CLIClient struct {
	command string
	maxLen  int
}

// NewCLIClient runs `command --print -p <prompt>`. The command defaults to
// "claude".
func NewCLIClient(command string) *CLIClient {
	if command == "" {
		command = "claude"
	}
	return &CLIClient{command: command, maxLen: maxTitleRunes}
}

func (c *CLIClient) Summarize(ctx context.Context, previews []string) (string, error) {
	cmd := exec.CommandContext(ctx, c.command, "--print", "-p", prompt(previews))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s failed: %w\nstderr: %s", c.command, err, strings.TrimSpace(stderr.String()))
	}
	return cleanTitle(string(out), c.maxLen)
}
