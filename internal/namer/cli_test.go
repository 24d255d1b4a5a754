package namer

import (
	"context"
	"os/exec"
	"strings"
	"testing"
)

func TestCLIClient_Summarize(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}

	title, err := NewCLIClient("echo").Summarize(context.Background(), []string{"preview"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// echo prints its arguments, so the first line starts with the flags.
	if !strings.HasPrefix(title, "--print -p Summarize this work session") {
		t.Errorf("expected echoed prompt, got %q", title)
	}
	if n := len([]rune(title)); n > maxTitleRunes {
		t.Errorf("expected title capped at %d runes, got %d", maxTitleRunes, n)
	}
}

func TestCLIClient_MissingCommand(t *testing.T) {
	if _, err := NewCLIClient("agentboard-no-such-command").Summarize(context.Background(), []string{"x"}); err == nil {
		t.Error("expected error for missing command")
	}
}

func TestNewCLIClient_DefaultCommand(t *testing.T) {
	if c := NewCLIClient(""); c.command != "claude" {
		t.Errorf("expected default command claude, got %q", c.command)
	}
}
