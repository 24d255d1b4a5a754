package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 3, "..."},
		{"hello", 0, "..."},
		{"hello", -1, "..."},
		{"", 10, ""},
		{"héllo wörld", 8, "héllo..."},
		{"日本語のテキスト", 6, "日本語..."},
	}

	for _, tt := range tests {
		if got := TruncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("TruncateString(%q, %d): expected %q, got %q", tt.in, tt.maxLen, tt.want, got)
		}
	}
}

func TestTruncateANSI(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("waiting for review")

	t.Run("fits", func(t *testing.T) {
		if got := TruncateANSI(styled, 40); got != styled {
			t.Errorf("expected styled text unchanged, got %q", got)
		}
	})

	t.Run("cut to width", func(t *testing.T) {
		got := TruncateANSI(styled, 10)
		if w := lipgloss.Width(got); w > 10 {
			t.Errorf("expected width <= 10, got %d (%q)", w, got)
		}
	})

	t.Run("wide runes", func(t *testing.T) {
		got := TruncateANSI("日本語のテキスト", 9)
		if w := lipgloss.Width(got); w > 9 {
			t.Errorf("expected width <= 9, got %d", w)
		}
	})

	t.Run("tiny width", func(t *testing.T) {
		if got := TruncateANSI("hello", 2); got != "..." {
			t.Errorf("expected \"...\", got %q", got)
		}
	})
}
