// Package namer produces short board titles for sessions that have nothing
// better to be called, using an LLM summarizer.
package namer

import (
	"context"
	"fmt"
	"strings"
)

// maxTitleRunes caps every generated title.
const maxTitleRunes = 50

const promptTemplate = `Summarize this work session in 5 words or fewer.

Rules:
1. Describe the work, not the people doing it
2. Omit articles and filler words
3. No quotes or trailing punctuation

Recent messages:
%s

Respond with ONLY the title, nothing else.`

// Client turns message previews into a short title.
type Client interface {
	Summarize(ctx context.Context, previews []string) (string, error)
}

func prompt(previews []string) string {
	var b strings.Builder
	for i, p := range previews {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(p)
	}
	return fmt.Sprintf(promptTemplate, b.String())
}

// cleanTitle takes the first line of a model answer, drops wrapping quotes
// and trailing periods, and caps it at maxLen runes.
func cleanTitle(raw string, maxLen int) (string, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	title := strings.TrimRight(strings.Trim(strings.TrimSpace(line), "\"'`"), ".")
	if title == "" {
		return "", fmt.Errorf("summarizer returned empty title")
	}
	if r := []rune(title); len(r) > maxLen {
		title = string(r[:maxLen])
	}
	return title, nil
}
