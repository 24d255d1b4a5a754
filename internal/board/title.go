package board

import (
	"context"
	"regexp"
	"strings"

	"github.com/Iron-Ham/agentboard/internal/session"
	"github.com/Iron-Ham/agentboard/internal/util"
	"github.com/spf13/cast"
)

const (
	// titleMaxLen is the longest message-derived title kept verbatim.
	titleMaxLen = 50
	// previewCount is how many message previews the summarizer sees.
	previewCount = 3
	// previewMaxLen bounds each summarizer preview.
	previewMaxLen = 100
)

// Summarizer produces a fallback title from message previews. key is the
// card ID of the epoch being titled. Implementations are time-boxed and
// return fallback when they cannot answer.
type Summarizer interface {
	Title(ctx context.Context, key string, previews []string, fallback string) string
}

var (
	uuidPrefix = regexp.MustCompile(`(?i)^[0-9a-f]{8}-`)
	hexHash    = regexp.MustCompile(`(?i)^[0-9a-f]{12,}$`)
	// word plus generated suffix: session-a1b2c3, run-20260101
	generatedSlug = regexp.MustCompile(`(?i)^[a-z]+-([a-z0-9]{6,})$`)
)

// looksOpaque reports whether name looks like a generated identifier
// rather than a description. Slugs only count when their suffix has a
// digit, so "auth-refactor" stays a title.
func looksOpaque(name string) bool {
	if uuidPrefix.MatchString(name) || hexHash.MatchString(name) {
		return true
	}
	m := generatedSlug.FindStringSubmatch(name)
	return m != nil && strings.ContainsAny(m[1], "0123456789")
}

type titleStep func(sess *session.Session) string

// titleSteps is evaluated top to bottom; the first non-empty result wins.
var titleSteps = []titleStep{
	func(s *session.Session) string {
		return strings.TrimSpace(cast.ToString(s.Metadata["description"]))
	},
	func(s *session.Session) string {
		name := strings.TrimSpace(s.DisplayName)
		if looksOpaque(name) {
			return ""
		}
		return name
	},
	func(s *session.Session) string {
		if len(s.Tasks) == 0 {
			return ""
		}
		return strings.TrimSpace(s.Tasks[0].Subject)
	},
	func(s *session.Session) string {
		if len(s.Messages) == 0 {
			return ""
		}
		return util.TruncateString(messageText(s.Messages[0]), titleMaxLen)
	},
}

// resolveTitle returns the title of epoch e, caching it once resolved.
func (eng *Engine) resolveTitle(ctx context.Context, sess session.Session, e *Epoch) string {
	if e.title != "" {
		return e.title
	}
	for _, step := range titleSteps {
		if t := step(&sess); t != "" {
			e.title = t
			return t
		}
	}

	fallback := rawName(sess)
	previews := messagePreviews(sess.Messages)
	if eng.summarizer == nil || len(previews) == 0 {
		// Nothing to summarize yet; a later scan may resolve the title.
		return fallback
	}

	e.title = eng.summarizer.Title(ctx, e.CardID, previews, fallback)
	if e.title == "" {
		e.title = fallback
	}
	return e.title
}

func rawName(sess session.Session) string {
	if sess.DisplayName != "" {
		return sess.DisplayName
	}
	return sess.ID
}

func messageText(m session.Message) string {
	if s := strings.TrimSpace(m.Summary); s != "" {
		return s
	}
	return strings.TrimSpace(m.Content)
}

func messagePreviews(msgs []session.Message) []string {
	var previews []string
	for _, m := range msgs {
		if len(previews) == previewCount {
			break
		}
		text := m.Summary
		if text == "" {
			text = util.FirstLine(m.Content)
		}
		if text = strings.TrimSpace(text); text != "" {
			previews = append(previews, util.TruncateString(text, previewMaxLen))
		}
	}
	return previews
}
