package board

import (
	"fmt"

	"github.com/Iron-Ham/agentboard/internal/attention"
	"github.com/Iron-Ham/agentboard/internal/session"
)

// AttentionSummary is the one-line attention signal shown on a card.
type AttentionSummary struct {
	Urgency attention.Urgency `json:"urgency"`
	Preview string            `json:"preview"`
	Count   int               `json:"count"`
}

// summarizeAttention builds the card's attention line from the session's
// attention items in ref, or from its messages that need a response when the
// classifier produced none. It returns nil when neither exists.
func summarizeAttention(ref session.WorkspaceRef, sess session.Session, items []attention.Item) *AttentionSummary {
	matched := attention.ForSession(items, ref, sess.ID)
	if urgency, ok := attention.Highest(matched); ok {
		summary := &AttentionSummary{Urgency: urgency, Count: len(matched)}
		if len(matched) == 1 {
			summary.Preview = matched[0].ShortContext
		} else {
			summary.Preview = fmt.Sprintf("%d items need attention", len(matched))
		}
		return summary
	}

	var pending []session.Message
	for _, m := range sess.Messages {
		if m.NeedsResponse {
			pending = append(pending, m)
		}
	}
	switch len(pending) {
	case 0:
		return nil
	case 1:
		preview := pending[0].Summary
		if preview == "" {
			preview = pending[0].From + ": needs response"
		}
		return &AttentionSummary{Urgency: attention.UrgencyWaiting, Preview: preview, Count: 1}
	default:
		return &AttentionSummary{
			Urgency: attention.UrgencyWaiting,
			Preview: fmt.Sprintf("%d messages need response", len(pending)),
			Count:   len(pending),
		}
	}
}
