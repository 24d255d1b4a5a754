package board

import (
	"testing"
	"time"

	"github.com/Iron-Ham/agentboard/internal/attention"
)

func TestSortCards(t *testing.T) {
	at := func(min int) time.Time { return t0.Add(time.Duration(min) * time.Minute) }
	attn := func(u attention.Urgency) *AttentionSummary { return &AttentionSummary{Urgency: u} }

	cards := []Card{
		{ID: "quiet-old", StageEnteredAt: at(0)},
		{ID: "waiting", StageEnteredAt: at(1), Attention: attn(attention.UrgencyWaiting)},
		{ID: "blocking-new", StageEnteredAt: at(5), Attention: attn(attention.UrgencyBlocking)},
		{ID: "quiet-new", StageEnteredAt: at(9)},
		{ID: "blocking-old", StageEnteredAt: at(2), Attention: attn(attention.UrgencyBlocking)},
		{ID: "info", StageEnteredAt: at(0), Attention: attn(attention.UrgencyInformational)},
	}
	SortCards(cards)

	want := []string{"blocking-old", "blocking-new", "waiting", "info", "quiet-old", "quiet-new"}
	for i, id := range want {
		if cards[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, cards[i].ID)
		}
	}
}

func TestByStage(t *testing.T) {
	columns := ByStage([]Card{
		{ID: "a", Stage: StageDone},
		{ID: "b", Stage: StageBacklog},
		{ID: "c", Stage: StageDone},
	})
	if len(columns[StageDone]) != 2 || columns[StageDone][0].ID != "a" {
		t.Errorf("expected done column [a c], got %+v", columns[StageDone])
	}
	if len(columns[StageInProgress]) != 0 {
		t.Errorf("expected empty in_progress column, got %d", len(columns[StageInProgress]))
	}
}
