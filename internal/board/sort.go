package board

import "sort"

// SortCards orders cards for display: cards with attention first, most
// urgent first, then oldest stage entry first. Card ID breaks remaining
// ties so the order is deterministic.
func SortCards(cards []Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if (a.Attention != nil) != (b.Attention != nil) {
			return a.Attention != nil
		}
		if a.Attention != nil && a.Attention.Urgency != b.Attention.Urgency {
			return a.Attention.Urgency.MoreUrgentThan(b.Attention.Urgency)
		}
		if !a.StageEnteredAt.Equal(b.StageEnteredAt) {
			return a.StageEnteredAt.Before(b.StageEnteredAt)
		}
		return a.ID < b.ID
	})
}

// ByStage groups cards into board columns, preserving their order.
func ByStage(cards []Card) map[Stage][]Card {
	columns := make(map[Stage][]Card, 3)
	for _, c := range cards {
		columns[c.Stage] = append(columns[c.Stage], c)
	}
	return columns
}
