package usecase

import (
	"sort"

	"opd-queue/internal/data/entity"
)

// OrderQueue returns the service order of a doctor's active tokens:
// IN_PROGRESS first, then EMERGENCY before NORMAL, then oldest first.
// The input slice is not modified.
func OrderQueue(tokens []*entity.Token) []*entity.Token {
	ordered := make([]*entity.Token, len(tokens))
	copy(ordered, tokens)

	rank := func(t *entity.Token) int {
		switch {
		case t.Status == entity.TokenStatusInProgress:
			return 0
		case t.Priority == entity.PriorityEmergency:
			return 1
		default:
			return 2
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := rank(ordered[i]), rank(ordered[j])
		if ri != rj {
			return ri < rj
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	return ordered
}
