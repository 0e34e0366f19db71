package cycle

import (
	"fmt"

	"seedprocure-backend/internal/models"
)

// rank orders the statuses. Sampled and PriceProposed are the two arms of the
// one branch point and share a rank.
var rank = map[models.CycleStatus]int{
	models.CycleGrowing:         0,
	models.CycleHarvested:       1,
	models.CycleSampleCollected: 2,
	models.CycleSampled:         3,
	models.CyclePriceProposed:   3,
	models.CyclePriced:          4,
	models.CycleWeighed:         5,
	models.CycleLoading:         6,
	models.CycleLoaded:          7,
	models.CycleDispatched:      8,
	models.CycleCompleted:       9,
	models.CycleShipped:         9,
}

// transitions is the complete set of allowed edges. Self edges are revisions
// of the same stage (a new proposal, a re-verified rate).
var transitions = map[models.CycleStatus][]models.CycleStatus{
	models.CycleGrowing:         {models.CycleHarvested, models.CyclePriceProposed},
	models.CycleHarvested:       {models.CycleSampleCollected, models.CyclePriceProposed},
	models.CycleSampleCollected: {models.CycleSampled, models.CyclePriceProposed},
	models.CycleSampled:         {models.CyclePriceProposed, models.CyclePriced},
	models.CyclePriceProposed:   {models.CyclePriceProposed, models.CyclePriced},
	models.CyclePriced:          {models.CyclePriced, models.CycleWeighed},
	models.CycleWeighed:         {models.CycleLoaded},
	models.CycleLoaded:          {models.CycleDispatched, models.CycleCompleted},
	models.CycleDispatched:      {models.CycleCompleted},
}

// Allowed reports whether from → to is an edge of the lifecycle graph.
func Allowed(from, to models.CycleStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Rank returns the position of s in the lifecycle order.
func Rank(s models.CycleStatus) (int, bool) {
	r, ok := rank[s]
	return r, ok
}

func Valid(s models.CycleStatus) bool {
	_, ok := rank[s]
	return ok
}

func IsTerminal(s models.CycleStatus) bool {
	return s == models.CycleCompleted || s == models.CycleShipped
}

// Active reports whether a cycle still belongs in work queues.
func Active(s models.CycleStatus) bool {
	return Valid(s) && !IsTerminal(s)
}

// checkEdge rejects any move that is not in the transition table.
func checkEdge(from, to models.CycleStatus) error {
	if Allowed(from, to) {
		return nil
	}
	rf, _ := Rank(from)
	rt, ok := Rank(to)
	if ok && rt < rf {
		return fmt.Errorf("%s -> %s moves backwards", from, to)
	}
	return fmt.Errorf("%s -> %s is not an allowed transition", from, to)
}
