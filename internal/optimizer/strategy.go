package optimizer

import (
	"math/rand"

	"github.com/harborline/slipway/internal/card"
	"github.com/harborline/slipway/internal/depgraph"
)

// Strategy perturbs the task processing order for one restart attempt.
// Each strategy assigns a rank to every card; the topological sort's
// ready queue emits the lowest-ranked card first, so the order stays
// topologically sound while still varying between attempts.
type Strategy interface {
	// TieBreak returns the ready-queue tie-break for one attempt. A nil
	// return keeps the deterministic baseline order.
	TieBreak(snap *card.Snapshot, rng *rand.Rand) depgraph.TieBreak
}

// ForAttempt selects the perturbation strategy for the given attempt.
// The schedule grows more varied as the budget burns down: a deterministic
// baseline first, then random shuffles, then dependency-heavy cards
// first, then kind grouping, then shuffles again. The exact mix is
// heuristic; any comparably diverse set works.
func ForAttempt(attempt, budget int) Strategy {
	switch {
	case attempt == 0:
		return BaselineStrategy{}
	case attempt < (budget*2)/5:
		return ShuffleStrategy{}
	case attempt < (budget*7)/10:
		return DependencyCountStrategy{}
	case attempt < (budget*9)/10:
		return KindGroupStrategy{}
	default:
		return ShuffleStrategy{}
	}
}

// BaselineStrategy keeps the deterministic alphabetical order.
type BaselineStrategy struct{}

func (BaselineStrategy) TieBreak(_ *card.Snapshot, _ *rand.Rand) depgraph.TieBreak {
	return nil
}

// ShuffleStrategy assigns a fresh random rank to every card, giving each
// attempt an independent random-but-valid processing order.
type ShuffleStrategy struct{}

func (ShuffleStrategy) TieBreak(snap *card.Snapshot, rng *rand.Rand) depgraph.TieBreak {
	ranks := make(map[string]float64, len(snap.Tasks))
	for i := range snap.Tasks {
		ranks[snap.Tasks[i].Number] = rng.Float64()
	}
	return byRank(ranks)
}

// DependencyCountStrategy processes cards with more dependencies first,
// on the theory that heavily constrained cards should grab lane slots
// before the easy ones fill them.
type DependencyCountStrategy struct{}

func (DependencyCountStrategy) TieBreak(snap *card.Snapshot, _ *rand.Rand) depgraph.TieBreak {
	ranks := make(map[string]float64, len(snap.Tasks))
	for i := range snap.Tasks {
		t := &snap.Tasks[i]
		ranks[t.Number] = -float64(len(t.Dependencies))
	}
	return byRank(ranks)
}

// KindGroupStrategy processes cards grouped by kind, so runs of same-kind
// work land together and lane choices stabilize per trade.
type KindGroupStrategy struct{}

var kindOrder = map[card.Kind]float64{
	card.KindMechanical:  0,
	card.KindSubAssembly: 1,
	card.KindPreAssembly: 2,
	card.KindElectrical:  3,
	card.KindKanban:      4,
}

func (KindGroupStrategy) TieBreak(snap *card.Snapshot, _ *rand.Rand) depgraph.TieBreak {
	ranks := make(map[string]float64, len(snap.Tasks))
	for i := range snap.Tasks {
		t := &snap.Tasks[i]
		ranks[t.Number] = kindOrder[t.Kind]
	}
	return byRank(ranks)
}

// byRank emits the lowest-ranked ready card, breaking rank ties
// alphabetically so every strategy stays deterministic for a fixed seed.
func byRank(ranks map[string]float64) depgraph.TieBreak {
	return func(ready []string) string {
		best := ready[0]
		for _, n := range ready[1:] {
			if ranks[n] < ranks[best] || (ranks[n] == ranks[best] && n < best) {
				best = n
			}
		}
		return best
	}
}
