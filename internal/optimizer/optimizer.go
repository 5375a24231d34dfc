// Package optimizer assigns assembly cards to compatible lanes using a
// bounded greedy search with randomized restarts. It balances lane
// workload, keeps dependency chains on one lane where it can, avoids
// crane overlaps, and minimizes movement from the current assignment.
//
// This is deliberately a heuristic, not an exact solver: real boards have
// too many cards and lanes for interactive constraint solving, and a good
// plan the floor can read beats an optimal one nobody can explain. When
// the attempt budget runs out the best plan seen is returned and marked
// best-effort.
package optimizer

import (
	"math"
	"math/rand"
	"time"

	"github.com/harborline/slipway/internal/card"
	"github.com/harborline/slipway/internal/conflict"
	"github.com/harborline/slipway/internal/depgraph"
)

// DefaultAttemptBudget caps the restart loop.
const DefaultAttemptBudget = 20

// Assignment is one planned placement: the card moves to LaneID at
// Position. Locked cards never appear in a plan.
type Assignment struct {
	TaskID     string
	TaskNumber string
	LaneID     string
	Position   int
}

// Weights tune the lane scoring terms. Lower total score wins.
type Weights struct {
	// Overload is the dominant penalty for pushing a lane's projected
	// workload past the average of the other lanes.
	Overload float64
	// LoadSpread penalizes cumulative workload linearly, spreading cards
	// across lanes.
	LoadSpread float64
	// CrossLaneDep penalizes placing a card away from a lane hosting one
	// of its dependencies.
	CrossLaneDep float64
	// SameLaneBonus is subtracted for each dependency already on the
	// candidate lane.
	SameLaneBonus float64
	// CraneOverlap penalizes crane cards whose projected window overlaps
	// a crane card already placed on another lane.
	CraneOverlap float64
	// MovePerLane penalizes lane-index distance from the card's original
	// lane; the lowest-weight tie-breaker.
	MovePerLane float64
}

// DefaultWeights returns the production scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Overload:      1000,
		LoadSpread:    1,
		CrossLaneDep:  250,
		SameLaneBonus: 25,
		CraneOverlap:  2000,
		MovePerLane:   5,
	}
}

// Options configures one optimization run.
type Options struct {
	// AttemptBudget is the restart cap; zero means DefaultAttemptBudget.
	AttemptBudget int
	// Weights override DefaultWeights when non-zero.
	Weights Weights
	// Seed makes the shuffle strategies reproducible; zero seeds from the
	// clock.
	Seed int64
}

// Result is the outcome of an optimization run: the plan plus the quality
// summary the caller surfaces to the user.
type Result struct {
	Plan  []Assignment
	Moved int

	MaxWorkload float64
	AvgWorkload float64

	// Residual conflict counts over the proposed plan. Both zero means
	// the plan is fully valid.
	DependencyConflicts int
	ResourceConflicts   int

	// Unassignable lists cards with no compatible active lane; they keep
	// their current assignment.
	Unassignable []string

	Attempts int
	// BestEffort is set when the attempt budget ran out before a
	// conflict-free plan was found.
	BestEffort bool
}

// Valid reports whether the plan carries no residual conflicts.
func (r *Result) Valid() bool {
	return r.DependencyConflicts == 0 && r.ResourceConflicts == 0
}

// Optimize computes a lane/position plan for every non-locked,
// non-dead-time card in the snapshot. It aborts with a *depgraph.CycleError
// (matching depgraph.ErrCycle) when the dependency graph is cyclic; no
// plan is produced in that case.
func Optimize(snap *card.Snapshot, opts Options) (*Result, error) {
	if opts.AttemptBudget <= 0 {
		opts.AttemptBudget = DefaultAttemptBudget
	}
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	g, err := depgraph.Build(snap.Tasks)
	if err != nil {
		return nil, err
	}
	// Validate once up front: a cyclic board aborts the whole run.
	if _, err := g.Sort(nil); err != nil {
		return nil, err
	}

	// Best-so-far is an explicit accumulator through the restart fold,
	// not shared mutable state.
	var best *candidate
	for attempt := 0; attempt < opts.AttemptBudget; attempt++ {
		strategy := ForAttempt(attempt, opts.AttemptBudget)
		order, err := g.Sort(strategy.TieBreak(snap, rng))
		if err != nil {
			return nil, err
		}

		cand := runPass(snap, order, opts.Weights)
		if cand.depConflicts == 0 && cand.resConflicts == 0 {
			return cand.result(snap, attempt+1, false), nil
		}
		if best == nil || cand.better(best) {
			best = cand
		}
	}
	return best.result(snap, opts.AttemptBudget, true), nil
}

// candidate is one attempt's proposed plan plus its evaluation.
type candidate struct {
	assignments  []Assignment
	moved        int
	unassignable []string
	load         map[string]float64
	depConflicts int
	resConflicts int
	maxLoad      float64
}

// better orders candidates: fewest total conflicts, then lowest max lane
// workload.
func (c *candidate) better(o *candidate) bool {
	ct := c.depConflicts + c.resConflicts
	ot := o.depConflicts + o.resConflicts
	if ct != ot {
		return ct < ot
	}
	return c.maxLoad < o.maxLoad
}

func (c *candidate) result(snap *card.Snapshot, attempts int, bestEffort bool) *Result {
	active := snap.ActiveLanes()
	var sum float64
	for _, l := range active {
		sum += c.load[l.ID]
	}
	avg := 0.0
	if len(active) > 0 {
		avg = sum / float64(len(active))
	}
	return &Result{
		Plan:                c.assignments,
		Moved:               c.moved,
		MaxWorkload:         c.maxLoad,
		AvgWorkload:         avg,
		DependencyConflicts: c.depConflicts,
		ResourceConflicts:   c.resConflicts,
		Unassignable:        c.unassignable,
		Attempts:            attempts,
		BestEffort:          bestEffort,
	}
}

// laneWindow records a placed crane card's projected calendar window for
// overlap checks against later placements.
type laneWindow struct {
	laneID string
	window conflict.Window
}

// runPass walks one topological order, greedily assigning each card to
// its lowest-scoring compatible lane.
func runPass(snap *card.Snapshot, order []string, w Weights) *candidate {
	lanes := snap.ActiveLanes()
	cand := &candidate{load: make(map[string]float64, len(lanes))}

	nextPos := make(map[string]int, len(lanes))
	placedLane := make(map[string]string, len(snap.Tasks))
	// placedEnd records each placed card's end slot in global work-hour
	// offsets, so dependents never start before their dependencies end
	// even across lanes.
	placedEnd := make(map[string]int, len(snap.Tasks))
	var craneWindows []laneWindow

	// Locked and dead-time cards are pinned: they keep lane and position
	// unconditionally but still count toward workload, position slots,
	// and crane bookkeeping.
	for i := range snap.Tasks {
		t := &snap.Tasks[i]
		if !t.Locked && t.Kind != card.KindDeadTime {
			continue
		}
		if t.LaneID == "" {
			continue
		}
		cand.load[t.LaneID] += t.DurationHours
		if end := t.Position + slotHours(t.DurationHours); end > nextPos[t.LaneID] {
			nextPos[t.LaneID] = end
		}
		placedLane[t.Number] = t.LaneID
		placedEnd[t.Number] = t.Position + slotHours(t.DurationHours)
		if t.NeedsCrane {
			if win, ok := conflict.ResolveWindow(t, snap); ok {
				craneWindows = append(craneWindows, laneWindow{laneID: t.LaneID, window: win})
			}
		}
	}

	for _, number := range order {
		t := snap.TaskByNumber(number)
		if t == nil || t.Locked {
			continue
		}

		var compatible []card.Lane
		for _, l := range lanes {
			if l.Kind.Accepts(t.Kind) {
				compatible = append(compatible, l)
			}
		}
		if len(compatible) == 0 {
			// No compatible active lane: leave the card untouched but
			// keep its workload on the books.
			cand.unassignable = append(cand.unassignable, t.Number)
			if t.LaneID != "" {
				cand.load[t.LaneID] += t.DurationHours
				placedLane[t.Number] = t.LaneID
			}
			placedEnd[t.Number] = t.Position + slotHours(t.DurationHours)
			continue
		}

		// Positions are global work-hour offsets: a card may not start
		// before its dependencies end, whichever lane they sit on.
		earliest := 0
		for _, dep := range t.Dependencies {
			if end, ok := placedEnd[dep]; ok && end > earliest {
				earliest = end
			}
		}

		chosen := compatible[0]
		chosenPos := maxInt(nextPos[chosen.ID], earliest)
		bestScore := math.Inf(1)
		for _, l := range compatible {
			pos := maxInt(nextPos[l.ID], earliest)
			score := scoreLane(t, l, pos, snap, w, cand.load, placedLane, craneWindows, lanes)
			if score < bestScore {
				bestScore = score
				chosen = l
				chosenPos = pos
			}
		}

		pos := chosenPos
		nextPos[chosen.ID] = pos + slotHours(t.DurationHours)
		cand.load[chosen.ID] += t.DurationHours
		placedLane[t.Number] = chosen.ID
		placedEnd[t.Number] = pos + slotHours(t.DurationHours)
		if t.NeedsCrane {
			start, end := snap.Timeline.SpanFromPosition(pos, t.DurationHours)
			craneWindows = append(craneWindows, laneWindow{
				laneID: chosen.ID,
				window: conflict.Window{Start: start, End: end},
			})
		}
		if chosen.ID != t.LaneID || pos != t.Position {
			cand.moved++
		}
		cand.assignments = append(cand.assignments, Assignment{
			TaskID:     t.ID,
			TaskNumber: t.Number,
			LaneID:     chosen.ID,
			Position:   pos,
		})
	}

	evaluate(snap, cand)
	return cand
}

// scoreLane computes the weighted placement score for one candidate lane,
// given the position the card would land at there. Lower is better; ties
// go to the lane processed first.
func scoreLane(t *card.Task, l card.Lane, pos int, snap *card.Snapshot, w Weights,
	load map[string]float64, placedLane map[string]string,
	craneWindows []laneWindow, active []card.Lane) float64 {

	var score float64

	// Workload balance: punish pushing this lane past the average of the
	// other active lanes.
	if len(active) > 1 {
		var otherSum float64
		for _, o := range active {
			if o.ID != l.ID {
				otherSum += load[o.ID]
			}
		}
		avgOther := otherSum / float64(len(active)-1)
		if load[l.ID]+t.DurationHours > avgOther {
			score += w.Overload
		}
	}

	// Spread term: cumulative load on the lane.
	score += w.LoadSpread * load[l.ID]

	// Dependency locality: same-lane dependencies are cheap, cross-lane
	// dependencies are structurally fragile.
	for _, dep := range t.Dependencies {
		depLane := placedLane[dep]
		if depLane == "" {
			if dt := snap.TaskByNumber(dep); dt != nil {
				depLane = dt.LaneID
			}
		}
		switch depLane {
		case "":
		case l.ID:
			score -= w.SameLaneBonus
		default:
			score += w.CrossLaneDep
		}
	}

	// Crane contention: projected window against crane cards already on
	// other lanes.
	if t.NeedsCrane {
		start, end := snap.Timeline.SpanFromPosition(pos, t.DurationHours)
		win := conflict.Window{Start: start, End: end}
		for _, cw := range craneWindows {
			if cw.laneID != l.ID && win.Overlaps(cw.window) {
				score += w.CraneOverlap
				break
			}
		}
	}

	// Movement minimization: lane-index distance from the original lane.
	if orig := snap.LaneOrdinal(t.LaneID); orig >= 0 {
		idx := snap.LaneOrdinal(l.ID)
		score += w.MovePerLane * math.Abs(float64(idx-orig))
	}

	return score
}

// evaluate runs the conflict detector over the proposed plan and fills in
// the candidate's conflict counts and max workload.
func evaluate(snap *card.Snapshot, cand *candidate) {
	proposed := make([]card.Task, len(snap.Tasks))
	copy(proposed, snap.Tasks)

	index := make(map[string]int, len(proposed))
	for i := range proposed {
		index[proposed[i].Number] = i
	}
	for _, a := range cand.assignments {
		i := index[a.TaskNumber]
		proposed[i].LaneID = a.LaneID
		proposed[i].Position = a.Position
	}

	report := conflict.Detect(card.NewSnapshot(proposed, snap.Lanes, snap.Timeline))
	cand.depConflicts = len(report.Dependency)
	cand.resConflicts = len(report.Resource)

	for _, l := range snap.ActiveLanes() {
		if cand.load[l.ID] > cand.maxLoad {
			cand.maxLoad = cand.load[l.ID]
		}
	}
}

// slotHours is the number of whole position slots a card occupies on its
// lane: its duration rounded up, at least one.
func slotHours(duration float64) int {
	slots := int(math.Ceil(duration))
	if slots < 1 {
		slots = 1
	}
	return slots
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

