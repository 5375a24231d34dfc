// Package conflict detects timeline conflicts over a schedule snapshot:
// dependency-ordering violations and shared-crane overlaps between lanes.
// Detection is a pure function of the snapshot — it never mutates its
// input and needs no external state, so the same snapshot always yields
// the same report.
package conflict

import (
	"sort"
	"time"

	"github.com/harborline/slipway/internal/card"
)

// Reason classifies a dependency conflict.
type Reason string

const (
	// ReasonMissing means the dependency number matches no card.
	ReasonMissing Reason = "missing"
	// ReasonMisordered means a same-lane dependency sits at or after its
	// dependent's position.
	ReasonMisordered Reason = "misordered"
	// ReasonFinishesAfter means a cross-lane dependency finishes after
	// its dependent starts.
	ReasonFinishesAfter Reason = "finishes_after"
	// ReasonBlocked means the dependency is in the blocked state, which
	// conflicts regardless of timing.
	ReasonBlocked Reason = "blocked"
)

// DependencyConflict reports one unmet dependency.
type DependencyConflict struct {
	Task       string // dependent card number
	Dependency string // unmet dependency number
	Reason     Reason
}

// ResourceConflict reports two crane cards on different lanes whose time
// windows overlap. TaskA sorts before TaskB so each unordered pair is
// reported exactly once.
type ResourceConflict struct {
	TaskA, TaskB string
	// Start and End bound the overlapping portion of the two windows.
	Start, End time.Time
}

// Report is the full conflict picture for one snapshot.
type Report struct {
	Dependency []DependencyConflict
	Resource   []ResourceConflict
}

// Total returns the combined conflict count.
func (r Report) Total() int {
	return len(r.Dependency) + len(r.Resource)
}

// Window is a card's resolved calendar time span.
type Window struct {
	Start, End time.Time
}

// Overlaps implements the half-open interval test: two windows conflict
// iff each starts before the other ends.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// ResolveWindow returns the calendar window a card occupies. Explicit
// timestamps take precedence once they exist; otherwise the window is
// derived from the card's position and duration via the snapshot's
// timeline. Degenerate windows (end at or before start) resolve to
// ok=false and are excluded from comparisons.
func ResolveWindow(t *card.Task, snap *card.Snapshot) (Window, bool) {
	var w Window
	if t.HasExplicitWindow() {
		w = Window{Start: *t.StartTime, End: *t.EndTime}
	} else {
		w.Start, w.End = snap.Timeline.SpanFromPosition(t.Position, t.DurationHours)
	}
	if !w.End.After(w.Start) {
		return Window{}, false
	}
	return w, true
}

// Detect computes all dependency and shared-crane conflicts for the
// snapshot. Output order is deterministic: cards sorted by number, then
// declared dependency order.
func Detect(snap *card.Snapshot) Report {
	windows := make(map[string]Window, len(snap.Tasks))
	resolved := make(map[string]bool, len(snap.Tasks))
	for i := range snap.Tasks {
		t := &snap.Tasks[i]
		w, ok := ResolveWindow(t, snap)
		windows[t.Number] = w
		resolved[t.Number] = ok
	}

	ordered := make([]*card.Task, 0, len(snap.Tasks))
	for i := range snap.Tasks {
		ordered = append(ordered, &snap.Tasks[i])
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })

	var report Report
	for _, t := range ordered {
		if t.Kind == card.KindDeadTime {
			continue
		}
		for _, depNum := range t.Dependencies {
			if c, bad := checkDependency(t, depNum, snap, windows, resolved); bad {
				report.Dependency = append(report.Dependency, c)
			}
		}
	}

	report.Resource = detectCraneOverlaps(ordered, windows, resolved)
	return report
}

// checkDependency applies the ordering rules for one (dependent,
// dependency) pair. Same-lane pairs compare positions; cross-lane pairs
// compare resolved windows; a blocked dependency conflicts outright.
func checkDependency(t *card.Task, depNum string, snap *card.Snapshot, windows map[string]Window, resolved map[string]bool) (DependencyConflict, bool) {
	c := DependencyConflict{Task: t.Number, Dependency: depNum}

	dep := snap.TaskByNumber(depNum)
	if dep == nil {
		c.Reason = ReasonMissing
		return c, true
	}

	if t.LaneID != "" && dep.LaneID == t.LaneID {
		// The lane serializes its own work: the dependency must sit
		// strictly before the dependent.
		if dep.Position >= t.Position {
			c.Reason = ReasonMisordered
			return c, true
		}
		return DependencyConflict{}, false
	}

	// Cross-lane: an unresolvable upstream state always conflicts.
	if dep.Status == card.StatusBlocked {
		c.Reason = ReasonBlocked
		return c, true
	}

	if !resolved[t.Number] || !resolved[depNum] {
		return DependencyConflict{}, false
	}
	if windows[depNum].End.After(windows[t.Number].Start) {
		c.Reason = ReasonFinishesAfter
		return c, true
	}
	return DependencyConflict{}, false
}

// detectCraneOverlaps reports every pair of crane cards on different
// lanes whose resolved windows overlap. Same-lane crane usage is not a
// conflict; the lane naturally serializes its own work.
func detectCraneOverlaps(ordered []*card.Task, windows map[string]Window, resolved map[string]bool) []ResourceConflict {
	var crane []*card.Task
	for _, t := range ordered {
		if t.Kind == card.KindDeadTime || !t.NeedsCrane {
			continue
		}
		if t.LaneID == "" || !resolved[t.Number] {
			continue
		}
		crane = append(crane, t)
	}

	var conflicts []ResourceConflict
	for i := 0; i < len(crane); i++ {
		for j := i + 1; j < len(crane); j++ {
			a, b := crane[i], crane[j]
			if a.LaneID == b.LaneID {
				continue
			}
			wa, wb := windows[a.Number], windows[b.Number]
			if !wa.Overlaps(wb) {
				continue
			}
			conflicts = append(conflicts, ResourceConflict{
				TaskA: a.Number,
				TaskB: b.Number,
				Start: laterOf(wa.Start, wb.Start),
				End:   earlierOf(wa.End, wb.End),
			})
		}
	}
	return conflicts
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
