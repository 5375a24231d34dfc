// Package card defines the production data model the scheduling engine
// operates on: assembly cards (tasks), assembler lanes, and the immutable
// snapshot handed to the validator, conflict detector, and optimizer.
package card

import (
	"time"

	"github.com/harborline/slipway/internal/timeline"
)

// Kind classifies an assembly card. The set is closed; DeadTime is a
// placeholder card that blocks lane time without carrying dependencies.
type Kind string

const (
	KindMechanical  Kind = "mechanical"
	KindElectrical  Kind = "electrical"
	KindSubAssembly Kind = "sub_assembly"
	KindPreAssembly Kind = "pre_assembly"
	KindKanban      Kind = "kanban"
	KindDeadTime    Kind = "dead_time"
)

// Valid reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool {
	switch k {
	case KindMechanical, KindElectrical, KindSubAssembly, KindPreAssembly, KindKanban, KindDeadTime:
		return true
	}
	return false
}

// LaneKind determines which card kinds a lane may host.
type LaneKind string

const (
	LaneMechanical LaneKind = "mechanical"
	LaneElectrical LaneKind = "electrical"
	LaneFinal      LaneKind = "final"
	// LaneCatchAll is the designated overflow lane; it accepts any kind.
	LaneCatchAll LaneKind = "catch_all"
)

// Valid reports whether lk is a member of the closed lane-kind set.
func (lk LaneKind) Valid() bool {
	switch lk {
	case LaneMechanical, LaneElectrical, LaneFinal, LaneCatchAll:
		return true
	}
	return false
}

// Accepts reports whether a lane of this kind may host a card of kind k.
// Dead-time cards and the catch-all lane are compatible with everything.
func (lk LaneKind) Accepts(k Kind) bool {
	if k == KindDeadTime || lk == LaneCatchAll {
		return true
	}
	switch lk {
	case LaneMechanical:
		return k == KindMechanical || k == KindSubAssembly || k == KindPreAssembly || k == KindKanban
	case LaneElectrical:
		return k == KindElectrical
	case LaneFinal:
		return k == KindMechanical || k == KindElectrical || k == KindKanban
	}
	return false
}

// Task is one assembly card: a unit of production work with a duration,
// dependencies on other cards, and an optional lane assignment.
type Task struct {
	ID            string
	Number        string // human code, unique across the board
	Kind          Kind
	DurationHours float64
	Phase         int

	// LaneID references the hosting lane; empty means unassigned.
	LaneID string
	Status Status

	// Dependencies lists the task numbers that must precede this card.
	Dependencies []string

	// Position is the card's work-hour offset from the schedule start,
	// used for intra-lane ordering and position-derived timing.
	Position int

	// StartTime and EndTime, when set, override position-derived timing.
	StartTime *time.Time
	EndTime   *time.Time

	// NeedsCrane marks cards contending for the single shared crane.
	NeedsCrane bool

	// Locked (grounded) cards are never moved by the optimizer.
	Locked bool

	// ElapsedHours accumulates build time across pause/resume cycles.
	ElapsedHours float64
	// ActualDurationHours is stamped on completion.
	ActualDurationHours float64
}

// HasExplicitWindow reports whether both timestamps are set, in which
// case they take precedence over position-derived timing.
func (t *Task) HasExplicitWindow() bool {
	return t.StartTime != nil && t.EndTime != nil
}

// Lane is one assembler work center hosting a sequence of cards.
type Lane struct {
	ID     string
	Name   string
	Kind   LaneKind
	Active bool
}

// Snapshot is the read-only input to the engine: all cards, all lanes,
// and the working calendar. Entry points never mutate a snapshot; they
// return new plans and reports.
type Snapshot struct {
	Tasks    []Task
	Lanes    []Lane
	Timeline timeline.Config

	taskByNumber map[string]int
	laneByID     map[string]int
	laneOrdinal  map[string]int
}

// NewSnapshot builds a snapshot and its lookup indexes. Indexes are built
// once here so entry points never rescan the slices.
func NewSnapshot(tasks []Task, lanes []Lane, cfg timeline.Config) *Snapshot {
	s := &Snapshot{
		Tasks:        tasks,
		Lanes:        lanes,
		Timeline:     cfg,
		taskByNumber: make(map[string]int, len(tasks)),
		laneByID:     make(map[string]int, len(lanes)),
		laneOrdinal:  make(map[string]int, len(lanes)),
	}
	for i := range tasks {
		s.taskByNumber[tasks[i].Number] = i
	}
	for i := range lanes {
		s.laneByID[lanes[i].ID] = i
		s.laneOrdinal[lanes[i].ID] = i
	}
	return s
}

// TaskByNumber returns the card with the given number, or nil.
func (s *Snapshot) TaskByNumber(number string) *Task {
	i, ok := s.taskByNumber[number]
	if !ok {
		return nil
	}
	return &s.Tasks[i]
}

// LaneByID returns the lane with the given ID, or nil.
func (s *Snapshot) LaneByID(id string) *Lane {
	i, ok := s.laneByID[id]
	if !ok {
		return nil
	}
	return &s.Lanes[i]
}

// LaneOrdinal returns the display index of a lane, used by the optimizer
// as its movement-distance measure. Unknown lanes return -1.
func (s *Snapshot) LaneOrdinal(id string) int {
	i, ok := s.laneOrdinal[id]
	if !ok {
		return -1
	}
	return i
}

// ActiveLanes returns the lanes in the currently displayed lane set, in
// snapshot order.
func (s *Snapshot) ActiveLanes() []Lane {
	var active []Lane
	for _, l := range s.Lanes {
		if l.Active {
			active = append(active, l)
		}
	}
	return active
}
