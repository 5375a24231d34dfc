package card

import (
	"errors"
	"fmt"
	"time"
)

// Status is an assembly card's lifecycle state.
type Status string

const (
	StatusScheduled         Status = "scheduled"
	StatusClearedForPicking Status = "cleared_for_picking"
	StatusPicking           Status = "picking"
	StatusDeliveredToPaint  Status = "delivered_to_paint"
	StatusReadyForBuild     Status = "ready_for_build"
	StatusAssembling        Status = "assembling"
	StatusPaused            Status = "paused"
	StatusCompleted         Status = "completed"
	// StatusBlocked is reachable from any pre-completion state and must be
	// resolved externally before the dependent chain proceeds.
	StatusBlocked Status = "blocked"
)

// ErrBadTransition is returned when a status change is not allowed by the
// lifecycle state machine.
var ErrBadTransition = errors.New("invalid status transition")

// Valid reports whether s is a member of the status set.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusClearedForPicking, StatusPicking, StatusDeliveredToPaint,
		StatusReadyForBuild, StatusAssembling, StatusPaused, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// transitions maps each status to the statuses it may move to. Blocked is
// handled separately: every pre-completion state may enter it, and leaving
// it may target any pre-completion state.
var transitions = map[Status][]Status{
	StatusScheduled:         {StatusClearedForPicking},
	StatusClearedForPicking: {StatusPicking},
	StatusPicking:           {StatusDeliveredToPaint, StatusReadyForBuild},
	StatusDeliveredToPaint:  {StatusReadyForBuild},
	StatusReadyForBuild:     {StatusAssembling},
	StatusAssembling:        {StatusPaused, StatusCompleted},
	StatusPaused:            {StatusAssembling, StatusCompleted},
	StatusCompleted:         {},
}

// CanTransition reports whether the state machine allows from → to.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	if to == StatusBlocked {
		return from != StatusCompleted
	}
	if from == StatusBlocked {
		return to != StatusCompleted && to.Valid()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves a card to the next status at the given instant,
// maintaining the timing fields that feed the conflict detector:
//
//   - entering Assembling sets StartTime to now, except when resuming from
//     Paused, where StartTime is back-dated by the accumulated elapsed time
//     so duration math stays continuous;
//   - entering Paused folds now−StartTime into ElapsedHours and clears
//     StartTime;
//   - entering Completed stamps EndTime and derives ActualDurationHours
//     from the accumulated elapsed time when not already set.
func Transition(t *Task, next Status, now time.Time) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrBadTransition, next)
	}
	if !CanTransition(t.Status, next) {
		return fmt.Errorf("%w: %s → %s (card %s)", ErrBadTransition, t.Status, next, t.Number)
	}

	switch next {
	case StatusAssembling:
		if t.Status == StatusPaused && t.ElapsedHours > 0 {
			backdated := now.Add(-time.Duration(t.ElapsedHours * float64(time.Hour)))
			t.StartTime = &backdated
		} else {
			start := now
			t.StartTime = &start
		}

	case StatusPaused:
		if t.StartTime != nil {
			t.ElapsedHours += now.Sub(*t.StartTime).Hours()
			t.StartTime = nil
		}

	case StatusCompleted:
		if t.StartTime != nil {
			t.ElapsedHours = now.Sub(*t.StartTime).Hours()
		}
		end := now
		t.EndTime = &end
		if t.ActualDurationHours == 0 {
			t.ActualDurationHours = t.ElapsedHours
		}
	}

	t.Status = next
	return nil
}
