// Package seed loads board fixture files — TOML documents describing
// lanes and assembly cards — and writes them into the store. Fixtures are
// how a board is bootstrapped from an imported build sequence.
package seed

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/harborline/slipway/internal/card"
)

// Sentinel errors for fixture validation.
var (
	// ErrUnknownKind indicates a card or lane kind outside the closed set.
	ErrUnknownKind = errors.New("unknown kind")
	// ErrUnknownStatus indicates an unrecognized lifecycle status.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrDuplicateNumber indicates two cards share a number.
	ErrDuplicateNumber = errors.New("duplicate card number")
	// ErrBadDuration indicates a zero or negative duration.
	ErrBadDuration = errors.New("duration must be positive")
	// ErrMissingField indicates a required field is empty.
	ErrMissingField = errors.New("required field missing")
)

// LaneSpec is one [[lanes]] entry.
type LaneSpec struct {
	ID     string `toml:"id"`
	Name   string `toml:"name"`
	Kind   string `toml:"kind"`
	Active bool   `toml:"active"`
}

// TaskSpec is one [[tasks]] entry.
type TaskSpec struct {
	ID            string   `toml:"id,omitempty"`
	Number        string   `toml:"number"`
	Kind          string   `toml:"kind"`
	DurationHours float64  `toml:"duration_hours"`
	Phase         int      `toml:"phase,omitempty"`
	Lane          string   `toml:"lane,omitempty"`
	Status        string   `toml:"status,omitempty"`
	DependsOn     []string `toml:"depends_on,omitempty"`
	Position      int      `toml:"position,omitempty"`
	NeedsCrane    bool     `toml:"needs_crane,omitempty"`
	Locked        bool     `toml:"locked,omitempty"`
}

// Board is a full fixture document.
type Board struct {
	Lanes []LaneSpec `toml:"lanes"`
	Tasks []TaskSpec `toml:"tasks"`
}

// Load reads and validates a fixture file.
func Load(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: reading %s: %w", path, err)
	}
	var b Board
	if err := toml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("seed: parsing %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("seed: %s: %w", path, err)
	}
	return &b, nil
}

// Validate checks the fixture against the data model's closed sets and
// uniqueness rules.
func (b *Board) Validate() error {
	for _, l := range b.Lanes {
		if l.ID == "" {
			return fmt.Errorf("%w: lane id", ErrMissingField)
		}
		if !card.LaneKind(l.Kind).Valid() {
			return fmt.Errorf("%w: lane %s kind %q", ErrUnknownKind, l.ID, l.Kind)
		}
	}

	seen := make(map[string]bool, len(b.Tasks))
	for _, t := range b.Tasks {
		if t.Number == "" {
			return fmt.Errorf("%w: card number", ErrMissingField)
		}
		if seen[t.Number] {
			return fmt.Errorf("%w: %s", ErrDuplicateNumber, t.Number)
		}
		seen[t.Number] = true
		if !card.Kind(t.Kind).Valid() {
			return fmt.Errorf("%w: card %s kind %q", ErrUnknownKind, t.Number, t.Kind)
		}
		if t.DurationHours <= 0 {
			return fmt.Errorf("%w: card %s", ErrBadDuration, t.Number)
		}
		if t.Status != "" && !card.Status(t.Status).Valid() {
			return fmt.Errorf("%w: card %s status %q", ErrUnknownStatus, t.Number, t.Status)
		}
	}
	return nil
}

// Cards converts the fixture's task specs to model cards. Unset statuses
// default to scheduled; unset IDs default to the card number.
func (b *Board) Cards() []card.Task {
	tasks := make([]card.Task, 0, len(b.Tasks))
	for _, spec := range b.Tasks {
		id := spec.ID
		if id == "" {
			id = spec.Number
		}
		status := card.Status(spec.Status)
		if spec.Status == "" {
			status = card.StatusScheduled
		}
		tasks = append(tasks, card.Task{
			ID:            id,
			Number:        spec.Number,
			Kind:          card.Kind(spec.Kind),
			DurationHours: spec.DurationHours,
			Phase:         spec.Phase,
			LaneID:        spec.Lane,
			Status:        status,
			Dependencies:  spec.DependsOn,
			Position:      spec.Position,
			NeedsCrane:    spec.NeedsCrane,
			Locked:        spec.Locked,
		})
	}
	return tasks
}

// LaneSet converts the fixture's lane specs to model lanes.
func (b *Board) LaneSet() []card.Lane {
	lanes := make([]card.Lane, 0, len(b.Lanes))
	for _, spec := range b.Lanes {
		lanes = append(lanes, card.Lane{
			ID:     spec.ID,
			Name:   spec.Name,
			Kind:   card.LaneKind(spec.Kind),
			Active: spec.Active,
		})
	}
	return lanes
}
