package depgraph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/harborline/slipway/internal/card"
)

// taskSpec is a compact card description: number plus dependency numbers.
type taskSpec struct {
	number string
	deps   []string
	kind   card.Kind
}

func buildTasks(specs []taskSpec) []card.Task {
	tasks := make([]card.Task, 0, len(specs))
	for _, s := range specs {
		kind := s.kind
		if kind == "" {
			kind = card.KindMechanical
		}
		tasks = append(tasks, card.Task{
			Number:       s.number,
			Kind:         kind,
			Dependencies: s.deps,
		})
	}
	return tasks
}

// validOrder checks that every dependency appears before its dependent.
func validOrder(t *testing.T, tasks []card.Task, order []string) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	for _, task := range tasks {
		if task.Kind == card.KindDeadTime {
			continue
		}
		for _, dep := range task.Dependencies {
			di, ok := pos[dep]
			if !ok {
				continue // missing dep, not the graph's concern
			}
			if di >= pos[task.Number] {
				t.Errorf("order %v places dependency %s after dependent %s", order, dep, task.Number)
			}
		}
	}
}

func TestValidateAndOrder(t *testing.T) {
	t.Parallel()

	t.Run("linear chain", func(t *testing.T) {
		t.Parallel()
		tasks := buildTasks([]taskSpec{
			{number: "C", deps: []string{"B"}},
			{number: "B", deps: []string{"A"}},
			{number: "A"},
		})
		order, err := ValidateAndOrder(tasks)
		if err != nil {
			t.Fatalf("ValidateAndOrder: %v", err)
		}
		if diff := cmp.Diff([]string{"A", "B", "C"}, order); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("diamond", func(t *testing.T) {
		t.Parallel()
		tasks := buildTasks([]taskSpec{
			{number: "D", deps: []string{"B", "C"}},
			{number: "B", deps: []string{"A"}},
			{number: "C", deps: []string{"A"}},
			{number: "A"},
		})
		order, err := ValidateAndOrder(tasks)
		if err != nil {
			t.Fatalf("ValidateAndOrder: %v", err)
		}
		validOrder(t, tasks, order)
		if len(order) != 4 {
			t.Errorf("order length = %d, want 4", len(order))
		}
	})

	t.Run("dead-time cards are excluded", func(t *testing.T) {
		t.Parallel()
		tasks := buildTasks([]taskSpec{
			{number: "A"},
			{number: "GAP", kind: card.KindDeadTime},
		})
		order, err := ValidateAndOrder(tasks)
		if err != nil {
			t.Fatalf("ValidateAndOrder: %v", err)
		}
		if diff := cmp.Diff([]string{"A"}, order); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing dependency is tolerated", func(t *testing.T) {
		t.Parallel()
		tasks := buildTasks([]taskSpec{
			{number: "A", deps: []string{"GHOST"}},
		})
		order, err := ValidateAndOrder(tasks)
		if err != nil {
			t.Fatalf("ValidateAndOrder: %v", err)
		}
		if diff := cmp.Diff([]string{"A"}, order); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("three-card cycle fails", func(t *testing.T) {
		t.Parallel()
		tasks := buildTasks([]taskSpec{
			{number: "X", deps: []string{"Z"}},
			{number: "Y", deps: []string{"X"}},
			{number: "Z", deps: []string{"Y"}},
		})
		_, err := ValidateAndOrder(tasks)
		if !errors.Is(err, ErrCycle) {
			t.Fatalf("error = %v, want ErrCycle", err)
		}
		var ce *CycleError
		if !errors.As(err, &ce) {
			t.Fatalf("error is not a *CycleError: %T", err)
		}
		if diff := cmp.Diff([]string{"X", "Y", "Z"}, ce.Numbers); diff != "" {
			t.Errorf("cycle members mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("self-dependency fails", func(t *testing.T) {
		t.Parallel()
		tasks := buildTasks([]taskSpec{
			{number: "A", deps: []string{"A"}},
		})
		_, err := ValidateAndOrder(tasks)
		if !errors.Is(err, ErrSelfDependency) {
			t.Fatalf("error = %v, want ErrSelfDependency", err)
		}
	})
}

func TestSortTieBreak(t *testing.T) {
	t.Parallel()

	tasks := buildTasks([]taskSpec{
		{number: "A"}, {number: "B"}, {number: "C"},
	})
	g, err := Build(tasks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Reverse-alphabetical tie-break flips the order of independent cards.
	reverse := func(ready []string) string {
		max := ready[0]
		for _, n := range ready[1:] {
			if n > max {
				max = n
			}
		}
		return max
	}
	order, err := g.Sort(reverse)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if diff := cmp.Diff([]string{"C", "B", "A"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDependencies(t *testing.T) {
	t.Parallel()

	tasks := buildTasks([]taskSpec{
		{number: "D", deps: []string{"C", "A", "GHOST"}},
		{number: "A"},
		{number: "C"},
	})
	g, err := Build(tasks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "C"}, g.Dependencies("D")); diff != "" {
		t.Errorf("Dependencies(D) mismatch (-want +got):\n%s", diff)
	}
}
