// Package depgraph builds and validates the dependency graph over a set
// of assembly cards. It detects self-dependencies and cycles and produces
// topological orders via Kahn's algorithm, with a pluggable ready-queue
// tie-break so the optimizer can impose per-attempt orderings.
package depgraph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/harborline/slipway/internal/card"
)

// ErrCycle is returned when the dependency relation contains a cycle.
var ErrCycle = errors.New("dependency cycle detected")

// ErrSelfDependency is returned when a card lists its own number among
// its dependencies.
var ErrSelfDependency = errors.New("card depends on itself")

// CycleError reports the cards that could not be ordered because they sit
// on (or downstream of) a dependency cycle.
type CycleError struct {
	Numbers []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v involving %s", ErrCycle, strings.Join(e.Numbers, ", "))
}

// Unwrap lets callers match with errors.Is(err, ErrCycle).
func (e *CycleError) Unwrap() error { return ErrCycle }

// TieBreak orders the ready queue during a topological sort. Given the
// numbers of all currently ready cards, it returns the one to emit next.
type TieBreak func(ready []string) string

// Alphabetical is the default tie-break: the lexicographically smallest
// ready card is emitted first, making orders deterministic.
func Alphabetical(ready []string) string {
	min := ready[0]
	for _, n := range ready[1:] {
		if n < min {
			min = n
		}
	}
	return min
}

// Graph is the dependency graph over one snapshot's cards. Edges point
// from a card to its dependencies: if A depends on B there is a forward
// edge A → B.
type Graph struct {
	// adjacency maps card number → set of dependency numbers present in
	// the graph (forward edges).
	adjacency map[string]map[string]bool
	// reverse maps card number → set of dependent numbers (backward edges).
	reverse map[string]map[string]bool
}

// Build constructs the graph from all non-dead-time cards. Dependencies on
// numbers absent from the set are dropped here; the conflict detector is
// responsible for reporting them as missing. Returns ErrSelfDependency if
// any card names itself.
func Build(tasks []card.Task) (*Graph, error) {
	g := &Graph{
		adjacency: make(map[string]map[string]bool),
		reverse:   make(map[string]map[string]bool),
	}
	for i := range tasks {
		t := &tasks[i]
		if t.Kind == card.KindDeadTime {
			continue
		}
		g.adjacency[t.Number] = make(map[string]bool)
		g.reverse[t.Number] = make(map[string]bool)
	}
	for i := range tasks {
		t := &tasks[i]
		if t.Kind == card.KindDeadTime {
			continue
		}
		for _, dep := range t.Dependencies {
			if dep == t.Number {
				return nil, fmt.Errorf("%w: %s", ErrSelfDependency, t.Number)
			}
			if _, known := g.adjacency[dep]; !known {
				continue
			}
			g.adjacency[t.Number][dep] = true
			g.reverse[dep][t.Number] = true
		}
	}
	return g, nil
}

// Len returns the number of cards in the graph.
func (g *Graph) Len() int { return len(g.adjacency) }

// Dependencies returns the in-graph dependency numbers of a card, sorted.
func (g *Graph) Dependencies(number string) []string {
	var deps []string
	for dep := range g.adjacency[number] {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}

// Sort returns the card numbers in a valid topological order: every
// dependency precedes its dependents. The tie-break picks among
// simultaneously ready cards; nil means Alphabetical. Returns a
// *CycleError naming the unordered cards if the graph is cyclic.
func (g *Graph) Sort(tie TieBreak) ([]string, error) {
	if tie == nil {
		tie = Alphabetical
	}

	inDegree := make(map[string]int, len(g.adjacency))
	for n, deps := range g.adjacency {
		inDegree[n] = len(deps)
	}

	var ready []string
	for n, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]string, 0, len(g.adjacency))
	for len(ready) > 0 {
		n := tie(ready)
		ready = removeOne(ready, n)
		order = append(order, n)

		for dependent := range g.reverse[n] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(g.adjacency) {
		var stuck []string
		for n, deg := range inDegree {
			if deg > 0 {
				stuck = append(stuck, n)
			}
		}
		sort.Strings(stuck)
		return nil, &CycleError{Numbers: stuck}
	}
	return order, nil
}

// ValidateAndOrder builds the graph from the given cards and returns a
// deterministic topological order, or a cycle/self-dependency error. This
// is the validation entry point callers run before optimizing.
func ValidateAndOrder(tasks []card.Task) ([]string, error) {
	g, err := Build(tasks)
	if err != nil {
		return nil, err
	}
	return g.Sort(nil)
}

func removeOne(s []string, v string) []string {
	for i, n := range s {
		if n == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
