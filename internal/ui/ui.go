// Package ui prints schedule results to the terminal. Structured data
// goes to stdout; decoration and progress go to stderr so output remains
// pipeable.
package ui

import (
	"fmt"
	"os"

	"github.com/harborline/slipway/internal/conflict"
	"github.com/harborline/slipway/internal/optimizer"
)

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	yellow = "\033[33m"
	green  = "\033[32m"
	red    = "\033[31m"
	cyan   = "\033[36m"
)

type Printer struct{}

func New() *Printer {
	return &Printer{}
}

func (p *Printer) Banner() {
	fmt.Fprintln(os.Stderr, bold+cyan+"slipway"+reset+dim+" build sequence scheduler"+reset)
}

// PlanSummary prints the optimizer's quality report.
func (p *Printer) PlanSummary(res *optimizer.Result) {
	if res.BestEffort {
		fmt.Fprintf(os.Stderr, yellow+bold+"⚠ best effort"+reset+" — %d conflicts remain after %d attempts\n",
			res.DependencyConflicts+res.ResourceConflicts, res.Attempts)
	} else {
		fmt.Fprintf(os.Stderr, green+bold+"✓ plan valid"+reset+dim+" (attempt %d)"+reset+"\n", res.Attempts)
	}
	fmt.Fprintf(os.Stderr, "  moved %d card(s), max lane workload %.1fh, average %.1fh\n",
		res.Moved, res.MaxWorkload, res.AvgWorkload)
	for _, number := range res.Unassignable {
		fmt.Fprintf(os.Stderr, yellow+"  ⚠ %s has no compatible active lane; left in place\n"+reset, number)
	}
}

// ConflictReport prints each conflict on its own stdout line.
func (p *Printer) ConflictReport(report conflict.Report) {
	for _, c := range report.Dependency {
		fmt.Printf("dependency\t%s\t%s\t%s\n", c.Task, c.Dependency, c.Reason)
	}
	for _, c := range report.Resource {
		fmt.Printf("crane\t%s\t%s\t%s → %s\n",
			c.TaskA, c.TaskB, c.Start.Format("Mon 15:04"), c.End.Format("Mon 15:04"))
	}
	if report.Total() == 0 {
		fmt.Fprintln(os.Stderr, green+"✓ no conflicts"+reset)
	} else {
		fmt.Fprintf(os.Stderr, red+bold+"✗ %d conflict(s)"+reset+"\n", report.Total())
	}
}

// Order prints a numbered build order.
func (p *Printer) Order(numbers []string) {
	for i, n := range numbers {
		fmt.Printf("%d\t%s\n", i+1, n)
	}
}

func (p *Printer) CycleError(err error) {
	fmt.Fprintf(os.Stderr, red+bold+"✗ cannot schedule:"+reset+" %v\n", err)
}

func (p *Printer) Seeded(lanes, cards int) {
	fmt.Fprintf(os.Stderr, green+"✓ seeded %d lane(s), %d card(s)"+reset+"\n", lanes, cards)
}

func (p *Printer) Applied(count int) {
	fmt.Fprintf(os.Stderr, green+"✓ applied %d assignment(s)"+reset+"\n", count)
}

func (p *Printer) StatusChanged(number, from, to string) {
	fmt.Fprintf(os.Stderr, green+"✓ %s"+reset+dim+" %s → %s"+reset+"\n", number, from, to)
}

func (p *Printer) Error(msg string) {
	fmt.Fprintf(os.Stderr, red+bold+"✗ "+reset+"%s\n", msg)
}

func (p *Printer) Info(msg string) {
	fmt.Fprintln(os.Stderr, dim+msg+reset)
}

func (p *Printer) Watching(path string) {
	fmt.Fprintf(os.Stderr, dim+"watching %s — ctrl-c to stop"+reset+"\n", path)
}
