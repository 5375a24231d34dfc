// Package telemetry provides a JSONL event stream for recording schedule
// runs. Every optimize attempt, accepted or best-effort plan, conflict
// report, and status change is recorded as a structured JSON event,
// making runs auditable and analyzable after the fact.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Event kinds identify the type of telemetry event.
const (
	KindOptimizeStart  = "optimize_start"
	KindAttemptDone    = "attempt_done"
	KindPlanAccepted   = "plan_accepted"
	KindPlanBestEffort = "plan_best_effort"
	KindPlanApplied    = "plan_applied"
	KindConflictReport = "conflict_report"
	KindStatusChange   = "status_change"
	KindWatchChange    = "watch_change"
)

// Event represents a single telemetry record. Each event carries a
// timestamp, a kind tag, and optional card/lane identifiers along with
// arbitrary structured data.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Card      string    `json:"card,omitempty"`
	Lane      string    `json:"lane,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes telemetry events to a JSONL file. It is safe for
// concurrent use by multiple goroutines. A nil *Emitter is a valid no-op
// emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// NewEmitter creates a new Emitter that writes JSONL events to the file
// at path. The file is created if it does not exist, or appended to if
// it does.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return &Emitter{file: f, enc: json.NewEncoder(f)}, nil
}

// Emit writes one event, stamping the current time if unset. Errors are
// swallowed; telemetry must never break a schedule run.
func (e *Emitter) Emit(ev Event) {
	if e == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.enc.Encode(ev)
}

// Close flushes and closes the underlying file. A nil receiver is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file.Close()
}
