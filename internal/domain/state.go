package domain

import (
	"errors"
	"time"
)

// Ledger maps an item id to the last score observed for it.
type Ledger map[int]int

// Clone returns an independent copy; a nil ledger clones to an empty one.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for id, score := range l {
		out[id] = score
	}
	return out
}

// State is the whole durable run-to-run document.
type State struct {
	Ledger  Ledger
	History []DigestEntry
}

// EmptyState is the initial state of a source that never ran.
func EmptyState() State {
	return State{Ledger: Ledger{}}
}

// RunReport summarizes a single pipeline execution for logs and metrics.
type RunReport struct {
	Source      string
	Scanned     int
	Failed      int
	Candidates  int
	Dropped     int
	Published   []DigestEntry
	HistorySize int
	Files       []string
	StartedAt   time.Time
	Duration    time.Duration
}

// ErrCorruptState marks a persisted state that exists but cannot be decoded.
var ErrCorruptState = errors.New("corrupt state")
