package validator

import (
	"sync"
	"time"
)

const recentErrorCap = 50

// Accumulator collects running counters and a bounded buffer of recent
// findings during one validation run. Each run constructs its own, so
// concurrent runs stay independent.
type Accumulator struct {
	mu             sync.Mutex
	recordsChecked int
	errorCount     int
	warningCount   int
	degradedStages []string
	recentErrors   []string
	startedAt      time.Time
}

// Snapshot is a point-in-time copy of the accumulator's counters.
type Snapshot struct {
	RecordsChecked int      `json:"recordsChecked"`
	ErrorCount     int      `json:"errorCount"`
	WarningCount   int      `json:"warningCount"`
	DegradedStages []string `json:"degradedStages,omitempty"`
	RecentErrors   []string `json:"recentErrors,omitempty"`
	ElapsedMs      int64    `json:"elapsedMs"`
}

// NewAccumulator creates a fresh accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{startedAt: time.Now()}
}

// RecordChecked bumps the processed-record counter.
func (a *Accumulator) RecordChecked() {
	a.mu.Lock()
	a.recordsChecked++
	a.mu.Unlock()
}

// AddErrors registers record-level errors, keeping the most recent ones.
func (a *Accumulator) AddErrors(msgs ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errorCount += len(msgs)
	for _, msg := range msgs {
		if len(a.recentErrors) >= recentErrorCap {
			a.recentErrors = a.recentErrors[1:]
		}
		a.recentErrors = append(a.recentErrors, msg)
	}
}

// AddWarnings registers record-level warnings.
func (a *Accumulator) AddWarnings(msgs ...string) {
	a.mu.Lock()
	a.warningCount += len(msgs)
	a.mu.Unlock()
}

// StageDegraded marks a stage that could not run fully.
func (a *Accumulator) StageDegraded(stage string) {
	a.mu.Lock()
	a.degradedStages = append(a.degradedStages, stage)
	a.mu.Unlock()
}

// Reset clears all counters for reuse.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recordsChecked = 0
	a.errorCount = 0
	a.warningCount = 0
	a.degradedStages = nil
	a.recentErrors = nil
	a.startedAt = time.Now()
}

// Snapshot returns a copy of the current counters.
func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	recent := make([]string, len(a.recentErrors))
	copy(recent, a.recentErrors)
	degraded := make([]string, len(a.degradedStages))
	copy(degraded, a.degradedStages)
	return Snapshot{
		RecordsChecked: a.recordsChecked,
		ErrorCount:     a.errorCount,
		WarningCount:   a.warningCount,
		DegradedStages: degraded,
		RecentErrors:   recent,
		ElapsedMs:      time.Since(a.startedAt).Milliseconds(),
	}
}
