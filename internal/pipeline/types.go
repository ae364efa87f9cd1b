package pipeline

import (
	"time"

	"ledgerc/internal/program"
)

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageLoad reads the manifest and the parse tree.
	StageLoad Stage = "load"
	// StageCheck orders and type-checks the modules.
	StageCheck Stage = "check"
	// StageEntry synthesizes the program entry.
	StageEntry Stage = "entry"
	// StageAnalyze runs the analyze and finalize passes.
	StageAnalyze Stage = "analyze"
	// StageStorage initializes storage slots.
	StageStorage Stage = "storage"
	// StageEmit writes the artifact.
	StageEmit Stage = "emit"
)

// StageOf maps a finished session stage to the pipeline stage that comes
// next.
func StageOf(s program.Stage) Stage {
	switch s {
	case program.DependencyOrdered:
		return StageCheck
	case program.ModuleChecked:
		return StageEntry
	case program.EntrySynthesized, program.Analyzed:
		return StageAnalyze
	case program.Finalized:
		return StageStorage
	case program.StorageInitialized:
		return StageEmit
	}
	return StageLoad
}

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a unit, or for the whole run when Unit is
// empty.
type Event struct {
	Unit    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. It may be called from several
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

// Add accumulates dur into stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] += dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

func (t Timings) Duration(stage Stage) time.Duration {
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
