package ingest

import (
	"fmt"

	"github.com/poiesic/lore/core"
)

// Stage names a step of the ingestion flow.
type Stage string

const (
	StageExtract Stage = "extract"
	StageEnrich  Stage = "enrich"
	StageDedupe  Stage = "dedupe"
	StagePersist Stage = "persist"
	StageNote    Stage = "note"
)

// Outcome records how a stage ended.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// StageError attributes a failure or warning to the stage that produced it.
// Op narrows the failure inside the stage, e.g. "summary" or "embedding"
// within the enrich stage.
type StageError struct {
	Stage Stage
	Op    string
	Err   error
}

func (e *StageError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s/%s: %v", e.Stage, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Run is the stage-by-stage record of a single ingestion. Errors preserves
// the order failures occurred in. Partial holds the enriched record when
// persistence failed, so the work already paid for can be salvaged.
type Run struct {
	URL     string
	Stages  map[Stage]Outcome
	Errors  []StageError
	Partial *core.ContentRecord
}

func newRun(url string) *Run {
	return &Run{
		URL:    url,
		Stages: make(map[Stage]Outcome),
	}
}

func (r *Run) mark(stage Stage, outcome Outcome) {
	r.Stages[stage] = outcome
}

func (r *Run) warn(stage Stage, op string, err error) {
	r.Errors = append(r.Errors, StageError{Stage: stage, Op: op, Err: err})
}

// Failed reports whether the run ended in a terminal failure.
func (r *Run) Failed() bool {
	return r.Stages[StageExtract] == OutcomeFailed || r.Stages[StagePersist] == OutcomeFailed
}

// Status summarizes how an ingestion ended.
type Status string

const (
	// StatusPersisted means a new record was written.
	StatusPersisted Status = "persisted"

	// StatusDuplicate means an existing record covered the content. In
	// update mode the existing record's enrichment was refreshed.
	StatusDuplicate Status = "duplicate"

	// StatusDryRun means the content was extracted and enriched but, by
	// request, not written.
	StatusDryRun Status = "dry-run"

	// StatusExtractFailed means no content could be pulled from the URL.
	StatusExtractFailed Status = "extract_failed"

	// StatusPersistFailed means the enriched record could not be written.
	// Run.Partial holds it for retry.
	StatusPersistFailed Status = "persist_failed"
)

// Result is the outcome of ingesting one URL.
type Result struct {
	Status   Status
	RecordID core.ID
	Run      *Run
}
