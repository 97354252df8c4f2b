// Package job drives the per-request enhancement workflow: it owns the
// job record state machine and coordinates the baseline router, the
// confidence estimator, the provider orchestrator, and the acceptance
// policy.
package job

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zen-systems/voltgate/pkg/route"
)

// Status is a job's position in the workflow.
type Status string

const (
	StatusPending              Status = "PENDING"
	StatusComputingBaseline    Status = "COMPUTING_BASELINE"
	StatusEvaluatingConfidence Status = "EVALUATING_CONFIDENCE"
	StatusEnhancing            Status = "ENHANCING"
	StatusDeciding             Status = "DECIDING"
	StatusCompleted            Status = "COMPLETED"
	StatusFailed               Status = "FAILED"
)

// statusRank orders statuses so transitions can be checked for
// monotonicity. No status is ever revisited.
var statusRank = map[Status]int{
	StatusPending:              0,
	StatusComputingBaseline:    1,
	StatusEvaluatingConfidence: 2,
	StatusEnhancing:            3,
	StatusDeciding:             4,
	StatusCompleted:            5,
	StatusFailed:               5,
}

// Terminal reports whether the status is COMPLETED or FAILED.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Route sources recorded on completed jobs.
const (
	SourceBaseline = "baseline"
	SourceProvider = "provider"
)

// Enhancement captures what happened during the ENHANCING/DECIDING
// phase, including provider failures that did not fail the job.
type Enhancement struct {
	Attempted        bool     `json:"attempted"`
	Provider         string   `json:"provider,omitempty"`
	ImprovementScore *float64 `json:"improvement_score,omitempty"`
	Accepted         bool     `json:"accepted"`
	Reason           string   `json:"reason,omitempty"`
	ProviderFailure  string   `json:"provider_failure,omitempty"`
}

// Record is the per-job state. It is owned exclusively by the
// coordinator processing it until it reaches a terminal status; after
// that it is immutable.
type Record struct {
	ID             string         `json:"id"`
	Origin         string         `json:"origin"`
	Destination    string         `json:"destination"`
	Constraints    map[string]any `json:"constraints,omitempty"`
	Status         Status         `json:"status"`
	BaseConfidence float64        `json:"base_confidence"`

	// Source and FinalRoute are set iff Status is COMPLETED.
	Source     string           `json:"source,omitempty"`
	FinalRoute *route.Candidate `json:"final_route,omitempty"`

	// Error is set iff Status is FAILED.
	Error string `json:"error,omitempty"`

	Enhancement *Enhancement `json:"enhancement,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewRecord creates a PENDING job for the given request.
func NewRecord(origin, destination string, constraints map[string]any) *Record {
	return &Record{
		ID:          uuid.NewString(),
		Origin:      origin,
		Destination: destination,
		Constraints: constraints,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

// transition advances the record's status. Moving backwards, revisiting
// a status, or leaving a terminal status is an invariant violation.
func (r *Record) transition(to Status) error {
	if r.Status.Terminal() {
		return fmt.Errorf("job %s: illegal transition %s -> %s: job is terminal", r.ID, r.Status, to)
	}
	if statusRank[to] <= statusRank[r.Status] {
		return fmt.Errorf("job %s: illegal transition %s -> %s", r.ID, r.Status, to)
	}
	r.Status = to
	return nil
}
