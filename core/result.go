package core

import "time"

// IncompleteMarker is returned as the text of a partial result when an agent
// exhausted its budget without producing any usable model output.
const IncompleteMarker = "[incomplete: iteration budget exhausted before a final answer]"

// ResultStatus distinguishes a finished answer from a degraded one.
type ResultStatus int

const (
	// StatusComplete means the agent emitted a final answer.
	StatusComplete ResultStatus = iota
	// StatusPartial means the iteration budget ran out first.
	StatusPartial
)

// String returns "complete" or "partial".
func (s ResultStatus) String() string {
	if s == StatusPartial {
		return "partial"
	}
	return "complete"
}

// TaskOutput is the immutable result of one task execution.
type TaskOutput struct {
	TaskID         string        `json:"task_id"`
	Agent          string        `json:"agent"`
	Description    string        `json:"description"`
	ExpectedOutput string        `json:"expected_output"`
	Raw            string        `json:"raw"`
	Status         ResultStatus  `json:"status"`
	Turns          int           `json:"turns"`
	Delegations    int           `json:"delegations"`
	Duration       time.Duration `json:"duration"`
}

// IsPartial reports whether the output is a degraded result.
func (o TaskOutput) IsPartial() bool { return o.Status == StatusPartial }
