package workflow

import "fmt"

// StepStatus is the outcome of a single step.
type StepStatus string

const (
	// StepSuccess indicates the step's function returned without error.
	StepSuccess StepStatus = "success"

	// StepFailed indicates the step's function returned an error (or
	// panicked). Execution stops at the first failed step.
	StepFailed StepStatus = "failed"
)

// Record is the normalized payload of a step outcome. Heterogeneous step
// return shapes (remote objects, branches, raw values) are all reduced to
// this one type; NewRecord is the single adapter that must change if the
// remote client's object shape changes.
type Record struct {
	Status  string `json:"status"`
	NodeID  string `json:"node_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NodeRef is satisfied by remote objects that can be referenced by id from
// dependent objects.
type NodeRef interface {
	NodeID() string
	NodeName() string
	NodeKind() string
}

// NewRecord builds a created-object Record from a remote object reference.
func NewRecord(ref NodeRef) Record {
	return Record{
		Status:  "created",
		NodeID:  ref.NodeID(),
		Name:    ref.NodeName(),
		Message: fmt.Sprintf("Created %s node", ref.NodeKind()),
	}
}

// normalize reduces a bound step's return value to a Record.
func normalize(v any) Record {
	switch val := v.(type) {
	case Record:
		return val
	case NodeRef:
		return NewRecord(val)
	default:
		return Record{
			Status:  "created",
			NodeID:  "unknown",
			Name:    "unknown",
			Message: "Created object",
		}
	}
}

// StepResult is the outcome of one attempted step.
type StepResult struct {
	Step   string     `json:"step"`
	Status StepStatus `json:"status"`
	Result Record     `json:"result"`
}

// StepError describes a failed step.
type StepError struct {
	Step    string `json:"step"`
	Message string `json:"error"`
}

// State is the terminal state of a workflow execution.
type State int

const (
	// Completed means every registered step succeeded.
	Completed State = iota

	// PartiallyFailed means at least one step succeeded before a step
	// failed.
	PartiallyFailed

	// Failed means the first step failed; nothing was created.
	Failed
)

func (s State) String() string {
	switch s {
	case Completed:
		return "completed"
	case PartiallyFailed:
		return "partially_failed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the immutable audit trail of one workflow execution.
//
// TotalSteps counts attempted steps, not registered ones: once a step fails,
// the remaining steps are never attempted and do not appear in StepResults.
type Result struct {
	SuccessCount int          `json:"success_count"`
	TotalSteps   int          `json:"total_steps"`
	ErrorCount   int          `json:"error_count"`
	StepResults  []StepResult `json:"steps_results"`
	Errors       []StepError  `json:"errors"`
}

// Succeeded reports whether every attempted step succeeded.
func (r Result) Succeeded() bool {
	return r.ErrorCount == 0
}

// State derives the terminal state from the counts.
func (r Result) State() State {
	switch {
	case r.ErrorCount == 0:
		return Completed
	case r.SuccessCount > 0:
		return PartiallyFailed
	default:
		return Failed
	}
}
