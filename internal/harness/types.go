package harness

import "github.com/roach88/todoracle/internal/item"

// Step outcomes recorded in the trace.
const (
	OutcomeOK           = "ok"
	OutcomePrecondition = "precondition"
	OutcomeMismatch     = "mismatch"
	OutcomeError        = "error"
)

// Trace phases.
const (
	PhaseSetup = "setup"
	PhaseStep  = "step"
)

// TraceEvent records one executed step and the persisted state after it.
type TraceEvent struct {
	Seq      int64          `json:"seq"`
	Phase    string         `json:"phase"`
	Action   string         `json:"action"`
	Args     map[string]any `json:"args,omitempty"`
	Outcome  string         `json:"outcome"`
	Error    string         `json:"error,omitempty"`
	Snapshot item.Snapshot  `json:"snapshot"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// RunID identifies the recorded run, if any.
	RunID string `json:"run_id,omitempty"`

	// Pass is true when every step ran as expected and every check held.
	Pass bool `json:"pass"`

	// Trace contains the executed steps in order. Execution stops at the
	// first failing step, so a failed scenario's trace ends there.
	Trace []TraceEvent `json:"trace"`

	// Errors describes each failure. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
