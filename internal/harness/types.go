package harness

// TraceEvent records one executed operation and its outcome.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Op      string `json:"op"`
	Target  string `json:"target"`
	Outcome string `json:"outcome"`

	// References lists read results in order. Nil for writes.
	References []string `json:"references,omitempty"`

	// Properties is the textual encoding of a fetched document.
	Properties string `json:"properties,omitempty"`

	// Count is the number of documents seeded by a seed event.
	Count int `json:"count,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every step outcome and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains every executed operation in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends ev to the trace, numbering it.
func (r *Result) AddEvent(ev TraceEvent) {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
}
