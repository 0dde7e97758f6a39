package harness

// TraceEvent is one replayed action.
type TraceEvent struct {
	Seq      int    `json:"seq"`  // 1-based position in the log
	Type     string `json:"type"` // "trace" or "swap"
	Key      string `json:"key,omitempty"`
	Position int    `json:"position,omitempty"`
	A        int    `json:"a,omitempty"`
	B        int    `json:"b,omitempty"`
	Values   []int  `json:"values,omitempty"` // Array after a swap
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// RunID and RecordingID identify the recorded run.
	RunID       string `json:"run_id,omitempty"`
	RecordingID string `json:"recording_id,omitempty"`

	// Initial is the array the run was recorded over.
	Initial []int `json:"initial"`

	// Keys lists the cursor keys in index order.
	Keys []string `json:"keys"`

	// Trace contains every replayed action in order.
	Trace []TraceEvent `json:"trace"`

	// Final is the array after replaying every action.
	Final []int `json:"final"`

	// Highlights maps each cursor key to its position after replay.
	Highlights map[string]int `json:"highlights"`

	// RunError is the message of the expected run failure, if any.
	RunError string `json:"run_error,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Keys:       []string{},
		Trace:      []TraceEvent{},
		Highlights: make(map[string]int),
		Errors:     []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace adds a cursor trace to the trace.
func (r *Result) AddTrace(key string, position int) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:      len(r.Trace) + 1,
		Type:     "trace",
		Key:      key,
		Position: position,
	})
}

// AddSwap adds a swap and the array it produced to the trace.
func (r *Result) AddSwap(a, b int, values []int) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    len(r.Trace) + 1,
		Type:   "swap",
		A:      a,
		B:      b,
		Values: values,
	})
}
