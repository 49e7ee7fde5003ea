package harness

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Output is the run's output, one line per term (evaluate, merge) or
	// per shape and signature (enumerate).
	Output []string `json:"output"`

	// Rendered is the final Sum as one string. Empty for enumerate.
	Rendered string `json:"rendered,omitempty"`

	// Terms is the number of terms in the final Sum.
	Terms int `json:"terms"`

	// RunID is the checkpoint run, when one was used.
	RunID string `json:"run_id,omitempty"`

	// SinglePass is the rendered single-pass merge of a merge scenario's
	// input.
	SinglePass string `json:"-"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Output: []string{},
		Errors: []string{},
	}
}

// AddError records a failed assertion and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
