package distributor

import "fmt"

// CopyError is a per-student distribution failure. It aborts only the
// affected student; the remaining plan entries still run.
type CopyError struct {
	Student string
	Path    string
	Err     error
}

func (e *CopyError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("copy for %s: %v", e.Student, e.Err)
	}
	return fmt.Sprintf("copy for %s: %s: %v", e.Student, e.Path, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

// IncompleteError reports a run where some students failed while the rest
// were distributed.
type IncompleteError struct {
	Failed    int
	Attempted int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("distribution incomplete: %d of %d students failed", e.Failed, e.Attempted)
}

// Outcome is the apply result for one student.
type Outcome struct {
	Student string
	Err     *CopyError
}

// OK reports whether the student's files were all distributed.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Report accumulates the results of applying a plan.
type Report struct {
	Lab  string
	Mode Mode

	// Outcomes holds one entry per attempted student, in plan order.
	Outcomes []Outcome
	// SharedErr records a fatal shared-stage failure.
	SharedErr error
	// Excluded and Skipped carry over from the plan for rendering.
	Excluded []string
	Skipped  []string
}

func newReport(plan *Plan) *Report {
	return &Report{
		Lab:      plan.Lab,
		Mode:     plan.Mode,
		Excluded: plan.Excluded,
		Skipped:  plan.Skipped,
	}
}

// Failed returns the number of students whose distribution failed.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Succeeded returns the number of students fully distributed.
func (r *Report) Succeeded() int {
	return len(r.Outcomes) - r.Failed()
}

// Failures returns the failed outcomes in apply order.
func (r *Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}
