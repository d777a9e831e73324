package domain

import "fmt"

// Summary is the outcome of one enrichment call: either generated text or
// the step that failed and why.
type Summary struct {
	Text   string
	Step   string
	Reason string
}

// TextSummary wraps successfully produced text.
func TextSummary(text string) Summary {
	return Summary{Text: text}
}

// FailedSummary records a failed enrichment step.
func FailedSummary(step string, err error) Summary {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return Summary{Step: step, Reason: reason}
}

// Failed reports whether the enrichment step did not produce text.
func (s Summary) Failed() bool {
	return s.Step != ""
}

// String renders the summary for readers. Failures become a visible placeholder.
func (s Summary) String() string {
	if s.Failed() {
		return fmt.Sprintf("(failed to %s: %s)", s.Step, s.Reason)
	}
	return s.Text
}
