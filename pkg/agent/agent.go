// Package agent drives a browser page from natural-language test
// instructions. The agent converses with an LLM that replies with one JSON
// action per turn; each action is executed against the page and its outcome
// fed back, until the model declares the task done or the step cap is hit.
package agent

import (
	"context"

	"github.com/entrhq/verity/pkg/browser"
)

// Step records one executed action.
type Step struct {
	Action   string `json:"action"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
	URL      string `json:"url,omitempty"`
	Note     string `json:"note,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Result is what a completed agent run reports back. Success is nil when the
// model finished without an explicit verdict; the caller decides what that
// means.
type Result struct {
	Steps        []Step
	Success      *bool
	ErrorMessage string
	FinalMessage string
}

// Failed reports whether the run carries an explicit failure signal.
func (r *Result) Failed() bool {
	return (r.Success != nil && !*r.Success) || r.ErrorMessage != ""
}

// Agent executes a natural-language task against a browser page.
type Agent interface {
	// Run performs the task, bounded by maxSteps actions. Errors are
	// returned only when the run could not proceed at all; action-level
	// failures are folded into the Result.
	Run(ctx context.Context, task string, page browser.Page, maxSteps int) (*Result, error)
}
