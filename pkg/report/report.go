// Package report defines the per-scenario result model and the suite-level
// aggregation over it.
package report

import (
	"math"
	"time"

	"github.com/entrhq/verity/pkg/triage"
)

// Status describes where a scenario is in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result is the outcome of running one scenario. It is finalized when the
// scenario finishes and never mutated afterwards.
type Result struct {
	ScenarioName   string                  `json:"scenario_name"`
	Status         Status                  `json:"status"`
	Success        bool                    `json:"success"`
	ExecutionTime  float64                 `json:"execution_time"`
	ErrorMessage   string                  `json:"error_message,omitempty"`
	Classification *triage.ClassifiedError `json:"classification,omitempty"`
	ScreenshotPath string                  `json:"screenshot_path,omitempty"`
	Screenshots    []string                `json:"screenshots,omitempty"`
	Logs           []string                `json:"logs,omitempty"`
	ActionsTaken   []string                `json:"actions_taken,omitempty"`
	BrowserType    string                  `json:"browser_type,omitempty"`
	SessionID      string                  `json:"session_id,omitempty"`
	StartedAt      time.Time               `json:"started_at"`
	CompletedAt    time.Time               `json:"completed_at"`
}

// Report aggregates the results of one suite execution.
type Report struct {
	SuiteName     string    `json:"suite_name"`
	ExecutionID   string    `json:"execution_id,omitempty"`
	Total         int       `json:"total"`
	Passed        int       `json:"passed"`
	Failed        int       `json:"failed"`
	Skipped       int       `json:"skipped"`
	SuccessRate   float64   `json:"success_rate"`
	ExecutionTime float64   `json:"execution_time"`
	Results       []Result  `json:"results"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Aggregate reduces results into a Report. Pure aside from reading the
// clock for completed_at; persistence is the caller's responsibility.
func Aggregate(suiteName string, results []Result, startedAt time.Time) Report {
	completedAt := time.Now()

	r := Report{
		SuiteName:   suiteName,
		Total:       len(results),
		Results:     results,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
	}

	for _, res := range results {
		switch {
		case res.Status == StatusSkipped:
			r.Skipped++
		case res.Success:
			r.Passed++
		default:
			r.Failed++
		}
	}

	if r.Total > 0 {
		r.SuccessRate = round1(float64(r.Passed) / float64(r.Total) * 100)
	}
	r.ExecutionTime = round1(completedAt.Sub(startedAt).Seconds())

	return r
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
