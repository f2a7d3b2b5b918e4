// Package runner orchestrates scenario execution: it borrows browser
// sessions from the pool, delegates each scenario to the automation agent,
// and reduces the outcomes into a suite report.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/verity/pkg/agent"
	"github.com/entrhq/verity/pkg/browser"
	"github.com/entrhq/verity/pkg/logging"
	"github.com/entrhq/verity/pkg/report"
	"github.com/entrhq/verity/pkg/screenshot"
	"github.com/entrhq/verity/pkg/suite"
	"github.com/entrhq/verity/pkg/triage"
)

const defaultInterTestPause = 2 * time.Second

// Runner executes scenarios against pooled browser sessions.
type Runner struct {
	pool       *browser.Pool
	agent      agent.Agent
	classifier *triage.Classifier
	recoverer  *triage.Recoverer
	store      *screenshot.Store
	logger     logging.Logger

	maxSteps int
	pause    time.Duration

	// sleep is swappable in tests to avoid real delays.
	sleep func(time.Duration)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMaxSteps caps the agent step count per scenario.
func WithMaxSteps(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxSteps = n
		}
	}
}

// WithInterTestPause sets the delay between sequential scenarios.
func WithInterTestPause(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d >= 0 {
			r.pause = d
		}
	}
}

// NewRunner wires the runner's collaborators together. The screenshot store
// may be nil, which disables artifact capture entirely.
func NewRunner(pool *browser.Pool, ag agent.Agent, store *screenshot.Store, logger logging.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Runner{
		pool:       pool,
		agent:      ag,
		classifier: triage.NewClassifier(),
		recoverer:  triage.NewRecoverer(logger),
		store:      store,
		logger:     logger,
		maxSteps:   agent.DefaultMaxSteps,
		pause:      defaultInterTestPause,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOne executes a single scenario. The returned error is non-nil only when
// no browser session could be acquired; every execution-level failure is
// folded into the result instead.
func (r *Runner) RunOne(ctx context.Context, sc *suite.Scenario, headless bool) (report.Result, error) {
	return r.runOne(ctx, sc, headless, "", screenshot.NewExecutionID())
}

func (r *Runner) runOne(ctx context.Context, sc *suite.Scenario, headless bool, globalContext, executionID string) (report.Result, error) {
	started := time.Now()
	res := report.Result{
		ScenarioName: sc.Name,
		Status:       report.StatusRunning,
		StartedAt:    started,
	}

	browserType := "chromium"
	if len(sc.Browsers) > 0 {
		browserType = sc.Browsers[0]
	}

	var viewport *browser.Viewport
	if sc.Viewport != nil {
		viewport = &browser.Viewport{Width: sc.Viewport.Width, Height: sc.Viewport.Height}
	}

	session, err := r.pool.Acquire(ctx, browser.AcquireOptions{
		BrowserType: browserType,
		Headless:    headless,
		Viewport:    viewport,
	})
	if err != nil {
		return res, fmt.Errorf("failed to acquire browser session: %w", err)
	}
	defer r.pool.Release(session.ID)

	res.SessionID = session.ID
	res.BrowserType = session.BrowserType

	r.logger.Info("scenario started", map[string]interface{}{
		"scenario":   sc.Name,
		"session_id": session.ID,
	})

	// Shared between classification and recovery so timeout recovery can
	// scale the effective timeout for the next attempt.
	shared := map[string]interface{}{"timeout": sc.TimeoutDuration().Seconds()}

	agentResult, runErr := r.executeWithRetries(ctx, sc, session, globalContext, executionID, shared, &res)

	res.ExecutionTime = time.Since(started).Seconds()
	res.CompletedAt = time.Now()

	if runErr != nil {
		cerr := r.classifier.Classify(runErr, shared)
		res.Status = report.StatusFailed
		res.Success = false
		res.ErrorMessage = runErr.Error()
		res.Classification = &cerr
		r.captureScreenshot(sc, session, executionID, "error", &res)

		r.logger.Error("scenario failed", map[string]interface{}{
			"scenario":   sc.Name,
			"error":      runErr.Error(),
			"error_code": cerr.ErrorCode,
		})
		return res, nil
	}

	// A completed run without an explicit failure signal counts as passed.
	res.Status = report.StatusCompleted
	res.Success = !agentResult.Failed()
	if agentResult.ErrorMessage != "" {
		res.ErrorMessage = agentResult.ErrorMessage
	}
	if !res.Success {
		res.Status = report.StatusFailed
	}
	for _, step := range agentResult.Steps {
		res.ActionsTaken = append(res.ActionsTaken, describeStep(step))
	}

	r.logger.Info("scenario finished", map[string]interface{}{
		"scenario": sc.Name,
		"success":  res.Success,
		"duration": res.ExecutionTime,
	})
	return res, nil
}

// executeWithRetries runs the scenario body, retrying when classification
// recommends it and recovery succeeds, up to the scenario's retry count.
func (r *Runner) executeWithRetries(ctx context.Context, sc *suite.Scenario, session *browser.Session, globalContext, executionID string, shared map[string]interface{}, res *report.Result) (*agent.Result, error) {
	attempts := sc.RetryCount + 1

	var agentResult *agent.Result
	var runErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		agentResult, runErr = r.executeAttempt(ctx, sc, session, globalContext, executionID, shared, res)
		if runErr == nil || ctx.Err() != nil {
			break
		}

		cerr := r.classifier.Classify(runErr, shared)
		if !cerr.RetryRecommended || attempt == attempts {
			break
		}
		if !r.recoverer.AttemptRecovery(cerr, shared) {
			break
		}

		res.Logs = append(res.Logs, fmt.Sprintf("attempt %d failed (%s), retrying", attempt, cerr.ErrorCode))
		r.logger.Warn("retrying scenario after recovery", map[string]interface{}{
			"scenario":   sc.Name,
			"attempt":    attempt,
			"error_code": cerr.ErrorCode,
		})
	}

	return agentResult, runErr
}

// executeAttempt is one navigate-then-automate pass over the scenario.
func (r *Runner) executeAttempt(ctx context.Context, sc *suite.Scenario, session *browser.Session, globalContext, executionID string, shared map[string]interface{}, res *report.Result) (*agent.Result, error) {
	timeout := sharedTimeout(shared)

	if err := session.Page.Goto(ctx, sc.URL, timeout); err != nil {
		return nil, err
	}
	res.Logs = append(res.Logs, fmt.Sprintf("navigated to %s", sc.URL))

	r.captureScreenshot(sc, session, executionID, "initial", res)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	instruction := BuildInstruction(sc, globalContext)
	agentResult, err := r.agent.Run(runCtx, instruction, session.Page, r.maxSteps)
	if err != nil {
		return nil, err
	}

	r.captureScreenshot(sc, session, executionID, "final", res)
	return agentResult, nil
}

// captureScreenshot is best-effort: a failed capture is logged, never fatal.
func (r *Runner) captureScreenshot(sc *suite.Scenario, session *browser.Session, executionID, step string, res *report.Result) {
	if r.store == nil || !sc.Screenshots() {
		return
	}

	data, err := session.Page.Screenshot(true)
	if err == nil {
		var path string
		path, err = r.store.Save(executionID, fmt.Sprintf("%s_%s", sc.Name, step), data)
		if err == nil {
			res.Screenshots = append(res.Screenshots, path)
			res.ScreenshotPath = path
			return
		}
	}

	r.logger.Warn("screenshot capture failed", map[string]interface{}{
		"scenario": sc.Name,
		"step":     step,
		"error":    err.Error(),
	})
}

// sharedTimeout reads the (possibly recovery-scaled) timeout in seconds.
func sharedTimeout(shared map[string]interface{}) time.Duration {
	if v, ok := shared["timeout"].(float64); ok && v > 0 {
		return time.Duration(v * float64(time.Second))
	}
	return 30 * time.Second
}

func describeStep(step agent.Step) string {
	switch {
	case step.Error != "":
		return fmt.Sprintf("%s failed: %s", step.Action, step.Error)
	case step.URL != "":
		return fmt.Sprintf("%s %s", step.Action, step.URL)
	case step.Selector != "":
		return fmt.Sprintf("%s %s", step.Action, step.Selector)
	default:
		return step.Action
	}
}
