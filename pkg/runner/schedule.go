package runner

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/verity/pkg/report"
	"github.com/entrhq/verity/pkg/screenshot"
	"github.com/entrhq/verity/pkg/suite"
)

// RunOptions selects the scheduling behavior for a suite run.
type RunOptions struct {
	Headless             bool
	MaxParallel          int
	RespectPrerequisites bool
	ExecutionID          string
}

// RunSuite executes every scenario in the suite and returns the aggregated
// report. Scenario failures never abort the run; only a failure to acquire
// browser resources (or caller cancellation) does.
func (r *Runner) RunSuite(ctx context.Context, s *suite.Suite, opts RunOptions) (report.Report, error) {
	started := time.Now()

	if opts.MaxParallel <= 0 {
		opts.MaxParallel = s.MaxParallel()
	}
	if opts.ExecutionID == "" {
		opts.ExecutionID = screenshot.NewExecutionID()
	}

	r.logger.Info("suite started", map[string]interface{}{
		"suite":        s.Name,
		"scenarios":    len(s.Scenarios),
		"max_parallel": opts.MaxParallel,
		"execution_id": opts.ExecutionID,
	})

	scenarios := make([]*suite.Scenario, len(s.Scenarios))
	for i := range s.Scenarios {
		scenarios[i] = &s.Scenarios[i]
	}

	var results []report.Result
	var err error

	switch {
	case opts.MaxParallel > 1:
		results, err = r.runParallel(ctx, scenarios, s.GlobalContext, opts)
	case opts.RespectPrerequisites:
		results, err = r.runWithPrerequisites(ctx, scenarios, s.GlobalContext, opts, make(map[string]bool))
	default:
		results, err = r.runSequential(ctx, scenarios, s.GlobalContext, opts)
	}
	if err != nil {
		return report.Report{}, err
	}

	rep := report.Aggregate(s.Name, results, started)
	rep.ExecutionID = opts.ExecutionID

	if r.store != nil {
		if metaErr := r.store.SaveMetadata(opts.ExecutionID, map[string]interface{}{
			"suite_name":   s.Name,
			"total":        rep.Total,
			"passed":       rep.Passed,
			"failed":       rep.Failed,
			"success_rate": rep.SuccessRate,
			"started_at":   rep.StartedAt,
		}); metaErr != nil {
			r.logger.Warn("failed to save execution metadata", map[string]interface{}{"error": metaErr.Error()})
		}
	}

	r.logger.Info("suite finished", map[string]interface{}{
		"suite":        s.Name,
		"passed":       rep.Passed,
		"failed":       rep.Failed,
		"success_rate": rep.SuccessRate,
	})
	return rep, nil
}

// runSequential runs scenarios strictly in input order with a pause between
// them so targets are not hammered.
func (r *Runner) runSequential(ctx context.Context, scenarios []*suite.Scenario, globalContext string, opts RunOptions) ([]report.Result, error) {
	results := make([]report.Result, 0, len(scenarios))

	for i, sc := range scenarios {
		if i > 0 {
			r.sleep(r.pause)
		}
		res, err := r.runOne(ctx, sc, opts.Headless, globalContext, opts.ExecutionID)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, nil
}

// runWithPrerequisites repeatedly runs every scenario whose prerequisites
// have all completed. Completion, not success, satisfies a dependency. When
// nothing is runnable (a cycle or a missing dependency) the remaining
// scenarios are force-run anyway so the suite always terminates.
func (r *Runner) runWithPrerequisites(ctx context.Context, scenarios []*suite.Scenario, globalContext string, opts RunOptions, completed map[string]bool) ([]report.Result, error) {
	remaining := append([]*suite.Scenario(nil), scenarios...)
	results := make([]report.Result, 0, len(scenarios))

	for len(remaining) > 0 {
		var runnable, blocked []*suite.Scenario
		for _, sc := range remaining {
			if prerequisitesMet(sc, completed) {
				runnable = append(runnable, sc)
			} else {
				blocked = append(blocked, sc)
			}
		}

		if len(runnable) == 0 {
			names := make([]string, 0, len(blocked))
			for _, sc := range blocked {
				names = append(names, sc.Name)
			}
			r.logger.Warn("no runnable scenarios; forcing execution despite unmet prerequisites", map[string]interface{}{
				"scenarios": names,
			})
			runnable = blocked
			blocked = nil
		}

		for _, sc := range runnable {
			if len(results) > 0 {
				r.sleep(r.pause)
			}
			res, err := r.runOne(ctx, sc, opts.Headless, globalContext, opts.ExecutionID)
			if err != nil {
				return nil, err
			}
			results = append(results, res)
			completed[sc.Name] = true
		}

		remaining = blocked
	}

	return results, nil
}

// runParallel runs the parallel-eligible scenarios in bounded concurrent
// batches, then the rest through the prerequisite-aware path. One scenario's
// failure never disturbs its batch mates; only session acquisition errors
// abort the run.
func (r *Runner) runParallel(ctx context.Context, scenarios []*suite.Scenario, globalContext string, opts RunOptions) ([]report.Result, error) {
	var eligible, rest []*suite.Scenario
	for _, sc := range scenarios {
		if sc.Parallel {
			eligible = append(eligible, sc)
		} else {
			rest = append(rest, sc)
		}
	}

	results := make([]report.Result, 0, len(scenarios))
	completed := make(map[string]bool)

	for start := 0; start < len(eligible); start += opts.MaxParallel {
		end := start + opts.MaxParallel
		if end > len(eligible) {
			end = len(eligible)
		}
		batch := eligible[start:end]
		batchResults := make([]report.Result, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, sc := range batch {
			i, sc := i, sc
			g.Go(func() error {
				res, err := r.runOne(gctx, sc, opts.Headless, globalContext, opts.ExecutionID)
				if err != nil {
					return err
				}
				batchResults[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for _, res := range batchResults {
			results = append(results, res)
			completed[res.ScenarioName] = true
		}
	}

	if len(rest) > 0 {
		restResults, err := r.runWithPrerequisites(ctx, rest, globalContext, opts, completed)
		if err != nil {
			return nil, err
		}
		results = append(results, restResults...)
	}

	return results, nil
}

func prerequisitesMet(sc *suite.Scenario, completed map[string]bool) bool {
	for _, dep := range sc.Prerequisites {
		if !completed[dep] {
			return false
		}
	}
	return true
}
