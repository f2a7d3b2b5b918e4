package runner

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/verity/pkg/agent"
	"github.com/entrhq/verity/pkg/report"
	"github.com/entrhq/verity/pkg/suite"
)

func testSuite(scenarios ...suite.Scenario) *suite.Suite {
	return &suite.Suite{
		Name:      "scheduling",
		Scenarios: scenarios,
	}
}

// executedNames maps the tasks the agent saw back to scenario names. Tasks
// embed the requirement, which the test scenarios set to the scenario name.
func executedNames(rig *testRig) []string {
	var names []string
	for _, task := range rig.agent.tasks() {
		for _, line := range strings.Split(task, "\n") {
			if strings.HasPrefix(line, "Test requirement: ") {
				names = append(names, strings.TrimPrefix(line, "Test requirement: "))
			}
		}
	}
	return names
}

func resultFor(t *testing.T, rep report.Report, name string) report.Result {
	t.Helper()
	for _, res := range rep.Results {
		if res.ScenarioName == name {
			return res
		}
	}
	t.Fatalf("no result for scenario %q", name)
	return report.Result{}
}

func TestRunSuite_SequentialOrderAndPause(t *testing.T) {
	rig := newTestRig(t)

	var pauses int
	rig.runner.sleep = func(time.Duration) { pauses++ }

	s := testSuite(scenario("first"), scenario("second"), scenario("third"))
	rep, err := rig.runner.RunSuite(context.Background(), s, RunOptions{Headless: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, executedNames(rig))
	assert.Equal(t, 2, pauses)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 3, rep.Passed)
	assert.Equal(t, 100.0, rep.SuccessRate)
}

func TestRunSuite_PrerequisiteOrdering(t *testing.T) {
	rig := newTestRig(t)

	// Input order C, A, B; dependencies force A, B, C.
	s := testSuite(
		scenario("C", func(sc *suite.Scenario) { sc.Prerequisites = []string{"B"} }),
		scenario("A"),
		scenario("B", func(sc *suite.Scenario) { sc.Prerequisites = []string{"A"} }),
	)

	rep, err := rig.runner.RunSuite(context.Background(), s, RunOptions{
		Headless:             true,
		RespectPrerequisites: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, executedNames(rig))
	assert.Equal(t, 3, rep.Total)
}

func TestRunSuite_FailureStillSatisfiesPrerequisite(t *testing.T) {
	rig := newTestRig(t)
	rig.agent.run = func(task string) (*agent.Result, error) {
		if strings.Contains(task, "Test requirement: A") {
			return nil, errors.New("Navigation failed")
		}
		return &agent.Result{}, nil
	}

	s := testSuite(
		scenario("A"),
		scenario("B", func(sc *suite.Scenario) { sc.Prerequisites = []string{"A"} }),
	)

	rep, err := rig.runner.RunSuite(context.Background(), s, RunOptions{
		Headless:             true,
		RespectPrerequisites: true,
	})
	require.NoError(t, err)

	// B still ran: completion, not success, satisfies the dependency.
	assert.Equal(t, []string{"A", "B"}, executedNames(rig))
	assert.False(t, resultFor(t, rep, "A").Success)
	assert.True(t, resultFor(t, rep, "B").Success)
}

func TestRunSuite_DependencyCycleTerminates(t *testing.T) {
	rig := newTestRig(t)

	s := testSuite(
		scenario("A", func(sc *suite.Scenario) { sc.Prerequisites = []string{"B"} }),
		scenario("B", func(sc *suite.Scenario) { sc.Prerequisites = []string{"A"} }),
	)

	rep, err := rig.runner.RunSuite(context.Background(), s, RunOptions{
		Headless:             true,
		RespectPrerequisites: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Total)
	assert.Len(t, rep.Results, 2)
	assert.True(t, rig.logger.HasMessage("no runnable scenarios; forcing execution despite unmet prerequisites"))
}

func TestRunSuite_ParallelFailureIsolation(t *testing.T) {
	rig := newTestRig(t)
	rig.agent.run = func(task string) (*agent.Result, error) {
		if strings.Contains(task, "Test requirement: two") {
			return nil, errors.New("Evaluation failed: boom")
		}
		return &agent.Result{}, nil
	}

	parallel := func(sc *suite.Scenario) { sc.Parallel = true }
	s := testSuite(
		scenario("one", parallel),
		scenario("two", parallel),
		scenario("three", parallel),
	)

	rep, err := rig.runner.RunSuite(context.Background(), s, RunOptions{
		Headless:    true,
		MaxParallel: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Total)
	assert.True(t, resultFor(t, rep, "one").Success)
	assert.True(t, resultFor(t, rep, "three").Success)

	two := resultFor(t, rep, "two")
	assert.False(t, two.Success)
	assert.NotEmpty(t, two.ErrorMessage)
}

func TestRunSuite_ParallelThenSequentialRemainder(t *testing.T) {
	rig := newTestRig(t)

	s := testSuite(
		scenario("par-1", func(sc *suite.Scenario) { sc.Parallel = true }),
		scenario("par-2", func(sc *suite.Scenario) { sc.Parallel = true }),
		scenario("seq-1"),
		scenario("seq-2", func(sc *suite.Scenario) { sc.Prerequisites = []string{"par-1"} }),
	)

	rep, err := rig.runner.RunSuite(context.Background(), s, RunOptions{
		Headless:    true,
		MaxParallel: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, rep.Total)
	assert.Equal(t, rep.Total, rep.Passed+rep.Failed+rep.Skipped)
	assert.Len(t, rep.Results, 4)

	// The sequential remainder runs after the parallel batches.
	names := executedNames(rig)
	require.Len(t, names, 4)
	assert.ElementsMatch(t, []string{"par-1", "par-2"}, names[:2])
	assert.ElementsMatch(t, []string{"seq-1", "seq-2"}, names[2:])
}

func TestRunSuite_MaxParallelFromSuiteConfig(t *testing.T) {
	rig := newTestRig(t)

	s := testSuite(
		scenario("a", func(sc *suite.Scenario) { sc.Parallel = true }),
		scenario("b", func(sc *suite.Scenario) { sc.Parallel = true }),
	)
	s.GlobalConfig = &suite.GlobalConfig{MaxParallelTests: 2}

	rep, err := rig.runner.RunSuite(context.Background(), s, RunOptions{Headless: true})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Total)
}

func TestRunSuite_AcquireFailureAbortsSuite(t *testing.T) {
	rig := newTestRig(t)
	rig.engine.launchErr = errors.New("no display")

	s := testSuite(scenario("a"), scenario("b"))
	_, err := rig.runner.RunSuite(context.Background(), s, RunOptions{Headless: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to acquire browser session")
}

func TestRunSuite_WritesExecutionMetadata(t *testing.T) {
	rig := newTestRig(t)

	s := testSuite(scenario("a"))
	rep, err := rig.runner.RunSuite(context.Background(), s, RunOptions{
		Headless:    true,
		ExecutionID: "exec-meta",
	})
	require.NoError(t, err)

	assert.Equal(t, "exec-meta", rep.ExecutionID)
	assert.FileExists(t, filepath.Join(rig.store.BasePath(), "exec-meta", "metadata.json"))
}

func TestRunSuite_GlobalContextReachesAgent(t *testing.T) {
	rig := newTestRig(t)

	s := testSuite(scenario("a"))
	s.GlobalContext = "all logins use the seeded test account"

	_, err := rig.runner.RunSuite(context.Background(), s, RunOptions{Headless: true})
	require.NoError(t, err)

	tasks := rig.agent.tasks()
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0], "Suite context: all logins use the seeded test account")
}
