// Package suite defines the YAML test-suite schema and its parser.
//
// A suite is a named collection of natural-language browser test scenarios.
// Scenarios are immutable once execution starts; the parser resolves
// relative URLs and fills defaults so downstream code never re-checks them.
package suite

import (
	"fmt"
	"time"
)

// TestType categorizes what a scenario focuses on.
type TestType string

const (
	TestTypeFunctional    TestType = "functional"
	TestTypeUI            TestType = "ui"
	TestTypeIntegration   TestType = "integration"
	TestTypeAccessibility TestType = "accessibility"
	TestTypePerformance   TestType = "performance"
)

// Valid reports whether the test type is one of the known values.
func (t TestType) Valid() bool {
	switch t {
	case TestTypeFunctional, TestTypeUI, TestTypeIntegration, TestTypeAccessibility, TestTypePerformance:
		return true
	}
	return false
}

// Viewport is the browser window size for a scenario.
type Viewport struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// DataSource points at external test data.
type DataSource struct {
	Type   string `yaml:"type" json:"type"`
	Source string `yaml:"source" json:"source"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// Scenario is one unit of test intent.
type Scenario struct {
	Name             string            `yaml:"name" json:"name"`
	Requirement      string            `yaml:"requirement" json:"requirement"`
	URL              string            `yaml:"url" json:"url"`
	TestType         TestType          `yaml:"test_type" json:"test_type"`
	Context          string            `yaml:"context,omitempty" json:"context,omitempty"`
	Steps            []string          `yaml:"steps,omitempty" json:"steps,omitempty"`
	ExpectedOutcomes []string          `yaml:"expected_outcomes,omitempty" json:"expected_outcomes,omitempty"`
	TakeScreenshots  *bool             `yaml:"take_screenshots,omitempty" json:"take_screenshots,omitempty"`
	Timeout          int               `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	RetryCount       int               `yaml:"retry_count,omitempty" json:"retry_count,omitempty"`
	Prerequisites    []string          `yaml:"prerequisites,omitempty" json:"prerequisites,omitempty"`
	Parallel         bool              `yaml:"parallel,omitempty" json:"parallel,omitempty"`
	Browsers         []string          `yaml:"browsers,omitempty" json:"browsers,omitempty"`
	Tags             []string          `yaml:"tags,omitempty" json:"tags,omitempty"`
	Viewport         *Viewport         `yaml:"viewport,omitempty" json:"viewport,omitempty"`
	EnvironmentVars  map[string]string `yaml:"environment_variables,omitempty" json:"environment_variables,omitempty"`
	DataSources      []DataSource      `yaml:"data_sources,omitempty" json:"data_sources,omitempty"`
	WaitConditions   []string          `yaml:"wait_conditions,omitempty" json:"wait_conditions,omitempty"`
	CleanupActions   []string          `yaml:"cleanup_actions,omitempty" json:"cleanup_actions,omitempty"`
}

// Screenshots reports whether the scenario wants screenshots (default true).
func (s *Scenario) Screenshots() bool {
	if s.TakeScreenshots == nil {
		return true
	}
	return *s.TakeScreenshots
}

// TimeoutDuration returns the scenario timeout as a duration, falling back
// to 30s when unset.
func (s *Scenario) TimeoutDuration() time.Duration {
	if s.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

// GlobalConfig carries suite-wide execution settings.
type GlobalConfig struct {
	MaxParallelTests  int               `yaml:"max_parallel_tests,omitempty" json:"max_parallel_tests,omitempty"`
	DefaultTimeout    int               `yaml:"default_timeout,omitempty" json:"default_timeout,omitempty"`
	DefaultRetryCount int               `yaml:"default_retry_count,omitempty" json:"default_retry_count,omitempty"`
	DefaultViewport   *Viewport         `yaml:"default_viewport,omitempty" json:"default_viewport,omitempty"`
	SetupScripts      []string          `yaml:"setup_scripts,omitempty" json:"setup_scripts,omitempty"`
	TeardownScripts   []string          `yaml:"teardown_scripts,omitempty" json:"teardown_scripts,omitempty"`
	EnvironmentVars   map[string]string `yaml:"environment_variables,omitempty" json:"environment_variables,omitempty"`
}

// Suite is a complete test-suite definition.
type Suite struct {
	Name          string        `yaml:"name" json:"name"`
	Description   string        `yaml:"description,omitempty" json:"description,omitempty"`
	Version       string        `yaml:"version,omitempty" json:"version,omitempty"`
	Provider      string        `yaml:"provider,omitempty" json:"provider,omitempty"`
	Headless      *bool         `yaml:"headless,omitempty" json:"headless,omitempty"`
	BaseURL       string        `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	GlobalContext string        `yaml:"global_context,omitempty" json:"global_context,omitempty"`
	GlobalTimeout int           `yaml:"global_timeout,omitempty" json:"global_timeout,omitempty"`
	GlobalConfig  *GlobalConfig `yaml:"global_config,omitempty" json:"global_config,omitempty"`
	Scenarios     []Scenario    `yaml:"scenarios" json:"scenarios"`
}

// RunHeadless reports whether browsers should run headless (default true).
func (s *Suite) RunHeadless() bool {
	if s.Headless == nil {
		return true
	}
	return *s.Headless
}

// MaxParallel returns the configured parallelism bound, defaulting to 1.
func (s *Suite) MaxParallel() int {
	if s.GlobalConfig == nil || s.GlobalConfig.MaxParallelTests <= 0 {
		return 1
	}
	return s.GlobalConfig.MaxParallelTests
}

// Validate checks structural invariants after parsing.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("suite name is required")
	}
	if len(s.Scenarios) == 0 {
		return fmt.Errorf("at least one scenario is required")
	}

	seen := make(map[string]bool, len(s.Scenarios))
	for i := range s.Scenarios {
		sc := &s.Scenarios[i]
		if sc.Name == "" {
			return fmt.Errorf("scenario %d: name is required", i)
		}
		if seen[sc.Name] {
			return fmt.Errorf("scenario %q: duplicate name", sc.Name)
		}
		seen[sc.Name] = true

		if sc.Requirement == "" {
			return fmt.Errorf("scenario %q: requirement is required", sc.Name)
		}
		if !isAbsoluteURL(sc.URL) {
			return fmt.Errorf("scenario %q: url must start with http:// or https:// (got %q)", sc.Name, sc.URL)
		}
		if sc.TestType != "" && !sc.TestType.Valid() {
			return fmt.Errorf("scenario %q: unknown test_type %q", sc.Name, sc.TestType)
		}
	}

	return nil
}
