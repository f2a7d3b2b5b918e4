package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/entrhq/verity/pkg/agent"
	"github.com/entrhq/verity/pkg/browser"
	"github.com/entrhq/verity/pkg/config"
	"github.com/entrhq/verity/pkg/llm"
	"github.com/entrhq/verity/pkg/logging"
	"github.com/entrhq/verity/pkg/runner"
	"github.com/entrhq/verity/pkg/screenshot"
)

var (
	// Version information, injected at build time.
	Version = "dev"
	Commit  = "none"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:     "verity",
		Short:   "AI-driven browser test suite runner",
		Long:    "Verity executes natural-language browser test suites with an LLM-driven automation agent over pooled Playwright sessions.",
		Version: fmt.Sprintf("%s (%s)", Version, Commit),
	}
)

func init() {
	// Credentials commonly live in a local .env during development.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
}

// runtime bundles everything a suite execution needs, with a single cleanup.
type runtime struct {
	cfg    *config.Config
	logger logging.Logger
	pool   *browser.Pool
	runner *runner.Runner
	store  *screenshot.Store
}

func (rt *runtime) close() {
	rt.pool.Shutdown()
}

// buildRuntime assembles the execution stack from configuration.
func buildRuntime(cfg *config.Config) (*runtime, error) {
	logger := logging.New(cfg.Log.Level)

	client, err := llm.NewClient(llm.Provider(cfg.LLM.Provider),
		llm.WithModel(cfg.LLM.Model),
		llm.WithBaseURL(cfg.LLM.BaseURL),
	)
	if err != nil {
		return nil, err
	}

	engine, err := browser.NewPlaywrightEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to start browser engine: %w", err)
	}

	pool := browser.NewPool(engine, logger,
		browser.WithMaxSessions(cfg.Pool.MaxSessions),
		browser.WithSessionTimeout(cfg.Pool.SessionTimeout),
		browser.WithSweepInterval(cfg.Pool.SweepInterval),
	)

	store, err := screenshot.NewStore(cfg.Run.ScreenshotDir, logger)
	if err != nil {
		pool.Shutdown()
		return nil, err
	}

	ag := agent.New(client, logger, agent.WithActionTimeout(cfg.Agent.ActionTimeout))

	r := runner.NewRunner(pool, ag, store, logger,
		runner.WithMaxSteps(cfg.Agent.MaxSteps),
		runner.WithInterTestPause(cfg.Run.InterTestPause),
	)

	return &runtime{cfg: cfg, logger: logger, pool: pool, runner: r, store: store}, nil
}
