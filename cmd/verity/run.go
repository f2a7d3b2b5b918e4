package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/entrhq/verity/pkg/config"
	"github.com/entrhq/verity/pkg/report"
	"github.com/entrhq/verity/pkg/runner"
	"github.com/entrhq/verity/pkg/suite"
)

var (
	runHeadful      bool
	runMaxParallel  int
	runNoPrereqs    bool
	runProvider     string
	runReportOutput string
)

var runCmd = &cobra.Command{
	Use:   "run <suite.yaml>",
	Short: "Execute a test suite",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuite,
}

func init() {
	runCmd.Flags().BoolVar(&runHeadful, "headful", false, "run browsers with a visible window")
	runCmd.Flags().IntVar(&runMaxParallel, "max-parallel", 0, "max concurrent scenarios (default from suite)")
	runCmd.Flags().BoolVar(&runNoPrereqs, "ignore-prerequisites", false, "run scenarios strictly in file order")
	runCmd.Flags().StringVar(&runProvider, "provider", "", "LLM provider override (openai|gemini|ollama|mistral)")
	runCmd.Flags().StringVarP(&runReportOutput, "output", "o", "", "write the JSON report to this path")
	rootCmd.AddCommand(runCmd)
}

func runSuite(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if runProvider != "" {
		cfg.LLM.Provider = runProvider
	}

	parser := suite.NewParser(nil)
	s, err := parser.ParseFile(args[0])
	if err != nil {
		return err
	}
	if s.Provider != "" && runProvider == "" {
		cfg.LLM.Provider = s.Provider
	}

	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	// Ctrl-C aborts the in-flight suite cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	headless := s.RunHeadless() && cfg.Run.Headless
	if runHeadful {
		headless = false
	}

	rep, err := rt.runner.RunSuite(ctx, s, runner.RunOptions{
		Headless:             headless,
		MaxParallel:          runMaxParallel,
		RespectPrerequisites: !runNoPrereqs,
	})
	if err != nil {
		return err
	}

	printSummary(rep)

	if err := writeReport(cfg, rep); err != nil {
		return err
	}

	if rep.Failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", rep.Failed, rep.Total)
	}
	return nil
}

func printSummary(rep report.Report) {
	fmt.Println()
	color.White("Suite: %s", rep.SuiteName)
	color.White("Execution: %s", rep.ExecutionID)
	fmt.Println()

	for _, res := range rep.Results {
		switch {
		case res.Status == report.StatusSkipped:
			color.Yellow("- %s (skipped)", res.ScenarioName)
		case res.Success:
			color.Green("✓ %s (%.1fs)", res.ScenarioName, res.ExecutionTime)
		default:
			color.Red("✗ %s (%.1fs)", res.ScenarioName, res.ExecutionTime)
			if res.ErrorMessage != "" {
				color.Red("  %s", res.ErrorMessage)
			}
			if res.Classification != nil {
				color.Yellow("  hint: %s", res.Classification.SuggestedFix)
			}
		}
	}

	fmt.Println()
	if rep.Failed == 0 {
		color.Green("%d/%d passed (%.1f%%) in %.1fs", rep.Passed, rep.Total, rep.SuccessRate, rep.ExecutionTime)
	} else {
		color.Red("%d/%d passed (%.1f%%) in %.1fs", rep.Passed, rep.Total, rep.SuccessRate, rep.ExecutionTime)
	}
}

func writeReport(cfg *config.Config, rep report.Report) error {
	path := runReportOutput
	if path == "" {
		if err := os.MkdirAll(cfg.Run.ReportDir, 0o750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		path = filepath.Join(cfg.Run.ReportDir, fmt.Sprintf("report_%s.json", time.Now().Format("20060102_150405")))
	}

	if err := report.SaveJSON(path, rep); err != nil {
		return err
	}

	mdPath := path[:len(path)-len(filepath.Ext(path))] + ".md"
	if err := os.WriteFile(mdPath, []byte(report.RenderMarkdown(rep)), 0o600); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}

	fmt.Printf("\nReports written to %s and %s\n", path, mdPath)
	return nil
}
