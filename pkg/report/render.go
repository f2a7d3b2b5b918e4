package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// RenderMarkdown renders the report as a markdown document: a summary block
// followed by one section per scenario in result order.
func RenderMarkdown(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Test Report: %s\n\n", r.SuiteName)
	fmt.Fprintf(&b, "- **Total:** %d\n", r.Total)
	fmt.Fprintf(&b, "- **Passed:** %d\n", r.Passed)
	fmt.Fprintf(&b, "- **Failed:** %d\n", r.Failed)
	fmt.Fprintf(&b, "- **Skipped:** %d\n", r.Skipped)
	fmt.Fprintf(&b, "- **Success rate:** %.1f%%\n", r.SuccessRate)
	fmt.Fprintf(&b, "- **Execution time:** %.1fs\n", r.ExecutionTime)
	fmt.Fprintf(&b, "- **Started:** %s\n\n", r.StartedAt.Format("2006-01-02 15:04:05"))

	for _, res := range r.Results {
		fmt.Fprintf(&b, "## %s %s\n\n", statusSymbol(res), res.ScenarioName)
		fmt.Fprintf(&b, "- Status: %s\n", res.Status)
		fmt.Fprintf(&b, "- Duration: %.1fs\n", res.ExecutionTime)

		if res.ErrorMessage != "" {
			fmt.Fprintf(&b, "- Error: %s\n", res.ErrorMessage)
		}
		if res.Classification != nil {
			fmt.Fprintf(&b, "- Diagnosis: %s (%s): %s\n",
				res.Classification.Category, res.Classification.ErrorCode, res.Classification.SuggestedFix)
		}
		if res.ScreenshotPath != "" {
			fmt.Fprintf(&b, "- Screenshot: %s\n", res.ScreenshotPath)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func statusSymbol(res Result) string {
	switch {
	case res.Status == StatusSkipped:
		return "⏭"
	case res.Success:
		return "✅"
	default:
		return "❌"
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// SaveJSON writes the report to a file.
func SaveJSON(path string, r Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	return WriteJSON(f, r)
}
