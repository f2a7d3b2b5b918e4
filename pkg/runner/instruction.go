package runner

import (
	"fmt"
	"strings"

	"github.com/entrhq/verity/pkg/suite"
)

// BuildInstruction flattens a scenario into the single natural-language task
// handed to the automation agent.
func BuildInstruction(sc *suite.Scenario, globalContext string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Test requirement: %s\n", sc.Requirement)

	if globalContext != "" {
		fmt.Fprintf(&b, "\nSuite context: %s\n", globalContext)
	}
	if sc.Context != "" {
		fmt.Fprintf(&b, "\nAdditional context: %s\n", sc.Context)
	}

	if len(sc.Steps) > 0 {
		b.WriteString("\nFollow these steps:\n")
		for i, step := range sc.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}

	if len(sc.ExpectedOutcomes) > 0 {
		b.WriteString("\nVerify these expected outcomes:\n")
		for _, outcome := range sc.ExpectedOutcomes {
			fmt.Fprintf(&b, "- %s\n", outcome)
		}
	}

	if sc.Screenshots() {
		b.WriteString("\nTake note of important page states for the visual record.\n")
	}

	if focus := testTypeFocus(sc.TestType); focus != "" {
		fmt.Fprintf(&b, "\n%s\n", focus)
	}

	return b.String()
}

func testTypeFocus(t suite.TestType) string {
	switch t {
	case suite.TestTypeUI:
		return "Focus on visual elements, layout, and user interface behavior."
	case suite.TestTypeIntegration:
		return "Focus on end-to-end flows across pages and services."
	case suite.TestTypeAccessibility:
		return "Focus on accessibility: labels, keyboard navigation, contrast, and ARIA attributes."
	case suite.TestTypePerformance:
		return "Focus on page load behavior and responsiveness of interactions."
	case suite.TestTypeFunctional:
		return "Focus on functional correctness of the described behavior."
	}
	return ""
}
