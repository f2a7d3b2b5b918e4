package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/entrhq/verity/pkg/suite"
)

var validateCmd = &cobra.Command{
	Use:   "validate <suite.yaml>",
	Short: "Check a suite definition without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := suite.NewParser(nil).ParseFile(args[0])
		if err != nil {
			color.Red("✗ %s", err)
			return fmt.Errorf("suite is invalid")
		}

		color.Green("✓ %s is valid", args[0])
		fmt.Printf("  suite: %s (%d scenarios)\n", s.Name, len(s.Scenarios))
		for i := range s.Scenarios {
			sc := &s.Scenarios[i]
			line := fmt.Sprintf("  - %s [%s]", sc.Name, sc.TestType)
			if len(sc.Prerequisites) > 0 {
				line += fmt.Sprintf(" (after %v)", sc.Prerequisites)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
