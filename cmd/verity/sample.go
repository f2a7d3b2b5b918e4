package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/verity/pkg/suite"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print a reference suite definition",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(suite.Sample())
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
}
