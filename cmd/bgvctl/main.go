// Command bgvctl runs the comparison engine offline against JSON fixtures.
// It needs no database and is meant for tuning thresholds and explaining
// a classification to operations staff.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow, color.Bold)
	colorCyan   = color.New(color.FgCyan)
	colorFaint  = color.New(color.Faint)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bgvctl",
		Short: "Background verification engine tooling",
		Long: `bgvctl runs the comparison, risk-scoring and zone-classification engine
locally.

Examples:
  # classify a fixture with the default thresholds
  bgvctl classify fixtures/salary-mismatch.json

  # classify with threshold overrides and print raw JSON
  bgvctl classify --thresholds engine.yaml --json fixtures/*.json

  # list the client instruction catalog
  bgvctl rules`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("no-color", false, "disable colored output")
	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if off, _ := cmd.Flags().GetBool("no-color"); off {
			color.NoColor = true
		}
	}
	root.AddCommand(newClassifyCmd(), newRulesCmd(), newThresholdsCmd())
	return root
}
