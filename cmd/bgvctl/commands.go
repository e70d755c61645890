package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"bgv/internal/comparison"
	"bgv/internal/comparison/models"
	"bgv/internal/comparison/rules"
)

type fixturePolicy struct {
	SKU                 models.SKU `json:"sku"`
	SpecialInstructions []string   `json:"specialInstructions"`
}

// fixture is the on-disk classification input. Field names match the HTTP API.
type fixture struct {
	CheckType    models.CheckType   `json:"checkType"`
	ClaimedData  models.FieldMap    `json:"claimedData"`
	VerifiedData models.FieldMap    `json:"verifiedData"`
	ClientPolicy fixturePolicy      `json:"clientPolicy"`
	Context      rules.Context      `json:"context"`
	AIAnalysis   *models.AIAnalysis `json:"aiAnalysis"`
}

func loadFixture(path string) (fixture, error) {
	var f fixture
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	if f.CheckType == "" {
		f.CheckType = models.CheckTypeEmployment
	}
	if f.ClientPolicy.SKU == "" {
		f.ClientPolicy.SKU = models.SKUStandard
	}
	return f, nil
}

func loadEngine(path string) (*comparison.Engine, error) {
	if path == "" {
		return comparison.New(), nil
	}
	t, err := comparison.LoadThresholds(path)
	if err != nil {
		return nil, err
	}
	return comparison.New(comparison.WithThresholds(t)), nil
}

func newClassifyCmd() *cobra.Command {
	var thresholdsPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify FIXTURE...",
		Short: "Classify one or more JSON fixtures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine(thresholdsPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, path := range args {
				f, err := loadFixture(path)
				if err != nil {
					return err
				}
				outcome, err := classifyFixture(engine, f)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(outcome.Result); err != nil {
						return err
					}
					continue
				}
				printOutcome(out, path, outcome)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&thresholdsPath, "thresholds", "", "YAML file overriding engine thresholds")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw ComparisonResult")
	return cmd
}

func classifyFixture(engine *comparison.Engine, f fixture) (comparison.Outcome, error) {
	policy, err := rules.ParseInstructions(f.ClientPolicy.SpecialInstructions)
	if err != nil {
		return comparison.Outcome{}, err
	}
	if open, apps := engine.Gate(policy, f.Context); !open {
		var failing []string
		for _, app := range apps {
			if !app.Passed {
				failing = append(failing, app.Name)
			}
		}
		return comparison.Outcome{}, fmt.Errorf("gated by client policy: %s", strings.Join(failing, ", "))
	}
	return engine.Compare(comparison.Request{
		CheckType: f.CheckType,
		Claimed:   f.ClaimedData,
		Verified:  f.VerifiedData,
		SKU:       f.ClientPolicy.SKU,
		Policy:    policy,
		Context:   f.Context,
		AI:        f.AIAnalysis,
	}), nil
}

func printOutcome(w io.Writer, name string, o comparison.Outcome) {
	r := o.Result
	zone := models.FoldZone(r.Zone, colorFaint, colorGreen, colorYellow, colorRed)

	colorCyan.Fprintf(w, "%s\n", name)
	zone.Fprintf(w, "  %-7s", r.Zone)
	if r.RiskScore != nil {
		fmt.Fprintf(w, " score %d", *r.RiskScore)
	}
	if r.Priority != "" {
		fmt.Fprintf(w, " priority %s", r.Priority)
	}
	if r.RuleEvaluation.Degraded {
		colorFaint.Fprint(w, " (base score only)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s -> %s\n", r.Summary.Message, r.Summary.Action)

	for _, d := range r.Discrepancies {
		sev := models.FoldZone(severityZone(d.Severity), colorFaint, colorGreen, colorYellow, colorRed)
		sev.Fprintf(w, "    %-6s", d.Severity)
		fmt.Fprintf(w, " %s: %q vs %q", d.Field, d.Claimed, d.Verified)
		if d.Difference != "" {
			fmt.Fprintf(w, " (%s)", d.Difference)
		}
		fmt.Fprintln(w)
	}
	for _, app := range r.RuleEvaluation.RulesApplied {
		mark := colorGreen.Sprint("pass")
		if !app.Passed {
			mark = colorRed.Sprint("fail")
		}
		if app.Indeterminate {
			mark = colorYellow.Sprint("unknown")
		}
		fmt.Fprintf(w, "    rule %s %s\n", app.Name, mark)
	}
	for _, note := range r.RuleEvaluation.Annotations {
		colorFaint.Fprintf(w, "    note: %s\n", note)
	}
}

func severityZone(s models.Severity) models.Zone {
	switch s {
	case models.SeverityHigh:
		return models.ZoneRed
	case models.SeverityMedium:
		return models.ZoneYellow
	}
	return models.ZoneGreen
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the client instruction catalog",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, r := range rules.Catalog() {
				colorCyan.Fprintf(out, "%-28s", r.ID())
				colorFaint.Fprintf(out, " %-15s", r.Phase())
				fmt.Fprintf(out, " %s\n", r.Description())
			}
		},
	}
}

func newThresholdsCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Print the effective engine thresholds as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := loadEngine(path)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(engine.Thresholds())
		},
	}
	cmd.Flags().StringVar(&path, "thresholds", "", "YAML file overriding engine thresholds")
	return cmd
}
