package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassifyPrintsZoneAndDiscrepancies(t *testing.T) {
	out, err := execute(t, "classify", "testdata/salary-mismatch.json")
	require.NoError(t, err)
	assert.Contains(t, out, "RED")
	assert.Contains(t, out, "ESCALATE_CSE")
	assert.Contains(t, out, "salary")
	assert.Contains(t, out, "rule red_checks_escalate")
}

func TestClassifyJSON(t *testing.T) {
	out, err := execute(t, "classify", "--json", "testdata/salary-mismatch.json")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "RED", result["zone"])
	assert.Equal(t, true, result["ruleEvaluation"].(map[string]any)["degraded"])
}

func TestClassifyGatedFixture(t *testing.T) {
	_, err := execute(t, "classify", "testdata/gated.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mandatory_5_followups")
}

func TestClassifyMissingFile(t *testing.T) {
	_, err := execute(t, "classify", "testdata/nope.json")
	assert.Error(t, err)
}

func TestRulesListsCatalog(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "uan_30day_tolerance")
	assert.Contains(t, out, "hr_attempts_required")
}

func TestThresholdsPrintsYAML(t *testing.T) {
	out, err := execute(t, "thresholds")
	require.NoError(t, err)
	assert.Contains(t, out, "weights:")
	assert.Contains(t, out, "bands:")
}
