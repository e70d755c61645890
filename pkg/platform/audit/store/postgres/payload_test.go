package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bgv/pkg/domain"
)

func TestDecodePayload(t *testing.T) {
	checkID := id.NewCheckID()
	caseID := id.NewCaseID()
	score := 82
	ts := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

	raw, err := json.Marshal(outboxPayload{
		ID:        "evt",
		Category:  "compliance",
		Timestamp: ts.Format(time.RFC3339Nano),
		CheckID:   checkID.String(),
		CaseID:    caseID.String(),
		Action:    "check_classified",
		Zone:      "RED",
		RiskScore: &score,
		Actor:     "system",
	})
	require.NoError(t, err)

	event, err := DecodePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, checkID, event.CheckID)
	assert.Equal(t, caseID, event.CaseID)
	assert.Equal(t, ts, event.Timestamp)
	require.NotNil(t, event.RiskScore)
	assert.Equal(t, 82, *event.RiskScore)

	_, err = DecodePayload([]byte(`{"checkId":"nope","timestamp":"2024-06-01T08:30:00Z"}`))
	assert.Error(t, err)
}

func TestDecodePayload_CaseLevelEvent(t *testing.T) {
	caseID := id.NewCaseID()
	raw, err := json.Marshal(outboxPayload{
		ID:        "evt",
		Timestamp: time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC).Format(time.RFC3339Nano),
		CaseID:    caseID.String(),
		Action:    "case_risk_updated",
		Zone:      "YELLOW",
	})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "checkId")

	event, err := DecodePayload(raw)
	require.NoError(t, err)
	assert.True(t, event.CheckID.IsNil())
	assert.Equal(t, caseID, event.CaseID)
}
