package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgv/internal/checks/service"
	"bgv/internal/checks/store"
	clienthandler "bgv/internal/clients/handler"
	clientservice "bgv/internal/clients/service"
	clientstore "bgv/internal/clients/store"
	"bgv/internal/comparison"
	"bgv/pkg/testutil"
)

type fixture struct {
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testutil.DiscardLogger()
	clients, err := clientservice.New(clientstore.NewInMemory())
	require.NoError(t, err)
	checks, err := service.New(comparison.New(), store.NewInMemory(), clients, service.WithLogger(logger))
	require.NoError(t, err)

	r := chi.NewRouter()
	clienthandler.New(clients, logger).Register(r)
	New(checks, logger).Register(r)
	return &fixture{router: r}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	req = testutil.WithActor(req, "reviewer@bgv.test")
	rec := testutil.DoRequest(f.router, req)
	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

// openCase onboards a client and opens a case with the given number of
// employment checks, returning the case id and check ids.
func (f *fixture) openCase(t *testing.T, instructions []string, checks int) (string, []string) {
	t.Helper()
	code, client := f.do(t, http.MethodPost, "/clients", map[string]any{
		"companyName":         "Initech",
		"sku":                 "STANDARD",
		"specialInstructions": instructions,
	})
	require.Equal(t, http.StatusCreated, code, client)

	specs := make([]map[string]any, checks)
	for i := range specs {
		specs[i] = map[string]any{"type": "employment", "companyName": "Acme Pvt Ltd"}
	}
	code, view := f.do(t, http.MethodPost, "/cases", map[string]any{
		"clientId": client["id"],
		"employee": map[string]any{"name": "Ravi Kumar", "email": "ravi@example.com"},
		"checks":   specs,
	})
	require.Equal(t, http.StatusCreated, code, view)

	c := view["case"].(map[string]any)
	var ids []string
	for _, raw := range view["checks"].([]any) {
		ids = append(ids, raw.(map[string]any)["id"].(string))
	}
	return c["id"].(string), ids
}

func claimed() map[string]string {
	return map[string]string{
		"name":        "Ravi Kumar",
		"company":     "Acme Pvt Ltd",
		"designation": "Software Engineer",
		"tenure":      "2020-01-01 to 2023-06-30",
		"salary":      "50000",
	}
}

func verifiedWith(field, value string) map[string]string {
	v := claimed()
	v[field] = value
	return v
}

func TestClassifyAndReviewFlow(t *testing.T) {
	f := newFixture(t)
	caseID, checkIDs := f.openCase(t, nil, 1)
	checkID := checkIDs[0]

	code, body := f.do(t, http.MethodPost, "/checks/"+checkID+"/classify", map[string]any{
		"claimedData":  claimed(),
		"verifiedData": verifiedWith("salary", "20000"),
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "CLASSIFIED_RED", body["state"])
	assert.Equal(t, "IN_PROGRESS", body["status"])
	result := body["comparisonResult"].(map[string]any)
	assert.Equal(t, "RED", result["zone"])
	assert.Equal(t, "REQUIRES_REVIEW", result["summary"].(map[string]any)["status"])
	assert.NotNil(t, result["riskScore"])

	code, body = f.do(t, http.MethodGet, "/cases/"+caseID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "RED", body["case"].(map[string]any)["overallRiskLevel"])

	code, body = f.do(t, http.MethodPost, "/checks/"+checkID+"/review", map[string]any{
		"decision": "approved",
		"notes":    "offer letter shows revised CTC",
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "CLOSED_GREEN", body["state"])
	assert.Equal(t, "reviewer@bgv.test", body["review"].(map[string]any)["reviewedBy"])

	code, body = f.do(t, http.MethodPost, "/checks/"+checkID+"/review", map[string]any{"decision": "REJECTED"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", body["error"])

	code, body = f.do(t, http.MethodGet, "/checks/"+checkID+"/history", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["results"], 1)
	assert.Len(t, body["reviews"], 1)

	code, body = f.do(t, http.MethodGet, "/cases/"+caseID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "GREEN", body["case"].(map[string]any)["overallRiskLevel"])
}

func TestClassifyErrors(t *testing.T) {
	f := newFixture(t)
	_, checkIDs := f.openCase(t, []string{"mandatory_5_followups"}, 1)
	checkID := checkIDs[0]

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{
			name:   "malformed check id",
			path:   "/checks/not-a-uuid/classify",
			body:   map[string]any{"claimedData": claimed()},
			status: http.StatusBadRequest,
			code:   "invalid_input",
		},
		{
			name:   "unknown check",
			path:   "/checks/7f0f6a9e-5d3c-4b8f-9a39-1c2d3e4f5a6b/classify",
			body:   map[string]any{"claimedData": claimed()},
			status: http.StatusNotFound,
			code:   "not_found",
		},
		{
			name:   "invalid inline policy",
			path:   "/checks/" + checkID + "/classify",
			body:   map[string]any{"clientPolicy": map[string]any{"sku": "GOLD"}},
			status: http.StatusBadRequest,
			code:   "validation_error",
		},
		{
			name: "gated by follow-ups",
			path: "/checks/" + checkID + "/classify",
			body: map[string]any{
				"claimedData":  claimed(),
				"verifiedData": claimed(),
				"context":      map[string]any{"followUpCount": 1},
			},
			status: http.StatusPreconditionFailed,
			code:   "precondition_failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := f.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, code, body)
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func TestReviewOfUnclassifiedCheck(t *testing.T) {
	f := newFixture(t)
	_, checkIDs := f.openCase(t, nil, 1)

	code, body := f.do(t, http.MethodPost, "/checks/"+checkIDs[0]+"/review", map[string]any{"decision": "APPROVED"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_state", body["error"])

	code, body = f.do(t, http.MethodPost, "/checks/"+checkIDs[0]+"/review", map[string]any{"decision": "MAYBE"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", body["error"])
}

func TestReclassifyClosedCheckReturnsNewVersion(t *testing.T) {
	f := newFixture(t)
	_, checkIDs := f.openCase(t, nil, 1)
	path := "/checks/" + checkIDs[0] + "/classify"
	body := map[string]any{"claimedData": claimed(), "verifiedData": claimed()}

	code, first := f.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusOK, code, first)
	assert.Equal(t, "CLOSED_GREEN", first["state"])

	code, second := f.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, code, second)
	assert.Equal(t, checkIDs[0], second["supersedes"])
	assert.NotEqual(t, checkIDs[0], second["checkId"])
}

func TestClassifyCaseReportsPerCheckOutcome(t *testing.T) {
	f := newFixture(t)
	caseID, checkIDs := f.openCase(t, nil, 2)

	code, body := f.do(t, http.MethodPost, "/cases/"+caseID+"/classify", map[string]any{
		"checks": []map[string]any{
			{"checkId": checkIDs[0], "claimedData": claimed(), "verifiedData": claimed()},
			{"checkId": checkIDs[1], "claimedData": claimed(), "verifiedData": verifiedWith("tenure", "2020-02-01 to 2023-06-30")},
			{"checkId": "7f0f6a9e-5d3c-4b8f-9a39-1c2d3e4f5a6b", "claimedData": claimed()},
		},
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "YELLOW", body["case"].(map[string]any)["overallRiskLevel"])

	runs := body["checks"].([]any)
	require.Len(t, runs, 3)
	first := runs[0].(map[string]any)
	assert.Equal(t, "GREEN", first["result"].(map[string]any)["comparisonResult"].(map[string]any)["zone"])
	second := runs[1].(map[string]any)
	assert.Equal(t, "YELLOW", second["result"].(map[string]any)["comparisonResult"].(map[string]any)["zone"])
	third := runs[2].(map[string]any)
	assert.Equal(t, "invalid_input", third["error"])
}

func TestCreateCaseValidation(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPost, "/cases", map[string]any{
		"clientId": "7f0f6a9e-5d3c-4b8f-9a39-1c2d3e4f5a6b",
		"employee": map[string]any{"name": "Ravi"},
		"checks":   []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_error", body["error"])

	code, body = f.do(t, http.MethodPost, "/cases", map[string]any{
		"clientId": "7f0f6a9e-5d3c-4b8f-9a39-1c2d3e4f5a6b",
		"employee": map[string]any{"name": "Ravi"},
		"checks":   []map[string]any{{"type": "CRIME"}},
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["error"])
}

func TestListRules(t *testing.T) {
	f := newFixture(t)
	code, body := f.do(t, http.MethodGet, "/rules", nil)
	require.Equal(t, http.StatusOK, code)

	var ids []string
	for _, raw := range body["rules"].([]any) {
		ids = append(ids, raw.(map[string]any)["id"].(string))
	}
	assert.Contains(t, ids, "uan_30day_tolerance")
	assert.Contains(t, ids, "mandatory_5_followups")
	assert.Len(t, ids, 9)
}
