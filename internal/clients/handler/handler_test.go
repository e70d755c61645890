package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgv/internal/clients/service"
	"bgv/internal/clients/store"
	"bgv/pkg/testutil"
)

func newClientRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, err := service.New(store.NewInMemory())
	require.NoError(t, err)
	r := chi.NewRouter()
	New(svc, testutil.DiscardLogger()).Register(r)
	return r
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoRequest(router, testutil.NewJSONRequest(t, method, path, body))
}

func TestOnboardAndFetchClient(t *testing.T) {
	router := newClientRouter(t)

	rec := do(t, router, http.MethodPost, "/clients", map[string]any{
		"companyName":         "Hooli",
		"sku":                 "standard",
		"specialInstructions": []string{"uan_30day_tolerance"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := testutil.DecodeJSON[struct {
		ID           string   `json:"id"`
		SKU          string   `json:"sku"`
		Primary      string   `json:"primaryMethod"`
		Instructions []string `json:"specialInstructions"`
	}](t, rec)
	assert.Equal(t, "STANDARD", created.SKU)
	assert.Equal(t, "UAN", created.Primary)
	assert.Equal(t, []string{"uan_30day_tolerance"}, created.Instructions)

	rec = do(t, router, http.MethodGet, "/clients/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPut, "/clients/"+created.ID+"/policy", map[string]any{
		"sku":                 "BASIC",
		"specialInstructions": []string{"hr_attempts_required"},
	})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestOnboardRejections(t *testing.T) {
	router := newClientRouter(t)

	tests := []struct {
		name   string
		body   any
		status int
		desc   string
	}{
		{
			name:   "missing company",
			body:   map[string]any{"sku": "BASIC"},
			status: http.StatusBadRequest,
			desc:   "companyName: required",
		},
		{
			name:   "unknown sku",
			body:   map[string]any{"companyName": "Hooli", "sku": "GOLD"},
			status: http.StatusBadRequest,
			desc:   "sku: oneof",
		},
		{
			name:   "unknown instruction",
			body:   map[string]any{"companyName": "Hooli", "sku": "BASIC", "specialInstructions": []string{"uan_tolerance"}},
			status: http.StatusBadRequest,
			desc:   "uan_tolerance",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/clients", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			_, desc := testutil.ErrorBody(t, rec)
			assert.Contains(t, desc, tt.desc)
		})
	}
}

func TestGetClientErrors(t *testing.T) {
	router := newClientRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/clients/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/clients/5b0c7a2e-8a41-4c53-9a55-0f1d2c3b4a59", nil).Code)
}
