package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "bgv/pkg/domain-errors"
	"bgv/pkg/testutil"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		describe bool
	}{
		{"validation", dErrors.New(dErrors.CodeValidation, "decision: oneof"), http.StatusBadRequest, "validation_error", true},
		{"bad request", dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"), http.StatusBadRequest, "bad_request", true},
		{"not found", dErrors.New(dErrors.CodeNotFound, "check not found"), http.StatusNotFound, "not_found", true},
		{"review on a non-red check", dErrors.New(dErrors.CodeInvalidState, "check is not awaiting review"), http.StatusConflict, "invalid_state", true},
		{"second review", dErrors.New(dErrors.CodeConflict, "check already reviewed"), http.StatusConflict, "conflict", true},
		{"follow-up gate", dErrors.New(dErrors.CodePreconditionFailed, "5 follow-ups required"), http.StatusPreconditionFailed, "precondition_failed", true},
		{"internal hides message", dErrors.New(dErrors.CodeInternal, "pq: relation missing"), http.StatusInternalServerError, "internal_error", false},
		{"plain error is internal", errors.New("boom"), http.StatusInternalServerError, "internal_error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			code, desc := testutil.ErrorBody(t, rec)
			assert.Equal(t, tt.code, code)
			if tt.describe {
				assert.NotEmpty(t, desc)
			} else {
				assert.Empty(t, desc)
			}
		})
	}
}

type reviewBody struct {
	Decision string `json:"decision"`
}

func (r *reviewBody) Validate() error {
	if r.Decision == "" {
		return dErrors.New(dErrors.CodeValidation, "decision is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	decode := func(body string) (*reviewBody, bool, *httptest.ResponseRecorder) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/checks/x/review", strings.NewReader(body))
		got, ok := DecodeAndPrepare[reviewBody](rec, req, testutil.DiscardLogger(), req.Context(), "req-1")
		return got, ok, rec
	}

	t.Run("decodes and validates", func(t *testing.T) {
		got, ok, _ := decode(`{"decision":"APPROVED"}`)
		require.True(t, ok)
		assert.Equal(t, "APPROVED", got.Decision)
	})

	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		_, ok, rec := decode(`{"decision":`)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		code, _ := testutil.ErrorBody(t, rec)
		assert.Equal(t, "bad_request", code)
	})

	t.Run("validation failure is reported", func(t *testing.T) {
		_, ok, rec := decode(`{}`)
		assert.False(t, ok)
		code, desc := testutil.ErrorBody(t, rec)
		assert.Equal(t, "validation_error", code)
		assert.Equal(t, "decision is required", desc)
	})
}
