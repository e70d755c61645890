package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmodels "bgv/internal/comparison/models"
	id "bgv/pkg/domain"
	dErrors "bgv/pkg/domain-errors"
)

var now = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func TestNewClient(t *testing.T) {
	t.Run("canonicalizes instructions and fills SKU defaults", func(t *testing.T) {
		c, err := NewClient(id.NewClientID(), "  Globex  ", Settings{
			SKU:          cmodels.SKUStandard,
			Instructions: []string{" RED_CHECKS_ESCALATE", "uan_30day_tolerance", "red_checks_escalate"},
		}, now)
		require.NoError(t, err)
		assert.Equal(t, "Globex", c.CompanyName)
		assert.Equal(t, MethodUAN, c.PrimaryMethod)
		assert.Equal(t, MethodHREmail, c.FallbackMethod)
		assert.Equal(t, []string{"red_checks_escalate", "uan_30day_tolerance"}, c.Instructions)
	})

	t.Run("explicit primary method does not pick up the default fallback", func(t *testing.T) {
		c, err := NewClient(id.NewClientID(), "Globex", Settings{SKU: cmodels.SKUPremium, PrimaryMethod: MethodDocument}, now)
		require.NoError(t, err)
		assert.Equal(t, MethodDocument, c.PrimaryMethod)
		assert.Empty(t, c.FallbackMethod)
	})

	tests := []struct {
		name     string
		company  string
		settings Settings
	}{
		{"blank company", " ", Settings{SKU: cmodels.SKUBasic}},
		{"unknown sku", "Globex", Settings{SKU: "GOLD"}},
		{"unknown method", "Globex", Settings{SKU: cmodels.SKUBasic, PrimaryMethod: "FAX"}},
		{"fallback equals primary", "Globex", Settings{SKU: cmodels.SKUBasic, PrimaryMethod: MethodUAN, FallbackMethod: MethodUAN}},
		{"unknown instruction", "Globex", Settings{SKU: cmodels.SKUBasic, Instructions: []string{"uan_30_day_tolerance"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(id.NewClientID(), tt.company, tt.settings, now)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
		})
	}
}

func TestClient_PolicyIsASnapshot(t *testing.T) {
	c, err := NewClient(id.NewClientID(), "Globex", Settings{
		SKU:          cmodels.SKUEnterprise,
		Instructions: []string{"no_overseas_checks"},
	}, now)
	require.NoError(t, err)

	policy := c.Policy()
	require.NoError(t, c.Apply(Settings{SKU: cmodels.SKUBasic}, now.Add(time.Hour)))

	assert.Equal(t, cmodels.SKUEnterprise, policy.SKU)
	assert.Equal(t, []string{"no_overseas_checks"}, policy.Instructions)
	assert.Equal(t, "HR_CALL", policy.FallbackMethod)
	assert.Empty(t, c.Instructions)
}
