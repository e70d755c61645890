package handler

import (
	"strings"

	"bgv/internal/clients/models"
	cmodels "bgv/internal/comparison/models"
	"bgv/pkg/platform/validation"
)

// PolicyRequest is the body of PUT /clients/{clientID}/policy.
type PolicyRequest struct {
	SKU                 string   `json:"sku" validate:"required,oneof=BASIC STANDARD PREMIUM ENTERPRISE"`
	PrimaryMethod       string   `json:"primaryMethod" validate:"omitempty,oneof=UAN HR_EMAIL HR_CALL DOCUMENT"`
	FallbackMethod      string   `json:"fallbackMethod" validate:"omitempty,oneof=UAN HR_EMAIL HR_CALL DOCUMENT"`
	SpecialInstructions []string `json:"specialInstructions" validate:"max=32,dive,required,max=64"`
}

func (r *PolicyRequest) Validate() error {
	r.SKU = strings.ToUpper(strings.TrimSpace(r.SKU))
	return validation.Struct(r)
}

func (r *PolicyRequest) Settings() models.Settings {
	return models.Settings{
		SKU:            cmodels.SKU(r.SKU),
		PrimaryMethod:  models.VerificationMethod(r.PrimaryMethod),
		FallbackMethod: models.VerificationMethod(r.FallbackMethod),
		Instructions:   r.SpecialInstructions,
	}
}

// OnboardRequest is the body of POST /clients.
type OnboardRequest struct {
	CompanyName string `json:"companyName" validate:"required,max=200"`
	PolicyRequest
}

func (r *OnboardRequest) Validate() error {
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.SKU = strings.ToUpper(strings.TrimSpace(r.SKU))
	return validation.Struct(r)
}
