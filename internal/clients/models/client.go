package models

import (
	"strings"
	"time"

	checkmodels "bgv/internal/checks/models"
	cmodels "bgv/internal/comparison/models"
	"bgv/internal/comparison/rules"
	id "bgv/pkg/domain"
	dErrors "bgv/pkg/domain-errors"
)

// VerificationMethod is how HR-verified data is collected for a Check.
type VerificationMethod string

const (
	MethodUAN      VerificationMethod = "UAN"
	MethodHREmail  VerificationMethod = "HR_EMAIL"
	MethodHRCall   VerificationMethod = "HR_CALL"
	MethodDocument VerificationMethod = "DOCUMENT"
)

func (m VerificationMethod) Valid() bool {
	switch m {
	case MethodUAN, MethodHREmail, MethodHRCall, MethodDocument:
		return true
	}
	return false
}

type methodDefaults struct {
	primary  VerificationMethod
	fallback VerificationMethod
}

// skuDefaults supplies the methods a tier gets when onboarding leaves them blank.
var skuDefaults = map[cmodels.SKU]methodDefaults{
	cmodels.SKUBasic:      {primary: MethodHREmail},
	cmodels.SKUStandard:   {primary: MethodUAN, fallback: MethodHREmail},
	cmodels.SKUPremium:    {primary: MethodUAN, fallback: MethodHRCall},
	cmodels.SKUEnterprise: {primary: MethodUAN, fallback: MethodHRCall},
}

// Client is an onboarded customer and the verification policy it selected.
// Edits apply to Checks created afterwards; existing Checks keep their snapshot.
type Client struct {
	ID             id.ClientID        `json:"id"`
	CompanyName    string             `json:"companyName"`
	SKU            cmodels.SKU        `json:"sku"`
	PrimaryMethod  VerificationMethod `json:"primaryMethod"`
	FallbackMethod VerificationMethod `json:"fallbackMethod,omitempty"`
	Instructions   []string           `json:"specialInstructions"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// Settings is the mutable part of a Client.
type Settings struct {
	SKU            cmodels.SKU
	PrimaryMethod  VerificationMethod
	FallbackMethod VerificationMethod
	Instructions   []string
}

// NewClient validates settings and canonicalizes the instruction ids.
// Unknown instruction ids are rejected.
func NewClient(clientID id.ClientID, companyName string, settings Settings, now time.Time) (*Client, error) {
	if clientID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client id is required")
	}
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "company name cannot be empty")
	}
	c := &Client{ID: clientID, CompanyName: companyName, CreatedAt: now}
	if err := c.Apply(settings, now); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply replaces the client's policy settings.
func (c *Client) Apply(settings Settings, now time.Time) error {
	if !settings.SKU.Valid() {
		return dErrors.New(dErrors.CodeValidation, "invalid sku: "+string(settings.SKU))
	}
	defaults := skuDefaults[settings.SKU]
	if settings.PrimaryMethod == "" {
		settings.PrimaryMethod = defaults.primary
		if settings.FallbackMethod == "" {
			settings.FallbackMethod = defaults.fallback
		}
	}
	if !settings.PrimaryMethod.Valid() {
		return dErrors.New(dErrors.CodeValidation, "invalid primary method: "+string(settings.PrimaryMethod))
	}
	if settings.FallbackMethod != "" {
		if !settings.FallbackMethod.Valid() {
			return dErrors.New(dErrors.CodeValidation, "invalid fallback method: "+string(settings.FallbackMethod))
		}
		if settings.FallbackMethod == settings.PrimaryMethod {
			return dErrors.New(dErrors.CodeValidation, "fallback method must differ from primary method")
		}
	}
	policy, err := rules.ParseInstructions(settings.Instructions)
	if err != nil {
		return err
	}

	c.SKU = settings.SKU
	c.PrimaryMethod = settings.PrimaryMethod
	c.FallbackMethod = settings.FallbackMethod
	c.Instructions = policy.Instructions()
	c.UpdatedAt = now
	return nil
}

// Policy snapshots the client configuration for a new Check.
func (c *Client) Policy() checkmodels.ClientPolicy {
	return checkmodels.ClientPolicy{
		ClientID:       c.ID,
		SKU:            c.SKU,
		PrimaryMethod:  string(c.PrimaryMethod),
		FallbackMethod: string(c.FallbackMethod),
		Instructions:   append([]string{}, c.Instructions...),
	}
}

func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	out := *c
	out.Instructions = append([]string{}, c.Instructions...)
	return &out
}
