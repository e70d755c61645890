package handler

import (
	"strings"

	"bgv/internal/checks/models"
	"bgv/internal/checks/service"
	cmodels "bgv/internal/comparison/models"
	"bgv/internal/comparison/rules"
	id "bgv/pkg/domain"
	"bgv/pkg/platform/validation"
)

// PolicyRequest is a client policy supplied inline with a classification.
// It only applies to Checks created without a policy snapshot.
type PolicyRequest struct {
	SKU                 string   `json:"sku" validate:"required,oneof=BASIC STANDARD PREMIUM ENTERPRISE"`
	SpecialInstructions []string `json:"specialInstructions" validate:"max=32,dive,required,max=64"`
}

// ClassifyRequest is the body of POST /checks/{checkID}/classify.
type ClassifyRequest struct {
	ClaimedData  map[string]string `json:"claimedData" validate:"max=64"`
	VerifiedData map[string]string `json:"verifiedData" validate:"max=64"`
	ClientPolicy *PolicyRequest    `json:"clientPolicy" validate:"omitempty"`
	Context      rules.Context     `json:"context"`
}

func (r *ClassifyRequest) Validate() error {
	if r.ClientPolicy != nil {
		r.ClientPolicy.SKU = strings.ToUpper(strings.TrimSpace(r.ClientPolicy.SKU))
	}
	return validation.Struct(r)
}

func (r *ClassifyRequest) Command(checkID id.CheckID) service.ClassifyCommand {
	cmd := service.ClassifyCommand{
		CheckID:  checkID,
		Claimed:  r.ClaimedData,
		Verified: r.VerifiedData,
		Context:  r.Context,
	}
	if r.ClientPolicy != nil {
		cmd.Policy = &models.ClientPolicy{
			SKU:          cmodels.SKU(r.ClientPolicy.SKU),
			Instructions: r.ClientPolicy.SpecialInstructions,
		}
	}
	return cmd
}

// ReviewRequest is the body of POST /checks/{checkID}/review.
type ReviewRequest struct {
	Decision   string `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Notes      string `json:"notes" validate:"max=2000"`
	ReviewedBy string `json:"reviewedBy" validate:"max=200"`
}

func (r *ReviewRequest) Validate() error {
	r.Decision = strings.ToUpper(strings.TrimSpace(r.Decision))
	return validation.Struct(r)
}

type EmployeeRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=32"`
}

type CheckSpecRequest struct {
	Type        string `json:"type" validate:"required,oneof=EMPLOYMENT EDUCATION CRIME"`
	CompanyName string `json:"companyName" validate:"max=200"`
}

// CreateCaseRequest is the body of POST /cases.
type CreateCaseRequest struct {
	ClientID        string             `json:"clientId" validate:"required,uuid"`
	Employee        EmployeeRequest    `json:"employee"`
	PositionApplied string             `json:"positionApplied" validate:"max=200"`
	Checks          []CheckSpecRequest `json:"checks" validate:"required,min=1,max=20,dive"`
}

func (r *CreateCaseRequest) Validate() error {
	for i := range r.Checks {
		r.Checks[i].Type = strings.ToUpper(strings.TrimSpace(r.Checks[i].Type))
	}
	return validation.Struct(r)
}

func (r *CreateCaseRequest) Command() (service.CreateCaseCommand, error) {
	clientID, err := id.ParseClientID(r.ClientID)
	if err != nil {
		return service.CreateCaseCommand{}, err
	}
	specs := make([]service.CheckSpec, len(r.Checks))
	for i, c := range r.Checks {
		specs[i] = service.CheckSpec{Type: cmodels.CheckType(c.Type), CompanyName: c.CompanyName}
	}
	return service.CreateCaseCommand{
		ClientID: clientID,
		Employee: models.Employee{
			Name:  strings.TrimSpace(r.Employee.Name),
			Email: strings.TrimSpace(r.Employee.Email),
			Phone: strings.TrimSpace(r.Employee.Phone),
		},
		PositionApplied: strings.TrimSpace(r.PositionApplied),
		Checks:          specs,
	}, nil
}

type CaseCheckInput struct {
	CheckID      string            `json:"checkId" validate:"required,uuid"`
	ClaimedData  map[string]string `json:"claimedData" validate:"max=64"`
	VerifiedData map[string]string `json:"verifiedData" validate:"max=64"`
	Context      rules.Context     `json:"context"`
}

// ClassifyCaseRequest is the body of POST /cases/{caseID}/classify.
type ClassifyCaseRequest struct {
	Checks []CaseCheckInput `json:"checks" validate:"required,min=1,max=20,dive"`
}

func (r *ClassifyCaseRequest) Validate() error {
	return validation.Struct(r)
}

func (r *ClassifyCaseRequest) Inputs() (map[id.CheckID]service.CheckInput, error) {
	inputs := make(map[id.CheckID]service.CheckInput, len(r.Checks))
	for _, c := range r.Checks {
		checkID, err := id.ParseCheckID(c.CheckID)
		if err != nil {
			return nil, err
		}
		inputs[checkID] = service.CheckInput{
			Claimed:  c.ClaimedData,
			Verified: c.VerifiedData,
			Context:  c.Context,
		}
	}
	return inputs, nil
}
