package models

// FieldMap is a flat, string-valued field set as produced by extraction or
// collected from HR.
type FieldMap map[string]string

// Canonical field names understood by the normalizer. Other keys are compared
// as free text.
const (
	FieldName           = "name"
	FieldCompany        = "company"
	FieldDesignation    = "designation"
	FieldTenure         = "tenure"
	FieldEmploymentDate = "employmentDates"
	FieldDateOfJoining  = "dateOfJoining"
	FieldDateOfLeaving  = "dateOfLeaving"
	FieldSalary         = "salary"
	FieldUAN            = "uan"
	FieldUANNumber      = "uanNumber"
)

// CheckType is the kind of verification a Check performs.
type CheckType string

const (
	CheckTypeEducation  CheckType = "EDUCATION"
	CheckTypeCrime      CheckType = "CRIME"
	CheckTypeEmployment CheckType = "EMPLOYMENT"
)

// Valid reports whether t is a known check type.
func (t CheckType) Valid() bool {
	switch t {
	case CheckTypeEducation, CheckTypeCrime, CheckTypeEmployment:
		return true
	}
	return false
}

// SKU is the client's verification-service tier.
type SKU string

const (
	SKUBasic      SKU = "BASIC"
	SKUStandard   SKU = "STANDARD"
	SKUPremium    SKU = "PREMIUM"
	SKUEnterprise SKU = "ENTERPRISE"
)

func (s SKU) Valid() bool {
	switch s {
	case SKUBasic, SKUStandard, SKUPremium, SKUEnterprise:
		return true
	}
	return false
}
