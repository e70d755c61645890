package ports

import (
	"context"

	cmodels "bgv/internal/comparison/models"
	id "bgv/pkg/domain"
)

// AIAnalyzer defines the interface to the optional AI-analysis collaborator.
// Callers bound every call with a timeout; an error or timeout means the
// classification proceeds on the base score alone.
type AIAnalyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*cmodels.AIAnalysis, error)
}

// AnalysisRequest is what the collaborator sees of a Check.
type AnalysisRequest struct {
	CheckID   id.CheckID
	CheckType cmodels.CheckType
	Claimed   cmodels.FieldMap
	Verified  cmodels.FieldMap
}
