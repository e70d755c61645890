package ports

import (
	"context"

	cmodels "bgv/internal/comparison/models"
	id "bgv/pkg/domain"
)

// ResultCache holds the latest ComparisonResult per Check. It is a read
// accelerator; the store stays authoritative.
type ResultCache interface {
	Put(ctx context.Context, checkID id.CheckID, result cmodels.ComparisonResult) error
	Get(ctx context.Context, checkID id.CheckID) (*cmodels.ComparisonResult, error)
}
