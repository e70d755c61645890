package ports

import (
	"context"

	"bgv/pkg/platform/audit"
)

// ActivityPort receives one event per classification and review decision.
// This matches the audit publisher but is defined here to keep the service
// free of publisher internals.
type ActivityPort interface {
	Emit(ctx context.Context, event audit.Event) error
}
