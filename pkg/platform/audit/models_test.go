package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEvent_Category(t *testing.T) {
	assert.Equal(t, CategoryCompliance, EventReviewDecided.Category())
	assert.Equal(t, CategoryCompliance, EventCheckClassified.Category())
	assert.Equal(t, CategoryOperations, EventCheckPending.Category())
	assert.Equal(t, CategoryOperations, AuditEvent("something_else").Category())
}
