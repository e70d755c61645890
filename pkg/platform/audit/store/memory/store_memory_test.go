package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bgv/pkg/domain"
	audit "bgv/pkg/platform/audit"
)

func TestInMemoryStore_ListRecent(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := range 3 {
		require.NoError(t, store.Append(ctx, audit.Event{
			CheckID:   id.NewCheckID(),
			Action:    string(audit.EventCheckClassified),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, base.Add(2*time.Minute), recent[0].Timestamp)
	assert.Equal(t, base.Add(time.Minute), recent[1].Timestamp)
}

func TestInMemoryStore_ListByCheckReturnsCopy(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	checkID := id.NewCheckID()
	require.NoError(t, store.Append(ctx, audit.Event{CheckID: checkID, Action: "a"}))

	events, err := store.ListByCheck(ctx, checkID)
	require.NoError(t, err)
	events[0].Action = "mutated"

	again, err := store.ListByCheck(ctx, checkID)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Action)
}
