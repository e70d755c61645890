package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeConflict, "stale")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeInvalidState, "wrong state"))
		assert.True(t, HasCode(err, CodeInvalidState))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	base := errors.New("db down")

	err := Wrap(base, CodeInternal, "failed to load check")
	assert.True(t, HasCode(err, CodeInternal))
	assert.True(t, Is(err, base))
	assert.Contains(t, err.Error(), "db down")

	assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
}
