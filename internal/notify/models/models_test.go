package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusPending.IsValid())
	assert.True(t, StatusSent.IsValid())
	assert.True(t, StatusFailed.IsValid())
	assert.False(t, Status("delivered").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusSent.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestStatusCanTransitionTo(t *testing.T) {
	t.Run("pending reaches both terminal statuses", func(t *testing.T) {
		assert.True(t, StatusPending.CanTransitionTo(StatusSent))
		assert.True(t, StatusPending.CanTransitionTo(StatusFailed))
	})

	t.Run("terminal statuses are final", func(t *testing.T) {
		assert.False(t, StatusSent.CanTransitionTo(StatusFailed))
		assert.False(t, StatusSent.CanTransitionTo(StatusPending))
		assert.False(t, StatusFailed.CanTransitionTo(StatusSent))
		assert.False(t, StatusFailed.CanTransitionTo(StatusPending))
	})

	t.Run("unknown targets rejected", func(t *testing.T) {
		assert.False(t, StatusPending.CanTransitionTo(Status("delivered")))
		assert.False(t, StatusPending.CanTransitionTo(StatusPending))
	})
}
