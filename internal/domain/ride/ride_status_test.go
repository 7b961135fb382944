package ride

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRideStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    RideStatus
		to      RideStatus
		allowed bool
	}{
		{name: "active to full", from: StatusActive, to: StatusFull, allowed: true},
		{name: "active to completed", from: StatusActive, to: StatusCompleted, allowed: true},
		{name: "active to cancelled", from: StatusActive, to: StatusCancelled, allowed: true},
		{name: "full to active", from: StatusFull, to: StatusActive, allowed: true},
		{name: "full to completed", from: StatusFull, to: StatusCompleted, allowed: true},
		{name: "full to cancelled", from: StatusFull, to: StatusCancelled, allowed: true},
		{name: "completed is terminal", from: StatusCompleted, to: StatusActive, allowed: false},
		{name: "completed to cancelled", from: StatusCompleted, to: StatusCancelled, allowed: false},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusActive, allowed: false},
		{name: "cancelled to completed", from: StatusCancelled, to: StatusCompleted, allowed: false},
		{name: "no self transition", from: StatusActive, to: StatusActive, allowed: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestRideStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusActive.IsTerminal())
	assert.False(t, StatusFull.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestParseRideStatus(t *testing.T) {
	for _, s := range []RideStatus{StatusActive, StatusFull, StatusCompleted, StatusCancelled} {
		parsed, err := ParseRideStatus(string(s))
		assert.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseRideStatus("pending")
	assert.Error(t, err)
}
