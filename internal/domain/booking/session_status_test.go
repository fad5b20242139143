package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusIdle.CanTransitionTo(StatusLocatingPickup))
	assert.True(t, StatusAwaitingDropoff.CanTransitionTo(StatusRoutePending))
	assert.True(t, StatusRoutePending.CanTransitionTo(StatusFareReady))
	assert.True(t, StatusFareReady.CanTransitionTo(StatusAwaitingDropoff))
	assert.True(t, StatusFareReady.CanTransitionTo(StatusFareReady))

	assert.False(t, StatusIdle.CanTransitionTo(StatusFareReady))
	assert.False(t, StatusAwaitingDropoff.CanTransitionTo(StatusIdle))
	assert.False(t, SessionStatus("bogus").CanTransitionTo(SessionStatus("bogus")))
}

func TestParseSessionStatus(t *testing.T) {
	status, err := ParseSessionStatus("fare_ready")
	assert.NoError(t, err)
	assert.Equal(t, StatusFareReady, status)

	_, err = ParseSessionStatus("booked")
	assert.Error(t, err)
}
