package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaneArriveLeaveRoundTrip(t *testing.T) {
	l := NewLane(2, 5, 2, 2)
	require.Equal(t, 0, l.Occupancy(3))
	l.Arrive(3)
	assert.Equal(t, 1, l.Occupancy(3))
	l.Leave(3)
	assert.Equal(t, 0, l.Occupancy(3))
	assert.Equal(t, 0, l.TotalOccupancy())
}

func TestLaneCapacity(t *testing.T) {
	l := NewLane(0, 5, 2, 2)
	for i := 0; i < BlockCapacity-1; i++ {
		l.Arrive(0)
		assert.True(t, l.IsAvailable(0))
	}
	l.Arrive(0)
	assert.False(t, l.IsAvailable(0))
	assert.Equal(t, BlockCapacity, l.Occupancy(0))
	l.Leave(0)
	assert.True(t, l.IsAvailable(0))
}

func TestLaneNegativeOccupancyPanics(t *testing.T) {
	l := NewLane(1, 5, 2, 2)
	require.Panics(t, func() { l.Leave(2) })
}

func TestLaneGroups(t *testing.T) {
	for id := 0; id < LanesPerApproach; id++ {
		l := NewLane(id, 5, 2, 2)
		assert.Equal(t, id > 2, l.Blue(), "lane %d", id)
		assert.Equal(t, id <= 2, l.Green(), "lane %d", id)
	}
}
