package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avsim/stats"
)

// triangleNet offers a direct edge A->B and a detour A->C->B of equal edge
// lengths, so the detour costs twice the free-flow direct route.
func triangleNet(t *testing.T) *Network {
	t.Helper()
	net, err := NewNetwork([]Edge{
		{From: "A", To: "B", Length: 500},
		{From: "A", To: "C", Length: 500},
		{From: "C", To: "B", Length: 500},
	}, testGeometry())
	require.NoError(t, err)
	return net
}

func TestNextHopFreeFlow(t *testing.T) {
	r := NewRouter(triangleNet(t))
	hop, err := r.NextHop("A", "B", nil)
	require.NoError(t, err)
	assert.Equal(t, "B", hop)
}

func TestNextHopReactsToCongestion(t *testing.T) {
	r := NewRouter(triangleNet(t))

	// 160 vehicles on A->B: 8.33*(1+0.15*1.6^4) ≈ 16.5 still beats the
	// 16.67 detour. One more flips the choice.
	hop, err := r.NextHop("A", "B", map[stats.EdgeKey]int{{From: "A", To: "B"}: 160})
	require.NoError(t, err)
	assert.Equal(t, "B", hop)

	hop, err = r.NextHop("A", "B", map[stats.EdgeKey]int{{From: "A", To: "B"}: 161})
	require.NoError(t, err)
	assert.Equal(t, "C", hop)
}

func TestNextHopErrors(t *testing.T) {
	r := NewRouter(triangleNet(t))

	_, err := r.NextHop("B", "A", nil) // B has no outgoing edges
	assert.ErrorContains(t, err, "no path")

	_, err = r.NextHop("A", "Z", nil)
	assert.ErrorContains(t, err, "unknown node")

	_, err = r.NextHop("A", "A", nil)
	assert.ErrorContains(t, err, "zero-length trip")
}

func TestReachable(t *testing.T) {
	r := NewRouter(triangleNet(t))
	assert.True(t, r.Reachable("A", "B"))
	assert.True(t, r.Reachable("C", "B"))
	assert.False(t, r.Reachable("B", "C"))
}
