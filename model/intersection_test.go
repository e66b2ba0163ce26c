package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avsim/stats"
)

// twoApproachNet builds intersection V with inbound approaches from U and W,
// 10 blocks each (stop line at block 9).
func twoApproachNet(t *testing.T) *Network {
	t.Helper()
	net, err := NewNetwork([]Edge{
		{From: "U", To: "V", Length: 1000},
		{From: "W", To: "V", Length: 1000},
		{From: "V", To: "U", Length: 1000},
	}, testGeometry())
	require.NoError(t, err)
	return net
}

func queueRow(id int, from string, lane, block int) stats.Row {
	kind := "HDV"
	if lane > 2 {
		kind = "AV"
	}
	return stats.Row{VehicleID: id, EdgeFrom: from, EdgeTo: "V", Lane: lane, Block: block, Kind: kind}
}

func TestSignalsLargerGreenQueueServesOneApproach(t *testing.T) {
	// 10 HDVs single file in lane 1 vs 3 AVs at the stop line: green queue 10
	// beats blue queue 3, so only U's green lanes are served.
	net := twoApproachNet(t)
	ledger := stats.NewLedger()
	for b := 0; b <= 9; b++ {
		ledger.Append(queueRow(b+1, "U", 1, b))
	}
	ledger.Append(queueRow(100, "U", 3, 9))
	ledger.Append(queueRow(101, "U", 4, 8))
	ledger.Append(queueRow(102, "U", 3, 7))

	x := net.Intersection("V")
	totals := x.UpdateSignals(ledger)
	assert.Equal(t, 3, totals.Blue)
	assert.Equal(t, 10, totals.Green)
	assert.Equal(t, "U", totals.Served)

	for _, lane := range []int{0, 1, 2} {
		assert.Equal(t, SignalGreen, x.Light("U", lane), "U lane %d", lane)
		assert.Equal(t, SignalRed, x.Light("W", lane), "W lane %d", lane)
	}
	for _, lane := range []int{3, 4} {
		assert.Equal(t, SignalRed, x.Light("U", lane), "U lane %d", lane)
	}
}

func TestSignalsBluePhaseLightsEveryApproach(t *testing.T) {
	// 5 AVs vs 2 HDVs: the blue phase lights lanes 3 and 4 on every inbound
	// approach at once.
	net := twoApproachNet(t)
	ledger := stats.NewLedger()
	ledger.Append(queueRow(1, "U", 0, 9))
	ledger.Append(queueRow(2, "U", 0, 8))
	for i := 0; i < 5; i++ {
		ledger.Append(queueRow(10+i, "U", 4, 9-i))
	}

	x := net.Intersection("V")
	totals := x.UpdateSignals(ledger)
	assert.Equal(t, 5, totals.Blue)
	assert.Equal(t, 2, totals.Green)
	assert.Empty(t, totals.Served)

	for _, nbr := range []string{"U", "W"} {
		for _, lane := range []int{3, 4} {
			assert.Equal(t, SignalGreen, x.Light(nbr, lane), "%s lane %d", nbr, lane)
		}
		for _, lane := range []int{0, 1, 2} {
			assert.Equal(t, SignalRed, x.Light(nbr, lane), "%s lane %d", nbr, lane)
		}
	}
}

func TestSignalsQueueStopsAtFirstGap(t *testing.T) {
	// Occupied blocks 9, 8, 6: the gap at 7 ends the queue at two blocks.
	net := twoApproachNet(t)
	ledger := stats.NewLedger()
	ledger.Append(queueRow(1, "U", 2, 9))
	ledger.Append(queueRow(2, "U", 0, 8))
	ledger.Append(queueRow(3, "U", 1, 6))

	totals := net.Intersection("V").UpdateSignals(ledger)
	assert.Equal(t, 2, totals.Green)
}

func TestSignalsFreeFlowingVehiclesLeaveAllRed(t *testing.T) {
	// Vehicles far from the stop line carry no queue; nothing is promoted.
	net := twoApproachNet(t)
	ledger := stats.NewLedger()
	ledger.Append(queueRow(1, "U", 1, 0))
	ledger.Append(queueRow(2, "W", 2, 3))

	x := net.Intersection("V")
	totals := x.UpdateSignals(ledger)
	assert.Equal(t, 0, totals.Blue)
	assert.Equal(t, 0, totals.Green)
	assert.Empty(t, totals.Served)
	for _, nbr := range []string{"U", "W"} {
		for lane := 0; lane < LanesPerApproach; lane++ {
			assert.Equal(t, SignalRed, x.Light(nbr, lane))
		}
	}
}

func TestSignalsEmptyLedgerAllRed(t *testing.T) {
	net := twoApproachNet(t)
	x := net.Intersection("V")
	totals := x.UpdateSignals(stats.NewLedger())
	assert.Equal(t, QueueTotals{}, totals)
	for lane := 0; lane < LanesPerApproach; lane++ {
		assert.Equal(t, SignalRed, x.Light("U", lane))
	}
}

func TestSignalsRevokedOnNextUpdate(t *testing.T) {
	// A served approach returns to red once its queue drains.
	net := twoApproachNet(t)
	ledger := stats.NewLedger()
	ledger.Append(queueRow(1, "U", 1, 9))
	x := net.Intersection("V")
	x.UpdateSignals(ledger)
	require.Equal(t, SignalGreen, x.Light("U", 0))

	ledger.Deactivate(1)
	x.UpdateSignals(ledger)
	assert.Equal(t, SignalRed, x.Light("U", 0))
}
