package model

import (
	"fmt"

	"avsim/stats"
)

// Signal is the state of one traffic light head.
type Signal string

const (
	SignalRed   Signal = "red"
	SignalGreen Signal = "green"
)

// LanesPerApproach is the fixed number of lanes on every inbound road.
const LanesPerApproach = 5

// Lane-group membership by lane id.
var (
	greenGroup = []int{0, 1, 2}
	blueGroup  = []int{3, 4}
)

// Intersection owns the inbound lanes and signal heads for one node. Each
// inbound neighbour contributes five lanes and five signals; all signals
// start red. Neighbours are kept in sorted order so signal arbitration is
// deterministic.
type Intersection struct {
	NodeID     string
	Neighbours []string // inbound neighbours, sorted

	lanes  map[string][]*Lane
	lights map[string][]Signal
}

// NewIntersection builds an intersection with one five-lane approach per
// inbound neighbour. neighbours must be sorted; lengths are the edge lengths
// in metres, parallel to neighbours.
func NewIntersection(nodeID string, neighbours []string, lengths []int, dedicated, changeZone, blockLen int) *Intersection {
	x := &Intersection{
		NodeID:     nodeID,
		Neighbours: neighbours,
		lanes:      make(map[string][]*Lane, len(neighbours)),
		lights:     make(map[string][]Signal, len(neighbours)),
	}
	for i, nbr := range neighbours {
		blocks := lengths[i] / blockLen
		group := make([]*Lane, 0, LanesPerApproach)
		heads := make([]Signal, 0, LanesPerApproach)
		for lane := 0; lane < LanesPerApproach; lane++ {
			group = append(group, NewLane(lane, blocks, dedicated/blockLen, changeZone/blockLen))
			heads = append(heads, SignalRed)
		}
		x.lanes[nbr] = group
		x.lights[nbr] = heads
	}
	return x
}

// Lane returns the lane with the given id on the approach from neighbour.
func (x *Intersection) Lane(neighbour string, lane int) *Lane {
	group, ok := x.lanes[neighbour]
	if !ok {
		panic(fmt.Sprintf("intersection %s: no approach from %s", x.NodeID, neighbour))
	}
	return group[lane]
}

// Light returns the signal state for the given approach lane.
func (x *Intersection) Light(neighbour string, lane int) Signal {
	heads, ok := x.lights[neighbour]
	if !ok {
		panic(fmt.Sprintf("intersection %s: no approach from %s", x.NodeID, neighbour))
	}
	return heads[lane]
}

// QueueTotals holds the stopped-demand measurement of one signal update.
type QueueTotals struct {
	Blue   int
	Green  int
	Served string // neighbour whose green group was lit, if any
}

// UpdateSignals recomputes all signal heads from the ledger's active rows.
//
// For each inbound neighbour the controller measures the contiguous queue
// backing up from the stop line, separately for the blue group {3,4} and the
// green group {0,1,2}. The contiguous measure counts consecutive occupied
// blocks walking backward from the stop line, so it reacts to vehicles held
// by the signal rather than total link load. If the blue total exceeds the
// green total, the blue lanes of every approach turn green; otherwise the
// green lanes of the single approach with the largest green queue turn
// green. With no queued demand anywhere, everything stays red.
func (x *Intersection) UpdateSignals(ledger *stats.Ledger) QueueTotals {
	totalBlue := 0
	totalGreen := 0
	greenByNbr := make([]int, len(x.Neighbours))
	for i, nbr := range x.Neighbours {
		totalBlue += x.queueLength(ledger, nbr, blueGroup)
		g := x.queueLength(ledger, nbr, greenGroup)
		greenByNbr[i] = g
		totalGreen += g
	}

	for _, nbr := range x.Neighbours {
		heads := x.lights[nbr]
		for lane := range heads {
			heads[lane] = SignalRed
		}
	}

	totals := QueueTotals{Blue: totalBlue, Green: totalGreen}
	if totalBlue > totalGreen {
		for _, nbr := range x.Neighbours {
			for _, lane := range blueGroup {
				x.lights[nbr][lane] = SignalGreen
			}
		}
		return totals
	}

	best := -1
	bestCount := 0
	for i, g := range greenByNbr {
		if g > bestCount {
			best = i
			bestCount = g
		}
	}
	if best >= 0 {
		nbr := x.Neighbours[best]
		for _, lane := range greenGroup {
			x.lights[nbr][lane] = SignalGreen
		}
		totals.Served = nbr
	}
	return totals
}

// queueLength measures the contiguous queue on one approach over a lane
// group: consecutive blocks occupied by active vehicles, counted backward
// from the stop line until the first gap.
func (x *Intersection) queueLength(ledger *stats.Ledger, neighbour string, group []int) int {
	occupied := ledger.ActiveBlocks(neighbour, x.NodeID, group...)
	if len(occupied) == 0 {
		return 0
	}
	count := 0
	for block := x.lanes[neighbour][0].Blocks - 1; block >= 0 && occupied[block]; block-- {
		count++
	}
	return count
}

// TotalOccupancy sums block occupancy over every inbound lane.
func (x *Intersection) TotalOccupancy() int {
	total := 0
	for _, nbr := range x.Neighbours {
		for _, lane := range x.lanes[nbr] {
			total += lane.TotalOccupancy()
		}
	}
	return total
}
