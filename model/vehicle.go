package model

import (
	"errors"
	"fmt"

	"avsim/stats"
)

// Kind distinguishes human-driven from autonomous vehicles.
type Kind int

const (
	KindHDV Kind = 1
	KindAV  Kind = 2
)

// KindFromCode maps the demand-file type code (1=HDV, 2=AV) to a Kind.
func KindFromCode(code int) (Kind, error) {
	switch code {
	case 1:
		return KindHDV, nil
	case 2:
		return KindAV, nil
	default:
		return 0, fmt.Errorf("unknown vehicle type code %d", code)
	}
}

func (k Kind) String() string {
	if k == KindAV {
		return "AV"
	}
	return "HDV"
}

// StuckPenalty is added to a vehicle's stuck time for every service round in
// which it attempts to move and fails, matching the five-tick service cadence.
const StuckPenalty = 5

// ErrEntryBlocked is returned by NewVehicle when the entry block of the
// initial lane has no room; the scheduler defers the injection.
var ErrEntryBlocked = errors.New("entry block full")

// Vehicle is one trip moving through the network. Its behaviour each service
// round depends on where it sits on the current edge: far from the
// intersection it mostly rolls forward, in the lane-changing zone the
// kind-dependent priorities sort HDVs toward lane 0 and AVs toward lane 4,
// in the end zone HDVs are barred from the blue lanes, and at the stop line
// it either crosses on green, waits on red, or exits if the edge ends at its
// destination.
type Vehicle struct {
	ID          int
	Kind        Kind
	Destination string

	EdgeFrom string
	EdgeTo   string

	Intersection *Intersection // intersection at EdgeTo
	Lane         *Lane
	Block        int
	MaxBlock     int

	ArrivalTime int // tick the vehicle entered the current edge
	StuckTime   int
	Active      bool

	net    *Network
	router *Router
	ledger *stats.Ledger
}

// NewVehicle routes the trip's first hop, places the vehicle at block 0 of
// its initial lane on the edge origin->firstHop, and records the initial
// ledger row. Returns ErrEntryBlocked (and places nothing) when the entry
// block is full; the caller retries next tick. initialStuck carries stuck
// time accumulated while the injection was deferred.
func NewVehicle(net *Network, router *Router, ledger *stats.Ledger, id int, kind Kind, origin, destination string, laneID, now, initialStuck int) (*Vehicle, error) {
	hop, err := router.NextHop(origin, destination, ledger.EdgeCounts())
	if err != nil {
		return nil, fmt.Errorf("vehicle %d: %w", id, err)
	}
	x := net.Intersection(hop)
	lane := x.Lane(origin, laneID)
	if !lane.IsAvailable(0) {
		return nil, ErrEntryBlocked
	}
	v := &Vehicle{
		ID:           id,
		Kind:         kind,
		Destination:  destination,
		EdgeFrom:     origin,
		EdgeTo:       hop,
		Intersection: x,
		Lane:         lane,
		Block:        0,
		MaxBlock:     lane.Blocks - 1,
		ArrivalTime:  now,
		StuckTime:    initialStuck,
		Active:       true,
		net:          net,
		router:       router,
		ledger:       ledger,
	}
	lane.Arrive(0)
	v.record(now)
	return v, nil
}

// Step runs one service-round action for the vehicle and appends the
// resulting ledger row. Exit appends nothing; it retires the latest row.
func (v *Vehicle) Step(now int) error {
	m := v.MaxBlock
	d := v.Lane.DedicatedBlocks
	c := v.Lane.ChangeZoneBlocks
	switch p := v.Block; {
	case p < m-c-d:
		v.simpleStep()
	case p < m-d:
		v.changingStep()
	case p < m:
		v.endStep()
	case p == m && v.EdgeTo == v.Destination:
		v.exit()
		return nil
	case p == m:
		if err := v.cross(now); err != nil {
			return err
		}
	default:
		panic(fmt.Sprintf("vehicle %d: block %d exceeds stop line %d", v.ID, p, m))
	}
	v.record(now)
	return nil
}

type move int

const (
	forward move = iota
	left         // toward the median, higher lane id
	right        // toward the curb, lower lane id
)

// attempt tries each move in order; the first success wins. A fully blocked
// round costs StuckPenalty.
func (v *Vehicle) attempt(moves ...move) bool {
	for _, m := range moves {
		switch m {
		case forward:
			if v.moveForward() {
				return true
			}
		case left:
			if v.changeLane(+1) {
				return true
			}
		case right:
			if v.changeLane(-1) {
				return true
			}
		}
	}
	v.StuckTime += StuckPenalty
	return false
}

// moveForward advances one block in the current lane.
func (v *Vehicle) moveForward() bool {
	if !v.Lane.IsAvailable(v.Block + 1) {
		return false
	}
	v.Lane.Leave(v.Block)
	v.Lane.Arrive(v.Block + 1)
	v.Block++
	return true
}

// changeLane moves diagonally: one lane over (delta ±1) and one block ahead.
func (v *Vehicle) changeLane(delta int) bool {
	id := v.Lane.ID + delta
	if id < 0 || id >= LanesPerApproach {
		return false
	}
	target := v.Intersection.Lane(v.EdgeFrom, id)
	if !target.IsAvailable(v.Block + 1) {
		return false
	}
	v.Lane.Leave(v.Block)
	target.Arrive(v.Block + 1)
	v.Lane = target
	v.Block++
	return true
}

// simpleStep handles the zone far from the intersection: keep rolling, and
// nudge HDVs toward the curb and AVs toward the median when blocked.
func (v *Vehicle) simpleStep() {
	switch v.Lane.ID {
	case 0:
		v.attempt(forward, left)
	case 4:
		v.attempt(forward, right)
	default:
		if v.Kind == KindHDV {
			v.attempt(forward, right)
		} else {
			v.attempt(forward, left)
		}
	}
}

// changingStep handles the lane-changing zone, where segregation is forced:
// HDVs clear out of the blue lanes before the dedicated section, AVs work
// toward it. On lanes 4 and 3 the last block before the dedicated section is
// the point of no return for an HDV; there the only legal move is out.
func (v *Vehicle) changingStep() {
	switch v.Lane.ID {
	case 0:
		if v.Kind == KindHDV {
			v.attempt(forward, left)
		} else {
			v.attempt(left, forward)
		}
	case 4:
		if v.Kind == KindHDV {
			if v.Block != v.MaxBlock-v.Lane.DedicatedBlocks-1 {
				v.attempt(right, forward)
			} else {
				v.attempt(right)
			}
		} else {
			v.attempt(forward, right)
		}
	case 3:
		if v.Kind == KindHDV {
			if v.Block != v.MaxBlock-v.Lane.DedicatedBlocks-1 {
				v.attempt(right, forward)
			} else {
				v.attempt(right)
			}
		} else {
			v.attempt(forward, left)
		}
	case 2:
		if v.Kind == KindHDV {
			v.attempt(right, forward)
		} else {
			v.attempt(left, forward, right)
		}
	case 1:
		if v.Kind == KindHDV {
			v.attempt(right, forward, left)
		} else {
			v.attempt(left, forward, right)
		}
	}
}

// endStep handles the dedicated section next to the stop line. An HDV in a
// blue lane here is a state-machine bug.
func (v *Vehicle) endStep() {
	switch v.Lane.ID {
	case 0:
		if v.Kind == KindHDV {
			v.attempt(forward, left)
		} else {
			v.attempt(left, forward)
		}
	case 4:
		if v.Kind == KindHDV {
			panic(fmt.Sprintf("vehicle %d: HDV in dedicated lane 4 at block %d", v.ID, v.Block))
		}
		v.attempt(forward, right)
	case 3:
		if v.Kind == KindHDV {
			panic(fmt.Sprintf("vehicle %d: HDV in dedicated lane 3 at block %d", v.ID, v.Block))
		}
		v.attempt(left, forward)
	case 2:
		if v.Kind == KindHDV {
			v.attempt(right, forward)
		} else {
			v.attempt(left, forward)
		}
	case 1:
		if v.Kind == KindHDV {
			v.attempt(right, forward, left)
		} else {
			v.attempt(left, forward, right)
		}
	}
}

// cross handles the stop line: on green, route the next hop and enter the
// next edge at block 0 in the same lane; on red, or when the next edge's
// entry block is full, wait in place.
func (v *Vehicle) cross(now int) error {
	if v.Intersection.Light(v.EdgeFrom, v.Lane.ID) != SignalGreen {
		v.StuckTime += StuckPenalty
		return nil
	}
	hop, err := v.router.NextHop(v.EdgeTo, v.Destination, v.ledger.EdgeCounts())
	if err != nil {
		return fmt.Errorf("vehicle %d en route to %s: %w", v.ID, v.Destination, err)
	}
	next := v.net.Intersection(hop)
	lane := next.Lane(v.EdgeTo, v.Lane.ID)
	if !lane.IsAvailable(0) {
		v.StuckTime += StuckPenalty
		return nil
	}
	v.Lane.Leave(v.MaxBlock)
	lane.Arrive(0)
	v.EdgeFrom, v.EdgeTo = v.EdgeTo, hop
	v.Intersection = next
	v.Lane = lane
	v.Block = 0
	v.MaxBlock = lane.Blocks - 1
	v.ArrivalTime = now
	v.StuckTime = 0
	return nil
}

// exit removes the vehicle from its final block and retires its ledger row.
func (v *Vehicle) exit() {
	v.Lane.Leave(v.MaxBlock)
	v.Active = false
	v.ledger.Deactivate(v.ID)
}

// record appends the vehicle's current state to the ledger. The signal
// colour is only observable at the stop line; elsewhere the row says "none".
func (v *Vehicle) record(now int) {
	light := "none"
	if v.Block == v.MaxBlock {
		light = string(v.Intersection.Light(v.EdgeFrom, v.Lane.ID))
	}
	v.ledger.Append(stats.Row{
		Tick:        now,
		VehicleID:   v.ID,
		EdgeFrom:    v.EdgeFrom,
		EdgeTo:      v.EdgeTo,
		Lane:        v.Lane.ID,
		Block:       v.Block,
		ArrivalTime: v.ArrivalTime,
		StuckTime:   v.StuckTime,
		Light:       light,
		Kind:        v.Kind.String(),
	})
}
