package model

import "fmt"

// BlockCapacity is the maximum number of vehicles one block can hold.
const BlockCapacity = 20

// Lane is a fixed-length sequence of blocks approaching an intersection.
// Block 0 is the entry (far end), block Blocks-1 the stop line. Lanes 0-2
// form the green group (HDV-preferred); lanes 3-4 the blue group
// (AV-preferred, dedicated near the stop line).
type Lane struct {
	ID               int // 0..4, counted from the right
	Blocks           int
	DedicatedBlocks  int // AV-only section at the stop-line end, in blocks
	ChangeZoneBlocks int // lane-changing section before it, in blocks

	occupancy []int
}

// NewLane builds an empty lane of the given geometry.
func NewLane(id, blocks, dedicated, changeZone int) *Lane {
	return &Lane{
		ID:               id,
		Blocks:           blocks,
		DedicatedBlocks:  dedicated,
		ChangeZoneBlocks: changeZone,
		occupancy:        make([]int, blocks),
	}
}

// Blue reports whether the lane belongs to the AV-preferred group {3,4}.
func (l *Lane) Blue() bool { return l.ID > 2 }

// Green reports whether the lane belongs to the HDV-preferred group {0,1,2}.
func (l *Lane) Green() bool { return l.ID <= 2 }

// IsAvailable reports whether the block has capacity for one more vehicle.
func (l *Lane) IsAvailable(block int) bool {
	return l.occupancy[block] < BlockCapacity
}

// Arrive adds a vehicle to the block. Bounds are the caller's contract.
func (l *Lane) Arrive(block int) {
	l.occupancy[block]++
}

// Leave removes a vehicle from the block.
func (l *Lane) Leave(block int) {
	l.occupancy[block]--
	if l.occupancy[block] < 0 {
		panic(fmt.Sprintf("lane %d: occupancy below zero at block %d", l.ID, block))
	}
}

// Occupancy returns the vehicle count at the block.
func (l *Lane) Occupancy(block int) int { return l.occupancy[block] }

// TotalOccupancy returns the number of vehicles on the whole lane.
func (l *Lane) TotalOccupancy() int {
	total := 0
	for _, n := range l.occupancy {
		total += n
	}
	return total
}
