package model

import (
	"fmt"
	"math"
	"sort"
)

// BPR volume-delay parameters. Capacity is length/5 vehicles and free-flow
// time length/60, so cost grows with the fourth power of saturation.
const (
	bprAlpha        = 0.15
	bprBeta         = 4.0
	bprSpeed        = 60.0
	bprCapacityPart = 5.0
)

// Edge is a directed road segment between two intersections.
type Edge struct {
	From   string
	To     string
	Length int // metres
}

// TravelTime evaluates the BPR cost of the edge for the given number of
// vehicles currently on it.
func (e Edge) TravelTime(vehicles int) float64 {
	freeFlow := float64(e.Length) / bprSpeed
	capacity := float64(e.Length) / bprCapacityPart
	return freeFlow * (1 + bprAlpha*math.Pow(float64(vehicles)/capacity, bprBeta))
}

// Geometry fixes the lane layout shared by every approach in a network.
type Geometry struct {
	DedicatedLaneLength    int // metres
	LaneChangingZoneLength int // metres
	EachBlockLength        int // metres
}

// Validate checks the geometry for values the lane model cannot represent.
func (g Geometry) Validate() error {
	if g.EachBlockLength <= 0 {
		return fmt.Errorf("geometry: block length must be positive, got %d", g.EachBlockLength)
	}
	if g.DedicatedLaneLength < 0 || g.LaneChangingZoneLength < 0 {
		return fmt.Errorf("geometry: zone lengths must be non-negative")
	}
	return nil
}

// Network is the directed road graph: edges with BPR costs plus one
// Intersection per node owning the inbound lanes and signals. Node and
// neighbour orderings are sorted once at construction so every traversal is
// deterministic.
type Network struct {
	Geometry Geometry

	nodes         []string
	edges         map[string]map[string]*Edge // from -> to
	inbound       map[string][]string         // node -> sorted predecessors
	intersections map[string]*Intersection
	coords        map[string][2]float64
}

// NewNetwork builds the graph and its intersections from a directed edge
// list. Duplicate and self-loop edges are rejected.
func NewNetwork(edges []Edge, geom Geometry) (*Network, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	n := &Network{
		Geometry:      geom,
		edges:         make(map[string]map[string]*Edge),
		inbound:       make(map[string][]string),
		intersections: make(map[string]*Intersection),
	}
	nodeSet := make(map[string]bool)
	for i := range edges {
		e := edges[i]
		if e.From == e.To {
			return nil, fmt.Errorf("network: self-loop edge at node %s", e.From)
		}
		if e.Length < geom.EachBlockLength {
			return nil, fmt.Errorf("network: edge %s->%s shorter than one block (%dm)", e.From, e.To, e.Length)
		}
		if _, dup := n.edges[e.From][e.To]; dup {
			return nil, fmt.Errorf("network: duplicate edge %s->%s", e.From, e.To)
		}
		if n.edges[e.From] == nil {
			n.edges[e.From] = make(map[string]*Edge)
		}
		n.edges[e.From][e.To] = &e
		n.inbound[e.To] = append(n.inbound[e.To], e.From)
		nodeSet[e.From] = true
		nodeSet[e.To] = true
	}
	if len(nodeSet) == 0 {
		return nil, fmt.Errorf("network: no edges")
	}
	for node := range nodeSet {
		n.nodes = append(n.nodes, node)
	}
	sort.Strings(n.nodes)
	for _, node := range n.nodes {
		preds := n.inbound[node]
		sort.Strings(preds)
		lengths := make([]int, len(preds))
		for i, p := range preds {
			lengths[i] = n.edges[p][node].Length
		}
		n.intersections[node] = NewIntersection(node, preds, lengths,
			geom.DedicatedLaneLength, geom.LaneChangingZoneLength, geom.EachBlockLength)
	}
	return n, nil
}

// Nodes returns all node ids in sorted order.
func (n *Network) Nodes() []string { return n.nodes }

// HasNode reports whether the node exists in the graph.
func (n *Network) HasNode(id string) bool {
	_, ok := n.intersections[id]
	return ok
}

// Edge returns the directed edge from->to, if present.
func (n *Network) Edge(from, to string) (*Edge, bool) {
	e, ok := n.edges[from][to]
	return e, ok
}

// Edges returns every directed edge sorted by (from, to).
func (n *Network) Edges() []Edge {
	out := make([]Edge, 0)
	for _, from := range n.nodes {
		tos := make([]string, 0, len(n.edges[from]))
		for to := range n.edges[from] {
			tos = append(tos, to)
		}
		sort.Strings(tos)
		for _, to := range tos {
			out = append(out, *n.edges[from][to])
		}
	}
	return out
}

// Intersection returns the intersection at the node.
func (n *Network) Intersection(node string) *Intersection {
	x, ok := n.intersections[node]
	if !ok {
		panic(fmt.Sprintf("network: unknown node %s", node))
	}
	return x
}

// InboundNeighbours returns the sorted predecessors of a node.
func (n *Network) InboundNeighbours(node string) []string { return n.inbound[node] }

// SetCoords attaches node coordinates. The engine never reads them; they are
// kept for tooling and plotting pipelines.
func (n *Network) SetCoords(coords map[string][2]float64) { n.coords = coords }

// Coords returns the coordinates of a node, if loaded.
func (n *Network) Coords(node string) ([2]float64, bool) {
	c, ok := n.coords[node]
	return c, ok
}

// TotalOccupancy sums block occupancy over every lane of every intersection.
func (n *Network) TotalOccupancy() int {
	total := 0
	for _, node := range n.nodes {
		total += n.intersections[node].TotalOccupancy()
	}
	return total
}
