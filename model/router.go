package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"avsim/stats"
)

// Router answers next-hop queries over the network using live BPR edge
// costs. Node ids are interned to dense indices in sorted order once, so
// repeated queries rebuild only the weighted graph, and equal-cost ties
// resolve the same way on every run.
type Router struct {
	net   *Network
	ids   map[string]int64
	names []string
}

// NewRouter builds a router for the network.
func NewRouter(net *Network) *Router {
	nodes := net.Nodes()
	r := &Router{
		net:   net,
		ids:   make(map[string]int64, len(nodes)),
		names: nodes,
	}
	for i, name := range nodes {
		r.ids[name] = int64(i)
	}
	return r
}

// NextHop returns the node after `from` on the cheapest path from `from` to
// `to`, where each edge costs its BPR travel time under the given active
// vehicle counts. Counts normally come from stats.Ledger.EdgeCounts.
func (r *Router) NextHop(from, to string, counts map[stats.EdgeKey]int) (string, error) {
	srcID, ok := r.ids[from]
	if !ok {
		return "", fmt.Errorf("router: unknown node %s", from)
	}
	dstID, ok := r.ids[to]
	if !ok {
		return "", fmt.Errorf("router: unknown node %s", to)
	}
	if from == to {
		return "", fmt.Errorf("router: next hop requested for zero-length trip at %s", from)
	}

	g := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for i := range r.names {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, e := range r.net.Edges() {
		cost := e.TravelTime(counts[stats.EdgeKey{From: e.From, To: e.To}])
		g.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(r.ids[e.From]),
			T: simple.Node(r.ids[e.To]),
			W: cost,
		})
	}

	shortest := path.DijkstraFrom(g.Node(srcID), g)
	nodes, _ := shortest.To(dstID)
	if len(nodes) < 2 {
		return "", fmt.Errorf("router: no path from %s to %s", from, to)
	}
	return r.names[nodes[1].ID()], nil
}

// Reachable reports whether `to` can be reached from `from` on an empty
// network. Used to validate demand at load time.
func (r *Router) Reachable(from, to string) bool {
	if from == to {
		return true
	}
	_, err := r.NextHop(from, to, nil)
	return err == nil
}
