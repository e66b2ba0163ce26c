package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Trip is one scheduled vehicle from the demand file. Departure is an
// integer tick (fractional inputs are rounded at load) and LaneID is already
// converted from the 1-indexed input to the 0-indexed lane model.
type Trip struct {
	ID          int
	Departure   int
	Origin      string
	Destination string
	LaneID      int
	Kind        Kind
}

// LoadDemand parses and validates a demand CSV (columns ID, departure,
// Origin, Destination, lane, type) against the network. It fails fast on
// malformed rows, duplicate ids, unknown or equal endpoints, lanes outside
// 1..5, unknown type codes, and unreachable destinations. The returned trips
// are sorted by departure tick, ties in input order.
func LoadDemand(r io.Reader, net *Network, router *Router) ([]Trip, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read demand header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"ID", "departure", "Origin", "Destination", "lane", "type"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("demand file: missing column %q", name)
		}
	}

	var trips []Trip
	seen := make(map[int]bool)
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read demand row: %w", err)
		}
		line++
		field := func(name string) string { return strings.TrimSpace(rec[col[name]]) }

		id, err := strconv.Atoi(field("ID"))
		if err != nil {
			return nil, fmt.Errorf("demand line %d: bad ID %q", line, field("ID"))
		}
		if seen[id] {
			return nil, fmt.Errorf("demand line %d: duplicate vehicle id %d", line, id)
		}
		seen[id] = true

		dep, err := strconv.ParseFloat(field("departure"), 64)
		if err != nil {
			return nil, fmt.Errorf("demand line %d: bad departure %q", line, field("departure"))
		}
		if dep < 0 {
			return nil, fmt.Errorf("demand line %d: negative departure %v", line, dep)
		}

		origin := field("Origin")
		dest := field("Destination")
		if !net.HasNode(origin) {
			return nil, fmt.Errorf("demand line %d: unknown origin %q", line, origin)
		}
		if !net.HasNode(dest) {
			return nil, fmt.Errorf("demand line %d: unknown destination %q", line, dest)
		}
		if origin == dest {
			return nil, fmt.Errorf("demand line %d: vehicle %d has origin == destination (%s)", line, id, origin)
		}
		if !router.Reachable(origin, dest) {
			return nil, fmt.Errorf("demand line %d: vehicle %d: no path from %s to %s", line, id, origin, dest)
		}

		lane, err := strconv.Atoi(field("lane"))
		if err != nil || lane < 1 || lane > LanesPerApproach {
			return nil, fmt.Errorf("demand line %d: lane %q outside 1..%d", line, field("lane"), LanesPerApproach)
		}

		code, err := strconv.Atoi(field("type"))
		if err != nil {
			return nil, fmt.Errorf("demand line %d: bad type %q", line, field("type"))
		}
		kind, err := KindFromCode(code)
		if err != nil {
			return nil, fmt.Errorf("demand line %d: %w", line, err)
		}

		trips = append(trips, Trip{
			ID:          id,
			Departure:   int(math.Round(dep)),
			Origin:      origin,
			Destination: dest,
			LaneID:      lane - 1,
			Kind:        kind,
		})
	}
	sort.SliceStable(trips, func(i, j int) bool { return trips[i].Departure < trips[j].Departure })
	return trips, nil
}
