package model

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadNetworkEdges parses a network topology CSV with columns from, to,
// length (one row per directed edge). Node ids are kept as strings.
func LoadNetworkEdges(r io.Reader) ([]Edge, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read network header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"from", "to", "length"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("network file: missing column %q", name)
		}
	}
	var edges []Edge
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read network row: %w", err)
		}
		line++
		length, err := strconv.Atoi(strings.TrimSpace(rec[col["length"]]))
		if err != nil {
			return nil, fmt.Errorf("network line %d: bad length %q", line, rec[col["length"]])
		}
		if length <= 0 {
			return nil, fmt.Errorf("network line %d: non-positive length %d", line, length)
		}
		edges = append(edges, Edge{
			From:   strings.TrimSpace(rec[col["from"]]),
			To:     strings.TrimSpace(rec[col["to"]]),
			Length: length,
		})
	}
	if len(edges) == 0 {
		return nil, fmt.Errorf("network file: no edges")
	}
	return edges, nil
}

// LoadNodeCoords parses a whitespace-separated node position file with
// columns Node, X, Y. The engine ignores coordinates; they are loaded for
// tooling and plots.
func LoadNodeCoords(r io.Reader) (map[string][2]float64, error) {
	sc := bufio.NewScanner(r)
	coords := make(map[string][2]float64)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if line == 1 && strings.EqualFold(fields[0], "node") {
			continue // header
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("node coords line %d: want 3 columns, got %d", line, len(fields))
		}
		x, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("node coords line %d: bad X %q", line, fields[1])
		}
		y, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("node coords line %d: bad Y %q", line, fields[2])
		}
		coords[fields[0]] = [2]float64{x, y}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read node coords: %w", err)
	}
	return coords, nil
}
