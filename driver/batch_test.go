package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtures(t *testing.T) (network, demand string) {
	t.Helper()
	dir := t.TempDir()
	network = filepath.Join(dir, "network.csv")
	require.NoError(t, os.WriteFile(network, []byte(
		"from,to,length\nA,B,500\nB,C,500\n"), 0o644))
	demand = filepath.Join(dir, "demand.csv")
	require.NoError(t, os.WriteFile(demand, []byte(
		"ID,departure,Origin,Destination,lane,type\n"+
			"1,0,A,C,3,1\n"+
			"2,0,A,C,4,2\n"+
			"3,5,A,B,1,1\n"), 0o644))
	return network, demand
}

func TestBatchRunSweepsScenarios(t *testing.T) {
	network, demand := writeFixtures(t)
	reportDir := t.TempDir()
	opts := Options{
		NetworkFile:     network,
		DemandFile:      demand,
		EachBlockLength: 100,
		Until:           200,
		ReportPath:      reportDir,
	}
	scenarios := []Scenario{
		{Name: "d200-c200", DedicatedLaneLength: 200, LaneChangingZoneLength: 200},
		{Name: "d300-c100", DedicatedLaneLength: 300, LaneChangingZoneLength: 100},
	}

	results, reportPath, err := Run(opts, scenarios, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for i, res := range results {
		assert.Equal(t, scenarios[i].Name, res.Scenario.Name, "results keep scenario order")
		assert.Equal(t, 3, res.Summary.Injected)
		assert.Equal(t, 3, res.Summary.Exited)
	}

	raw, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "run_id,scenario")
	assert.Contains(t, lines[1], "d200-c200")
	assert.Contains(t, lines[2], "d300-c100")
}

func TestBatchRunRejectsEmptySweep(t *testing.T) {
	_, _, err := Run(Options{Until: 10}, nil, zerolog.Nop())
	assert.ErrorContains(t, err, "no scenarios")

	_, _, err = Run(Options{}, []Scenario{{Name: "x"}}, zerolog.Nop())
	assert.ErrorContains(t, err, "until")
}
