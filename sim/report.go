package sim

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"avsim/stats"
)

// LogFileName is the fixed name of the per-run ledger dump.
const LogFileName = "simulation_log.csv"

// WriteLog persists the full ledger as CSV into the output directory and
// returns the file path.
func WriteLog(outputDir string, ledger *stats.Ledger) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outputDir, LogFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create log: %w", err)
	}
	defer f.Close()
	if err := WriteLogTo(f, ledger); err != nil {
		return "", err
	}
	return path, nil
}

// WriteLogTo writes the ledger rows in append order: one row per recorded
// vehicle state, active true only on each in-system vehicle's latest row.
func WriteLogTo(w io.Writer, ledger *stats.Ledger) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "time,vehicle_id,origin,destination,lane,block,arrival_time,stuck_time,active,light,type")
	for _, r := range ledger.Rows() {
		fmt.Fprintf(bw, "%d,%d,%s,%s,%d,%d,%d,%d,%t,%s,%s\n",
			r.Tick, r.VehicleID, r.EdgeFrom, r.EdgeTo, r.Lane, r.Block,
			r.ArrivalTime, r.StuckTime, r.Active, r.Light, r.Kind)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// PrintConsoleReport prints a human-readable end-of-run summary to stdout.
func PrintConsoleReport(s Summary) {
	fmt.Println("=== Simulation Report ===")
	fmt.Printf("Ticks simulated: %d\n", s.Ticks)
	fmt.Printf("Vehicles injected: %d\n", s.Injected)
	fmt.Printf("Vehicles arrived: %d (HDV %d, AV %d)\n", s.Exited, s.ExitedHDV, s.ExitedAV)
	fmt.Printf("Vehicles still en route: %d\n", s.Active)
	if s.Exited > 0 {
		fmt.Printf("Mean trip duration: %.1f ticks\n", s.MeanTripTicks)
	}
	fmt.Printf("Ledger rows: %d\n", s.LedgerRows)
}
