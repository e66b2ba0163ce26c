package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"avsim/driver"
	"avsim/model"
	"avsim/sim"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "avsim",
		Short:         "Mixed-autonomy traffic micro-simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.AddCommand(newRunCmd(&verbose), newBatchCmd(&verbose))
	return root
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()
}

func newRunCmd(verbose *bool) *cobra.Command {
	cfg := sim.DefaultConfig()
	var configFile string
	var trace bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and write simulation_log.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				f, err := os.Open(configFile)
				if err != nil {
					return fmt.Errorf("open config: %w", err)
				}
				loaded, err := sim.LoadConfig(f)
				f.Close()
				if err != nil {
					return err
				}
				// Explicit flags win over the config file.
				merged := loaded
				if cmd.Flags().Changed("network") {
					merged.NetworkFile = cfg.NetworkFile
				}
				if cmd.Flags().Changed("nodes") {
					merged.NodeFile = cfg.NodeFile
				}
				if cmd.Flags().Changed("demand") {
					merged.DemandFile = cfg.DemandFile
				}
				if cmd.Flags().Changed("dedicated") {
					merged.DedicatedLaneLength = cfg.DedicatedLaneLength
				}
				if cmd.Flags().Changed("changing") {
					merged.LaneChangingZoneLength = cfg.LaneChangingZoneLength
				}
				if cmd.Flags().Changed("block") {
					merged.EachBlockLength = cfg.EachBlockLength
				}
				if cmd.Flags().Changed("until") {
					merged.Until = cfg.Until
				}
				if cmd.Flags().Changed("out") {
					merged.OutputDir = cfg.OutputDir
				}
				cfg = merged
			}
			return runSimulation(cfg, newLogger(*verbose), trace)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "JSON config file (flags override)")
	cmd.Flags().StringVar(&cfg.NetworkFile, "network", cfg.NetworkFile, "network topology CSV (from,to,length)")
	cmd.Flags().StringVar(&cfg.NodeFile, "nodes", cfg.NodeFile, "node coordinate file (Node X Y); optional")
	cmd.Flags().StringVar(&cfg.DemandFile, "demand", cfg.DemandFile, "demand CSV")
	cmd.Flags().IntVar(&cfg.DedicatedLaneLength, "dedicated", cfg.DedicatedLaneLength, "dedicated AV lane length in metres")
	cmd.Flags().IntVar(&cfg.LaneChangingZoneLength, "changing", cfg.LaneChangingZoneLength, "lane changing zone length in metres")
	cmd.Flags().IntVar(&cfg.EachBlockLength, "block", cfg.EachBlockLength, "block length in metres")
	cmd.Flags().IntVar(&cfg.Until, "until", cfg.Until, "end tick")
	cmd.Flags().StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "output directory")
	cmd.Flags().BoolVar(&trace, "trace", false, "log every simulation event")
	return cmd
}

func runSimulation(cfg sim.Config, log zerolog.Logger, trace bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	nf, err := os.Open(cfg.NetworkFile)
	if err != nil {
		return fmt.Errorf("open network: %w", err)
	}
	edges, err := model.LoadNetworkEdges(nf)
	nf.Close()
	if err != nil {
		return err
	}
	net, err := model.NewNetwork(edges, cfg.Geometry())
	if err != nil {
		return err
	}
	if cfg.NodeFile != "" {
		cf, err := os.Open(cfg.NodeFile)
		if err != nil {
			return fmt.Errorf("open node coords: %w", err)
		}
		coords, err := model.LoadNodeCoords(cf)
		cf.Close()
		if err != nil {
			return err
		}
		net.SetCoords(coords)
	}

	df, err := os.Open(cfg.DemandFile)
	if err != nil {
		return fmt.Errorf("open demand: %w", err)
	}
	trips, err := model.LoadDemand(df, net, model.NewRouter(net))
	df.Close()
	if err != nil {
		return err
	}
	log.Info().
		Int("nodes", len(net.Nodes())).
		Int("edges", len(net.Edges())).
		Int("trips", len(trips)).
		Msg("inputs loaded")

	clk := sim.NewClock(net, trips, log)
	if trace {
		clk.OnEvent(func(e sim.Event) { log.Info().Interface("event", e).Msgf("%T", e) })
	}
	if err := clk.Run(cfg.Until); err != nil {
		return err
	}

	path, err := sim.WriteLog(cfg.OutputDir, clk.Ledger())
	if err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("simulation log written")
	sim.PrintConsoleReport(clk.Summary())
	return nil
}

func newBatchCmd(verbose *bool) *cobra.Command {
	opts := driver.Options{EachBlockLength: 100, Until: 10000}
	var dedicated, changing []int
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Sweep lane geometries over the same network and demand",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.NetworkFile == "" || opts.DemandFile == "" {
				return fmt.Errorf("batch: --network and --demand are required")
			}
			scenarios := make([]driver.Scenario, 0, len(dedicated)*len(changing))
			for _, d := range dedicated {
				for _, c := range changing {
					scenarios = append(scenarios, driver.Scenario{
						Name:                   fmt.Sprintf("d%d-c%d", d, c),
						DedicatedLaneLength:    d,
						LaneChangingZoneLength: c,
					})
				}
			}
			log := newLogger(*verbose)
			results, _, err := driver.Run(opts, scenarios, log)
			if err != nil {
				return err
			}
			for _, res := range results {
				fmt.Printf("%-12s injected=%d exited=%d active=%d mean_trip=%.1f\n",
					res.Scenario.Name, res.Summary.Injected, res.Summary.Exited,
					res.Summary.Active, res.Summary.MeanTripTicks)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.NetworkFile, "network", "", "network topology CSV")
	cmd.Flags().StringVar(&opts.DemandFile, "demand", "", "demand CSV")
	cmd.Flags().IntVar(&opts.EachBlockLength, "block", opts.EachBlockLength, "block length in metres")
	cmd.Flags().IntVar(&opts.Until, "until", opts.Until, "end tick per run")
	cmd.Flags().StringVar(&opts.ReportPath, "report", "", "CSV report file or directory")
	cmd.Flags().IntVar(&opts.MaxParallel, "parallel", 4, "concurrent scenario runs")
	cmd.Flags().IntSliceVar(&dedicated, "dedicated", []int{300, 500, 700}, "dedicated lane lengths to sweep (metres)")
	cmd.Flags().IntSliceVar(&changing, "changing", []int{500}, "changing zone lengths to sweep (metres)")
	return cmd
}
