package sim

import (
	"encoding/json"
	"fmt"
	"io"

	"avsim/model"
)

// Config collects everything one simulation run needs.
type Config struct {
	NetworkFile string `json:"network_file"`
	NodeFile    string `json:"node_file,omitempty"`
	DemandFile  string `json:"demand_file"`

	DedicatedLaneLength    int `json:"dedicated_lane_length"`     // metres
	LaneChangingZoneLength int `json:"lane_changing_zone_length"` // metres
	EachBlockLength        int `json:"each_block_length"`         // metres

	Until     int    `json:"until"`
	OutputDir string `json:"output_dir"`
}

// DefaultConfig returns the defaults a config file or flags override.
func DefaultConfig() Config {
	return Config{
		DedicatedLaneLength:    500,
		LaneChangingZoneLength: 500,
		EachBlockLength:        100,
		Until:                  10000,
		OutputDir:              ".",
	}
}

// LoadConfig reads a JSON config, layered over the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configs the engine cannot run.
func (c Config) Validate() error {
	if c.NetworkFile == "" {
		return fmt.Errorf("config: network_file is required")
	}
	if c.DemandFile == "" {
		return fmt.Errorf("config: demand_file is required")
	}
	if c.Until <= 0 {
		return fmt.Errorf("config: until must be positive, got %d", c.Until)
	}
	return c.Geometry().Validate()
}

// Geometry returns the lane geometry shared by every approach.
func (c Config) Geometry() model.Geometry {
	return model.Geometry{
		DedicatedLaneLength:    c.DedicatedLaneLength,
		LaneChangingZoneLength: c.LaneChangingZoneLength,
		EachBlockLength:        c.EachBlockLength,
	}
}
