package types

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the base configuration object
type Config struct {
	Options           Options       `yaml:"options"`
	Solver            SolverConfig  `yaml:"solver,omitempty"`
	Storage           StorageConfig `yaml:"storage,omitempty"`
	VegetationLibrary string        `yaml:"vegetation-library,omitempty"`
	Workers           int           `yaml:"workers,omitempty"`
	SnapshotDir       string        `yaml:"failure-snapshot-dir,omitempty"`
}

// Options holds the model toggles that select between the algorithmic
// branches of the surface energy balance. An Options value is read-only
// once a solve starts and may be shared between goroutines.
type Options struct {
	FullEnergy      bool `yaml:"full-energy"`
	GroundFlux      bool `yaml:"ground-flux"`
	QuickFlux       bool `yaml:"quick-flux"`
	QuickSolve      bool `yaml:"quick-solve"`
	NoFlux          bool `yaml:"no-flux"`
	DistPrcp        bool `yaml:"dist-prcp"`
	SpatialFrost    bool `yaml:"spatial-frost"`
	QuickFrozenSoil bool `yaml:"quick-frozen-soil"`
	SpatialSnow     bool `yaml:"spatial-snow"`
}

// SolverConfig holds the root finder settings
type SolverConfig struct {
	// SurfDT is the half width (°C) of the surface temperature bracket
	SurfDT        float64 `yaml:"surf-dt,omitempty"`
	Tolerance     float64 `yaml:"tolerance,omitempty"`
	MaxIterations int     `yaml:"max-iterations,omitempty"`
}

// StorageConfig selects the backend that persists column state between runs
type StorageConfig struct {
	Backend          string `yaml:"backend,omitempty"`
	SQLitePath       string `yaml:"sqlite-path,omitempty"`
	ConnectionString string `yaml:"connection-string,omitempty"`
}

// Default solver settings
const (
	DefaultSurfDT        = 25.0
	DefaultTolerance     = 1e-5
	DefaultMaxIterations = 100
	DefaultWorkers       = 4
)

// ApplyDefaults fills in zero-valued settings
func (c *Config) ApplyDefaults() {
	if c.Solver.SurfDT <= 0 {
		c.Solver.SurfDT = DefaultSurfDT
	}
	if c.Solver.Tolerance <= 0 {
		c.Solver.Tolerance = DefaultTolerance
	}
	if c.Solver.MaxIterations <= 0 {
		c.Solver.MaxIterations = DefaultMaxIterations
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
}

// Validate rejects option combinations that have no defined behaviour
func (c *Config) Validate() error {
	if c.Options.QuickFrozenSoil && c.Options.SpatialFrost {
		return fmt.Errorf("quick-frozen-soil and spatial-frost cannot both be enabled")
	}
	switch c.Storage.Backend {
	case "memory":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage backend sqlite requires sqlite-path")
		}
	case "postgres":
		if c.Storage.ConnectionString == "" {
			return fmt.Errorf("storage backend postgres requires connection-string")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}
	return nil
}

// NewConfig creates a new config object from the given filename.
func NewConfig(filename string) (Config, error) {
	cfgFile, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	c := Config{}
	err = yaml.Unmarshal(cfgFile, &c)
	if err != nil {
		return Config{}, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
