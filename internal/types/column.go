package types

import "fmt"

// Wet and Dry index the two precipitation fractions of a tile when
// distributed precipitation is enabled. Without it only Wet is used.
const (
	Wet = 0
	Dry = 1
)

// EnergyState holds the soil thermal profile and the energy balance terms of
// one column. It is owned by the caller across time steps.
type EnergyState struct {
	// Node profiles, all of length Nnodes. Node 0 is the surface.
	T     []float64 `yaml:"t"`     // temperature (°C)
	Kappa []float64 `yaml:"kappa"` // thermal conductivity (W/m/K)
	Cs    []float64 `yaml:"cs"`    // volumetric heat capacity (J/m³/K)
	Moist []float64 `yaml:"moist"` // volumetric total water
	Ice   []float64 `yaml:"ice"`   // volumetric ice

	GroundFlux float64 `yaml:"grnd-flux"`
	Sensible   float64 `yaml:"sensible"`
	Latent     float64 `yaml:"latent"`
	LatentSub  float64 `yaml:"latent-sub"`
	SnowFlux   float64 `yaml:"snow-flux"`
	DeltaH     float64 `yaml:"delta-h"`
	Fusion     float64 `yaml:"fusion"`
	Error      float64 `yaml:"error"`

	NetShortGround float64 `yaml:"net-short-grnd"`
	NetShortUnder  float64 `yaml:"net-short-under"`
	NetLongUnder   float64 `yaml:"net-long-under"`
	LongUnderOut   float64 `yaml:"long-under-out"`
	AlbedoUnder    float64 `yaml:"albedo-under"`

	Advection      float64 `yaml:"advection"`
	DeltaCC        float64 `yaml:"delta-cc"`
	RefreezeEnergy float64 `yaml:"refreeze-energy"`
	MeltEnergy     float64 `yaml:"melt-energy"`

	// Tsurf is the area-weighted temperature of the snow and bare surfaces
	Tsurf float64 `yaml:"tsurf"`
}

// Nodes returns the configured number of soil thermal nodes
func (e *EnergyState) Nodes() int {
	return len(e.T)
}

// Validate checks that the node profiles are parallel
func (e *EnergyState) Validate() error {
	n := len(e.T)
	if n < 2 {
		return fmt.Errorf("energy state needs at least 2 soil nodes, got %d", n)
	}
	for name, p := range map[string][]float64{"kappa": e.Kappa, "cs": e.Cs, "moist": e.Moist, "ice": e.Ice} {
		if len(p) != n {
			return fmt.Errorf("energy state %s profile has %d nodes, expected %d", name, len(p), n)
		}
	}
	return nil
}

// SnowState holds the snowpack of one column
type SnowState struct {
	SWQ         float64 `yaml:"swq"`     // snow water equivalent (m)
	Depth       float64 `yaml:"depth"`   // m
	Density     float64 `yaml:"density"` // kg/m³
	SurfTemp    float64 `yaml:"surf-temp"`
	PackTemp    float64 `yaml:"pack-temp"`
	SurfWater   float64 `yaml:"surf-water"` // m
	PackWater   float64 `yaml:"pack-water"` // m
	Coverage    float64 `yaml:"coverage"`
	ColdContent float64 `yaml:"cold-content"` // J/m²

	// VaporFlux is a rate (m/s, negative for sublimation) while the surface
	// temperature is being solved and the per-step mass lost (m, positive
	// for sublimation) after the snowpack has been reconciled.
	VaporFlux float64 `yaml:"vapor-flux"`
	// SurfaceFlux and BlowingFlux split VaporFlux between the pack surface
	// and wind blown snow, with the same units and sign
	SurfaceFlux float64 `yaml:"surface-flux"`
	BlowingFlux float64 `yaml:"blowing-flux"`

	// Snowing reports that a snowpack was present at the end of the last
	// step. Rain is not routed to the surface while it is set.
	Snowing bool `yaml:"snowing"`

	// Depletion curve bookkeeping for fractional coverage
	MaxSWQ   float64 `yaml:"max-swq"`
	StoreSWQ float64 `yaml:"store-swq"`
}

// HasPack reports whether any snow water equivalent is present
func (s *SnowState) HasPack() bool {
	return s.SWQ > 0
}

// LayerState holds the moisture bookkeeping of one soil layer
type LayerState struct {
	Moist float64 `yaml:"moist"` // mm
	Ice   float64 `yaml:"ice"`   // mm
	T     float64 `yaml:"t"`     // °C
}

// VegetationState holds the canopy storage of one precipitation fraction
type VegetationState struct {
	Wdew        float64 `yaml:"wdew"`        // canopy dew storage (m)
	Throughfall float64 `yaml:"throughfall"` // m
}

// ColumnState is everything the caller persists for a column between steps
type ColumnState struct {
	Energy   EnergyState     `yaml:"energy"`
	Snow     SnowState       `yaml:"snow"`
	LayerWet []LayerState    `yaml:"layer-wet"`
	LayerDry []LayerState    `yaml:"layer-dry,omitempty"`
	VegWet   VegetationState `yaml:"veg-wet"`
	VegDry   VegetationState `yaml:"veg-dry,omitempty"`
}
