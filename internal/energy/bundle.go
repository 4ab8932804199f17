// Package energy evaluates the surface energy balance residual at a trial
// surface temperature. All inputs travel in a Bundle so that the same value
// can be evaluated, traced and described when the root search fails.
package energy

import (
	"github.com/chrissnell/surfenergy/internal/soil"
	"github.com/chrissnell/surfenergy/internal/types"
)

// Bundle is the complete parameter set of one surface temperature solve
type Bundle struct {
	General General
	Layer   SoilLayer
	Met     Met
	Snow    Snow
	Nodes   Nodes
	State   State
	Flags   types.Options
	Trace   SolverTrace
	Out     Outputs
}

// General holds the tile and step terms
type General struct {
	Tile        types.Tile
	Month       int
	Veg         bool // vegetation active for the under-story this month
	VegClass    int
	LAI         float64
	RMin        float64 // minimum stomatal resistance (s/m)
	Dt          float64 // seconds
	IncludeSnow bool
}

// SoilLayer holds the top layer terms used by the two-node scheme and the
// bare soil evaporation
type SoilLayer struct {
	Cs1, Cs2       float64
	D1, D2         float64
	T1Old, T2      float64
	TsOld          float64
	Kappa1, Kappa2 float64
	Dp             float64

	BInfilt  float64
	MaxInfil float64
	Bubble   float64
	Expt     float64
	Ice0     float64 // volumetric
	Moist    float64 // volumetric
	MaxMoist float64 // volumetric

	Depth      []float64
	ResidMoist []float64
	Wcr        []float64
	Wpwp       []float64
	Root       []float64

	// Unfrozen is the top layer unfrozen water curve, nil without frozen
	// soil
	Unfrozen func(t float64) float64 `msgpack:"-"`
}

// Met holds the meteorological forcing and the radiation already split
// between bare ground and snow
type Met struct {
	UnderStory bool
	Overstory  bool

	NetShortBare   float64 // net shortwave reaching bare ground
	NetShortGround float64 // net shortwave transmitted through the pack
	NetShortSnow   float64 // net shortwave at the snow surface
	NetLongSnow    float64 // externally computed net longwave at the snow surface
	LongBareIn     float64
	LongSnowIn     float64

	Tair       float64
	Density    float64
	Pressure   float64
	Elevation  float64
	Emissivity float64
	VP         float64
	VPD        float64
	Mu         float64
	SurfAtten  float64

	Wdew     [2]float64
	Rainfall [2]float64

	AeroResist   float64
	Displacement float64
	RefHeight    float64
	Roughness    float64
	Wind         float64

	Le        float64
	Advection float64
}

// Snow holds the snowpack terms
type Snow struct {
	OldTSurf   float64
	PackTemp   float64
	SurfTemp   float64
	Kappa      float64
	MeltEnergy float64
	Coverage   float64
	Density    float64
	SWQ        float64
	SurfWater  float64

	// BlowingFlux is the blowing snow sublimation rate (m/s)
	BlowingFlux float64
}

// Nodes holds the soil column used by the full finite difference solution.
// Active is the size of the node window currently solved.
type Nodes struct {
	Active  int
	Profile *soil.Profile
	Dz      []float64
	Zsum    []float64
}

// State is the caller's layer and vegetation state, carried for reporting
type State struct {
	LayerWet []types.LayerState
	LayerDry []types.LayerState
	VegWet   types.VegetationState
	VegDry   types.VegetationState
}

// SolverTrace records the progress of the root search. FirstSolution marks
// that the soil coefficients must be recomputed before the next
// evaluation.
type SolverTrace struct {
	T             float64
	Residual      float64
	Lower, Upper  float64
	Iterations    int
	Evaluations   int
	FirstSolution bool

	setup *soil.Setup
}

// Reset prepares the trace for a new search over [lower, upper]
func (t *SolverTrace) Reset(lower, upper float64) {
	t.Lower, t.Upper = lower, upper
	t.Iterations = 0
	t.Evaluations = 0
	t.FirstSolution = true
	t.setup = nil
}

// TwoNode returns the quick flux parameters of the bundle
func (b *Bundle) TwoNode() soil.TwoNode {
	l := b.Layer
	return soil.TwoNode{
		Cs1: l.Cs1, Cs2: l.Cs2,
		Kappa1: l.Kappa1, Kappa2: l.Kappa2,
		D1: l.D1, D2: l.D2, Dp: l.Dp,
		TsOld: l.TsOld, T1Old: l.T1Old, T2: l.T2,
		Ice0: l.Ice0, Moist: l.Moist,
		Unfrozen: l.Unfrozen,
	}
}

// Window returns the active node view of the soil column
func (b *Bundle) Window() *soil.Profile {
	return b.Nodes.Profile.Window(b.Nodes.Active)
}
