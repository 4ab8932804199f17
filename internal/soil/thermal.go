// Package soil implements the soil column heat conduction model: the
// two-node quick flux estimate, the implicit multi-node finite difference
// solution, the frozen soil water curves and the reduced node window used
// to speed up the surface temperature search.
package soil

import (
	"math"

	"github.com/chrissnell/surfenergy/internal/constants"
	"github.com/chrissnell/surfenergy/internal/types"
)

// UnfrozenFunc returns the maximum unfrozen volumetric water content of a
// node at temperature t
type UnfrozenFunc func(node int, t float64) float64

// MaxUnfrozenWater returns the maximum volumetric liquid water content that
// can exist at temperature t (°C) given the soil's bubbling pressure (cm)
// and pore-size distribution exponent. Above freezing it is maxMoist.
func MaxUnfrozenWater(t, maxMoist, bubble, expt float64) float64 {
	if t >= 0 || bubble <= 0 || expt <= 3 {
		return maxMoist
	}
	unfrozen := maxMoist * math.Pow((-constants.Lf*t)/273.16/(constants.Gravity*bubble/100.), -(2.0 / (expt - 3.0)))
	if unfrozen > maxMoist {
		unfrozen = maxMoist
	}
	if unfrozen < 0 {
		unfrozen = 0
	}
	return unfrozen
}

// SpatialUnfrozenWater averages MaxUnfrozenWater over a linear distribution
// of soil temperatures of width slope centred on t, weighted by the frost
// area fractions.
func SpatialUnfrozenWater(t, maxMoist, bubble, expt float64, frostFract []float64, slope float64) float64 {
	n := len(frostFract)
	if n <= 1 {
		return MaxUnfrozenWater(t, maxMoist, bubble, expt)
	}
	var sum float64
	for k, f := range frostFract {
		offset := slope * (float64(k)/float64(n-1) - 0.5)
		sum += f * MaxUnfrozenWater(t+offset, maxMoist, bubble, expt)
	}
	return sum
}

// NodeUnfrozen returns the node unfrozen water curve selected by the model
// options, or nil when frozen soil is not active for the column.
func NodeUnfrozen(sp *types.SoilProperties, opts types.Options) UnfrozenFunc {
	if !sp.FrozenSoilActive {
		return nil
	}
	switch {
	case opts.QuickFrozenSoil && sp.UnfrozenTable != nil:
		return sp.UnfrozenTable.NodeLookup
	case opts.SpatialFrost && len(sp.FrostFract) > 1:
		return func(node int, t float64) float64 {
			return SpatialUnfrozenWater(t, sp.MaxMoistNode[node], sp.BubbleNode[node], sp.ExptNode[node], sp.FrostFract, sp.FrostSlope)
		}
	default:
		return func(node int, t float64) float64 {
			return MaxUnfrozenWater(t, sp.MaxMoistNode[node], sp.BubbleNode[node], sp.ExptNode[node])
		}
	}
}

// LayerUnfrozen returns the top layer unfrozen water curve used by the
// two-node scheme
func LayerUnfrozen(sp *types.SoilProperties, opts types.Options) func(t float64) float64 {
	maxMoist := TopLayerMaxMoist(sp)
	switch {
	case opts.QuickFrozenSoil && sp.UnfrozenTable != nil:
		return sp.UnfrozenTable.LayerLookup
	case opts.SpatialFrost && len(sp.FrostFract) > 1:
		return func(t float64) float64 {
			return SpatialUnfrozenWater(t, maxMoist, sp.Bubble[0], sp.Expt[0], sp.FrostFract, sp.FrostSlope)
		}
	default:
		return func(t float64) float64 {
			return MaxUnfrozenWater(t, maxMoist, sp.Bubble[0], sp.Expt[0])
		}
	}
}

// TopLayerMaxMoist returns the volumetric porosity of the top layer
func TopLayerMaxMoist(sp *types.SoilProperties) float64 {
	return sp.MaxMoist[0] / (sp.Depth[0] * 1000.)
}

// IceContent returns the volumetric ice implied by total water moist at
// temperature t, never negative
func IceContent(moist, unfrozen float64) float64 {
	return math.Max(moist-unfrozen, 0)
}

// HeatCapacity returns the volumetric heat capacity (J/m³/K) of a soil node
func HeatCapacity(solids, porosity, moist, ice float64) float64 {
	return solids*(1-porosity) + constants.ChWater*(moist-ice) + constants.ChIce*ice
}

// Conductivity returns the thermal conductivity (W/m/K) of a soil node after
// Johansen: a Kersten number interpolation between the dry and saturated
// conductivities, with the saturated value raised by the ice fraction.
func Conductivity(dry, sat, porosity, moist, ice float64) float64 {
	if porosity <= 0 {
		return dry
	}
	sr := math.Min(moist/porosity, 1)
	if sr <= 0 {
		return dry
	}
	var ke float64
	if ice > 0 {
		ke = sr
		sat *= math.Pow(2.2/0.57, ice/porosity)
	} else if sr > 0.1 {
		ke = math.Log10(sr) + 1
	}
	return (sat-dry)*ke + dry
}

// harmonic returns the harmonic mean of two conductivities
func harmonic(a, b float64) float64 {
	if a+b <= 0 {
		return 0
	}
	return 2 * a * b / (a + b)
}
