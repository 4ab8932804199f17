package energy

import (
	"math"

	"github.com/chrissnell/surfenergy/internal/atmos"
	"github.com/chrissnell/surfenergy/internal/types"
)

// dew storage capacity of the canopy per unit leaf area (m)
const dewCapacityPerLAI = 1.0e-4

// evaporation returns the water vapour flux (kg/m²/s) leaving the snow free
// surface at temperature t; negative values are condensation, which is not
// limited by soil or canopy.
func (b *Bundle) evaporation(t, eair float64) float64 {
	m := &b.Met
	potential := atmos.VaporFlux(m.Density, m.Pressure, atmos.SatVaporPressure(t), eair, m.AeroResist)
	if potential <= 0 {
		return potential
	}
	if !b.General.Veg {
		return potential * b.bareSoilFraction()
	}

	wet := b.canopyEvaporation(potential, b.Met.Wdew[types.Wet], b.State.LayerWet)
	if !b.Flags.DistPrcp {
		return wet
	}
	dry := b.canopyEvaporation(potential, b.Met.Wdew[types.Dry], b.State.LayerDry)
	return m.Mu*wet + (1-m.Mu)*dry
}

// bareSoilFraction returns the fraction of potential evaporation supplied
// by the top layer, after the variable infiltration curve
func (b *Bundle) bareSoilFraction() float64 {
	l := &b.Layer
	var resid float64
	if len(l.ResidMoist) > 0 {
		resid = l.ResidMoist[0]
	}
	if l.MaxMoist <= resid {
		return 0
	}
	w := (l.Moist - l.Ice0 - resid) / (l.MaxMoist - resid)
	w = math.Min(math.Max(w, 0), 1)
	if l.BInfilt <= 0 {
		return w
	}
	return 1 - math.Pow(1-w, l.BInfilt/(1+l.BInfilt))
}

// canopyEvaporation combines evaporation of intercepted dew with
// transpiration limited by canopy resistance and root zone moisture
func (b *Bundle) canopyEvaporation(potential, wdew float64, layers []types.LayerState) float64 {
	g := &b.General
	if g.LAI <= 0 {
		return potential * b.bareSoilFraction()
	}
	wetFrac := 0.0
	if wdew > 0 {
		wetFrac = math.Min(math.Pow(wdew/(dewCapacityPerLAI*g.LAI), 2./3.), 1)
	}

	stress := b.moistureStress(layers)
	if stress <= 0 || g.RMin <= 0 {
		return wetFrac * potential
	}
	rc := g.RMin / (g.LAI * stress)
	ra := b.Met.AeroResist
	transp := potential * ra / (ra + rc)
	return wetFrac*potential + (1-wetFrac)*transp
}

// moistureStress returns the root weighted soil moisture stress factor in
// [0, 1]; 1 when no layer state is available
func (b *Bundle) moistureStress(layers []types.LayerState) float64 {
	l := &b.Layer
	if len(layers) == 0 || len(l.Root) == 0 {
		return 1
	}
	var stress, roots float64
	for i, layer := range layers {
		if i >= len(l.Root) || i >= len(l.Wcr) || i >= len(l.Wpwp) {
			break
		}
		w := layer.Moist - layer.Ice
		var f float64
		switch {
		case w >= l.Wcr[i]:
			f = 1
		case w > l.Wpwp[i] && l.Wcr[i] > l.Wpwp[i]:
			f = (w - l.Wpwp[i]) / (l.Wcr[i] - l.Wpwp[i])
		}
		stress += l.Root[i] * f
		roots += l.Root[i]
	}
	if roots <= 0 {
		return 1
	}
	return stress / roots
}
