// Package atmos holds the near-surface atmospheric exchange relations used by
// the ground and snow energy balances.
package atmos

import (
	"math"

	"github.com/chrissnell/surfenergy/internal/constants"
)

// SatVaporPressure returns the saturation vapor pressure (Pa) over water at
// temperature t (°C), after Tetens.
func SatVaporPressure(t float64) float64 {
	return 610.78 * math.Exp(17.269*t/(237.3+t))
}

// SatVaporPressureIce returns the saturation vapor pressure (Pa) over ice at
// temperature t (°C).
func SatVaporPressureIce(t float64) float64 {
	if t >= 0 {
		return SatVaporPressure(t)
	}
	return 610.78 * math.Exp(21.875*t/(265.5+t))
}

// VaporPressure returns the ambient vapor pressure, deriving it from the
// deficit when vp is not supplied.
func VaporPressure(tair, vp, vpd float64) float64 {
	if vp > 0 {
		return vp
	}
	return math.Max(SatVaporPressure(tair)-vpd, 0)
}

// SensibleHeat returns the sensible heat flux into a surface at ts (W/m²)
func SensibleHeat(density, tair, ts, ra float64) float64 {
	if ra <= 0 {
		return 0
	}
	return density * constants.CpAir * (tair - ts) / ra
}

// VaporFlux returns the mass flux of water vapor leaving a surface whose
// vapor pressure is esurf (kg/m²/s); negative values are condensation.
func VaporFlux(density, pressure, esurf, eair, ra float64) float64 {
	if ra <= 0 || pressure <= 0 {
		return 0
	}
	return density * constants.EpsVapor / pressure * (esurf - eair) / ra
}

// LongwaveOut returns the longwave emission of a surface at ts (W/m²)
func LongwaveOut(emissivity, ts float64) float64 {
	tk := ts + constants.Kelvin
	return emissivity * constants.StefanBoltzmann * tk * tk * tk * tk
}
