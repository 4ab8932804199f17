// Package snow holds the snow side of the surface energy balance: the
// conductance of the pack, the split of radiation between snow covered and
// bare ground, the turbulent exchange at the snow surface, refreeze energy
// coupling and the end of step snowpack mass balance.
package snow

import (
	"github.com/chrissnell/surfenergy/internal/atmos"
	"github.com/chrissnell/surfenergy/internal/constants"
)

// Kappa returns the thermal conductance (W/m²/K) of a snowpack of the given
// density (kg/m³) and depth (m). It is zero when there is no pack.
func Kappa(density, depth float64) float64 {
	if depth <= 0 {
		return 0
	}
	return constants.KSnow * density * density / depth
}

// Radiation is the split of the under-story radiation between the bare and
// the snow covered fractions of the tile
type Radiation struct {
	NetShortBare float64
	NetShortSnow float64
	NetLongSnow  float64
	LongBareIn   float64
	LongSnowIn   float64
}

// RadiationInputs are the terms SplitRadiation works from
type RadiationInputs struct {
	ShortIn, LongIn           float64
	Coverage, DeltaCoverage   float64
	BareAlbedo, SnowAlbedo    float64
	NetShortSnow, NetLongSnow float64
	// SnowTerms keeps the snow surface terms; when false they are zeroed
	// because the snow model accounts for them itself
	SnowTerms bool
}

// SplitRadiation distributes incoming radiation between bare ground and
// snow. Newly exposed ground (DeltaCoverage) receives shortwave at the snow
// albedo.
func SplitRadiation(in RadiationInputs) Radiation {
	r := Radiation{
		NetShortBare: in.ShortIn*(1-(in.Coverage+in.DeltaCoverage))*(1-in.BareAlbedo) +
			in.ShortIn*in.DeltaCoverage*(1-in.SnowAlbedo),
		LongBareIn: (1 - in.Coverage) * in.LongIn,
	}
	if in.SnowTerms {
		r.NetShortSnow = in.NetShortSnow
		r.NetLongSnow = in.NetLongSnow
		r.LongSnowIn = in.Coverage * in.LongIn
	}
	return r
}

// Air is the atmospheric state the snow surface exchanges with
type Air struct {
	Tair          float64
	Density       float64
	Pressure      float64
	VaporPressure float64
	Resistance    float64
}

// Pack holds the snowpack quantities that enter the balance while the
// surface temperature is searched
type Pack struct {
	Coverage  float64
	SWQ       float64 // m
	SurfWater float64 // m
	PackTemp  float64
	OldTSurf  float64
	Kappa     float64

	// BlowingFlux is the sublimation rate (m/s, negative for loss) of snow
	// carried by the wind, supplied by the blowing snow scheme
	BlowingFlux float64
}

// Exchange holds the snow surface fluxes at a trial temperature. Energy
// terms are W/m² over the whole tile, positive toward the surface.
type Exchange struct {
	Sensible  float64
	LatentSub float64
	// VaporFlux is the water equivalent rate (m/s) the pack gains, negative
	// when it sublimates. It is the sum of the exchange at the pack surface
	// and the sublimation of blowing snow.
	VaporFlux   float64
	SurfaceFlux float64
	BlowingFlux float64
	DeltaCC     float64
	SnowFlux    float64
}

// Exchange evaluates the turbulent and conductive fluxes of the snow
// surface at temperature t over a step of dt seconds
func (p Pack) Exchange(air Air, t, dt float64) Exchange {
	cov := p.Coverage
	e := atmos.VaporFlux(air.Density, air.Pressure, atmos.SatVaporPressureIce(t), air.VaporPressure, air.Resistance)
	surface := -e / constants.RhoWater
	vapor := surface + p.BlowingFlux
	return Exchange{
		Sensible:    cov * atmos.SensibleHeat(air.Density, air.Tair, t, air.Resistance),
		LatentSub:   constants.Ls * constants.RhoWater * vapor * cov,
		VaporFlux:   vapor,
		SurfaceFlux: surface,
		BlowingFlux: p.BlowingFlux,
		DeltaCC:     constants.ChIce * p.SWQ * (p.OldTSurf - t) / dt * cov,
		SnowFlux:    ConductiveFlux(cov, p.Kappa, p.PackTemp, t),
	}
}

// ConductiveFlux returns the heat conducted from a snow layer at tsnow into
// a surface at t
func ConductiveFlux(coverage, kappa, tsnow, t float64) float64 {
	return coverage * kappa * (tsnow - t)
}

// Refreeze couples the refreezing of surface liquid water to the energy
// balance. rest is the residual of every other term. Below freezing all
// surface water can refreeze and its latent heat is added. At the melting
// point any surplus energy becomes negative refreeze energy (melt) and the
// residual is zeroed, pinning the surface at 0 °C.
func Refreeze(surfWater, t, rest, dt float64) (refreeze, residual float64) {
	refreeze = surfWater * constants.Lf * constants.RhoWater / dt
	if t >= 0 && rest > -refreeze {
		return -rest, 0
	}
	return refreeze, rest + refreeze
}
