package soil

import (
	"math"

	"github.com/chrissnell/surfenergy/internal/constants"
)

// TwoNode holds the inputs of the two-node ground heat flux approximation
// of Liang et al. (1999). Node 1 sits at depth D1, the damping depth
// temperature T2 is held fixed for the step.
type TwoNode struct {
	Cs1, Cs2         float64 // volumetric heat capacities
	Kappa1, Kappa2   float64 // thermal conductivities
	D1, D2           float64 // node depths (m)
	Dp               float64 // damping depth (m)
	TsOld, T1Old, T2 float64

	// Top layer water, volumetric
	Ice0, Moist float64
	// Unfrozen is the top layer unfrozen water curve
	Unfrozen func(t float64) float64
}

// QuickFluxTerms are the ground terms returned for a trial surface
// temperature
type QuickFluxTerms struct {
	T1         float64
	GroundFlux float64
	DeltaH     float64
	Fusion     float64
	Ice        float64
}

// EstimateT1 returns the temperature of the first soil node implied by a
// surface temperature ts over a step of dt seconds.
func (p *TwoNode) EstimateT1(ts, dt float64) float64 {
	d1, d2, dp := p.D1, p.D2, p.Dp
	k1, k2 := p.Kappa1, p.Kappa2

	c1 := p.Cs2 * dp / d2 * (1. - math.Exp(-d2/dp))
	c2 := -(1. - math.Exp(d1/dp)) * math.Exp(-d2/dp)
	c3 := k1/d1 - k2/d1 + k2/d1*math.Exp(-d1/dp)

	num := k1/2./d1/d2*ts + c1/dt*p.T1Old + (2.*c2-1.+math.Exp(-d1/dp))*k2/2./d1/d2*p.T2
	den := c1/dt + k2/d1/d2*c2 + c3/2./d2
	return num / den
}

// Terms evaluates the ground flux, the heat storage change of the top
// layer and the latent heat of fusion released by freezing for surface
// temperature ts.
func (p *TwoNode) Terms(ts, dt float64) QuickFluxTerms {
	t1 := p.EstimateT1(ts, dt)
	out := QuickFluxTerms{
		T1:         t1,
		GroundFlux: p.Kappa1 / p.D1 * (t1 - ts),
	}
	out.DeltaH, out.Fusion, out.Ice = TopLayerStorage(p.Cs1, p.D1, p.TsOld, p.T1Old, ts, t1, p.Ice0, p.Moist, p.Unfrozen, dt)
	return out
}

// TopLayerStorage returns the change in sensible heat storage of the top
// layer, the latent heat released by freezing in it (both W/m²) and the
// new volumetric ice content. unfrozen may be nil, in which case the ice
// content does not change.
func TopLayerStorage(cs, d1, tsOld, t1Old, ts, t1, ice0, moist float64, unfrozen func(float64) float64, dt float64) (deltaH, fusion, ice float64) {
	deltaH = cs * d1 * ((tsOld + t1Old) - (ts + t1)) / (2. * dt)

	ice = ice0
	if unfrozen != nil {
		ice = 0
		if tmean := (ts + t1) / 2.; tmean < 0 {
			ice = IceContent(moist, unfrozen(tmean))
		}
	}
	fusion = -constants.RhoIce * constants.Lf * (ice0 - ice) * d1 / dt
	return deltaH, fusion, ice
}
