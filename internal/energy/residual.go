package energy

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/surfenergy/internal/atmos"
	"github.com/chrissnell/surfenergy/internal/snow"
	"github.com/chrissnell/surfenergy/internal/soil"
)

// Outputs are the energy terms (W/m², positive toward the surface) and
// diagnostics of the last evaluation
type Outputs struct {
	NetShortBare   float64
	NetShortSnow   float64
	NetShortGround float64
	NetLongBare    float64
	NetLongSnow    float64

	Sensible  float64
	Latent    float64
	LatentSub float64

	GroundFlux float64
	DeltaH     float64
	Fusion     float64
	SnowFlux   float64

	Advection      float64
	DeltaCC        float64
	RefreezeEnergy float64

	T1       float64
	Ice      float64 // top layer volumetric ice
	Residual float64

	// VaporFlux (m/s) is split between the pack surface and blowing snow
	VaporFlux   float64
	SurfaceFlux float64
	BlowingFlux float64

	// SoilErr holds the column solver failure of the evaluation, if any
	SoilErr string
}

// Terms returns the energy terms that make up the residual
func (o *Outputs) Terms() []float64 {
	return []float64{
		o.NetShortBare, o.NetShortSnow, o.NetShortGround,
		o.NetLongBare, o.NetLongSnow,
		o.Sensible, o.Latent, o.LatentSub,
		o.GroundFlux, o.DeltaH, o.Fusion, o.SnowFlux,
		o.Advection, o.DeltaCC, o.RefreezeEnergy,
	}
}

// Total sums the energy terms
func (o *Outputs) Total() float64 {
	return floats.Sum(o.Terms())
}

// Evaluate returns the energy balance residual at surface temperature t and
// records every term in b.Out. A failure of the soil column solution
// yields NaN so that the root search stops.
func Evaluate(b *Bundle, t float64) float64 {
	b.Trace.T = t
	b.Trace.Evaluations++

	o := &b.Out
	*o = Outputs{}
	dt := b.General.Dt
	cov := b.Snow.Coverage
	bare := 1 - cov
	m := &b.Met

	o.NetShortBare = m.NetShortBare
	o.NetShortSnow = m.NetShortSnow
	o.NetShortGround = m.NetShortGround
	o.Advection = m.Advection

	if b.Flags.QuickFlux {
		tn := b.TwoNode()
		terms := tn.Terms(t, dt)
		o.T1 = terms.T1
		o.GroundFlux = terms.GroundFlux
		o.DeltaH = terms.DeltaH
		o.Fusion = terms.Fusion
		o.Ice = terms.Ice
	} else {
		p := b.Window()
		if b.Trace.FirstSolution || b.Trace.setup == nil || b.Trace.setup.Nodes() != p.Nodes() {
			b.Trace.setup = soil.NewSetup(p)
			b.Trace.FirstSolution = false
		}
		if err := soil.Solve(p, b.Trace.setup, t, dt); err != nil {
			o.SoilErr = err.Error()
			o.Residual = math.NaN()
			b.Trace.Residual = o.Residual
			return o.Residual
		}
		l := b.Layer
		o.T1 = p.Tnew[1]
		o.GroundFlux = soil.GroundFlux(p, b.Trace.setup)
		o.DeltaH, o.Fusion, o.Ice = soil.TopLayerStorage(l.Cs1, l.D1, l.TsOld, l.T1Old, t, o.T1, l.Ice0, l.Moist, l.Unfrozen, dt)
	}

	eair := atmos.VaporPressure(m.Tair, m.VP, m.VPD)
	o.Sensible = bare * atmos.SensibleHeat(m.Density, m.Tair, t, m.AeroResist)
	o.Latent = -m.Le * bare * b.evaporation(t, eair)
	o.NetLongBare = m.LongBareIn - bare*atmos.LongwaveOut(m.Emissivity, t)

	if b.General.IncludeSnow {
		pack := snow.Pack{
			Coverage:  cov,
			SWQ:       b.Snow.SWQ,
			SurfWater: b.Snow.SurfWater,
			PackTemp:  b.Snow.PackTemp,
			OldTSurf:  b.Snow.OldTSurf,
			Kappa:     b.Snow.Kappa,

			BlowingFlux: b.Snow.BlowingFlux,
		}
		air := snow.Air{Tair: m.Tair, Density: m.Density, Pressure: m.Pressure, VaporPressure: eair, Resistance: m.AeroResist}
		ex := pack.Exchange(air, t, dt)
		o.Sensible += ex.Sensible
		o.LatentSub = ex.LatentSub
		o.VaporFlux = ex.VaporFlux
		o.SurfaceFlux = ex.SurfaceFlux
		o.BlowingFlux = ex.BlowingFlux
		o.DeltaCC = ex.DeltaCC
		o.SnowFlux = ex.SnowFlux
		o.NetLongSnow = m.LongSnowIn - cov*atmos.LongwaveOut(m.Emissivity, t)
	} else if cov > 0 {
		o.SnowFlux = snow.ConductiveFlux(cov, b.Snow.Kappa, b.Snow.SurfTemp, t)
	}

	rest := o.Total()
	if b.General.IncludeSnow {
		o.RefreezeEnergy, rest = snow.Refreeze(b.Snow.SurfWater, t, rest, dt)
	}

	o.Residual = rest
	b.Trace.Residual = rest
	return rest
}
