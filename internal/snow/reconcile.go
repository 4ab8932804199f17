package snow

import (
	"fmt"
	"math"

	"github.com/chrissnell/surfenergy/internal/constants"
	"github.com/chrissnell/surfenergy/internal/types"
)

// Step carries the results of the surface temperature solve into the
// snowpack mass balance
type Step struct {
	Dt             float64 // seconds
	Tsurf          float64
	RefreezeEnergy float64 // W/m², negative for melt
	Snowfall       float64 // m
	PriorCoverage  float64
}

// Outcome is the result of reconciling the pack
type Outcome struct {
	Melt float64 // m
	// RefreezeEnergy is the refreeze energy actually used, reduced when
	// there was not enough surface water to absorb it
	RefreezeEnergy float64
	MeltedOut      bool
}

// Reconcile applies the step's vapor exchange, refreeze and melt to the
// pack. On entry s.VaporFlux, s.SurfaceFlux and s.BlowingFlux are the rates
// (m/s) from the solve; on return they are the water equivalent lost over
// the step (m, positive for sublimation). An empty pack exchanges no vapor.
// SWQ and surface water are never left negative. A pack with water but no
// density violates the caller's contract and panics.
func Reconcile(s *types.SnowState, step Step, cover CoverageModel) Outcome {
	out := Outcome{RefreezeEnergy: step.RefreezeEnergy}

	var vf float64
	if s.SWQ > 0 {
		vf = s.VaporFlux * step.Dt
	}
	scale := 0.
	if vf != 0 {
		if s.SWQ < -vf {
			vf = -s.SWQ
		}
		scale = vf / (s.VaporFlux * step.Dt)
	}
	s.VaporFlux = vf
	s.SurfaceFlux *= step.Dt * scale
	s.BlowingFlux *= step.Dt * scale
	s.SWQ += vf
	s.SurfWater = math.Max(s.SurfWater+vf, 0)

	if out.RefreezeEnergy >= 0 {
		refrozen := out.RefreezeEnergy / (constants.Lf * constants.RhoWater) * step.Dt
		if refrozen > s.SurfWater {
			refrozen = s.SurfWater
			out.RefreezeEnergy = refrozen * constants.Lf * constants.RhoWater / step.Dt
		}
		s.SurfWater -= refrozen
		if s.SurfWater < 0 {
			panic(fmt.Sprintf("snow surface water negative after refreeze: %g", s.SurfWater))
		}
	} else {
		out.Melt = math.Abs(out.RefreezeEnergy) / (constants.Lf * constants.RhoWater) * step.Dt
		s.SWQ -= out.Melt
		if s.SWQ < 0 {
			out.Melt += s.SWQ
			s.SWQ = 0
		}
	}

	if s.SWQ > 0 {
		if s.Density <= 0 {
			panic(fmt.Sprintf("snowpack of %g m water equivalent has density %g", s.SWQ, s.Density))
		}
		s.SurfTemp = math.Min(step.Tsurf, 0)
		s.ColdContent = constants.ChIce * s.SurfTemp * s.SWQ
		s.Depth = 1000. * s.SWQ / s.Density
		s.Coverage = cover.Coverage(s, step.PriorCoverage, step.Snowfall)
		s.Snowing = true
	} else {
		meltOut(s)
		out.MeltedOut = true
	}

	s.VaporFlux = -s.VaporFlux
	s.SurfaceFlux = -s.SurfaceFlux
	s.BlowingFlux = -s.BlowingFlux
	return out
}

func meltOut(s *types.SnowState) {
	s.SWQ = 0
	s.Density = 0
	s.Depth = 0
	s.SurfWater = 0
	s.PackWater = 0
	s.SurfTemp = 0
	s.PackTemp = 0
	s.Coverage = 0
	s.ColdContent = 0
	s.StoreSWQ = 0
	s.Snowing = false
}
