package surface

import (
	"github.com/chrissnell/surfenergy/internal/energy"
	"github.com/chrissnell/surfenergy/internal/snow"
	"github.com/chrissnell/surfenergy/internal/soil"
	"github.com/chrissnell/surfenergy/internal/types"
)

// reconcile commits the converged solution to the column state
func (m *Model) reconcile(step *Step, b *energy.Bundle, rad snow.Radiation, lai float64, res *Result) {
	e := &step.State.Energy
	sn := &step.State.Snow
	st := &step.SnowTerms
	o := &b.Out
	tsurf := res.Tsurf

	e.Error = o.Residual
	e.GroundFlux = o.GroundFlux
	e.DeltaH = o.DeltaH
	e.Fusion = o.Fusion
	e.Sensible = o.Sensible
	e.Latent = o.Latent
	e.LatentSub = o.LatentSub
	e.SnowFlux = o.SnowFlux
	if step.IncludeSnow {
		e.DeltaCC = o.DeltaCC
		e.RefreezeEnergy = o.RefreezeEnergy
		sn.VaporFlux = o.VaporFlux
		sn.SurfaceFlux = o.SurfaceFlux
		sn.BlowingFlux = o.BlowingFlux
	}

	m.commitSoil(step, b, tsurf)
	res.Ppt = m.routePrecipitation(step, lai)

	e.NetShortGround = st.NetShortGround
	if step.IncludeSnow {
		e.NetLongUnder = o.NetLongBare + o.NetLongSnow
		e.NetShortUnder = rad.NetShortBare + rad.NetShortSnow + st.NetShortGround
	} else {
		e.NetLongUnder = o.NetLongBare + st.NetLongSnow
		e.NetShortUnder = rad.NetShortBare + st.NetShortSnow + st.NetShortGround
		e.Latent += st.SnowLatent
		e.LatentSub += st.SnowLatentSub
		e.Sensible += st.SnowSensible
	}
	e.LongUnderOut = step.Forcing.LongUnderIn - e.NetLongUnder
	covered := st.Coverage + st.DeltaCoverage
	e.AlbedoUnder = (1-covered)*st.BareAlbedo + covered*st.SnowAlbedo
	e.MeltEnergy = st.MeltEnergy
	e.Tsurf = sn.Coverage*sn.SurfTemp + (1-sn.Coverage)*tsurf

	if step.IncludeSnow {
		out := snow.Reconcile(sn, snow.Step{
			Dt:             b.General.Dt,
			Tsurf:          tsurf,
			RefreezeEnergy: e.RefreezeEnergy,
			Snowfall:       m.snowfall(&step.Forcing),
			PriorCoverage:  st.Coverage,
		}, snow.NewCoverageModel(m.opts.SpatialSnow, step.Soil.DepthFullSnowCover))
		e.RefreezeEnergy = out.RefreezeEnergy
		res.Melt = out.Melt
		if out.MeltedOut {
			m.logger.Debugf("snowpack melted out on tile %d", step.Tile.Index)
		}
	}
}

// commitSoil stores the new soil temperatures
func (m *Model) commitSoil(step *Step, b *energy.Bundle, tsurf float64) {
	e := &step.State.Energy
	if !m.opts.GroundFlux {
		e.T[0] = tsurf
		return
	}
	if m.opts.QuickFlux {
		e.T[0] = tsurf
		e.T[1] = b.Out.T1
		return
	}
	layers := [][]types.LayerState{step.State.LayerWet}
	if m.opts.DistPrcp {
		layers = append(layers, step.State.LayerDry)
	}
	soil.Finish(e, step.Soil, b.Nodes.Profile.Tnew, b.Nodes.Profile.Unfrozen, layers...)
}

// routePrecipitation returns the precipitation reaching the surface. Only
// snow free steps are routed here; otherwise the snow model owns it.
func (m *Model) routePrecipitation(step *Step, lai float64) [2]float64 {
	var ppt [2]float64
	if sn := &step.State.Snow; step.IncludeSnow || sn.Snowing || sn.HasPack() {
		return ppt
	}
	rain := step.Forcing.Rainfall
	s := step.State
	if step.Tile.Bare() {
		ppt[types.Wet] = rain[types.Wet]
		if m.opts.DistPrcp {
			ppt[types.Dry] = rain[types.Dry]
		}
		return ppt
	}
	if lai <= 0 {
		s.VegWet.Throughfall = rain[types.Wet]
		if m.opts.DistPrcp {
			s.VegDry.Throughfall = rain[types.Dry]
		}
	}
	ppt[types.Wet] = s.VegWet.Throughfall
	if m.opts.DistPrcp {
		ppt[types.Dry] = s.VegDry.Throughfall
	}
	return ppt
}

// snowfall returns the tile mean snowfall of the step
func (m *Model) snowfall(f *types.Forcing) float64 {
	if !m.opts.DistPrcp {
		return f.Snowfall[types.Wet]
	}
	return f.Mu*f.Snowfall[types.Wet] + (1-f.Mu)*f.Snowfall[types.Dry]
}
