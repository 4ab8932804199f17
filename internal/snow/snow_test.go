package snow

import (
	"math"
	"testing"

	"github.com/chrissnell/surfenergy/internal/atmos"
	"github.com/chrissnell/surfenergy/internal/types"
)

func TestKappa(t *testing.T) {
	tests := []struct {
		name           string
		density, depth float64
		expected       float64
	}{
		{name: "no pack", density: 300, depth: 0, expected: 0},
		{name: "settled pack", density: 300, depth: 0.5, expected: 0.52744},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Kappa(tt.density, tt.depth)
			if math.Abs(got-tt.expected) > 1e-5 {
				t.Errorf("expected %.5f, got %.5f", tt.expected, got)
			}
		})
	}
}

func TestSplitRadiation(t *testing.T) {
	in := RadiationInputs{
		ShortIn: 400, LongIn: 300,
		Coverage: 0.5, DeltaCoverage: 0.1,
		BareAlbedo: 0.2, SnowAlbedo: 0.8,
		NetShortSnow: 50, NetLongSnow: -40,
		SnowTerms: true,
	}
	r := SplitRadiation(in)
	want := 400*0.4*0.8 + 400*0.1*0.2
	if math.Abs(r.NetShortBare-want) > 1e-9 {
		t.Errorf("expected bare shortwave %v, got %v", want, r.NetShortBare)
	}
	if r.LongBareIn != 150 || r.LongSnowIn != 150 {
		t.Errorf("longwave should split by coverage, got %v / %v", r.LongBareIn, r.LongSnowIn)
	}
	if r.NetShortSnow != 50 || r.NetLongSnow != -40 {
		t.Errorf("snow terms should pass through, got %v / %v", r.NetShortSnow, r.NetLongSnow)
	}

	in.SnowTerms = false
	r = SplitRadiation(in)
	if r.NetShortSnow != 0 || r.NetLongSnow != 0 || r.LongSnowIn != 0 {
		t.Errorf("snow terms should be zeroed, got %+v", r)
	}
}

func TestPackExchange(t *testing.T) {
	air := Air{Tair: -5, Density: 1.3, Pressure: 95000, Resistance: 80}
	air.VaporPressure = atmos.SatVaporPressureIce(-5)
	p := Pack{Coverage: 0.8, SWQ: 0.1, PackTemp: -3, OldTSurf: -4, Kappa: 0.5}

	ex := p.Exchange(air, -5, 3600)
	if math.Abs(ex.Sensible) > 1e-12 || math.Abs(ex.LatentSub) > 1e-9 || math.Abs(ex.VaporFlux) > 1e-15 {
		t.Errorf("surface in equilibrium with the air should exchange nothing, got %+v", ex)
	}
	if ex.DeltaCC <= 0 {
		t.Errorf("cooling pack should release cold content energy, got %v", ex.DeltaCC)
	}
	if math.Abs(ex.SnowFlux-0.8*0.5*2) > 1e-12 {
		t.Errorf("unexpected snow flux %v", ex.SnowFlux)
	}

	ex = p.Exchange(air, -1, 3600)
	if ex.VaporFlux >= 0 || ex.LatentSub >= 0 {
		t.Errorf("warmer surface should sublimate, got %+v", ex)
	}

	p.BlowingFlux = -2e-8
	windy := p.Exchange(air, -1, 3600)
	if windy.SurfaceFlux != ex.SurfaceFlux || windy.BlowingFlux != -2e-8 {
		t.Errorf("blowing snow should not change the surface exchange, got %+v", windy)
	}
	if math.Abs(windy.VaporFlux-(ex.VaporFlux-2e-8)) > 1e-20 {
		t.Errorf("vapor flux should include blowing snow, got %v", windy.VaporFlux)
	}
	wantSub := ex.LatentSub - 2.845e6*1000*2e-8*0.8
	if math.Abs(windy.LatentSub-wantSub) > 1e-6 {
		t.Errorf("expected latent heat of sublimation %v, got %v", wantSub, windy.LatentSub)
	}
}

func TestRefreeze(t *testing.T) {
	full := 0.001 * 3.337e5 * 1000 / 3600

	tests := []struct {
		name            string
		t, rest         float64
		refreeze, resid float64
	}{
		{name: "below freezing", t: -1, rest: 20, refreeze: full, resid: 20 + full},
		{name: "surplus at melting point", t: 0, rest: 50, refreeze: -50, resid: 0},
		{name: "partial refreeze at melting point", t: 0, rest: -30, refreeze: 30, resid: 0},
		{name: "deficit beyond refreeze", t: 0, rest: -200, refreeze: full, resid: -200 + full},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rf, resid := Refreeze(0.001, tt.t, tt.rest, 3600)
			if math.Abs(rf-tt.refreeze) > 1e-9 || math.Abs(resid-tt.resid) > 1e-9 {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.refreeze, tt.resid, rf, resid)
			}
		})
	}
}

func TestReconcileRefreezeLimitedBySurfaceWater(t *testing.T) {
	s := &types.SnowState{SWQ: 0.1, Depth: 0.4, Density: 250, SurfWater: 0.002, Coverage: 1}
	out := Reconcile(s, Step{Dt: 3600, Tsurf: -2, RefreezeEnergy: 1000, PriorCoverage: 1}, Binary{})

	if s.SurfWater != 0 {
		t.Errorf("all surface water should refreeze, %v left", s.SurfWater)
	}
	want := 0.002 * 3.337e5 * 1000 / 3600
	if math.Abs(out.RefreezeEnergy-want) > 1e-9 {
		t.Errorf("refreeze energy should be capped at %v, got %v", want, out.RefreezeEnergy)
	}
	if out.Melt != 0 {
		t.Errorf("no melt expected, got %v", out.Melt)
	}
	if s.SurfTemp != -2 || s.ColdContent >= 0 {
		t.Errorf("pack should take the surface temperature, got %v / %v", s.SurfTemp, s.ColdContent)
	}
	if math.Abs(s.Depth-0.4) > 1e-12 {
		t.Errorf("depth should follow SWQ and density, got %v", s.Depth)
	}
}

func TestReconcileMeltOut(t *testing.T) {
	s := &types.SnowState{
		SWQ: 0.01, Depth: 0.04, Density: 250, SurfWater: 0.001, PackWater: 0.002,
		SurfTemp: -1, PackTemp: -1, Coverage: 1, StoreSWQ: 0.01,
	}
	out := Reconcile(s, Step{Dt: 3600, Tsurf: 0, RefreezeEnergy: -2000, PriorCoverage: 1}, DepletionCurve{DepthFullCover: 0.1})

	if !out.MeltedOut {
		t.Fatal("expected the pack to melt out")
	}
	if math.Abs(out.Melt-0.01) > 1e-12 {
		t.Errorf("melt should be limited to the pack, got %v", out.Melt)
	}
	zero := types.SnowState{}
	if *s != zero {
		t.Errorf("melted out pack should be reset, got %+v", *s)
	}
}

func TestReconcileSublimationBoundedBySWQ(t *testing.T) {
	s := &types.SnowState{SWQ: 0.01, Depth: 0.04, Density: 250, VaporFlux: -1e-5, Coverage: 1}
	out := Reconcile(s, Step{Dt: 3600, Tsurf: -3, RefreezeEnergy: 0}, Binary{})

	if !out.MeltedOut || s.SWQ != 0 {
		t.Fatalf("pack should sublimate away, swq=%v", s.SWQ)
	}
	if math.Abs(s.VaporFlux-0.01) > 1e-12 {
		t.Errorf("reported vapor loss should equal the pack, got %v", s.VaporFlux)
	}
}

func TestReconcileSplitsBoundedVaporFlux(t *testing.T) {
	s := &types.SnowState{
		SWQ: 0.01, Depth: 0.04, Density: 250, Coverage: 1,
		VaporFlux: -4e-6, SurfaceFlux: -3e-6, BlowingFlux: -1e-6,
	}
	Reconcile(s, Step{Dt: 3600, Tsurf: -3}, Binary{})

	if math.Abs(s.SurfaceFlux-0.0075) > 1e-12 || math.Abs(s.BlowingFlux-0.0025) > 1e-12 {
		t.Errorf("bounded loss should keep the surface/blowing ratio, got %v / %v", s.SurfaceFlux, s.BlowingFlux)
	}
}

func TestReconcileEmptyPack(t *testing.T) {
	s := &types.SnowState{VaporFlux: 1e-7, SurfaceFlux: 1e-7}
	out := Reconcile(s, Step{Dt: 3600, Tsurf: -1}, Binary{})

	if s.SWQ != 0 || s.VaporFlux != 0 || s.SurfaceFlux != 0 {
		t.Errorf("an empty pack should not take up vapor, got %+v", s)
	}
	if !out.MeltedOut || s.Snowing {
		t.Errorf("an empty pack should stay reset, got %+v", s)
	}
}

func TestReconcileTracksSnowing(t *testing.T) {
	s := &types.SnowState{SWQ: 0.05, Depth: 0.2, Density: 250, Coverage: 1}
	Reconcile(s, Step{Dt: 3600, Tsurf: -2, PriorCoverage: 1}, Binary{})
	if !s.Snowing {
		t.Error("a remaining pack should be flagged")
	}

	Reconcile(s, Step{Dt: 3600, Tsurf: 0, RefreezeEnergy: -1e6, PriorCoverage: 1}, Binary{})
	if s.Snowing || s.SWQ != 0 {
		t.Errorf("melted out pack should clear the flag, got %+v", s)
	}
}

func TestReconcilePanicsWithoutDensity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a pack without density")
		}
	}()
	s := &types.SnowState{SWQ: 0.02, Depth: 0.08, Coverage: 1}
	Reconcile(s, Step{Dt: 3600, Tsurf: -1, PriorCoverage: 1}, Binary{})
}

func TestReconcileNonNegative(t *testing.T) {
	for _, rf := range []float64{-5000, -100, 0, 100, 5000} {
		for _, vf := range []float64{-1e-4, -1e-7, 0, 1e-7} {
			s := &types.SnowState{SWQ: 0.02, Depth: 0.08, Density: 250, SurfWater: 0.0005, VaporFlux: vf, Coverage: 0.7}
			Reconcile(s, Step{Dt: 3600, Tsurf: -1, RefreezeEnergy: rf, PriorCoverage: 0.7}, DepletionCurve{DepthFullCover: 0.2})
			if s.SWQ < 0 || s.SurfWater < 0 {
				t.Errorf("rf=%v vf=%v: negative mass swq=%v surf=%v", rf, vf, s.SWQ, s.SurfWater)
			}
			if (s.SWQ == 0) != (s.Coverage == 0) {
				t.Errorf("rf=%v vf=%v: coverage %v inconsistent with swq %v", rf, vf, s.Coverage, s.SWQ)
			}
			if s.Coverage < 0 || s.Coverage > 1 {
				t.Errorf("coverage out of range: %v", s.Coverage)
			}
		}
	}
}

func TestDepletionCurve(t *testing.T) {
	d := DepletionCurve{DepthFullCover: 0.2}

	tests := []struct {
		name     string
		state    types.SnowState
		prior    float64
		snowfall float64
		expected float64
	}{
		{name: "no snow", state: types.SnowState{}, prior: 1, expected: 0},
		{name: "snowing", state: types.SnowState{SWQ: 0.01, Depth: 0.05}, prior: 0.2, snowfall: 0.005, expected: 1},
		{name: "deep pack", state: types.SnowState{SWQ: 0.1, Depth: 0.3}, prior: 0.5, expected: 1},
		{name: "thin pack", state: types.SnowState{SWQ: 0.02, Depth: 0.1}, prior: 1, expected: 0.5},
		{name: "no regrowth without snowfall", state: types.SnowState{SWQ: 0.02, Depth: 0.1}, prior: 0.3, expected: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.state
			if got := d.Coverage(&s, tt.prior, tt.snowfall); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestNewCoverageModel(t *testing.T) {
	if _, ok := NewCoverageModel(false, 0.2).(Binary); !ok {
		t.Error("expected binary coverage without spatial snow")
	}
	if _, ok := NewCoverageModel(true, 0.2).(DepletionCurve); !ok {
		t.Error("expected a depletion curve with spatial snow")
	}
}
