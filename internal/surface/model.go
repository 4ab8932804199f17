// Package surface solves the surface energy balance of one land unit for
// one time step and commits the result to the caller's column state.
package surface

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chrissnell/surfenergy/internal/diag"
	"github.com/chrissnell/surfenergy/internal/energy"
	"github.com/chrissnell/surfenergy/internal/snow"
	"github.com/chrissnell/surfenergy/internal/soil"
	"github.com/chrissnell/surfenergy/internal/types"
	"github.com/chrissnell/surfenergy/pkg/brent"
)

// VegetationLibrary provides the vegetation parameters the under-story
// balance needs
type VegetationLibrary interface {
	LAI(class, month int) (float64, error)
	RMin(class int) (float64, error)
}

// Model solves surface energy balances with a fixed set of options. A Model
// holds no per-column state and may be shared between goroutines as long
// as each call works on its own Step.
type Model struct {
	opts    types.Options
	solver  types.SolverConfig
	veg     VegetationLibrary
	logger  *zap.SugaredLogger
	failure diag.Writer
}

// Option configures a Model
type Option func(*Model)

// WithFailureWriter replaces the default writer, which prints the failure
// report and exits the process
func WithFailureWriter(w diag.Writer) Option {
	return func(m *Model) {
		m.failure = w
	}
}

// New creates a Model
func New(opts types.Options, solver types.SolverConfig, veg VegetationLibrary, logger *zap.SugaredLogger, options ...Option) *Model {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if solver.SurfDT <= 0 {
		solver.SurfDT = types.DefaultSurfDT
	}
	if solver.Tolerance <= 0 {
		solver.Tolerance = types.DefaultTolerance
	}
	if solver.MaxIterations <= 0 {
		solver.MaxIterations = types.DefaultMaxIterations
	}
	m := &Model{
		opts:   opts,
		solver: solver,
		veg:    veg,
		logger: logger,
	}
	for _, o := range options {
		o(m)
	}
	if m.failure == nil {
		m.failure = diag.NewFatalWriter("", logger)
	}
	return m
}

// Step is the input and in/out state of one solve
type Step struct {
	Tile        types.Tile
	IncludeSnow bool
	Forcing     types.Forcing
	Soil        *types.SoilProperties
	SoilTerms   types.SoilTerms
	SnowTerms   types.SnowTerms
	State       *types.ColumnState
}

// Result is returned by a successful solve
type Result struct {
	Tsurf       float64
	Melt        float64    // m
	Ppt         [2]float64 // precipitation reaching the surface, by Wet/Dry
	Terms       energy.Outputs
	Iterations  int
	ActiveNodes int
	// Resolved reports that the reduced node window gave a surface
	// temperature of the opposite sign and the search was repeated over
	// the whole column
	Resolved bool
}

// NonConvergenceError is returned when the surface temperature search
// fails and the failure writer returns
type NonConvergenceError struct {
	Report *diag.Report
	Err    error
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("surface energy balance did not converge (report %s): %v", e.Report.ID, e.Err)
}

func (e *NonConvergenceError) Unwrap() error {
	return e.Err
}

// Solve finds the surface temperature balancing the energy fluxes of the
// step and commits soil temperatures, energy terms and the snowpack to
// step.State.
func (m *Model) Solve(step *Step) (*Result, error) {
	if err := m.validate(step); err != nil {
		return nil, err
	}

	veg, lai, err := m.vegetation(step)
	if err != nil {
		return nil, err
	}
	b, rad, err := m.bundle(step, veg, lai)
	if err != nil {
		return nil, err
	}

	e := &step.State.Energy
	n := e.Nodes()
	res := &Result{ActiveNodes: n}

	tsurf := step.Forcing.Tair
	if m.opts.FullEnergy {
		var lo, hi float64
		if step.IncludeSnow {
			lo, hi = e.T[0]-m.solver.SurfDT, 0
		} else {
			mid := 0.5 * (e.T[0] + step.Forcing.Tair)
			lo, hi = mid-m.solver.SurfDT, mid+m.solver.SurfDT
		}

		reduced := m.opts.QuickSolve && !m.opts.QuickFlux
		if reduced {
			b.Nodes.Active = soil.ActiveNodes(e.T)
			b.Nodes.Profile.NoFlux = false
		}
		res.ActiveNodes = b.Nodes.Active

		root, err := m.search(b, lo, hi)
		if err != nil {
			return nil, m.fail(b, err)
		}
		tsurf = root.Root
		res.Iterations = root.Iterations

		if reduced && b.Nodes.Active < n && e.T[0]*tsurf < 0 {
			m.logger.Warnf("surface temperature changed sign (%.3f -> %.3f) over %d of %d nodes, solving full column",
				e.T[0], tsurf, b.Nodes.Active, n)
			b.Nodes.Active = n
			b.Nodes.Profile.NoFlux = m.opts.NoFlux
			root, err = m.search(b, lo, hi)
			if err != nil {
				return nil, m.fail(b, err)
			}
			tsurf = root.Root
			res.Iterations += root.Iterations
			res.Resolved = true
			res.ActiveNodes = n
		}
		m.logger.Debugf("surface temperature %.4f found in %d iterations over [%.2f, %.2f] with %d nodes",
			tsurf, res.Iterations, lo, hi, res.ActiveNodes)
	}

	// final evaluation over the whole column
	if b.Nodes.Profile != nil {
		b.Nodes.Active = n
		b.Nodes.Profile.NoFlux = m.opts.NoFlux
		b.Trace.FirstSolution = true
	}
	energy.Evaluate(b, tsurf)
	if b.Out.SoilErr != "" {
		return nil, m.fail(b, fmt.Errorf("%w: %s", brent.ErrNonFinite, b.Out.SoilErr))
	}

	res.Tsurf = tsurf
	res.Terms = b.Out
	m.reconcile(step, b, rad, lai, res)
	return res, nil
}

func (m *Model) search(b *energy.Bundle, lo, hi float64) (brent.Result, error) {
	b.Trace.Reset(lo, hi)
	cfg := brent.Config{Tolerance: m.solver.Tolerance, MaxIterations: m.solver.MaxIterations}
	root, err := brent.Solve(func(t float64) float64 {
		return energy.Evaluate(b, t)
	}, lo, hi, cfg)
	b.Trace.Iterations = root.Iterations
	return root, err
}

// fail hands the failed bundle to the failure writer. The default writer
// does not return.
func (m *Model) fail(b *energy.Bundle, err error) error {
	report := diag.DescribeFailure(b, err)
	m.logger.Errorf("surface energy balance failed after %d evaluations: %v", b.Trace.Evaluations, err)
	m.failure.WriteFailure(b, report)
	return &NonConvergenceError{Report: report, Err: err}
}

func (m *Model) validate(step *Step) error {
	if step == nil || step.State == nil || step.Soil == nil {
		return errors.New("step needs state and soil properties")
	}
	if err := step.State.Energy.Validate(); err != nil {
		return err
	}
	if step.Forcing.DtHours <= 0 {
		return fmt.Errorf("invalid step length %v h", step.Forcing.DtHours)
	}
	if step.Soil.Layers() == 0 {
		return errors.New("soil has no layers")
	}
	if sn := &step.State.Snow; sn.SWQ > 0 && sn.Density <= 0 {
		return fmt.Errorf("snowpack of %v m water equivalent has density %v", sn.SWQ, sn.Density)
	}
	if !m.opts.QuickFlux {
		if n := step.State.Energy.Nodes(); n != step.Soil.Nodes() || len(step.Soil.Beta) != n {
			return fmt.Errorf("energy state has %d nodes, prepared soil has %d", n, len(step.Soil.Beta))
		}
	}
	if m.opts.QuickFrozenSoil && step.Soil.FrozenSoilActive && step.Soil.UnfrozenTable == nil {
		return errors.New("quick frozen soil requires an unfrozen water table")
	}
	return nil
}

// vegetation reports whether the under-story is vegetated this month
func (m *Model) vegetation(step *Step) (bool, float64, error) {
	if step.Tile.Bare() {
		return false, 0, nil
	}
	if m.veg == nil {
		return false, 0, fmt.Errorf("tile %d is vegetated but no vegetation library is loaded", step.Tile.Index)
	}
	lai, err := m.veg.LAI(step.Tile.Class, step.Forcing.Month)
	if err != nil {
		return false, 0, fmt.Errorf("error looking up LAI: %w", err)
	}
	return lai > 0, lai, nil
}

func (m *Model) bundle(step *Step, veg bool, lai float64) (*energy.Bundle, snow.Radiation, error) {
	e := &step.State.Energy
	sn := &step.State.Snow
	sp := step.Soil
	f := &step.Forcing
	st := &step.SnowTerms
	n := e.Nodes()

	depth := st.SnowDepth
	if depth <= 0 {
		depth = sn.Depth
	}

	rad := snow.SplitRadiation(snow.RadiationInputs{
		ShortIn:       f.ShortUnderIn,
		LongIn:        f.LongUnderIn,
		Coverage:      st.Coverage,
		DeltaCoverage: st.DeltaCoverage,
		BareAlbedo:    st.BareAlbedo,
		SnowAlbedo:    st.SnowAlbedo,
		NetShortSnow:  st.NetShortSnow,
		NetLongSnow:   st.NetLongSnow,
		SnowTerms:     step.IncludeSnow || sn.SWQ == 0,
	})

	var rmin float64
	if veg {
		var err error
		if rmin, err = m.veg.RMin(step.Tile.Class); err != nil {
			return nil, rad, fmt.Errorf("error looking up minimum resistance: %w", err)
		}
	}

	b := &energy.Bundle{
		General: energy.General{
			Tile:        step.Tile,
			Month:       f.Month,
			Veg:         veg,
			VegClass:    step.Tile.Class,
			LAI:         lai,
			RMin:        rmin,
			Dt:          f.DeltaT(),
			IncludeSnow: step.IncludeSnow,
		},
		Layer: energy.SoilLayer{
			Cs1:        e.Cs[0],
			Cs2:        e.Cs[1],
			D1:         sp.Depth[0],
			D2:         sp.Depth[0],
			T1Old:      e.T[1],
			T2:         e.T[n-1],
			TsOld:      e.T[0],
			Kappa1:     e.Kappa[0],
			Kappa2:     e.Kappa[1],
			Dp:         sp.Dp,
			BInfilt:    sp.BInfilt,
			MaxInfil:   sp.MaxInfil,
			Bubble:     sp.Bubble[0],
			Expt:       sp.Expt[0],
			Ice0:       step.SoilTerms.Ice0,
			Moist:      step.SoilTerms.Moist,
			MaxMoist:   soil.TopLayerMaxMoist(sp),
			Depth:      sp.Depth,
			ResidMoist: sp.ResidMoist,
			Wcr:        sp.Wcr,
			Wpwp:       sp.Wpwp,
			Root:       sp.Root,
		},
		Met: energy.Met{
			UnderStory:     step.Tile.UnderStory,
			Overstory:      step.Tile.Overstory,
			NetShortBare:   rad.NetShortBare,
			NetShortGround: st.NetShortGround,
			NetShortSnow:   rad.NetShortSnow,
			NetLongSnow:    rad.NetLongSnow,
			LongBareIn:     rad.LongBareIn,
			LongSnowIn:     rad.LongSnowIn,
			Tair:           f.Tair,
			Density:        f.Density,
			Pressure:       f.Pressure,
			Elevation:      sp.Elevation,
			Emissivity:     1,
			VP:             f.VP,
			VPD:            f.VPD,
			Mu:             f.Mu,
			SurfAtten:      f.SurfAtten,
			Wdew:           [2]float64{step.State.VegWet.Wdew, step.State.VegDry.Wdew},
			Rainfall:       f.Rainfall,
			AeroResist:     f.AeroResist,
			Displacement:   f.Displacement,
			RefHeight:      f.RefHeight,
			Roughness:      f.Roughness,
			Wind:           f.Wind,
			Le:             f.LatentHeat(),
			Advection:      e.Advection,
		},
		Snow: energy.Snow{
			OldTSurf:   st.OldTSurf,
			PackTemp:   sn.PackTemp,
			SurfTemp:   sn.SurfTemp,
			Kappa:      snow.Kappa(sn.Density, depth),
			MeltEnergy: st.MeltEnergy,
			Coverage:   st.Coverage,
			Density:    sn.Density,
			SWQ:        sn.SWQ,
			SurfWater:  sn.SurfWater,

			BlowingFlux: st.BlowingFlux,
		},
		State: energy.State{
			LayerWet: step.State.LayerWet,
			LayerDry: step.State.LayerDry,
			VegWet:   step.State.VegWet,
			VegDry:   step.State.VegDry,
		},
		Flags: m.opts,
	}
	if sp.FrozenSoilActive {
		b.Layer.Unfrozen = soil.LayerUnfrozen(sp, m.opts)
	}

	if !m.opts.QuickFlux {
		b.Nodes = energy.Nodes{
			Active: n,
			Profile: &soil.Profile{
				T:        e.T,
				Tnew:     make([]float64, n),
				Kappa:    e.Kappa,
				Cs:       e.Cs,
				Moist:    e.Moist,
				Ice:      e.Ice,
				Beta:     sp.Beta,
				Gamma:    sp.Gamma,
				Unfrozen: soil.NodeUnfrozen(sp, m.opts),
				NoFlux:   m.opts.NoFlux,
			},
			Dz:   sp.Dz,
			Zsum: sp.Zsum,
		}
	}
	return b, rad, nil
}
