package soil

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/chrissnell/surfenergy/internal/constants"
)

const (
	maxPhaseIterations = 10
	phaseTolerance     = 1e-4
	// half width (°C) of the centred difference used for the apparent heat
	// capacity of freezing soil
	phaseDelta = 0.01
)

// Profile is a view over the active nodes of a soil column. All slices
// share the same length; Tnew receives the solution.
type Profile struct {
	T     []float64 `msgpack:"t"` // temperatures at the start of the step
	Tnew  []float64 `msgpack:"tnew"`
	Kappa []float64 `msgpack:"kappa"`
	Cs    []float64 `msgpack:"cs"`
	Moist []float64 `msgpack:"moist"`
	Ice   []float64 `msgpack:"ice"` // ice at the start of the step

	// Beta[i] is the spacing between node i-1 and i, Gamma[i] between
	// node i and i+1
	Beta  []float64 `msgpack:"beta"`
	Gamma []float64 `msgpack:"gamma"`

	// Unfrozen enables phase change when non-nil
	Unfrozen UnfrozenFunc `msgpack:"-"`

	// NoFlux replaces the fixed temperature bottom boundary with a zero
	// flux boundary
	NoFlux bool `msgpack:"noflux"`
}

// Window returns a view of the first n nodes
func (p *Profile) Window(n int) *Profile {
	if n >= len(p.T) {
		return p
	}
	w := *p
	w.T = p.T[:n]
	w.Tnew = p.Tnew[:n]
	w.Kappa = p.Kappa[:n]
	w.Cs = p.Cs[:n]
	w.Moist = p.Moist[:n]
	w.Ice = p.Ice[:n]
	w.Beta = p.Beta[:n]
	w.Gamma = p.Gamma[:n]
	return &w
}

// Nodes returns the number of nodes in the view
func (p *Profile) Nodes() int {
	return len(p.T)
}

// Setup holds the coefficients of the finite difference system that stay
// fixed through a step, for one node window
type Setup struct {
	nodes int
	// cond[i] is the conductance (W/m²/K) between node i and i+1
	cond []float64
	// width[i] is the control volume thickness of node i
	width []float64
}

// NewSetup computes the coefficients for the view p
func NewSetup(p *Profile) *Setup {
	n := p.Nodes()
	s := &Setup{
		nodes: n,
		cond:  make([]float64, n),
		width: make([]float64, n),
	}
	for i := 0; i < n-1; i++ {
		s.cond[i] = harmonic(p.Kappa[i], p.Kappa[i+1]) / p.Gamma[i]
	}
	for i := 1; i < n; i++ {
		if i == n-1 {
			s.width[i] = p.Beta[i] / 2
		} else {
			s.width[i] = (p.Beta[i] + p.Gamma[i]) / 2
		}
	}
	return s
}

// Nodes returns the window size the coefficients were computed for
func (s *Setup) Nodes() int {
	return s.nodes
}

// SurfaceConductance returns the conductance between the surface and the
// first soil node
func (s *Setup) SurfaceConductance() float64 {
	return s.cond[0]
}

// Solve computes the node temperatures at the end of a step of dt seconds
// with the surface held at ts, using a backward Euler finite difference
// scheme. When phase change is enabled the latent heat of the ice content
// change enters as an apparent heat capacity that is iterated until the
// node temperatures settle.
func Solve(p *Profile, s *Setup, ts, dt float64) error {
	n := p.Nodes()
	if s == nil || s.nodes != n {
		return errors.New("soil column setup does not match node window")
	}
	last := n - 1
	p.Tnew[0] = ts

	m := n - 1
	if !p.NoFlux {
		m = n - 2
		p.Tnew[last] = p.T[last]
	}
	if m < 1 {
		return nil
	}
	for i := 1; i <= m; i++ {
		p.Tnew[i] = p.T[i]
	}

	iterations := 1
	if p.Unfrozen != nil {
		iterations = maxPhaseIterations
	}

	bw := 1
	if m == 1 {
		bw = 0
	}
	a := mat.NewBandDense(m, m, bw, bw, nil)
	rhs := make([]float64, m)
	var x mat.VecDense

	for it := 0; it < iterations; it++ {
		for k := 0; k < m; k++ {
			i := k + 1
			w := s.width[i] / dt

			c := p.Cs[i]
			if p.Unfrozen != nil {
				c += apparentCapacity(p, i, p.Tnew[i])
			}
			diag := c * w
			r := c * w * p.T[i]

			up := s.cond[i-1]
			diag += up
			if k > 0 {
				a.SetBand(k, k-1, -up)
			} else {
				r += up * ts
			}
			if i < last {
				down := s.cond[i]
				diag += down
				if k < m-1 {
					a.SetBand(k, k+1, -down)
				} else {
					r += down * p.Tnew[last]
				}
			}
			a.SetBand(k, k, diag)
			rhs[k] = r
		}

		err := x.SolveVec(a, mat.NewVecDense(m, rhs))
		if err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return fmt.Errorf("soil column solve: %w", err)
			}
		}

		var delta float64
		for k := 0; k < m; k++ {
			v := x.AtVec(k)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("soil column solve produced non-finite temperature at node %d", k+1)
			}
			delta = math.Max(delta, math.Abs(v-p.Tnew[k+1]))
			p.Tnew[k+1] = v
		}
		if delta < phaseTolerance {
			break
		}
	}
	return nil
}

// GroundFlux returns the heat flux from the first node into the surface for
// the last solution
func GroundFlux(p *Profile, s *Setup) float64 {
	return s.cond[0] * (p.Tnew[1] - p.Tnew[0])
}

func (p *Profile) ice(i int, t float64) float64 {
	return IceContent(p.Moist[i], p.Unfrozen(i, t))
}

// apparentCapacity returns the latent heat capacity -ρi·Lf·Δθi/ΔT of node
// i along the chord from its starting temperature to t, or the local slope
// when t is close to the starting temperature. It is never negative.
func apparentCapacity(p *Profile, i int, t float64) float64 {
	var dice float64
	if dt := t - p.T[i]; math.Abs(dt) > phaseDelta {
		dice = (p.ice(i, t) - p.Ice[i]) / dt
	} else {
		dice = (p.ice(i, t+phaseDelta) - p.ice(i, t-phaseDelta)) / (2 * phaseDelta)
	}
	return math.Max(-constants.RhoIce*constants.Lf*dice, 0)
}
