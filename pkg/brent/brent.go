// Package brent finds a root of a scalar function inside a bracket using
// Brent's method: inverse quadratic interpolation and secant steps,
// falling back to bisection whenever the interpolated step would leave the
// bracket or converge too slowly.
package brent

import (
	"errors"
	"math"
)

// Sentinel is returned as the root whenever Solve fails. Callers that only
// look at the value can test it with IsSentinel.
const Sentinel = -9999.0

// float64 machine epsilon, used in the convergence test
const eps = 2.220446049250313e-16

var (
	// ErrNoBracket is returned when f(lo) and f(hi) have the same sign
	ErrNoBracket = errors.New("root is not bracketed")
	// ErrMaxIterations is returned when the iteration budget is exhausted
	ErrMaxIterations = errors.New("maximum number of iterations exceeded")
	// ErrNonFinite is returned when the function yields NaN or ±Inf
	ErrNonFinite = errors.New("function returned a non-finite value")
)

// IsSentinel reports whether v is the failure value returned by Solve
func IsSentinel(v float64) bool {
	return v <= -9998
}

// Func is the function whose root is sought
type Func func(x float64) float64

// Config bounds the search
type Config struct {
	// Tolerance is the absolute tolerance on the root
	Tolerance     float64
	MaxIterations int
}

// Result describes a converged root
type Result struct {
	Root       float64
	Residual   float64
	Iterations int
}

// Solve returns the root of f in [lo, hi]. f(lo) and f(hi) must differ in
// sign (either may be zero). On failure the returned Result.Root is
// Sentinel and the error is one of ErrNoBracket, ErrMaxIterations or
// ErrNonFinite.
func Solve(f Func, lo, hi float64, cfg Config) (Result, error) {
	fail := Result{Root: Sentinel}

	a, b := lo, hi
	fa, fb := f(a), f(b)
	if !finite(fa) || !finite(fb) {
		return fail, ErrNonFinite
	}
	if (fa > 0 && fb > 0) || (fa < 0 && fb < 0) {
		return fail, ErrNoBracket
	}

	c, fc := b, fb
	var d, e float64

	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		if (fb > 0 && fc > 0) || (fb < 0 && fc < 0) {
			// rename a, b, c and adjust the bounding interval d
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2.0*eps*math.Abs(b) + 0.5*cfg.Tolerance
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return Result{Root: b, Residual: fb, Iterations: iter}, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			var p, q float64
			if a == c {
				// secant
				p = 2.0 * xm * s
				q = 1.0 - s
			} else {
				// inverse quadratic interpolation
				q = fa / fc
				r := fb / fc
				p = s * (2.0*xm*q*(q-r) - (b-a)*(r-1.0))
				q = (q - 1.0) * (r - 1.0) * (s - 1.0)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3.0*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2.0*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
		if !finite(fb) {
			return fail, ErrNonFinite
		}
	}

	return fail, ErrMaxIterations
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
