// Package solver derives candidate vehicle positions from station subsets by
// intersecting the range spheres of the stations (an Apollonius-type solve).
package solver

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"gonum.org/v1/gonum/mat"

	"mlat-resolver/internal/positions"
	"mlat-resolver/internal/station"
)

// MinStations is the smallest station subset that yields an unambiguous 3-D
// solve after reference-sphere linearization.
const MinStations = 4

// DefaultConditionLimit is the condition-number threshold above which a
// station geometry is treated as degenerate.
const DefaultConditionLimit = 1e12

// termPrec is the mantissa precision (bits) for the cancellation-prone
// right-hand-side terms d_i^2 - d_0^2 - |S_i|^2 + |S_0|^2. The squared
// magnitudes reach ~1e14 while their difference can be a few meters.
const termPrec = 128

var (
	// ErrInsufficientStations reports a subset smaller than MinStations.
	ErrInsufficientStations = errors.New("insufficient stations for solve")

	// ErrDegenerateGeometry reports a singular or ill-conditioned station
	// geometry (coplanar, collinear, or coincident stations).
	ErrDegenerateGeometry = errors.New("degenerate station geometry")
)

// Solver solves the linearized sphere-intersection system for one station
// combination at a time.
type Solver struct {
	conditionLimit float64
}

// New creates a solver. A non-positive condition limit selects
// DefaultConditionLimit.
func New(conditionLimit float64) *Solver {
	if conditionLimit <= 0 {
		conditionLimit = DefaultConditionLimit
	}
	return &Solver{conditionLimit: conditionLimit}
}

// Solve computes the candidate vehicle position for the given stations. The
// first station is the reference; subtracting its sphere equation from each
// of the others linearizes the system into m-1 equations in (x, y, z), solved
// by least squares through QR. Exactly four stations give the minimal
// determined system; more give an overdetermined solve.
//
// Degenerate geometry is reported as ErrDegenerateGeometry so the caller can
// skip the combination and keep enumerating others.
func (s *Solver) Solve(stations []station.Station, combinationID int) (positions.Position, error) {
	m := len(stations)
	if m < MinStations {
		return positions.Position{}, fmt.Errorf("%w: got %d, need %d", ErrInsufficientStations, m, MinStations)
	}

	ref := stations[0]
	rows := m - 1
	a := mat.NewDense(rows, 3, nil)
	b := mat.NewVecDense(rows, nil)

	for i := 1; i < m; i++ {
		st := stations[i]
		// Row: 2 * (S_0 - S_i).
		a.Set(i-1, 0, 2*(ref.X-st.X))
		a.Set(i-1, 1, 2*(ref.Y-st.Y))
		a.Set(i-1, 2, 2*(ref.Z-st.Z))
		b.SetVec(i-1, rhsTerm(ref, st))
	}

	if cond := mat.Cond(a, 2); math.IsInf(cond, 1) || cond > s.conditionLimit {
		return positions.Position{}, fmt.Errorf("%w: condition number %.3g exceeds %.3g",
			ErrDegenerateGeometry, cond, s.conditionLimit)
	}

	var qr mat.QR
	qr.Factorize(a)

	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, b); err != nil {
		return positions.Position{}, fmt.Errorf("%w: %v", ErrDegenerateGeometry, err)
	}

	// Normalized residual |Ax - b| / sqrt(m-1).
	var res mat.VecDense
	res.MulVec(a, &x)
	res.SubVec(b, &res)
	residual := mat.Norm(&res, 2) / math.Sqrt(float64(rows))

	p := positions.Position{
		X:             x.AtVec(0),
		Y:             x.AtVec(1),
		Z:             x.AtVec(2),
		Residual:      residual,
		CombinationID: combinationID,
	}
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
		return positions.Position{}, fmt.Errorf("%w: solve produced NaN coordinates", ErrDegenerateGeometry)
	}
	return p, nil
}

// rhsTerm forms d_i^2 - d_0^2 - |S_i|^2 + |S_0|^2 in extended precision and
// rounds once to float64.
func rhsTerm(ref, st station.Station) float64 {
	t := sq(st.Range)
	t.Sub(t, sq(ref.Range))
	t.Sub(t, sq(st.X))
	t.Sub(t, sq(st.Y))
	t.Sub(t, sq(st.Z))
	t.Add(t, sq(ref.X))
	t.Add(t, sq(ref.Y))
	t.Add(t, sq(ref.Z))
	out, _ := t.Float64()
	return out
}

func sq(v float64) *big.Float {
	f := new(big.Float).SetPrec(termPrec).SetFloat64(v)
	return f.Mul(f, f)
}
