package positions

// Running folds candidates into running statistics instead of materializing
// them, bounding memory when the combination count grows as C(n,4). The
// mean updates use the incremental form (mean += delta/n), which is
// numerically stable and yields the same centroid as the materialized
// reduction.
type Running struct {
	count                    int
	x, y, z, residual        float64
	minResidual, maxResidual float64
}

// NewRunning creates an empty running reducer.
func NewRunning() *Running {
	return &Running{}
}

// Observe folds one candidate into the running state.
func (r *Running) Observe(p Position) {
	r.count++
	n := float64(r.count)
	r.x += (p.X - r.x) / n
	r.y += (p.Y - r.y) / n
	r.z += (p.Z - r.z) / n
	r.residual += (p.Residual - r.residual) / n
	if r.count == 1 || p.Residual < r.minResidual {
		r.minResidual = p.Residual
	}
	if r.count == 1 || p.Residual > r.maxResidual {
		r.maxResidual = p.Residual
	}
}

// Count returns the number of observed candidates.
func (r *Running) Count() int { return r.count }

// Centroid returns the running unweighted average position.
func (r *Running) Centroid() (Position, error) {
	if r.count == 0 {
		return Position{}, ErrEmptyReduction
	}
	return Position{X: r.x, Y: r.y, Z: r.z, Residual: r.residual}, nil
}

// ResidualRange returns the smallest and largest residual seen so far.
func (r *Running) ResidualRange() (min, max float64, err error) {
	if r.count == 0 {
		return 0, 0, ErrEmptyReduction
	}
	return r.minResidual, r.maxResidual, nil
}
