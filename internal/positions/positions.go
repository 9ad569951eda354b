// Package positions accumulates candidate vehicle positions produced by the
// trilateration solver and reduces them to a single robust estimate.
package positions

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyReduction reports a centroid or statistics request over an empty
// candidate list. Callers must treat this as a precondition violation, never
// as a position at the origin.
var ErrEmptyReduction = errors.New("reduction over empty candidate list")

// Position is one candidate vehicle position. Residual carries the normalized
// solve residual, CombinationID identifies the station subset that produced
// the candidate (0 when unspecified or aggregated).
type Position struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Z             float64 `json:"z"`
	Residual      float64 `json:"residual"`
	CombinationID int     `json:"combination_id"`
}

// List is an ordered, append-only sequence of candidate positions for one
// signal event. Candidates are never removed; reduction operations read but
// do not mutate the list.
type List struct {
	items []Position
}

// NewList creates an empty candidate list.
func NewList() *List {
	return &List{}
}

// FromPosition creates a list seeded with one candidate.
func FromPosition(p Position) *List {
	return &List{items: []Position{p}}
}

// Add appends a candidate.
func (l *List) Add(p Position) {
	l.items = append(l.items, p)
}

// AddCoords appends a candidate built from a bare coordinate slice. Slices
// shorter than five entries get a zero residual and combination id.
func (l *List) AddCoords(vals []float64) error {
	if len(vals) < 3 {
		return fmt.Errorf("position needs at least 3 coordinates, got %d", len(vals))
	}
	p := Position{X: vals[0], Y: vals[1], Z: vals[2]}
	if len(vals) >= 4 {
		p.Residual = vals[3]
	}
	if len(vals) >= 5 {
		p.CombinationID = int(vals[4])
	}
	l.items = append(l.items, p)
	return nil
}

// Merge appends every candidate of another list.
func (l *List) Merge(other *List) {
	l.items = append(l.items, other.items...)
}

// Len returns the number of stored candidates.
func (l *List) Len() int { return len(l.items) }

// At returns the candidate at the given index.
func (l *List) At(i int) Position { return l.items[i] }

// Distance returns the Euclidean distance between two stored candidates.
func (l *List) Distance(i, j int) float64 {
	dx := l.items[i].X - l.items[j].X
	dy := l.items[i].Y - l.items[j].Y
	dz := l.items[i].Z - l.items[j].Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Centroid returns the unweighted average of all stored candidates. The
// result carries combination id 0 and the mean residual of the members.
func (l *List) Centroid() (Position, error) {
	if len(l.items) == 0 {
		return Position{}, ErrEmptyReduction
	}
	var sumX, sumY, sumZ, sumR float64
	for _, p := range l.items {
		sumX += p.X
		sumY += p.Y
		sumZ += p.Z
		sumR += p.Residual
	}
	n := float64(len(l.items))
	return Position{
		X:        sumX / n,
		Y:        sumY / n,
		Z:        sumZ / n,
		Residual: sumR / n,
	}, nil
}

// Spread returns the root-mean-square distance of the candidates from their
// centroid, a scale for how much the combinations disagree.
func (l *List) Spread() (float64, error) {
	c, err := l.Centroid()
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, p := range l.items {
		dx := p.X - c.X
		dy := p.Y - c.Y
		dz := p.Z - c.Z
		sum += dx*dx + dy*dy + dz*dz
	}
	return math.Sqrt(sum / float64(len(l.items))), nil
}

// SelectWithin returns a new list holding only the candidates within radius
// of the given center. The receiver is left untouched so callers can rerun
// the selection with a different radius.
func (l *List) SelectWithin(center Position, radius float64) *List {
	out := NewList()
	for _, p := range l.items {
		dx := p.X - center.X
		dy := p.Y - center.Y
		dz := p.Z - center.Z
		if math.Sqrt(dx*dx+dy*dy+dz*dz) <= radius {
			out.Add(p)
		}
	}
	return out
}
