// Package station defines ground station records and the per-signal station
// collections used by TDOA multilateration.
package station

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"gonum.org/v1/gonum/stat"
)

// SpeedOfLight is the propagation speed used to convert time differences to
// ranges, in meters per second. Every range derivation in the module must go
// through this constant.
const SpeedOfLight = 299792458.0

// rangePrec is the mantissa precision (bits) used when deriving ranges from
// nanosecond time differences. Sub-microsecond deltas against coordinates
// spanning ~1e7 m lose digits in naive float64 arithmetic.
const rangePrec = 96

var (
	// ErrInvalidRange reports a derived range that is negative or non-finite,
	// which indicates bad timestamp arithmetic in the source observation.
	ErrInvalidRange = errors.New("invalid derived range")

	// ErrNoStations reports a statistics request over an empty collection.
	ErrNoStations = errors.New("no stations in collection")
)

// Station is one ground station's position and its derived distance to the
// vehicle for a single signal event. Immutable after construction except for
// the deferred range assignment in SetRange.
type Station struct {
	X           float64 // coordinate x (m)
	Y           float64 // coordinate y (m)
	Z           float64 // coordinate z (m)
	ReceiptTime int64   // time the signal was received (Unix nanoseconds)
	Range       float64 // distance from vehicle to station (m), valid once derived
	Delay       float64 // measurement delay / quality tag (s)
	ranged      bool    // whether Range has been derived or supplied
}

// New creates a station from its position and the receipt time of the signal.
// The range stays unknown until SetRange is called with the send time.
func New(x, y, z float64, receiptTime int64) Station {
	return Station{X: x, Y: y, Z: z, ReceiptTime: receiptTime}
}

// NewRanged creates a station whose range to the vehicle is already known.
func NewRanged(x, y, z, rangeM, delay float64) (Station, error) {
	if rangeM < 0 || math.IsNaN(rangeM) || math.IsInf(rangeM, 0) {
		return Station{}, fmt.Errorf("%w: %g m", ErrInvalidRange, rangeM)
	}
	return Station{X: x, Y: y, Z: z, Range: rangeM, Delay: delay, ranged: true}, nil
}

// SetRange derives the station range from the signal send time:
// r = (t - t0) * c. The nanosecond difference is exact integer arithmetic;
// the multiplication is done in extended precision before rounding once to
// float64. A negative delta means the station claims to have received the
// signal before it was sent and is rejected as a measurement error.
func (s *Station) SetRange(sendTime int64) error {
	delta := s.ReceiptTime - sendTime
	if delta < 0 {
		return fmt.Errorf("%w: receipt %d ns precedes send %d ns", ErrInvalidRange, s.ReceiptTime, sendTime)
	}
	s.Range = RangeFromDelta(delta)
	s.ranged = true
	return nil
}

// Ranged reports whether the station range has been derived or supplied.
func (s *Station) Ranged() bool { return s.ranged }

// RangeFromDelta converts a propagation delay in nanoseconds to a range in
// meters using extended-precision arithmetic.
func RangeFromDelta(deltaNs int64) float64 {
	r := new(big.Float).SetPrec(rangePrec).SetInt64(deltaNs)
	r.Mul(r, new(big.Float).SetPrec(rangePrec).SetFloat64(SpeedOfLight))
	r.Quo(r, new(big.Float).SetPrec(rangePrec).SetFloat64(1e9))
	out, _ := r.Float64()
	return out
}

// DelayStats summarizes the measurement delays of one signal's stations.
// Timestamp is the signal send time in Unix nanoseconds.
type DelayStats struct {
	SatID     int     `json:"sat_id"`
	Timestamp int64   `json:"timestamp_ns"`
	Min       float64 `json:"min"`
	Mean      float64 `json:"mean"`
	Max       float64 `json:"max"`
}

// Stations is an ordered, append-only collection of stations belonging to one
// signal event. Individual entries are never removed; Clear drops them all.
type Stations struct {
	items       []Station
	receiptTime int64 // common receipt context shared by the members
}

// NewStations creates an empty collection.
func NewStations() *Stations {
	return &Stations{}
}

// AddStation appends a pre-built station.
func (c *Stations) AddStation(s Station) {
	c.items = append(c.items, s)
}

// Add appends a station built from its position and a known range.
func (c *Stations) Add(x, y, z, rangeM, delay float64) error {
	s, err := NewRanged(x, y, z, rangeM, delay)
	if err != nil {
		return err
	}
	c.items = append(c.items, s)
	return nil
}

// AddObserved appends a station from its position and receipt time. The range
// stays unknown until the send time is available.
func (c *Stations) AddObserved(x, y, z float64, receiptTime int64) {
	c.items = append(c.items, New(x, y, z, receiptTime))
}

// SetTime records the common receipt context for the collection.
func (c *Stations) SetTime(t int64) { c.receiptTime = t }

// Time returns the common receipt context.
func (c *Stations) Time() int64 { return c.receiptTime }

// Len returns the number of stations.
func (c *Stations) Len() int { return len(c.items) }

// At returns the station at the given index.
func (c *Stations) At(i int) Station { return c.items[i] }

// Clear removes all stations from the collection.
func (c *Stations) Clear() { c.items = nil }

// DelayStats computes min, mean, and max measurement delay across the
// collection, associated with the signal that produced it.
func (c *Stations) DelayStats(satID int, timestamp int64) (DelayStats, error) {
	if len(c.items) == 0 {
		return DelayStats{}, fmt.Errorf("delay stats for sat %d: %w", satID, ErrNoStations)
	}

	delays := make([]float64, len(c.items))
	min, max := c.items[0].Delay, c.items[0].Delay
	for i, s := range c.items {
		delays[i] = s.Delay
		if s.Delay < min {
			min = s.Delay
		}
		if s.Delay > max {
			max = s.Delay
		}
	}

	return DelayStats{
		SatID:     satID,
		Timestamp: timestamp,
		Min:       min,
		Mean:      stat.Mean(delays, nil),
		Max:       max,
	}, nil
}
