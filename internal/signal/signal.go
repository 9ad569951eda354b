// Package signal models one transmitted signal event and the raw per-station
// observations recorded for it.
package signal

import (
	"fmt"

	"mlat-resolver/internal/station"
)

// Observation is one ground station's raw record of a signal: where the
// station sits, how far the derived range puts the vehicle, and the
// measurement delay tag.
type Observation struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Range float64 `json:"range_m"`
	Delay float64 `json:"delay_s"`
}

// Signal is one transmitted event: the vehicle identifier, the send time, and
// every raw observation that will be converted into station records.
type Signal struct {
	satID        int
	timestamp    int64 // send time (Unix nanoseconds)
	observations []Observation
}

// New creates a signal for the given vehicle id and send time.
func New(satID int, timestamp int64) *Signal {
	return &Signal{satID: satID, timestamp: timestamp}
}

// AddGroundStation records an observation with an already-derived range.
func (s *Signal) AddGroundStation(x, y, z, rangeM, delay float64) error {
	if rangeM < 0 {
		return fmt.Errorf("observation at (%g, %g, %g): %w", x, y, z, station.ErrInvalidRange)
	}
	s.observations = append(s.observations, Observation{X: x, Y: y, Z: z, Range: rangeM, Delay: delay})
	return nil
}

// AddGroundStationTimed records an observation from the propagation delay in
// nanoseconds; the range is derived as c * dt.
func (s *Signal) AddGroundStationTimed(x, y, z float64, deltaNs int64, delay float64) error {
	if deltaNs < 0 {
		return fmt.Errorf("observation at (%g, %g, %g): negative propagation delay %d ns: %w",
			x, y, z, deltaNs, station.ErrInvalidRange)
	}
	s.observations = append(s.observations, Observation{
		X: x, Y: y, Z: z,
		Range: station.RangeFromDelta(deltaNs),
		Delay: delay,
	})
	return nil
}

// PositionKnown reports whether an observation from exactly this station
// position was already added. Two observations from the same physical
// location are treated as the same entry.
func (s *Signal) PositionKnown(x, y, z float64) bool {
	for _, o := range s.observations {
		if o.X == x && o.Y == y && o.Z == z {
			return true
		}
	}
	return false
}

// ConvertToStations is the one-way bridge from raw observations to station
// records. The signal's send time becomes the collection's common receipt
// context. The resulting stations are owned by dst, independent of s.
func (s *Signal) ConvertToStations(dst *station.Stations) error {
	dst.SetTime(s.timestamp)
	for _, o := range s.observations {
		if err := dst.Add(o.X, o.Y, o.Z, o.Range, o.Delay); err != nil {
			return fmt.Errorf("sat %d: %w", s.satID, err)
		}
	}
	return nil
}

// DelayStats computes min, mean, and max delay over the raw observations.
func (s *Signal) DelayStats() (station.DelayStats, error) {
	if len(s.observations) == 0 {
		return station.DelayStats{}, fmt.Errorf("delay stats for sat %d: %w", s.satID, station.ErrNoStations)
	}
	stats := station.DelayStats{
		SatID:     s.satID,
		Timestamp: s.timestamp,
		Min:       s.observations[0].Delay,
		Max:       s.observations[0].Delay,
	}
	var sum float64
	for _, o := range s.observations {
		sum += o.Delay
		if o.Delay < stats.Min {
			stats.Min = o.Delay
		}
		if o.Delay > stats.Max {
			stats.Max = o.Delay
		}
	}
	stats.Mean = sum / float64(len(s.observations))
	return stats, nil
}

// SetSatID changes the vehicle identifier.
func (s *Signal) SetSatID(id int) { s.satID = id }

// SetTimestamp changes the send time.
func (s *Signal) SetTimestamp(t int64) { s.timestamp = t }

// SatID returns the vehicle identifier.
func (s *Signal) SatID() int { return s.satID }

// Timestamp returns the send time in Unix nanoseconds.
func (s *Signal) Timestamp() int64 { return s.timestamp }

// Len returns the number of recorded observations.
func (s *Signal) Len() int { return len(s.observations) }

// Observation returns the raw observation at the given index.
func (s *Signal) Observation(i int) Observation { return s.observations[i] }
