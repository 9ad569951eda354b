package signal

import (
	"errors"
	"math"
	"testing"

	"mlat-resolver/internal/station"
)

func TestPositionKnown(t *testing.T) {
	sig := New(3, 1_000_000_000)

	coords := [][3]float64{
		{0, 0, 0},
		{1000, 0, 0},
		{0, 1000, 0},
	}
	for _, c := range coords {
		if err := sig.AddGroundStation(c[0], c[1], c[2], 500, 0); err != nil {
			t.Fatalf("AddGroundStation failed: %v", err)
		}
	}

	// Known exactly for every added coordinate triple, regardless of order.
	for i := len(coords) - 1; i >= 0; i-- {
		c := coords[i]
		if !sig.PositionKnown(c[0], c[1], c[2]) {
			t.Errorf("Expected position (%v, %v, %v) to be known", c[0], c[1], c[2])
		}
	}

	// Never-added triples are unknown, even when close to known ones.
	unknown := [][3]float64{
		{0, 0, 1},
		{1000.0001, 0, 0},
		{-1000, 0, 0},
	}
	for _, c := range unknown {
		if sig.PositionKnown(c[0], c[1], c[2]) {
			t.Errorf("Expected position (%v, %v, %v) to be unknown", c[0], c[1], c[2])
		}
	}
}

func TestAddGroundStationRejectsNegativeRange(t *testing.T) {
	sig := New(1, 0)
	err := sig.AddGroundStation(0, 0, 0, -5, 0)
	if !errors.Is(err, station.ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange, got %v", err)
	}
	if sig.Len() != 0 {
		t.Errorf("Rejected observation must not be stored, have %d", sig.Len())
	}
}

func TestAddGroundStationTimed(t *testing.T) {
	sig := New(1, 0)

	// 10 us of travel is ~3 km.
	if err := sig.AddGroundStationTimed(1, 2, 3, 10_000, 0.05); err != nil {
		t.Fatalf("AddGroundStationTimed failed: %v", err)
	}
	obs := sig.Observation(0)
	want := station.SpeedOfLight * 1e-5
	if math.Abs(obs.Range-want) > 1e-6 {
		t.Errorf("Expected derived range %.6f m, got %.6f", want, obs.Range)
	}
	if obs.Delay != 0.05 {
		t.Errorf("Expected delay 0.05, got %v", obs.Delay)
	}

	// Negative propagation delay is a measurement error.
	err := sig.AddGroundStationTimed(4, 5, 6, -1, 0)
	if !errors.Is(err, station.ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange for negative delta, got %v", err)
	}
}

func TestConvertToStations(t *testing.T) {
	const timestamp = int64(987_654_321)
	sig := New(9, timestamp)

	if err := sig.AddGroundStation(0, 0, 0, 100, 0.1); err != nil {
		t.Fatalf("AddGroundStation failed: %v", err)
	}
	if err := sig.AddGroundStation(1000, 0, 0, 200, 0.2); err != nil {
		t.Fatalf("AddGroundStation failed: %v", err)
	}

	dst := station.NewStations()
	if err := sig.ConvertToStations(dst); err != nil {
		t.Fatalf("ConvertToStations failed: %v", err)
	}

	if dst.Len() != 2 {
		t.Fatalf("Expected 2 stations, got %d", dst.Len())
	}
	// The signal's send time becomes the collection's receipt context.
	if dst.Time() != timestamp {
		t.Errorf("Expected receipt context %d, got %d", timestamp, dst.Time())
	}

	first := dst.At(0)
	if first.Range != 100 || first.Delay != 0.1 {
		t.Errorf("Unexpected first station: %+v", first)
	}
	second := dst.At(1)
	if second.X != 1000 || second.Range != 200 || second.Delay != 0.2 {
		t.Errorf("Unexpected second station: %+v", second)
	}
}

func TestSignalDelayStats(t *testing.T) {
	sig := New(7, int64(1234.5*1e9))
	for i, delay := range []float64{0.1, 0.2, 0.3} {
		if err := sig.AddGroundStation(float64(i)*100, 0, 0, 50, delay); err != nil {
			t.Fatalf("AddGroundStation failed: %v", err)
		}
	}

	stats, err := sig.DelayStats()
	if err != nil {
		t.Fatalf("DelayStats failed: %v", err)
	}
	if stats.SatID != 7 {
		t.Errorf("Expected sat id 7, got %d", stats.SatID)
	}
	if math.Abs(stats.Mean-0.2) > 1e-12 || stats.Min != 0.1 || stats.Max != 0.3 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	empty := New(1, 0)
	if _, err := empty.DelayStats(); !errors.Is(err, station.ErrNoStations) {
		t.Errorf("Expected ErrNoStations for empty signal, got %v", err)
	}
}

func TestSignalAccessors(t *testing.T) {
	sig := New(5, 100)
	sig.SetSatID(6)
	sig.SetTimestamp(200)

	if sig.SatID() != 6 {
		t.Errorf("Expected sat id 6, got %d", sig.SatID())
	}
	if sig.Timestamp() != 200 {
		t.Errorf("Expected timestamp 200, got %d", sig.Timestamp())
	}
}
