package station

import (
	"errors"
	"math"
	"testing"
)

func TestRangeFromDelta(t *testing.T) {
	// One second of travel time is exactly one light-second.
	if got := RangeFromDelta(1e9); got != SpeedOfLight {
		t.Errorf("Expected %f m for 1 s delta, got %f", SpeedOfLight, got)
	}

	// Zero delta means the station sits on the vehicle.
	if got := RangeFromDelta(0); got != 0 {
		t.Errorf("Expected 0 m for zero delta, got %f", got)
	}

	// A 1 microsecond delta is ~300 m; the derivation must not lose the
	// sub-microsecond scale.
	got := RangeFromDelta(1000)
	want := SpeedOfLight * 1e-6
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected %.12f m for 1 us delta, got %.12f", want, got)
	}
}

func TestSetRangeRejectsNegativeDelta(t *testing.T) {
	// A receipt time before the send time is a measurement error.
	s := New(100, 200, 300, 1000)
	err := s.SetRange(2000)
	if err == nil {
		t.Fatal("Expected error for receipt before send, got nil")
	}
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange, got %v", err)
	}
	if s.Ranged() {
		t.Error("Station must not be marked ranged after a rejected SetRange")
	}
}

func TestSetRangeDerivesRange(t *testing.T) {
	// 1 ms of travel at light speed.
	s := New(0, 0, 0, 2_000_000)
	if err := s.SetRange(1_000_000); err != nil {
		t.Fatalf("SetRange failed: %v", err)
	}
	want := SpeedOfLight * 1e-3
	if math.Abs(s.Range-want) > 1e-6 {
		t.Errorf("Expected range %.6f m, got %.6f", want, s.Range)
	}
	if !s.Ranged() {
		t.Error("Station should be marked ranged after SetRange")
	}
}

func TestNewRangedRejectsInvalidRanges(t *testing.T) {
	tests := []struct {
		name   string
		rangeM float64
	}{
		{"negative", -1.0},
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRanged(0, 0, 0, tt.rangeM, 0)
			if !errors.Is(err, ErrInvalidRange) {
				t.Errorf("Expected ErrInvalidRange for range %v, got %v", tt.rangeM, err)
			}
		})
	}
}

func TestDelayStats(t *testing.T) {
	// Delays {0.1, 0.2, 0.3} for signal id 7 at timestamp 1234.5 s must
	// report mean 0.2, min 0.1, max 0.3.
	c := NewStations()
	for i, delay := range []float64{0.1, 0.2, 0.3} {
		if err := c.Add(float64(i)*1000, 0, 0, 500, delay); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	const timestampNs = int64(1234.5 * 1e9)
	stats, err := c.DelayStats(7, timestampNs)
	if err != nil {
		t.Fatalf("DelayStats failed: %v", err)
	}

	if stats.SatID != 7 {
		t.Errorf("Expected sat id 7, got %d", stats.SatID)
	}
	if stats.Timestamp != timestampNs {
		t.Errorf("Expected timestamp %d ns, got %d", timestampNs, stats.Timestamp)
	}
	if math.Abs(stats.Min-0.1) > 1e-12 {
		t.Errorf("Expected min 0.1, got %v", stats.Min)
	}
	if math.Abs(stats.Mean-0.2) > 1e-12 {
		t.Errorf("Expected mean 0.2, got %v", stats.Mean)
	}
	if math.Abs(stats.Max-0.3) > 1e-12 {
		t.Errorf("Expected max 0.3, got %v", stats.Max)
	}
}

func TestDelayStatsOrdering(t *testing.T) {
	// min <= mean <= max must hold for any non-empty collection.
	cases := [][]float64{
		{0.5},
		{0.9, 0.1},
		{0.25, 0.25, 0.25},
		{1.5, 0.0, 0.7, 0.3, 2.2},
	}

	for _, delays := range cases {
		c := NewStations()
		for i, d := range delays {
			if err := c.Add(float64(i), float64(i), 0, 100, d); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
		}
		stats, err := c.DelayStats(1, 0)
		if err != nil {
			t.Fatalf("DelayStats failed for %v: %v", delays, err)
		}
		if stats.Min > stats.Mean || stats.Mean > stats.Max {
			t.Errorf("Ordering violated for %v: min=%v mean=%v max=%v",
				delays, stats.Min, stats.Mean, stats.Max)
		}
	}
}

func TestDelayStatsEmptyCollection(t *testing.T) {
	c := NewStations()
	_, err := c.DelayStats(1, 0)
	if !errors.Is(err, ErrNoStations) {
		t.Errorf("Expected ErrNoStations for empty collection, got %v", err)
	}
}

func TestStationsClear(t *testing.T) {
	c := NewStations()
	c.AddObserved(1, 2, 3, 100)
	c.AddObserved(4, 5, 6, 200)
	if c.Len() != 2 {
		t.Fatalf("Expected 2 stations, got %d", c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected empty collection after Clear, got %d", c.Len())
	}
}

func TestStationsAt(t *testing.T) {
	c := NewStations()
	c.SetTime(42)
	c.AddObserved(10, 20, 30, 99)

	if c.Time() != 42 {
		t.Errorf("Expected receipt context 42, got %d", c.Time())
	}
	s := c.At(0)
	if s.X != 10 || s.Y != 20 || s.Z != 30 || s.ReceiptTime != 99 {
		t.Errorf("Unexpected station contents: %+v", s)
	}
}
