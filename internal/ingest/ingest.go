// Package ingest parses observation files into signal records. One CSV row is
// one ground station's observation of one signal event; rows sharing a
// (sat_id, timestamp) pair belong to the same signal.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"mlat-resolver/internal/signal"
	"mlat-resolver/internal/station"
)

// Expected headers. The sixth column decides how the range is obtained:
// "range" rows carry the derived range in meters, "receipt" rows carry the
// receipt time in seconds and the range is derived from the send timestamp.
var (
	rangeHeader   = []string{"sat_id", "timestamp", "x", "y", "z", "range", "delay"}
	receiptHeader = []string{"sat_id", "timestamp", "x", "y", "z", "receipt", "delay"}
)

// Result is the parsed content of one observation file.
type Result struct {
	Signals    []*signal.Signal
	Duplicates int // observations skipped because the station position was already known
	Dropped    int // observations dropped for invalid derived ranges
}

// LoadCSV reads an observation file and groups its rows into signals in
// order of first appearance.
func LoadCSV(filename string) (*Result, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open observation file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var receiptMode bool
	switch {
	case matchesHeader(header, rangeHeader):
		receiptMode = false
	case matchesHeader(header, receiptHeader):
		receiptMode = true
	default:
		return nil, fmt.Errorf("unrecognized header %v: want %v or %v", header, rangeHeader, receiptHeader)
	}

	result := &Result{}
	index := make(map[signalKey]*signal.Signal)
	line := 1

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		key := signalKey{satID: row.satID, timestamp: row.timestampNs}
		sig, ok := index[key]
		if !ok {
			sig = signal.New(row.satID, row.timestampNs)
			index[key] = sig
			result.Signals = append(result.Signals, sig)
		}

		// Two observations from the same physical station location are the
		// same entry.
		if sig.PositionKnown(row.x, row.y, row.z) {
			result.Duplicates++
			continue
		}

		if receiptMode {
			receiptNs := secondsToNanos(row.measure)
			err = sig.AddGroundStationTimed(row.x, row.y, row.z, receiptNs-row.timestampNs, row.delay)
		} else {
			err = sig.AddGroundStation(row.x, row.y, row.z, row.measure, row.delay)
		}
		if err != nil {
			if errors.Is(err, station.ErrInvalidRange) {
				result.Dropped++
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	return result, nil
}

type signalKey struct {
	satID     int
	timestamp int64
}

type row struct {
	satID       int
	timestampNs int64
	x, y, z     float64
	measure     float64 // range (m) or receipt time (s) depending on mode
	delay       float64
}

func parseRow(record []string) (row, error) {
	if len(record) != 7 {
		return row{}, fmt.Errorf("expected 7 fields, got %d", len(record))
	}

	satID, err := strconv.Atoi(record[0])
	if err != nil {
		return row{}, fmt.Errorf("invalid sat_id %q: %w", record[0], err)
	}

	timestamp, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return row{}, fmt.Errorf("invalid timestamp %q: %w", record[1], err)
	}

	fields := make([]float64, 5)
	for i, name := range []string{"x", "y", "z", "measure", "delay"} {
		v, err := strconv.ParseFloat(record[i+2], 64)
		if err != nil {
			return row{}, fmt.Errorf("invalid %s %q: %w", name, record[i+2], err)
		}
		fields[i] = v
	}

	return row{
		satID:       satID,
		timestampNs: secondsToNanos(timestamp),
		x:           fields[0],
		y:           fields[1],
		z:           fields[2],
		measure:     fields[3],
		delay:       fields[4],
	}, nil
}

// secondsToNanos converts a decimal-seconds timestamp to Unix nanoseconds.
func secondsToNanos(sec float64) int64 {
	return int64(math.Round(sec * 1e9))
}

func matchesHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
