// Package resolver - export functions for resolver outcomes
package resolver

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// WriteJSON writes all outcomes to a JSON file.
func WriteJSON(filename string, outcomes []*Outcome) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcomes); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// WriteCandidatesCSV dumps every candidate position of every signal to a CSV
// file for external clustering or plotting.
func WriteCandidatesCSV(filename string, outcomes []*Outcome) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create candidates file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{"sat_id", "timestamp_ns", "combination_id", "x", "y", "z", "residual"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, out := range outcomes {
		if out.CandidateSet == nil {
			continue
		}
		for i := 0; i < out.CandidateSet.Len(); i++ {
			p := out.CandidateSet.At(i)
			record := []string{
				strconv.Itoa(out.SatID),
				strconv.FormatInt(out.Timestamp, 10),
				strconv.Itoa(p.CombinationID),
				strconv.FormatFloat(p.X, 'f', -1, 64),
				strconv.FormatFloat(p.Y, 'f', -1, 64),
				strconv.FormatFloat(p.Z, 'f', -1, 64),
				strconv.FormatFloat(p.Residual, 'g', -1, 64),
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("failed to write candidate: %w", err)
			}
		}
	}

	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush candidates: %w", err)
	}
	return nil
}
