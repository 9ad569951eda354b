// MLAT Sim - scenario generator for the multilateration resolver
// This program synthesizes a ground station observation file for a known
// transmitter position, optionally with timing noise, so resolver runs can
// be checked against ground truth.
package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"mlat-resolver/internal/station"

	"github.com/spf13/cobra"
)

var (
	truePosition string  // True transmitter position "x,y,z" in meters
	numStations  int     // Number of ground stations to synthesize
	fieldRadius  float64 // Stations are placed within this radius of the origin (m)
	satID        int     // Vehicle id written to every row
	timestamp    float64 // Signal send time in seconds
	noiseNs      float64 // Gaussian timing noise sigma in nanoseconds
	seed         int64   // Random seed (0 = nondeterministic)
	outputFile   string  // Observation CSV path
	receiptMode  bool    // Write receipt times instead of derived ranges
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mlat-sim",
	Short: "Generate synthetic TDOA observation files",
	Long: `MLAT Sim places ground stations at random positions, computes the exact
signal travel time from a known transmitter position to each station, and
writes the resulting observations as a resolver input file.

Examples:
  mlat-sim --true-position 100,200,50 --stations 6 -o scenario.csv
  mlat-sim --true-position 100,200,50 --stations 8 --noise 5 --seed 42 -o noisy.csv`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSim(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVarP(&truePosition, "true-position", "p", "100,200,50", "true transmitter position x,y,z (m)")
	rootCmd.Flags().IntVarP(&numStations, "stations", "n", 5, "number of ground stations")
	rootCmd.Flags().Float64Var(&fieldRadius, "field-radius", 10000, "station placement radius around the origin (m)")
	rootCmd.Flags().IntVar(&satID, "sat-id", 1, "vehicle id")
	rootCmd.Flags().Float64Var(&timestamp, "timestamp", 1000.0, "signal send time (s)")
	rootCmd.Flags().Float64Var(&noiseNs, "noise", 0, "timing noise sigma (ns)")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = nondeterministic)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "scenario.csv", "observation file to write")
	rootCmd.Flags().BoolVar(&receiptMode, "receipt", false, "write receipt times instead of derived ranges")
}

// runSim generates the scenario and writes the observation file
func runSim() error {
	pos, err := parsePosition(truePosition)
	if err != nil {
		return fmt.Errorf("invalid true position: %w", err)
	}
	if numStations < 4 {
		return fmt.Errorf("need at least 4 stations for a 3-D solve, got %d", numStations)
	}

	rng := rand.New(rand.NewSource(seed))
	if seed == 0 {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	measureCol := "range"
	if receiptMode {
		measureCol = "receipt"
	}
	if err := w.Write([]string{"sat_id", "timestamp", "x", "y", "z", measureCol, "delay"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	fmt.Printf("MLAT Sim: %d stations, true position (%.3f, %.3f, %.3f)\n", numStations, pos[0], pos[1], pos[2])

	for i := 0; i < numStations; i++ {
		// Uniform placement in a cube clipped to the field radius keeps the
		// geometry non-degenerate with overwhelming probability.
		var sx, sy, sz float64
		for {
			sx = (rng.Float64()*2 - 1) * fieldRadius
			sy = (rng.Float64()*2 - 1) * fieldRadius
			sz = rng.Float64() * fieldRadius / 10 // Ground stations sit near the surface
			if math.Sqrt(sx*sx+sy*sy+sz*sz) <= fieldRadius {
				break
			}
		}

		dx, dy, dz := pos[0]-sx, pos[1]-sy, pos[2]-sz
		dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
		travelNs := dist / station.SpeedOfLight * 1e9
		if noiseNs > 0 {
			travelNs += rng.NormFloat64() * noiseNs
		}
		if travelNs < 0 {
			travelNs = 0
		}
		delay := rng.Float64() * 0.5 // Synthetic measurement delay tag

		var measure float64
		if receiptMode {
			measure = timestamp + travelNs/1e9
		} else {
			measure = travelNs / 1e9 * station.SpeedOfLight
		}

		record := []string{
			strconv.Itoa(satID),
			strconv.FormatFloat(timestamp, 'f', -1, 64),
			strconv.FormatFloat(sx, 'f', 3, 64),
			strconv.FormatFloat(sy, 'f', 3, 64),
			strconv.FormatFloat(sz, 'f', 3, 64),
			strconv.FormatFloat(measure, 'f', -1, 64),
			strconv.FormatFloat(delay, 'f', 4, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write station %d: %w", i+1, err)
		}

		fmt.Printf("  Station %d: (%.1f, %.1f, %.1f), distance %.3f m\n", i+1, sx, sy, sz, dist)
	}

	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	fmt.Printf("Scenario written to: %s\n", outputFile)
	return nil
}

// parsePosition parses an "x,y,z" coordinate triple
func parsePosition(s string) ([3]float64, error) {
	var pos [3]float64
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return pos, fmt.Errorf("expected x,y,z, got %q", s)
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return pos, fmt.Errorf("coordinate %d: %w", i+1, err)
		}
		pos[i] = v
	}
	return pos, nil
}

// main is the entry point of the application
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
