// MLAT Resolver - TDOA multilateration position estimation tool
// This program processes ground station observation files and estimates the
// 3-D position of the transmitting vehicle for every recorded signal event.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"mlat-resolver/internal/config"
	"mlat-resolver/internal/ingest"
	"mlat-resolver/internal/resolver"
	"mlat-resolver/internal/signal"
	"mlat-resolver/internal/version"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Command line flag variables
var (
	cfgFile         string  // Configuration file path
	verbose         bool    // Enable verbose logging
	workers         int     // Parallel combination solvers per signal
	combinationSize int     // Stations per combination
	conditionLimit  float64 // Degenerate-geometry condition threshold
	outlierRadius   float64 // Outlier rejection radius in meters
	signalTimeout   string  // Per-signal deadline (e.g. "30s")
	outputFile      string  // JSON results file
	candidatesFile  string  // CSV candidate dump file
	showVersion     bool    // Print version information and exit
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mlat-resolver [observations.csv] ...",
	Short: "TDOA multilateration position resolver",
	Long: `MLAT Resolver estimates the 3-D position of a transmitting vehicle from
time-of-arrival observations recorded by fixed ground stations.

For every signal event it enumerates station combinations, solves the
sphere-intersection system for each combination, and reduces the candidate
positions to a single robust estimate with delay statistics.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetVersionInfo("mlat-resolver"))
			return
		}
		if err := runResolver(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

// init initializes the CLI flags and configuration
func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "./config.yaml", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Command-specific flags
	rootCmd.Flags().IntVar(&workers, "workers", 0, "parallel combination solvers per signal (0 = all CPUs)")
	rootCmd.Flags().IntVarP(&combinationSize, "combination-size", "k", 4, "stations per combination (minimum 4)")
	rootCmd.Flags().Float64Var(&conditionLimit, "condition-limit", 1e12, "condition number above which geometry is degenerate")
	rootCmd.Flags().Float64Var(&outlierRadius, "outlier-radius", 0, "discard candidates farther than this from the preliminary centroid (m, 0 disables)")
	rootCmd.Flags().StringVar(&signalTimeout, "timeout", "30s", "per-signal solve deadline (0 disables)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "JSON results file (default: stdout summary only)")
	rootCmd.Flags().StringVar(&candidatesFile, "export-candidates", "", "CSV candidate dump file")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version information")

	// Bind command line flags to viper configuration keys
	viper.BindPFlag("pipeline.workers", rootCmd.Flags().Lookup("workers"))
	viper.BindPFlag("solver.combination_size", rootCmd.Flags().Lookup("combination-size"))
	viper.BindPFlag("solver.condition_limit", rootCmd.Flags().Lookup("condition-limit"))
	viper.BindPFlag("pipeline.outlier_radius", rootCmd.Flags().Lookup("outlier-radius"))
	viper.BindPFlag("output.file", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("output.candidates", rootCmd.Flags().Lookup("export-candidates"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config.yaml in current directory
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	// Read in environment variables that match
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// runResolver is the main application logic
func runResolver(filenames []string) error {
	// Load default configuration
	cfg := config.DefaultConfig()

	// Override with values from config file and command line flags
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Underscore keys do not unmarshal by field name, read them explicitly
	cfg.Solver.CombinationSize = viper.GetInt("solver.combination_size")
	cfg.Solver.ConditionLimit = viper.GetFloat64("solver.condition_limit")
	cfg.Pipeline.OutlierRadius = viper.GetFloat64("pipeline.outlier_radius")

	// Zero workers means one solver goroutine per CPU
	if cfg.Pipeline.Workers <= 0 {
		cfg.Pipeline.Workers = runtime.NumCPU()
	}

	// Parse the per-signal deadline
	if signalTimeout != "" && signalTimeout != "0" {
		parsed, err := time.ParseDuration(signalTimeout)
		if err != nil {
			return fmt.Errorf("invalid timeout format: %w", err)
		}
		cfg.Pipeline.SignalTimeout = parsed
	} else if signalTimeout == "0" {
		cfg.Pipeline.SignalTimeout = 0
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	log.SetLevel(level)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	// Load all observation files
	var signals []*signal.Signal
	for _, filename := range filenames {
		loaded, err := ingest.LoadCSV(filename)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", filename, err)
		}
		log.WithFields(logrus.Fields{
			"file":       filename,
			"signals":    len(loaded.Signals),
			"duplicates": loaded.Duplicates,
			"dropped":    loaded.Dropped,
		}).Info("observation file loaded")
		signals = append(signals, loaded.Signals...)
	}

	if len(signals) == 0 {
		return fmt.Errorf("no signal events found in %d file(s)", len(filenames))
	}

	fmt.Printf("MLAT Resolver starting...\n")
	fmt.Printf("Signals: %d\n", len(signals))
	fmt.Printf("Combination size: %d\n", cfg.Solver.CombinationSize)
	fmt.Printf("Workers: %d\n\n", cfg.Pipeline.Workers)

	// Run the pipeline
	outcomes := resolver.New(cfg, log).ResolveAll(context.Background(), signals)

	displayOutcomes(outcomes)

	// Export results if requested
	if cfg.Output.File != "" {
		if err := resolver.WriteJSON(cfg.Output.File, outcomes); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		fmt.Printf("Results saved to: %s\n", cfg.Output.File)
	}
	if cfg.Output.Candidates != "" {
		if err := resolver.WriteCandidatesCSV(cfg.Output.Candidates, outcomes); err != nil {
			return fmt.Errorf("failed to write candidates: %w", err)
		}
		fmt.Printf("Candidates saved to: %s\n", cfg.Output.Candidates)
	}

	return nil
}

// displayOutcomes prints a per-signal summary of the resolving run
func displayOutcomes(outcomes []*resolver.Outcome) {
	var resolved int

	for _, out := range outcomes {
		ts := float64(out.Timestamp) / 1e9
		if !out.Resolved {
			fmt.Printf("Signal %d @ %.9f s: no position (%s, %d stations, %d combinations, %d degenerate)\n",
				out.SatID, ts, out.Reason, out.Stations, out.Combinations, out.Degenerate)
			continue
		}
		resolved++

		est := out.Estimate
		fmt.Printf("Signal %d @ %.9f s:\n", out.SatID, ts)
		fmt.Printf("  Position: (%.3f, %.3f, %.3f) m\n", est.Position.X, est.Position.Y, est.Position.Z)
		fmt.Printf("  Candidates: %d (%d used, spread %.3f m)\n", est.Candidates, est.Used, est.Spread)
		fmt.Printf("  Delays: min %.6f s, mean %.6f s, max %.6f s\n",
			est.DelayStats.Min, est.DelayStats.Mean, est.DelayStats.Max)
		if out.Degenerate > 0 {
			fmt.Printf("  Degenerate combinations skipped: %d\n", out.Degenerate)
		}
		if out.Dropped > 0 {
			fmt.Printf("  Observations dropped: %d\n", out.Dropped)
		}
	}

	fmt.Printf("\nResolved %d of %d signal(s).\n", resolved, len(outcomes))
}

// main is the entry point of the application
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
