// Package config provides configuration structures and defaults for the
// multilateration resolver.
package config

import (
	"runtime"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Solver   SolverConfig   `yaml:"solver"`   // Sphere-intersection solve settings
	Pipeline PipelineConfig `yaml:"pipeline"` // Per-signal processing settings
	Output   OutputConfig   `yaml:"output"`   // Result reporting settings
	Logging  LoggingConfig  `yaml:"logging"`  // Logging configuration
}

// SolverConfig contains settings for the per-combination solve
type SolverConfig struct {
	CombinationSize int     `yaml:"combination_size"` // Stations per combination (minimum 4)
	ConditionLimit  float64 `yaml:"condition_limit"`  // Condition number above which geometry is degenerate
}

// PipelineConfig contains settings for the per-signal pipeline
type PipelineConfig struct {
	Workers       int           `yaml:"workers"`        // Parallel combination solvers per signal
	OutlierRadius float64       `yaml:"outlier_radius"` // Candidates farther than this from the preliminary centroid are discarded (m, 0 disables)
	SignalTimeout time.Duration `yaml:"signal_timeout"` // Deadline for one signal's solve (0 disables)
}

// OutputConfig contains result reporting settings
type OutputConfig struct {
	File       string `yaml:"file"`       // JSON results file path (empty: stdout summary only)
	Candidates string `yaml:"candidates"` // CSV candidate dump path (empty: disabled)
}

// LoggingConfig contains logging configuration parameters
type LoggingConfig struct {
	Level string `yaml:"level"` // Log level (debug, info, warn, error)
}

// DefaultConfig returns a configuration with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Solver: SolverConfig{
			CombinationSize: 4,    // Minimal unambiguous 3-D solve
			ConditionLimit:  1e12, // Conservative degeneracy threshold
		},
		Pipeline: PipelineConfig{
			Workers:       runtime.NumCPU(), // One solver goroutine per CPU
			OutlierRadius: 0,                // Outlier rejection disabled by default
			SignalTimeout: 30 * time.Second, // Per-signal deadline
		},
		Output: OutputConfig{
			File:       "", // Summary to stdout by default
			Candidates: "", // No candidate dump by default
		},
		Logging: LoggingConfig{
			Level: "info", // Info level logging
		},
	}
}
