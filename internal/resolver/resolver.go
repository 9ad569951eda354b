// Package resolver runs the multilateration pipeline for signal events:
// station validation, combination enumeration, parallel sphere-intersection
// solves, and reduction of the candidate positions to one estimate.
package resolver

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"mlat-resolver/internal/config"
	"mlat-resolver/internal/positions"
	"mlat-resolver/internal/signal"
	"mlat-resolver/internal/solver"
	"mlat-resolver/internal/station"
)

// Unresolved reasons surfaced to the caller when a signal yields no position.
const (
	ReasonInsufficientStations = "insufficient_stations"
	ReasonNoCandidates         = "no_candidates"
	ReasonCancelled            = "cancelled"
)

// Estimate is the final position for one resolved signal with its quality
// statistics.
type Estimate struct {
	Position   positions.Position `json:"position"`
	Candidates int                `json:"candidates"`
	Used       int                `json:"used"`
	Spread     float64            `json:"spread_m"`
	DelayStats station.DelayStats `json:"delay_stats"`
}

// Outcome is the per-signal result: either an estimate or the reason the
// signal could not be resolved. The full candidate list is retained for
// external clustering and debugging.
type Outcome struct {
	SatID        int             `json:"sat_id"`
	Timestamp    int64           `json:"timestamp_ns"`
	Resolved     bool            `json:"resolved"`
	Reason       string          `json:"reason,omitempty"`
	Estimate     *Estimate       `json:"estimate,omitempty"`
	Stations     int             `json:"stations"`
	Dropped      int             `json:"dropped_observations"`
	Combinations int             `json:"combinations"`
	Degenerate   int             `json:"degenerate_combinations"`
	CandidateSet *positions.List `json:"-"`
}

// Resolver drives the per-signal pipeline.
type Resolver struct {
	cfg    *config.Config
	solver *solver.Solver
	log    *logrus.Logger
}

// New creates a resolver from the application configuration.
func New(cfg *config.Config, log *logrus.Logger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{
		cfg:    cfg,
		solver: solver.New(cfg.Solver.ConditionLimit),
		log:    log,
	}
}

// ResolveAll processes every signal independently. A signal that cannot be
// resolved produces an unresolved outcome; it never aborts its siblings.
func (r *Resolver) ResolveAll(ctx context.Context, signals []*signal.Signal) []*Outcome {
	outcomes := make([]*Outcome, 0, len(signals))
	for _, sig := range signals {
		outcomes = append(outcomes, r.ResolveSignal(ctx, sig))
	}
	return outcomes
}

// ResolveSignal runs the pipeline for one signal event.
func (r *Resolver) ResolveSignal(ctx context.Context, sig *signal.Signal) *Outcome {
	if r.cfg.Pipeline.SignalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Pipeline.SignalTimeout)
		defer cancel()
	}

	out := &Outcome{SatID: sig.SatID(), Timestamp: sig.Timestamp()}
	log := r.log.WithFields(logrus.Fields{"sat_id": sig.SatID(), "timestamp_ns": sig.Timestamp()})

	// Convert raw observations, dropping the ones with invalid derived
	// ranges before they reach the solver.
	stations := station.NewStations()
	stations.SetTime(sig.Timestamp())
	for i := 0; i < sig.Len(); i++ {
		obs := sig.Observation(i)
		if err := stations.Add(obs.X, obs.Y, obs.Z, obs.Range, obs.Delay); err != nil {
			out.Dropped++
			log.WithError(err).Warn("dropping observation with invalid range")
		}
	}
	out.Stations = stations.Len()

	k := r.cfg.Solver.CombinationSize
	if k < solver.MinStations {
		k = solver.MinStations
	}

	combos := solver.Enumerate(stations.Len(), k)
	out.Combinations = len(combos)
	if len(combos) == 0 {
		out.Reason = ReasonInsufficientStations
		log.WithField("stations", stations.Len()).Info("signal skipped: insufficient stations")
		return out
	}

	candidates, degenerate := r.solveCombinations(ctx, stations, combos)
	out.Degenerate = degenerate
	out.CandidateSet = candidates

	if ctx.Err() != nil {
		out.Reason = ReasonCancelled
		log.WithError(ctx.Err()).Warn("signal abandoned before completion")
		return out
	}
	if candidates.Len() == 0 {
		out.Reason = ReasonNoCandidates
		log.WithField("degenerate", degenerate).Info("signal skipped: every combination was degenerate")
		return out
	}

	estimate, err := r.reduce(stations, sig, candidates)
	if err != nil {
		// Candidates exist, so reduction cannot legitimately be empty.
		out.Reason = ReasonNoCandidates
		log.WithError(err).Error("reduction failed")
		return out
	}

	out.Resolved = true
	out.Estimate = estimate
	log.WithFields(logrus.Fields{
		"x": estimate.Position.X, "y": estimate.Position.Y, "z": estimate.Position.Z,
		"candidates": estimate.Candidates, "used": estimate.Used, "spread_m": estimate.Spread,
	}).Info("signal resolved")
	return out
}

// solveCombinations fans the combinations out over a fixed worker pool. Each
// worker appends to its own buffer; the buffers are merged at a single point
// after the pool drains, so no candidate list is ever written concurrently.
func (r *Resolver) solveCombinations(ctx context.Context, stations *station.Stations, combos []solver.Combination) (*positions.List, int) {
	workers := r.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(combos) {
		workers = len(combos)
	}

	type workerResult struct {
		candidates *positions.List
		degenerate int
	}
	results := make([]workerResult, workers)
	jobs := make(chan solver.Combination)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			buf := positions.NewList()
			var degenerate int
			for combo := range jobs {
				subset := make([]station.Station, len(combo.Indices))
				for i, idx := range combo.Indices {
					subset[i] = stations.At(idx)
				}
				p, err := r.solver.Solve(subset, combo.ID)
				if err != nil {
					if errors.Is(err, solver.ErrDegenerateGeometry) {
						degenerate++
						r.log.WithField("combination", combo.ID).WithError(err).Debug("combination skipped")
						continue
					}
					r.log.WithField("combination", combo.ID).WithError(err).Warn("solve failed")
					continue
				}
				buf.Add(p)
			}
			results[w] = workerResult{candidates: buf, degenerate: degenerate}
		}(w)
	}

	go func() {
		defer close(jobs)
		for _, combo := range combos {
			select {
			case jobs <- combo:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	merged := positions.NewList()
	var degenerate int
	for _, res := range results {
		if res.candidates != nil {
			merged.Merge(res.candidates)
		}
		degenerate += res.degenerate
	}
	return merged, degenerate
}

// reduce folds the candidate list into the final estimate. With an outlier
// radius configured, candidates far from the preliminary centroid are
// excluded from the final average; otherwise the streaming reducer folds
// every candidate directly.
func (r *Resolver) reduce(stations *station.Stations, sig *signal.Signal, candidates *positions.List) (*Estimate, error) {
	used := candidates
	var center positions.Position

	if radius := r.cfg.Pipeline.OutlierRadius; radius > 0 {
		prelim, err := candidates.Centroid()
		if err != nil {
			return nil, err
		}
		filtered := candidates.SelectWithin(prelim, radius)
		if filtered.Len() == 0 {
			// Every candidate beyond the radius means the radius is too
			// tight for this geometry; fall back to the full set.
			r.log.WithField("radius_m", radius).Warn("outlier filter excluded all candidates, using full set")
		} else {
			used = filtered
		}
		center, err = used.Centroid()
		if err != nil {
			return nil, err
		}
	} else {
		running := positions.NewRunning()
		for i := 0; i < candidates.Len(); i++ {
			running.Observe(candidates.At(i))
		}
		var err error
		center, err = running.Centroid()
		if err != nil {
			return nil, err
		}
	}

	spread, err := used.Spread()
	if err != nil {
		return nil, err
	}

	stats, err := stations.DelayStats(sig.SatID(), sig.Timestamp())
	if err != nil {
		return nil, err
	}

	return &Estimate{
		Position:   center,
		Candidates: candidates.Len(),
		Used:       used.Len(),
		Spread:     spread,
		DelayStats: stats,
	}, nil
}
