package escs

import (
	"context"
	"time"
)

// IterativeDeepening re-runs BranchAndBound on progressively larger
// processable-interval masks, starting from a relaxed-blocks estimate and
// "puffing" those blocks outward until the mask covers the whole
// earliest-to-latest on-window or an inner run proves Optimal/Infeasible.
//
// When config.IterativeDeepeningTimeLimit is set, the puff loop gets its own
// budget carved out of solver.TimeLimit; whatever it leaves unresolved falls
// through to one plain BranchAndBound call over the full horizon, seeded
// from the puff loop's best schedule and run against the remaining global
// time. With no distinct budget configured, the puff loop alone runs
// against the full solver.TimeLimit and there is no fallback phase.
type IterativeDeepening struct {
	instance *Instance
	solver   *SolverConfig
	config   *SpecializedSolverConfig

	binPacker     BinPacker
	blockAssigner BlockAssigner

	stopwatch Stopwatch
}

// NewIterativeDeepening builds an outer loop ready to Solve over instance.
func NewIterativeDeepening(instance *Instance, solver *SolverConfig, config *SpecializedSolverConfig, binPacker BinPacker, blockAssigner BlockAssigner) *IterativeDeepening {
	return &IterativeDeepening{
		instance:      instance,
		solver:        solver,
		config:        config,
		binPacker:     binPacker,
		blockAssigner: blockAssigner,
	}
}

// Solve runs the puff-and-retry loop against its own time budget and, if a
// distinct IterativeDeepeningTimeLimit left the horizon not fully resolved,
// follows up with one full-horizon BranchAndBound call against whatever
// global time remains.
func (d *IterativeDeepening) Solve(ctx context.Context) (*Result, error) {
	relaxed, feasible, err := d.relaxedBlockLayout(ctx)
	if err != nil {
		return nil, err
	}
	if !feasible {
		// Even the fully unconstrained relaxation (every interval
		// processable) has no feasible placement, so no narrower mask ever
		// could either: the instance itself is infeasible.
		return &Result{Status: Infeasible}, nil
	}

	d.stopwatch.Start()
	defer d.stopwatch.Stop()

	idLimit := d.solver.TimeLimit
	if d.config.IterativeDeepeningTimeLimit != nil {
		idLimit = d.config.IterativeDeepeningTimeLimit
	}

	best, resolved, err := d.puffLoop(ctx, relaxed, idLimit)
	if err != nil {
		return nil, err
	}
	if resolved || d.config.IterativeDeepeningTimeLimit == nil {
		return best, nil
	}

	remaining := d.remainingGlobalBudget()
	if remaining != nil && *remaining <= 0 {
		return best, nil
	}
	fallbackSolver := *d.solver
	fallbackSolver.TimeLimit = remaining
	fallbackSolver.Processable = nil
	if best != nil {
		fallbackSolver.InitStartTimes = best.StartTimes
	}
	bab := NewBranchAndBound(d.instance, &fallbackSolver, d.config, d.binPacker, d.blockAssigner)
	result, err := bab.Solve(ctx)
	if err != nil {
		return nil, err
	}
	return mergeResult(best, result), nil
}

// puffLoop grows the processable mask outward from the relaxed block
// layout, warm-starting each BranchAndBound call from the previous
// iteration's best schedule, until the mask covers the full horizon with a
// conclusive status, an iteration proves Heuristic/NoSolution, or limit (as
// tracked by d.stopwatch) runs out. The second return reports whether the
// horizon was resolved conclusively (no fallback phase needed).
func (d *IterativeDeepening) puffLoop(ctx context.Context, relaxed []Block, limit *time.Duration) (*Result, bool, error) {
	E := d.instance.EarliestOnIntervalIdx
	L := d.instance.LatestOnIntervalIdx
	m := len(d.instance.Intervals)

	puffSize := 2
	var best *Result
	iterationSolver := *d.solver // per-iteration copy: only Processable/InitStartTimes/TimeLimit vary

	for {
		if d.stopwatch.TimeLimitReached(limit) {
			return best, false, nil
		}

		mask := puff(relaxed, puffSize, E, L, m)
		iterationSolver.Processable = mask
		if best != nil {
			iterationSolver.InitStartTimes = best.StartTimes
		}
		if limit != nil {
			remaining := d.stopwatch.RemainingTime(limit)
			iterationSolver.TimeLimit = &remaining
		}

		bab := NewBranchAndBound(d.instance, &iterationSolver, d.config, d.binPacker, d.blockAssigner)
		result, err := bab.Solve(ctx)
		if err != nil {
			return nil, false, err
		}
		best = mergeResult(best, result)

		fullyCovered := coversHorizon(mask, E, L)
		if fullyCovered && (result.Status == Optimal || result.Status == Infeasible) {
			return best, true, nil
		}
		if result.Status == Heuristic || result.Status == NoSolution {
			// Each inner BranchAndBound already enforces iterationSolver.TimeLimit
			// via its own Stopwatch; a Heuristic/NoSolution status here means
			// that budget is exhausted, so there is no point puffing further.
			return best, false, nil
		}
		puffSize *= 2
	}
}

// remainingGlobalBudget reports what is left of solver.TimeLimit after the
// time d.stopwatch has already accounted for, or nil when the global limit
// itself is unlimited.
func (d *IterativeDeepening) remainingGlobalBudget() *time.Duration {
	if d.solver.TimeLimit == nil {
		return nil
	}
	remaining := d.stopwatch.RemainingTime(d.solver.TimeLimit)
	return &remaining
}

// relaxedBlockLayout runs FPCC on the fully unconstrained, coarsest-
// granularity baseline (gcd of all processing times, when configured) to
// get an initial estimate of where blocks naturally want to sit.
func (d *IterativeDeepening) relaxedBlockLayout(ctx context.Context) ([]Block, bool, error) {
	mask := d.instance.AllProcessable()
	f := NewFPCC(d.instance, mask, d.solver.NumWorkers)

	if d.config.JobsJoiningOnGcd != GcdOff {
		pts := make([]int, len(d.instance.Jobs))
		for i, j := range d.instance.Jobs {
			pts[i] = j.ProcTime
		}
		g := NewGcdTable(pts).Gcd(pts)
		if g > 1 {
			if err := f.SetProcTimes(0, g); err != nil {
				return nil, false, err
			}
		}
	}

	cost := f.RecomputeCost(ctx)
	if cost >= NoValue {
		return nil, false, nil
	}
	blocks, err := ProcBlocks(f, 0)
	if err != nil {
		return nil, false, err
	}
	return blocks, true, nil
}

// puff widens every relaxed block by puffSize on each side (clamped to
// [E, L+1]) and marks the covered intervals processable; everything else
// stays off for this iteration.
func puff(blocks []Block, puffSize, E, L, m int) []bool {
	mask := make([]bool, m)
	hi := L + 1
	for _, blk := range blocks {
		start := blk.Start - puffSize
		if start < E {
			start = E
		}
		end := blk.Completion + puffSize
		if end > hi {
			end = hi
		}
		for i := start; i < end && i < m; i++ {
			if i >= 0 {
				mask[i] = true
			}
		}
	}
	return mask
}

// coversHorizon reports whether every interval in [E, L] is processable.
func coversHorizon(mask []bool, E, L int) bool {
	for i := E; i <= L && i < len(mask); i++ {
		if !mask[i] {
			return false
		}
	}
	return true
}

// mergeResult folds a new iteration's result into the running best,
// keeping whichever objective is better and summing the cumulative
// statistics across iterations. The merged status is Heuristic, not
// NoSolution, whenever an incumbent schedule is present.
func mergeResult(best, next *Result) *Result {
	if best == nil {
		return next
	}
	merged := *next
	if best.Objective != nil && (next.Objective == nil || *best.Objective < *next.Objective) {
		merged.Objective = best.Objective
		merged.StartTimes = best.StartTimes
	}
	merged.NodesCount = sumIntPtr(best.NodesCount, next.NodesCount)
	merged.PrimalHeuristicBlockDetectionFoundSolution = sumIntPtr(best.PrimalHeuristicBlockDetectionFoundSolution, next.PrimalHeuristicBlockDetectionFoundSolution)
	merged.PrimalHeuristicPackToBlocksByCpFoundSolution = sumIntPtr(best.PrimalHeuristicPackToBlocksByCpFoundSolution, next.PrimalHeuristicPackToBlocksByCpFoundSolution)
	merged.JobsJoinedOnLargerGcd = sumIntPtr(best.JobsJoinedOnLargerGcd, next.JobsJoinedOnLargerGcd)
	merged.LowerBoundTotalDurationMs = sumIntPtr(best.LowerBoundTotalDurationMs, next.LowerBoundTotalDurationMs)
	merged.PrimalHeuristicBlockDetectionTotalDurationMs = sumIntPtr(best.PrimalHeuristicBlockDetectionTotalDurationMs, next.PrimalHeuristicBlockDetectionTotalDurationMs)
	merged.PrimalHeuristicPackToBlockByCpTotalDurationMs = sumIntPtr(best.PrimalHeuristicPackToBlockByCpTotalDurationMs, next.PrimalHeuristicPackToBlockByCpTotalDurationMs)
	merged.PrimalHeuristicBlockFindingTotalDurationMs = sumIntPtr(best.PrimalHeuristicBlockFindingTotalDurationMs, next.PrimalHeuristicBlockFindingTotalDurationMs)
	// rootLowerBound belongs to the first iteration only.
	merged.RootLowerBound = best.RootLowerBound
	if merged.RootLowerBound == nil {
		merged.RootLowerBound = next.RootLowerBound
	}
	// A NoSolution iteration after an earlier incumbent still has a schedule
	// to report: classify by the incumbent's presence, not its value.
	if merged.Status == NoSolution && merged.StartTimes != nil {
		merged.Status = Heuristic
	}
	return &merged
}

func sumIntPtr(a, b *int) *int {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return intPtr(*a + *b)
}
