package escs

import (
	"context"
	"sort"
	"time"
)

// BranchAndBound is the recursive search over job orderings / block
// structures. It mutates a single FPCC in place along the recursion
// stack, using it both as the admissible lower bound at internal nodes and
// as the exact cost evaluator at leaves, and invokes the BinPacker- and
// BlockAssigner-backed primal heuristics whenever a node's bound was
// freshly recomputed.
type BranchAndBound struct {
	instance *Instance
	solver   *SolverConfig
	config   *SpecializedSolverConfig

	binPacker     BinPacker
	blockAssigner BlockAssigner

	fpcc        *FPCC // mutated by the recursion
	checkFPCC   *FPCC // used only by the BlockFinding heuristic to verify a proposed layout
	gcdTable    *GcdTable
	rand        interface {
		Intn(n int) int
	}

	stopwatch          Stopwatch
	lowerBoundDuration  time.Duration
	blockDetectDuration time.Duration
	packToBlocksDur     time.Duration
	blockFindingDur     time.Duration

	nodesCount                        int
	nodesCountLimitReached             bool
	rootLowerBound                     *int
	jobsJoinedOnLargerGcd              int
	blockDetectionFoundSolutionCount   int
	packToBlocksByCpFoundSolutionCount int

	currJoinedGcd int

	currBestObj            *int
	currBestPermProcTimes  []int
	currBestPermStartTimes []int
}

// NewBranchAndBound builds a search ready to Solve over instance.
func NewBranchAndBound(instance *Instance, solver *SolverConfig, config *SpecializedSolverConfig, binPacker BinPacker, blockAssigner BlockAssigner) *BranchAndBound {
	return &BranchAndBound{
		instance:      instance,
		solver:        solver,
		config:        config,
		binPacker:     binPacker,
		blockAssigner: blockAssigner,
		rand:          solver.NewRand(),
	}
}

func (b *BranchAndBound) stopSearching() bool {
	if b.config.FullHorizonBabNodesCountLimit != nil && b.nodesCount >= *b.config.FullHorizonBabNodesCountLimit {
		b.nodesCountLimitReached = true
	}
	return b.nodesCountLimitReached || b.stopwatch.TimeLimitReached(b.solver.TimeLimit)
}

// Solve runs the search to completion (or until a stop condition trips)
// and returns the result.
func (b *BranchAndBound) Solve(ctx context.Context) (*Result, error) {
	b.stopwatch.Start()
	defer b.stopwatch.Stop()

	mask := b.solver.Processable
	if mask == nil {
		mask = b.instance.AllProcessable()
	}
	b.fpcc = NewFPCC(b.instance, mask, b.solver.NumWorkers)
	b.checkFPCC = NewFPCC(b.instance, mask, b.solver.NumWorkers)
	b.currJoinedGcd = 1

	allProcTimes := make([]int, len(b.instance.Jobs))
	for i, j := range b.instance.Jobs {
		allProcTimes[i] = j.ProcTime
	}
	b.gcdTable = NewGcdTable(allProcTimes)

	counts := newProcTimeMultiset(allProcTimes)

	if len(b.solver.InitStartTimes) > 0 {
		if err := b.seedInitialUpperBound(ctx); err != nil {
			return nil, err
		}
		b.fpcc.Reset()
	}

	if b.config.JobsJoiningOnGcd == GcdRoot || b.config.JobsJoiningOnGcd == GcdWholeTree {
		g := b.gcdTable.Gcd(counts.values())
		if g > 1 {
			if err := b.fpcc.SetProcTimes(0, g); err != nil {
				return nil, err
			}
			b.currJoinedGcd = g
			b.jobsJoinedOnLargerGcd++
		}
	}

	root := &node{counts: counts}
	if err := b.enterNode(ctx, root); err != nil {
		return nil, err
	}

	status := b.deriveStatus()
	result := &Result{
		Status:                 status,
		TimeLimitReached:       b.stopwatch.TimeLimitReached(b.solver.TimeLimit) || b.nodesCountLimitReached,
		NodesCount:             intPtr(b.nodesCount),
		RootLowerBound:         b.rootLowerBound,
		JobsJoinedOnLargerGcd:  intPtr(b.jobsJoinedOnLargerGcd),
		PrimalHeuristicBlockDetectionFoundSolution:    intPtr(b.blockDetectionFoundSolutionCount),
		PrimalHeuristicPackToBlocksByCpFoundSolution:  intPtr(b.packToBlocksByCpFoundSolutionCount),
		LowerBoundTotalDurationMs:                     intPtr(int(b.lowerBoundDuration.Milliseconds())),
		PrimalHeuristicBlockDetectionTotalDurationMs:  intPtr(int(b.blockDetectDuration.Milliseconds())),
		PrimalHeuristicPackToBlockByCpTotalDurationMs: intPtr(int(b.packToBlocksDur.Milliseconds())),
		PrimalHeuristicBlockFindingTotalDurationMs:    intPtr(int(b.blockFindingDur.Milliseconds())),
	}
	if b.currBestObj != nil {
		result.Objective = intPtr(*b.currBestObj)
		result.StartTimes = b.getStartTimes()
	}
	return result, nil
}

func (b *BranchAndBound) deriveStatus() Status {
	stopped := b.stopwatch.TimeLimitReached(b.solver.TimeLimit) || b.nodesCountLimitReached
	if stopped {
		if b.currBestObj != nil {
			return Heuristic
		}
		return NoSolution
	}
	if b.currBestObj != nil {
		return Optimal
	}
	return Infeasible
}

// seedInitialUpperBound feeds the configured initial start times into FPCC
// via sequential Join calls (sorted by start time, stable on ties) to
// obtain an initial feasible cost and start-time vector before the search
// proper begins.
func (b *BranchAndBound) seedInitialUpperBound(ctx context.Context) error {
	starts := append([]JobStartTime(nil), b.solver.InitStartTimes...)
	sort.SliceStable(starts, func(i, j int) bool { return starts[i].StartTime < starts[j].StartTime })

	procTimeByIndex := make(map[int]int, len(b.instance.Jobs))
	for _, j := range b.instance.Jobs {
		procTimeByIndex[j.Index] = j.ProcTime
	}

	pos := 0
	for _, st := range starts {
		pt, ok := procTimeByIndex[st.JobIndex]
		if !ok || pt <= 0 {
			continue
		}
		if err := b.fpcc.Join(pos, pt); err != nil {
			return err
		}
		pos++
	}
	cost := b.fpcc.RecomputeCost(ctx)
	if cost < NoValue {
		startTimes, err := b.fpcc.ReconstructStartTimes()
		if err == nil {
			b.currBestObj = intPtr(cost)
			b.currBestPermProcTimes = b.fpcc.PermProcTimes()
			b.currBestPermStartTimes = startTimes
		}
	}
	return nil
}

// getStartTimes maps the best found permutation's processing times back
// onto job indices, matching jobs to positions LIFO within each
// processing-time bucket -- jobs sharing a processing time are
// interchangeable for cost purposes, so any pairing within a bucket is
// valid; LIFO keeps the mapping stable and cheap to compute.
func (b *BranchAndBound) getStartTimes() []JobStartTime {
	if b.currBestPermProcTimes == nil {
		return nil
	}
	byPt := make(map[int][]int) // pt -> job indices remaining, LIFO
	for _, j := range b.instance.Jobs {
		byPt[j.ProcTime] = append(byPt[j.ProcTime], j.Index)
	}

	out := make([]JobStartTime, 0, len(b.currBestPermProcTimes))
	for i, pt := range b.currBestPermProcTimes {
		bucket := byPt[pt]
		if len(bucket) == 0 {
			continue
		}
		jobIdx := bucket[len(bucket)-1]
		byPt[pt] = bucket[:len(bucket)-1]
		out = append(out, JobStartTime{JobIndex: jobIdx, StartTime: b.currBestPermStartTimes[i]})
	}
	return out
}
