package escs

import (
	"context"
	"sort"
	"time"
)

// runPrimalHeuristics runs BlockDetection, PackToBlocksByCp, and
// BlockFinding in that fixed order at a node whose bound was just freshly
// recomputed. It returns handled=true only when a heuristic proves the
// node's bound is already tight (BlockDetection always, BlockFinding when
// its assignment is identical to the relaxed blocks), letting the caller
// skip branching below this node entirely.
func (b *BranchAndBound) runPrimalHeuristics(ctx context.Context, n *node) (bool, error) {
	if b.config.UsePrimalHeuristicBlockDetection {
		if handled, err := b.blockDetection(n); err != nil || handled {
			return handled, err
		}
	}
	if b.stopSearching() {
		return false, nil
	}

	if b.config.UsePrimalHeuristicPackToBlocksByCp {
		if _, err := b.packToBlocksByCp(ctx, n); err != nil {
			return false, err
		}
	}
	if b.stopSearching() {
		return false, nil
	}

	runBlockFinding := b.config.BlockFinding == BlockFindingWholeTree ||
		(b.config.BlockFinding == BlockFindingRoot && b.nodesCount == 1)
	if runBlockFinding {
		if handled, err := b.blockFinding(ctx, n); err != nil || handled {
			return handled, err
		}
	}
	return false, nil
}

// blockDetection checks whether the unfixed tail's relaxed blocks already
// merge into one contiguous span exactly as long as the remaining
// processing time -- in that case there is no idle time to place anywhere,
// so packing the remaining pts back to back (in any order: a zero-gap run
// has the same total switching + energy cost regardless of internal
// order) reproduces the bound exactly.
func (b *BranchAndBound) blockDetection(n *node) (bool, error) {
	start := time.Now()
	defer func() { b.blockDetectDuration += time.Since(start) }()

	if len(n.remProcBlocks) == 0 {
		return false, nil
	}
	first := n.remProcBlocks[0]
	last := n.remProcBlocks[len(n.remProcBlocks)-1]
	span := last.Completion - first.Start
	remaining := n.counts.total()
	if span != remaining {
		return false, nil
	}

	remainingPts := n.counts.values()
	starts := append([]int(nil), n.fixedStartTimes...)
	procTimes := append([]int(nil), b.fpcc.permProcTimes[:n.fixedCount]...)

	cursor := first.Start
	for _, pt := range remainingPts {
		starts = append(starts, cursor)
		procTimes = append(procTimes, pt)
		cursor += pt
	}

	cost, ok := b.fpcc.CostOfStartTimes(starts, procTimes)
	if !ok {
		return false, nil
	}
	b.blockDetectionFoundSolutionCount++
	if b.currBestObj == nil || cost < *b.currBestObj {
		b.currBestObj = intPtr(cost)
		b.currBestPermProcTimes = procTimes
		b.currBestPermStartTimes = starts
	}
	return true, nil
}

// packToBlocksByCp builds an exact bin-packing instance -- bins are the
// current merged processable blocks, items are either every job or just
// the still-unfixed ones -- and converts a feasible packing into a
// candidate schedule.
func (b *BranchAndBound) packToBlocksByCp(ctx context.Context, n *node) (bool, error) {
	start := time.Now()
	defer func() { b.packToBlocksDur += time.Since(start) }()

	var bins []Block
	var items []int
	allJobs := b.config.PrimalHeuristicPackToBlocksByCpAllJobs
	if allJobs {
		// Bound computation left the FPCC's cost cache valid and untouched,
		// so reconstructing here just walks optPath again -- cheap, and
		// needed since n.fixedStartTimes only covers the committed prefix.
		fullStartTimes, err := b.fpcc.ReconstructStartTimes()
		if err != nil {
			return false, err
		}
		bins = ProcBlocksFromStartTimes(fullStartTimes, b.fpcc.permProcTimes, 0)
		items = make([]int, len(b.instance.Jobs))
		for i, j := range b.instance.Jobs {
			items[i] = j.ProcTime
		}
	} else {
		bins = n.remProcBlocks
		items = n.counts.values()
	}
	if len(bins) == 0 || len(items) == 0 {
		return false, nil
	}

	capacities := make([]int, len(bins))
	for i, blk := range bins {
		capacities[i] = blk.Length()
	}

	timeLimit := b.residualTimeLimit(2 * time.Second)
	if timeLimit <= 0 {
		return false, nil
	}
	assignment, ok := b.binPacker.Pack(ctx, capacities, items, timeLimit)
	if !ok {
		return false, nil
	}

	perBin := make([][]int, len(bins))
	for i, binIdx := range assignment {
		perBin[binIdx] = append(perBin[binIdx], items[i])
	}
	starts := make([]int, 0, len(items))
	procTimes := make([]int, 0, len(items))
	for i, blk := range bins {
		cursor := blk.Start
		for _, pt := range perBin[i] {
			starts = append(starts, cursor)
			procTimes = append(procTimes, pt)
			cursor += pt
		}
	}

	if !allJobs {
		starts = append(append([]int(nil), n.fixedStartTimes...), starts...)
		procTimes = append(append([]int(nil), b.fpcc.permProcTimes[:n.fixedCount]...), procTimes...)
	}
	sortByStart(starts, procTimes)

	cost, ok := b.fpcc.CostOfStartTimes(starts, procTimes)
	if !ok {
		return false, nil
	}
	b.packToBlocksByCpFoundSolutionCount++
	if b.currBestObj == nil || cost < *b.currBestObj {
		b.currBestObj = intPtr(cost)
		b.currBestPermProcTimes = procTimes
		b.currBestPermStartTimes = starts
	}
	return false, nil
}

// blockFinding assigns every remaining job to one of the relaxed tail
// blocks via the BlockAssigner, confirms the resulting per-block
// aggregated layout's cost on checkFPCC, and reports whether the
// assignment is already identical to the relaxed blocks -- in which case
// the bound is tight and the caller can stop branching below this node.
func (b *BranchAndBound) blockFinding(ctx context.Context, n *node) (bool, error) {
	start := time.Now()
	defer func() { b.blockFindingDur += time.Since(start) }()

	if len(n.remProcBlocks) == 0 {
		return false, nil
	}
	items := n.counts.values()
	targets := make([]int, len(n.remProcBlocks))
	for i, blk := range n.remProcBlocks {
		targets[i] = blk.Length()
	}

	timeLimit := b.residualTimeLimit(5 * time.Second) // hard cap on BlockFinding's own IP solve
	if timeLimit <= 0 {
		return false, nil
	}
	assignment, ok := b.blockAssigner.Assign(ctx, items, targets, timeLimit)
	if !ok {
		return false, nil
	}

	perBlockSum := make([]int, len(n.remProcBlocks))
	perBlockItems := make([][]int, len(n.remProcBlocks))
	for i, blk := range assignment.BlockOfJob {
		perBlockSum[blk] += items[i]
		perBlockItems[blk] = append(perBlockItems[blk], items[i])
	}

	checkProcTimes := append(append([]int(nil), b.fpcc.permProcTimes[:n.fixedCount]...), perBlockSum...)
	if err := b.checkFPCC.SetPermutation(checkProcTimes); err != nil {
		return false, err
	}
	cost := b.checkFPCC.RecomputeCost(ctx)
	if cost >= NoValue {
		return false, nil
	}
	startTimes, err := b.checkFPCC.ReconstructStartTimes()
	if err != nil {
		return false, err
	}

	fullStarts := append([]int(nil), startTimes[:n.fixedCount]...)
	fullProcTimes := append([]int(nil), b.fpcc.permProcTimes[:n.fixedCount]...)
	for i := range n.remProcBlocks {
		cursor := startTimes[n.fixedCount+i]
		for _, pt := range perBlockItems[i] {
			fullStarts = append(fullStarts, cursor)
			fullProcTimes = append(fullProcTimes, pt)
			cursor += pt
		}
	}

	if b.currBestObj == nil || cost < *b.currBestObj {
		b.currBestObj = intPtr(cost)
		b.currBestPermProcTimes = fullProcTimes
		b.currBestPermStartTimes = fullStarts
	}
	return assignment.IdenticalToRelaxedBlocks, nil
}

// residualTimeLimit clamps an implementation-chosen soft cap to whatever
// remains of the solver's own global time budget.
func (b *BranchAndBound) residualTimeLimit(softCap time.Duration) time.Duration {
	remaining := b.stopwatch.RemainingTime(b.solver.TimeLimit)
	if remaining < softCap {
		return remaining
	}
	return softCap
}

// sortByStart stable-sorts the parallel (starts, procTimes) slices by
// start time in place.
func sortByStart(starts, procTimes []int) {
	idx := make([]int, len(starts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, c int) bool { return starts[idx[a]] < starts[idx[c]] })

	sortedStarts := make([]int, len(starts))
	sortedProc := make([]int, len(procTimes))
	for newPos, oldPos := range idx {
		sortedStarts[newPos] = starts[oldPos]
		sortedProc[newPos] = procTimes[oldPos]
	}
	copy(starts, sortedStarts)
	copy(procTimes, sortedProc)
}
