// Package search implements the two external combinatorial solvers the
// energy-scheduling core treats as pluggable collaborators: exact bin
// packing (PackToBlocksByCp's CP back-end) and block assignment
// (BlockFinding's IP back-end). No CP or MIP library was available to
// wire these into, so both are in-process backtracking searches,
// grounded in the same recursive-backtracking-with-undo style the core's
// own BranchAndBound uses, behind the escs.BinPacker / escs.BlockAssigner
// contracts -- any real CP/IP solver remains a drop-in replacement.
package search

import (
	"context"
	"sort"
	"time"
)

// ExactBinPacker assigns items to bins so each bin's assigned items sum to
// exactly that bin's capacity, via backtracking with largest-first
// ordering and a remaining-capacity feasibility prune.
type ExactBinPacker struct{}

// Pack implements escs.BinPacker.
func (ExactBinPacker) Pack(ctx context.Context, capacities []int, sizes []int, timeLimit time.Duration) ([]int, bool) {
	deadline := time.Now().Add(timeLimit)

	order := make([]int, len(sizes))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return sizes[order[a]] > sizes[order[b]] })

	remaining := append([]int(nil), capacities...)
	totalItems, totalBins := 0, 0
	for _, s := range sizes {
		totalItems += s
	}
	for _, c := range capacities {
		totalBins += c
	}
	if totalItems != totalBins {
		return nil, false
	}

	assignment := make([]int, len(sizes))
	for i := range assignment {
		assignment[i] = -1
	}

	checks := 0
	var backtrack func(pos int) bool
	backtrack = func(pos int) bool {
		checks++
		if checks%2048 == 0 {
			if ctx.Err() != nil || time.Now().After(deadline) {
				return false
			}
		}
		if pos == len(order) {
			return true
		}
		item := order[pos]
		size := sizes[item]

		tried := map[int]bool{}
		for b, binCap := range remaining {
			if binCap < size || tried[binCap] {
				continue
			}
			tried[binCap] = true
			remaining[b] -= size
			assignment[item] = b
			if backtrack(pos + 1) {
				return true
			}
			remaining[b] += size
			assignment[item] = -1
		}
		return false
	}

	if backtrack(0) {
		return assignment, true
	}
	return nil, false
}
