package search

import (
	"context"
	"time"

	"github.com/gitrdm/gokanlogic/pkg/escs"
)

// MinDeviationBlockAssigner assigns jobs to a fixed set of target block
// lengths, by exhaustive backtracking (stopping early at a zero-deviation
// assignment) minimizing the maximum absolute deviation
// between a block's assigned processing-time sum and its target length --
// the same objective BlockFinding's IP formulation minimizes via its
// continuous z variable and the two `z >= sum-length` / `z >= length-sum`
// constraints.
type MinDeviationBlockAssigner struct{}

// Assign implements escs.BlockAssigner.
func (MinDeviationBlockAssigner) Assign(ctx context.Context, procTimes []int, targetBlockLengths []int, timeLimit time.Duration) (escs.BlockAssignment, bool) {
	deadline := time.Now().Add(timeLimit)

	n := len(procTimes)
	b := len(targetBlockLengths)
	sums := make([]int, b)
	assignment := make([]int, n)

	bestAssignment := make([]int, n)
	bestDeviation := -1
	found := false

	deviation := func() int {
		d := 0
		for i, s := range sums {
			diff := s - targetBlockLengths[i]
			if diff < 0 {
				diff = -diff
			}
			if diff > d {
				d = diff
			}
		}
		return d
	}

	checks := 0
	var backtrack func(pos int) bool
	backtrack = func(pos int) bool {
		checks++
		if checks%2048 == 0 && (ctx.Err() != nil || time.Now().After(deadline)) {
			return false
		}
		if pos == n {
			d := deviation()
			if !found || d < bestDeviation {
				found = true
				bestDeviation = d
				copy(bestAssignment, assignment)
				if bestDeviation == 0 {
					return true // identical to relaxed blocks: cannot improve further
				}
			}
			return false
		}
		for blk := 0; blk < b; blk++ {
			sums[blk] += procTimes[pos]
			assignment[pos] = blk
			if backtrack(pos + 1) {
				return true
			}
			sums[blk] -= procTimes[pos]
		}
		return false
	}

	backtrack(0)
	if !found {
		return escs.BlockAssignment{}, false
	}
	return escs.BlockAssignment{
		BlockOfJob:               bestAssignment,
		IdenticalToRelaxedBlocks: bestDeviation == 0,
	}, true
}
