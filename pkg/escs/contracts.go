package escs

import (
	"context"
	"time"
)

// BinPacker is the contract PackToBlocksByCp consumes: an exact bin
// packing where every bin's load must equal its capacity exactly (the
// "load" CP variables are fixed to each relaxed block's length, not
// bounded above by it) -- every item must be placed, and every bin must
// fill completely. Any implementation satisfying this contract -- a
// third-party CP solver or, as here, an in-process search -- is a valid
// drop-in.
type BinPacker interface {
	// Pack assigns every item in sizes to one of the bins in capacities so
	// that each bin's assigned items sum to exactly that bin's capacity.
	// Returns the bin index for each item, or ok=false if no exact packing
	// was found within timeLimit.
	Pack(ctx context.Context, capacities []int, sizes []int, timeLimit time.Duration) (assignment []int, ok bool)
}

// BlockAssignment is the result of a BlockAssigner.Assign call.
type BlockAssignment struct {
	// BlockOfJob[j] is the block index job j was assigned to.
	BlockOfJob []int
	// IdenticalToRelaxedBlocks is true when every block's assigned
	// processing-time sum equals its target length exactly -- the bound is
	// then tight and the caller can stop searching.
	IdenticalToRelaxedBlocks bool
}

// BlockAssigner is the contract BlockFinding consumes: assign every job to
// one of a fixed set of target block lengths, minimizing the maximum
// absolute deviation between a block's assigned sum and its target.
type BlockAssigner interface {
	Assign(ctx context.Context, procTimes []int, targetBlockLengths []int, timeLimit time.Duration) (BlockAssignment, bool)
}
