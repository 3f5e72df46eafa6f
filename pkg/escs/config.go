package escs

import (
	"math/rand"
	"time"
)

// SolverConfig carries the options common to any solve: the RNG seed,
// the global time limit, the worker count for FPCC's parallel sweep, and
// an optional warm-start set of initial job start times.
type SolverConfig struct {
	RandomSeed    int64
	TimeLimit     *time.Duration // nil means unlimited
	NumWorkers    int
	InitStartTimes []JobStartTime

	// Processable is the mask BranchAndBound searches under. IterativeDeepening
	// overwrites this per iteration; a direct BranchAndBound run uses it as-is
	// (defaulting to "every interval processable" when unset).
	Processable []bool
}

// NewRand returns a random source seeded from the config, so branch
// priority coin-flips and any RNG handed to external heuristics are
// reproducible given the same seed and single-threaded control flow.
func (c *SolverConfig) NewRand() *rand.Rand {
	return rand.New(rand.NewSource(c.RandomSeed))
}

// JobsJoiningOnGcd selects how aggressively the branch-and-bound search
// coarsens FPCC's 1-granular baseline using the gcd of remaining
// processing times.
type JobsJoiningOnGcd int

const (
	// GcdOff keeps granularity at 1 throughout the search.
	GcdOff JobsJoiningOnGcd = iota
	// GcdRoot computes gcd(all remaining pts) once at the root.
	GcdRoot
	// GcdWholeTree recomputes the gcd at every node over the remaining
	// multiset, coarsening further whenever it increases.
	GcdWholeTree
)

// BlockFindingMode selects when the BlockFinding (IP) primal heuristic
// runs.
type BlockFindingMode int

const (
	// BlockFindingOff never runs the heuristic.
	BlockFindingOff BlockFindingMode = iota
	// BlockFindingRoot runs it only at the search root.
	BlockFindingRoot
	// BlockFindingWholeTree runs it at every node whose bound was freshly
	// recomputed.
	BlockFindingWholeTree
)

// BlockFindingStrategy selects the BlockFinding IP's objective.
type BlockFindingStrategy int

const (
	// MinimizeLengthDifference minimizes the maximum absolute deviation
	// between a block's assigned processing-time sum and its target length.
	MinimizeLengthDifference BlockFindingStrategy = iota
)

// BranchPriority controls which of the two branch types (forced-space vs.
// join-to-previous-block) is tried first for a given processing-time
// class at a node.
type BranchPriority int

const (
	// BranchRandom flips a solver-seeded coin once per processing-time
	// class at each node.
	BranchRandom BranchPriority = iota
	// BranchForcedSpace always tries "forced space" (new block) first.
	BranchForcedSpace
	// BranchJoinToPrev always tries "join to previous block" first.
	BranchJoinToPrev
	// BranchDynamicByBlockFitting tries "no forced space" first when the
	// tail of the relaxed blocks is long enough to host the new pt.
	BranchDynamicByBlockFitting
)

// SpecializedSolverConfig carries the options specific to BranchAndBound
// and IterativeDeepening.
type SpecializedSolverConfig struct {
	UsePrimalHeuristicBlockDetection    bool
	UsePrimalHeuristicPackToBlocksByCp  bool
	PrimalHeuristicPackToBlocksByCpAllJobs bool
	UseIterativeDeepening               bool

	BlockFinding         BlockFindingMode
	BlockFindingStrategy BlockFindingStrategy
	JobsJoiningOnGcd     JobsJoiningOnGcd
	BranchPriority       BranchPriority

	IterativeDeepeningTimeLimit *time.Duration // nil means unlimited
	FullHorizonBabNodesCountLimit *int         // nil means unlimited
}
