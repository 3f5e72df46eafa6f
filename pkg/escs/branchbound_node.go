package escs

import (
	"context"
	"time"
)

// node carries exactly what the recursion needs across a call, everything
// else (fpcc, checkFPCC, counters) lives on the BranchAndBound receiver and
// is mutated/undone in place around each recursive call.
type node struct {
	counts           *procTimeMultiset
	fixedCount       int     // number of committed blocks == FPCC positions fixed so far
	lastJobPtOfBlock []int   // per fixed block, the last individual job pt committed into it (symmetry breaking)
	remProcBlocks    []Block // blocks formed by the *unfixed* tail, earliest first
	bound            int     // this node's lower bound, once known
	inheritedBound   bool    // true when bound came from the parent rather than RecomputeCost
	fixedStartTimes  []int   // reconstructed starts for positions [0, fixedCount), valid when bound < NoValue
}

// enterNode is the recursive search step. It computes or inherits the
// node's lower bound, prunes, detects leaves, runs the primal heuristics
// in a fixed deterministic order, and otherwise branches over the
// remaining processing-time classes.
func (b *BranchAndBound) enterNode(ctx context.Context, n *node) error {
	if b.stopSearching() {
		return nil
	}
	b.nodesCount++

	freshlyComputed := !n.inheritedBound
	if freshlyComputed {
		start := time.Now()
		n.bound = b.fpcc.RecomputeCost(ctx)
		b.lowerBoundDuration += time.Since(start)
		if n.bound < NoValue {
			startTimes, err := b.fpcc.ReconstructStartTimes()
			if err != nil {
				return err
			}
			n.fixedStartTimes = append([]int(nil), startTimes[:n.fixedCount]...)
			n.remProcBlocks = ProcBlocksFromStartTimes(startTimes, b.fpcc.permProcTimes, n.fixedCount)
		}
	}
	if b.nodesCount == 1 {
		b.rootLowerBound = intPtr(n.bound)
	}

	if n.bound >= NoValue {
		return nil // infeasible subtree
	}
	if b.currBestObj != nil && *b.currBestObj <= n.bound {
		return nil // pruned
	}

	remainingProcTime := n.counts.total()
	if remainingProcTime == 0 {
		// Leaf: the FPCC, at this point, describes a complete order, so its
		// bound IS the exact cost.
		if b.currBestObj == nil || n.bound < *b.currBestObj {
			startTimes := n.fixedStartTimes
			if !freshlyComputed {
				// Bound was inherited on the branch step into this leaf, so
				// the mutation since then left the FPCC's own cost cache
				// stale; recompute (cheap: the DP resumes from the single
				// invalidated position) before trusting its start times.
				if recomputed := b.fpcc.RecomputeCost(ctx); recomputed >= NoValue {
					return invariantf("leaf recompute disagrees with inherited bound: got NoValue")
				}
				var err error
				startTimes, err = b.fpcc.ReconstructStartTimes()
				if err != nil {
					return err
				}
			}
			b.currBestObj = intPtr(n.bound)
			b.currBestPermProcTimes = b.fpcc.PermProcTimes()
			b.currBestPermStartTimes = startTimes
		}
		return nil
	}

	if freshlyComputed {
		handled, err := b.runPrimalHeuristics(ctx, n)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}

	return b.branch(ctx, n)
}

// branchOrder returns (tryFirstIsForcedSpace, trySecondIsForcedSpace)
// according to the configured BranchPriority.
func (b *BranchAndBound) branchOrder(n *node, pt int) (bool, bool) {
	switch b.config.BranchPriority {
	case BranchForcedSpace:
		return true, false
	case BranchJoinToPrev:
		return false, true
	case BranchDynamicByBlockFitting:
		if len(n.remProcBlocks) > 0 && n.remProcBlocks[0].Length() >= pt {
			return false, true
		}
		return true, false
	default: // BranchRandom
		if b.rand.Intn(2) == 0 {
			return true, false
		}
		return false, true
	}
}

// branch tries every remaining processing-time class in deterministic
// (ascending) order, each with both branch types ordered per the
// configured BranchPriority, mutating/undoing FPCC exactly around each
// recursive call.
func (b *BranchAndBound) branch(ctx context.Context, n *node) error {
	for _, pt := range n.counts.distinctValues() {
		if n.counts.count(pt) <= 0 {
			continue
		}
		if b.stopSearching() {
			return nil
		}

		first, second := b.branchOrder(n, pt)
		for _, forcedSpace := range []bool{first, second} {
			if n.counts.count(pt) <= 0 {
				continue
			}
			if !forcedSpace && n.fixedCount == 0 {
				continue // nothing to join to yet
			}
			if !forcedSpace && pt < n.lastJobPtOfBlock[n.fixedCount-1] {
				continue // symmetry breaking: non-decreasing pt inside a joined block
			}

			if err := b.tryBranch(ctx, n, pt, forcedSpace); err != nil {
				return err
			}
			if b.currBestObj != nil && *b.currBestObj <= n.bound {
				return nil
			}
			if b.stopSearching() {
				return nil
			}
		}
	}
	return nil
}

// tryBranch applies one branch's FPCC mutation, recurses, and undoes the
// mutation exactly, regardless of outcome.
func (b *BranchAndBound) tryBranch(ctx context.Context, n *node, pt int, forcedSpace bool) error {
	g := b.currJoinedGcd
	units := pt / g

	n.counts.decrement(pt)
	defer n.counts.increment(pt)

	child := &node{counts: n.counts}

	var prevBlockSize int // only meaningful for the join-to-prev undo
	var prevForcedSpace int

	if forcedSpace {
		idx := n.fixedCount
		if idx > 0 {
			prevForcedSpace = 0 // boundary being forced open always starts un-forced in this design
		}
		if err := b.fpcc.Join(idx, units); err != nil {
			return err
		}
		if idx > 0 {
			b.fpcc.SetForcedSpace(idx-1, 1)
		}
		child.fixedCount = n.fixedCount + 1
		child.lastJobPtOfBlock = append(append([]int(nil), n.lastJobPtOfBlock...), pt)
	} else {
		idx := n.fixedCount - 1
		prevBlockSize = b.fpcc.permProcTimes[idx]
		if err := b.fpcc.Join(idx, 1+units); err != nil {
			return err
		}
		child.fixedCount = n.fixedCount
		child.lastJobPtOfBlock = append([]int(nil), n.lastJobPtOfBlock...)
		child.lastJobPtOfBlock[idx] = pt
	}

	gcdIncreased := false
	oldGcd := g
	if b.config.JobsJoiningOnGcd == GcdWholeTree {
		newGcd := b.gcdTable.Gcd(child.counts.values())
		if newGcd > g {
			if err := b.fpcc.SetProcTimes(child.fixedCount, newGcd); err != nil {
				return err
			}
			b.currJoinedGcd = newGcd
			b.jobsJoinedOnLargerGcd++
			gcdIncreased = true
		}
	}

	// Lower-bound inheritance: valid only when no forced space was added and
	// the tail's first relaxed block already has room for pt.
	if !forcedSpace && len(n.remProcBlocks) > 0 && n.remProcBlocks[0].Length() >= pt {
		shifted := n.remProcBlocks[0]
		shifted.Start += pt
		tail := n.remProcBlocks[1:]
		if shifted.Length() > 0 {
			child.remProcBlocks = append([]Block{shifted}, tail...)
		} else {
			child.remProcBlocks = tail
		}
		child.bound = n.bound
		child.inheritedBound = true
	}

	err := b.enterNode(ctx, child)

	if gcdIncreased {
		// Un-coarsen the tail back to the granularity this branch's own
		// Join/Split undo below expects before touching it.
		if setErr := b.fpcc.SetProcTimes(child.fixedCount, oldGcd); setErr != nil && err == nil {
			err = setErr
		}
		b.currJoinedGcd = oldGcd
	}

	if forcedSpace {
		idx := n.fixedCount
		if idx > 0 {
			b.fpcc.SetForcedSpace(idx-1, prevForcedSpace)
		}
		if splitErr := b.fpcc.Split(idx, units); splitErr != nil && err == nil {
			err = splitErr
		}
	} else {
		idx := n.fixedCount - 1
		parts := append([]int{prevBlockSize}, repeat(g, units)...)
		if splitErr := b.fpcc.SplitProcTimes(idx, parts); splitErr != nil && err == nil {
			err = splitErr
		}
	}

	return err
}

func repeat(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}
