package escs

import (
	"context"

	"github.com/gitrdm/gokanlogic/internal/parallel"
)

// FPCC (Fixed-Permutation Cost Computation) is the inner dynamic program.
// Given an ordered sequence of "positions" — each a processing time and a
// forced-space requirement after it — FPCC computes the minimum total
// energy + switching cost of scheduling them in that order under the
// current processable-interval mask, or NoValue if infeasible, and can
// reconstruct the optimal start times. It is mutated in place by the
// search (Join/Split/SetProcTimes/SetForcedSpace); every mutation has an
// exact undo on the branch-and-bound backtrack path.
type FPCC struct {
	instance *Instance
	pool     *parallel.StaticWorkerPool

	m int // number of intervals
	p int // total processing time (sum of permProcTimes, invariant across mutations)

	// switchTrans[newStart][prevEnd] == instance.OptSwitchingCost[newStart-prevEnd][newStart],
	// reparametrized so the inner loop can look a transition up directly from
	// the new on-start and the previous position's completion column instead
	// of first subtracting to get an off-run length.
	switchTrans [][]int

	// cumulOnEnergy[pt][s] == CumulEnergyCost[s][s+pt-1] * OnPowerConsumption,
	// indexed by processing time (1..p) and start interval.
	cumulOnEnergy [][]int

	processable []bool
	maxRun      []int // maxRun[i]: length of the maximal processable run starting at i

	permProcTimes     []int
	permLevels        []int // permLevels[i] = sum of permProcTimes[:i]
	permForcedSpaces  []int // permForcedSpaces[i]: off-intervals required after position i

	// costsOnLevels[level][s] / optPath[level][s] are dimensioned P+1 x M, sized
	// once at construction and indexed by the absolute level (not position
	// ordinal), since a join/split changes how many positions there are but
	// never changes the set of absolute levels a surviving position boundary
	// can land on.
	costsOnLevels [][]int
	optPath       [][]int

	costsValidLevel    int
	costsValidPosition int // -1 means nothing has been computed yet

	optCost           int
	lastLevelOptStart int
}

// NewFPCC builds an FPCC over instance with the given processable-interval
// mask, sized for at most numWorkers concurrent goroutines in the
// per-level transition sweep. numWorkers <= 1 runs the sweep inline.
func NewFPCC(instance *Instance, processable []bool, numWorkers int) *FPCC {
	m := len(instance.Intervals)
	p := instance.TotalProcTime

	f := &FPCC{
		instance: instance,
		m:        m,
		p:        p,
	}
	if numWorkers > 1 {
		f.pool = parallel.NewStaticWorkerPool(numWorkers)
	}

	f.switchTrans = make([][]int, m+1)
	for newStart := 0; newStart <= m; newStart++ {
		row := make([]int, m+1)
		for prevEnd := 0; prevEnd <= m; prevEnd++ {
			row[prevEnd] = f.switchCost(newStart-prevEnd, newStart)
		}
		f.switchTrans[newStart] = row
	}

	f.cumulOnEnergy = make([][]int, p+1)
	for pt := 1; pt <= p; pt++ {
		row := make([]int, m)
		for s := 0; s < m; s++ {
			row[s] = f.rangeEnergy(s, pt)
		}
		f.cumulOnEnergy[pt] = row
	}

	f.costsOnLevels = make([][]int, p+1)
	f.optPath = make([][]int, p+1)
	for lvl := 0; lvl <= p; lvl++ {
		row := make([]int, m)
		path := make([]int, m)
		for s := 0; s < m; s++ {
			row[s] = NoValue
			path[s] = -1
		}
		f.costsOnLevels[lvl] = row
		f.optPath[lvl] = path
	}

	f.SetProcessable(processable)
	f.Reset()
	return f
}

// switchCost is a bounds-safe read of instance.OptSwitchingCost[r][c],
// returning NoValue outside the matrix's extent. r == m is the table's
// dedicated "switch off forever" row, read by finalize's last transition.
func (f *FPCC) switchCost(r, c int) int {
	if r < 0 || c < 0 {
		return NoValue
	}
	tbl := f.instance.OptSwitchingCost
	if r >= len(tbl) {
		return NoValue
	}
	row := tbl[r]
	if c >= len(row) {
		return NoValue
	}
	v := row[c]
	if v < 0 {
		return NoValue
	}
	return v
}

// rangeEnergy returns CumulEnergyCost[s][s+pt-1] * OnPowerConsumption, or
// NoValue if the range runs past the horizon.
func (f *FPCC) rangeEnergy(s, pt int) int {
	end := s + pt - 1
	if end >= f.m {
		return NoValue
	}
	tbl := f.instance.CumulEnergyCost
	if s >= len(tbl) || end >= len(tbl[s]) {
		return NoValue
	}
	return tbl[s][end] * f.instance.OnPowerConsumption
}

// SetProcessable replaces the processable-interval mask (used when
// iterative deepening grows the mask between iterations) and recomputes
// the maximal-run table, invalidating every cached cost.
func (f *FPCC) SetProcessable(mask []bool) {
	f.processable = mask
	f.maxRun = make([]int, f.m)
	run := 0
	for i := f.m - 1; i >= 0; i-- {
		if i < len(mask) && mask[i] {
			run++
		} else {
			run = 0
		}
		f.maxRun[i] = run
	}
	f.invalidateCosts(0)
}

// Reset returns the permutation to its baseline: P positions of
// processing time 1, no forced spaces, and invalidates every cached cost.
// Used after seeding an initial upper bound via Join to return FPCC to the
// 1-granular state the search expects at the root.
func (f *FPCC) Reset() {
	f.permProcTimes = make([]int, f.p)
	f.permForcedSpaces = make([]int, f.p)
	for i := range f.permProcTimes {
		f.permProcTimes[i] = 1
	}
	f.recomputeLevels()
	f.invalidateCosts(0)
}

func (f *FPCC) recomputeLevels() {
	f.permLevels = make([]int, len(f.permProcTimes))
	sum := 0
	for i, pt := range f.permProcTimes {
		f.permLevels[i] = sum
		sum += pt
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// invalidateCosts clamps costsValidPosition/costsValidLevel so that
// RecomputeCost resumes at fromPosition (the last row kept valid is the one
// strictly before it), and clears the
// cached final cost. Called by every mutation, per the position at or
// before which permProcTimes/permLevels changed.
func (f *FPCC) invalidateCosts(fromPosition int) {
	if fromPosition-1 < f.costsValidPosition {
		f.costsValidPosition = fromPosition - 1
	}
	lvl := f.p
	if fromPosition < len(f.permLevels) {
		lvl = f.permLevels[fromPosition]
	}
	if lvl < f.costsValidLevel {
		f.costsValidLevel = lvl
	}
	f.optCost = NoValue
	f.lastLevelOptStart = -1
}

// PermProcTimes returns the current processing-time permutation.
func (f *FPCC) PermProcTimes() []int { return append([]int(nil), f.permProcTimes...) }

// PermLevels returns the current per-position cumulative levels.
func (f *FPCC) PermLevels() []int { return append([]int(nil), f.permLevels...) }

// PermForcedSpaces returns the current per-position forced-space values.
func (f *FPCC) PermForcedSpaces() []int { return append([]int(nil), f.permForcedSpaces...) }

// OptCost returns the last computed optimal cost, or NoValue if the cache
// is stale (RecomputeCost has not been called since the last mutation).
func (f *FPCC) OptCost() int { return f.optCost }

// Join replaces positions [fromPosition, fromPosition+n) with a single
// position whose processing time is their sum, carrying forward the
// forced space that followed the last of the merged positions.
func (f *FPCC) Join(fromPosition, n int) error {
	if n < 1 || fromPosition < 0 || fromPosition+n > len(f.permProcTimes) {
		return invariantf("join: range [%d,%d) out of bounds (len=%d)", fromPosition, fromPosition+n, len(f.permProcTimes))
	}
	sum := 0
	for i := fromPosition; i < fromPosition+n; i++ {
		sum += f.permProcTimes[i]
	}
	forced := f.permForcedSpaces[fromPosition+n-1]

	procTimes := make([]int, 0, len(f.permProcTimes)-n+1)
	procTimes = append(procTimes, f.permProcTimes[:fromPosition]...)
	procTimes = append(procTimes, sum)
	procTimes = append(procTimes, f.permProcTimes[fromPosition+n:]...)

	forcedSpaces := make([]int, 0, len(procTimes))
	forcedSpaces = append(forcedSpaces, f.permForcedSpaces[:fromPosition]...)
	forcedSpaces = append(forcedSpaces, forced)
	forcedSpaces = append(forcedSpaces, f.permForcedSpaces[fromPosition+n:]...)

	f.permProcTimes = procTimes
	f.permForcedSpaces = forcedSpaces
	f.recomputeLevels()
	f.invalidateCosts(fromPosition)
	return nil
}

// Split is the inverse of Join with n equal parts: it expands the
// position at fromPosition into n positions of pt/n each.
func (f *FPCC) Split(fromPosition, n int) error {
	if fromPosition < 0 || fromPosition >= len(f.permProcTimes) {
		return invariantf("split: position %d out of bounds", fromPosition)
	}
	pt := f.permProcTimes[fromPosition]
	if n < 1 || pt%n != 0 {
		return invariantf("split: proc time %d not evenly divisible by %d", pt, n)
	}
	parts := make([]int, n)
	for i := range parts {
		parts[i] = pt / n
	}
	return f.SplitProcTimes(fromPosition, parts)
}

// SplitProcTimes is the general split: it expands the position at
// fromPosition into len(procTimes) positions with the given processing
// times, which must sum to the original position's processing time. Only
// the last new position inherits the original forced space; interior gaps
// are un-forced (0).
func (f *FPCC) SplitProcTimes(fromPosition int, procTimes []int) error {
	if fromPosition < 0 || fromPosition >= len(f.permProcTimes) {
		return invariantf("split: position %d out of bounds", fromPosition)
	}
	sum := 0
	for _, pt := range procTimes {
		sum += pt
	}
	if sum != f.permProcTimes[fromPosition] {
		return invariantf("split: parts sum %d != position proc time %d", sum, f.permProcTimes[fromPosition])
	}
	forced := f.permForcedSpaces[fromPosition]
	newForced := make([]int, len(procTimes))
	newForced[len(newForced)-1] = forced

	newProcTimes := make([]int, 0, len(f.permProcTimes)+len(procTimes)-1)
	newProcTimes = append(newProcTimes, f.permProcTimes[:fromPosition]...)
	newProcTimes = append(newProcTimes, procTimes...)
	newProcTimes = append(newProcTimes, f.permProcTimes[fromPosition+1:]...)

	newForcedSpaces := make([]int, 0, len(newProcTimes))
	newForcedSpaces = append(newForcedSpaces, f.permForcedSpaces[:fromPosition]...)
	newForcedSpaces = append(newForcedSpaces, newForced...)
	newForcedSpaces = append(newForcedSpaces, f.permForcedSpaces[fromPosition+1:]...)

	f.permProcTimes = newProcTimes
	f.permForcedSpaces = newForcedSpaces
	f.recomputeLevels()
	f.invalidateCosts(fromPosition)
	return nil
}

// SetProcTimes collapses everything from fromPosition onward into
// positions of size pt, covering the same remaining total level.
func (f *FPCC) SetProcTimes(fromPosition, pt int) error {
	if fromPosition < 0 || fromPosition >= len(f.permProcTimes) || pt < 1 {
		return invariantf("setProcTimes: invalid position %d or pt %d", fromPosition, pt)
	}
	remaining := f.p - f.permLevels[fromPosition]
	if remaining%pt != 0 {
		return invariantf("setProcTimes: remaining %d not divisible by pt %d", remaining, pt)
	}
	count := remaining / pt
	tail := make([]int, count)
	for i := range tail {
		tail[i] = pt
	}
	forced := f.permForcedSpaces[len(f.permForcedSpaces)-1]
	tailForced := make([]int, count)
	if count > 0 {
		tailForced[count-1] = forced
	}

	f.permProcTimes = append(append([]int{}, f.permProcTimes[:fromPosition]...), tail...)
	f.permForcedSpaces = append(append([]int{}, f.permForcedSpaces[:fromPosition]...), tailForced...)
	f.recomputeLevels()
	f.invalidateCosts(fromPosition)
	return nil
}

// SetForcedSpace sets the minimum off-run required after position.
func (f *FPCC) SetForcedSpace(position, s int) {
	f.permForcedSpaces[position] = s
	f.invalidateCosts(position)
}

// RecomputeCost resumes the DP from costsValidPosition+1 and returns the
// optimal total cost, or NoValue if infeasible. Zero positions (no jobs at
// all) trivially cost 0 -- the machine is never turned on.
func (f *FPCC) RecomputeCost(ctx context.Context) int {
	n := len(f.permProcTimes)
	if n == 0 {
		f.optCost = 0
		f.lastLevelOptStart = -1
		f.costsValidPosition = -1
		f.costsValidLevel = 0
		return f.optCost
	}

	start := f.costsValidPosition + 1
	if start == 0 {
		f.computeBaseRow(ctx)
		start = 1
	}
	for i := start; i < n; i++ {
		f.computeTransitionRow(ctx, i)
	}
	f.costsValidPosition = n - 1
	f.costsValidLevel = f.p
	f.finalize()
	return f.optCost
}

func (f *FPCC) computeBaseRow(ctx context.Context) {
	p0 := f.permProcTimes[0]
	E := f.instance.EarliestOnIntervalIdx
	L := f.instance.LatestOnIntervalIdx
	row := f.costsOnLevels[0]
	for s := range row {
		row[s] = NoValue
	}

	lo := max(E, 0)
	hi := min(L-f.p+1, f.m-1)
	if hi < lo {
		return
	}
	_ = parallel.ParallelFor(ctx, f.pool, lo, hi+1, func(s int) {
		if f.maxRun[s] < p0 {
			return
		}
		sw := f.switchTrans[s][0] // prevEnd == 0: off since the start of the horizon
		if sw >= NoValue {
			return
		}
		en := f.cumulOnEnergy[p0][s]
		if en >= NoValue {
			return
		}
		row[s] = sw + en
	})
}

func (f *FPCC) computeTransitionRow(ctx context.Context, i int) {
	prevLevel := f.permLevels[i-1]
	currLevel := f.permLevels[i]
	pPrev := f.permProcTimes[i-1]
	fsPrev := f.permForcedSpaces[i-1]
	pCurr := f.permProcTimes[i]

	prevRow := f.costsOnLevels[prevLevel]
	row := f.costsOnLevels[currLevel]
	path := f.optPath[currLevel]
	for s := range row {
		row[s] = NoValue
		path[s] = -1
	}

	E := f.instance.EarliestOnIntervalIdx
	L := f.instance.LatestOnIntervalIdx
	lo := max(E+currLevel, 0)
	hi := min(L-f.p+currLevel+1, f.m-1)
	if hi < lo {
		return
	}

	sPrimeLo := max(E+prevLevel, 0)
	_ = parallel.ParallelFor(ctx, f.pool, lo, hi+1, func(s int) {
		if f.maxRun[s] < pCurr {
			return
		}
		en := f.cumulOnEnergy[pCurr][s]
		if en >= NoValue {
			return
		}
		sPrimeHi := min(s-pPrev-fsPrev, f.m-1)
		best := NoValue
		bestSPrime := -1
		for sPrime := sPrimeLo; sPrime <= sPrimeHi; sPrime++ {
			pv := prevRow[sPrime]
			if pv >= NoValue {
				continue
			}
			if f.maxRun[sPrime] < pPrev {
				continue
			}
			sw := f.switchTrans[s][sPrime+pPrev]
			if sw >= NoValue {
				continue
			}
			total := pv + sw
			if total < best {
				best = total
				bestSPrime = sPrime
			}
		}
		if best < NoValue {
			row[s] = best + en
			path[s] = bestSPrime
		}
	})
}

func (f *FPCC) finalize() {
	n := len(f.permProcTimes)
	lastLevel := f.permLevels[n-1]
	pLast := f.permProcTimes[n-1]
	row := f.costsOnLevels[lastLevel]

	best := NoValue
	bestS := -1
	for sPrime := 0; sPrime < f.m; sPrime++ {
		v := row[sPrime]
		if v >= NoValue {
			continue
		}
		sw := f.switchCost(f.m, sPrime+pLast)
		if sw >= NoValue {
			continue
		}
		total := v + sw
		if total < best {
			best = total
			bestS = sPrime
		}
	}
	f.optCost = best
	f.lastLevelOptStart = bestS
}

// SetPermutation directly replaces the position sequence, bypassing
// Join/Split/SetProcTimes -- used by the BlockFinding heuristic's check
// FPCC to load a fully-formed candidate block layout in one step. Forced
// spaces reset to none, since a checked layout's blocks are already final.
func (f *FPCC) SetPermutation(procTimes []int) error {
	sum := 0
	for _, pt := range procTimes {
		sum += pt
	}
	if sum != f.p {
		return invariantf("setPermutation: proc times sum %d != P %d", sum, f.p)
	}
	f.permProcTimes = append([]int(nil), procTimes...)
	f.permForcedSpaces = make([]int, len(procTimes))
	f.recomputeLevels()
	f.invalidateCosts(0)
	return nil
}

// CostOfStartTimes computes the total switching + energy cost of a fully
// specified, start-ascending schedule directly, without going through the
// DP -- used by the primal heuristics to score a candidate layout they
// construct by hand. Returns ok=false if any position runs off the
// processable horizon.
func (f *FPCC) CostOfStartTimes(starts, procTimes []int) (int, bool) {
	if len(starts) != len(procTimes) {
		return 0, false
	}
	total := 0
	prevEnd := 0
	for i, s := range starts {
		pt := procTimes[i]
		if s < 0 || s >= f.m || f.maxRun[s] < pt {
			return 0, false
		}
		sw := f.switchCost(s-prevEnd, s)
		if sw >= NoValue {
			return 0, false
		}
		en := f.rangeEnergy(s, pt)
		if en >= NoValue {
			return 0, false
		}
		total += sw + en
		prevEnd = s + pt
	}
	sw := f.switchCost(f.m, prevEnd)
	if sw >= NoValue {
		return 0, false
	}
	total += sw
	return total, true
}

// ReconstructStartTimes walks optPath backward from the final level to
// recover the start time of every position. It is an internal invariant
// violation to call this while OptCost() is NoValue.
func (f *FPCC) ReconstructStartTimes() ([]int, error) {
	n := len(f.permProcTimes)
	if n == 0 {
		return nil, nil
	}
	if f.optCost >= NoValue {
		return nil, invariantf("reconstructStartTimes called with no valid cost")
	}

	starts := make([]int, n)
	s := f.lastLevelOptStart
	for i := n - 1; i >= 0; i-- {
		starts[i] = s
		if i == 0 {
			break
		}
		level := f.permLevels[i]
		s = f.optPath[level][s]
		if s < 0 {
			return nil, invariantf("reconstructStartTimes: missing predecessor at position %d", i)
		}
	}
	return starts, nil
}
