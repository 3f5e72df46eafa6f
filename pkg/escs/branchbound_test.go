package escs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gokanlogic/internal/search"
	"github.com/gitrdm/gokanlogic/pkg/escs"
)

// flatCostInstance builds an m-interval instance where switching cost
// after r idle intervals is r (independent of where the run starts) and
// every interval costs 1 unit of energy -- cheap to reason about by hand.
func flatCostInstance(jobs []escs.Job, m int) *escs.Instance {
	intervals := make([]escs.Interval, m)
	for i := range intervals {
		intervals[i] = escs.Interval{Index: i, Start: i, End: i + 1, EnergyCost: 1}
	}
	sw := make([][]int, m+1)
	for r := range sw {
		row := make([]int, m+1)
		for c := range row {
			row[c] = r
		}
		sw[r] = row
	}
	cumul := make([][]int, m)
	for i := range cumul {
		row := make([]int, m)
		sum := 0
		for j := i; j < m; j++ {
			sum++
			row[j] = sum
		}
		cumul[i] = row
	}
	return escs.NewInstance(1, jobs, intervals, 1, 1, 0, m-1, sw, sw, cumul)
}

func TestBranchAndBoundSolvesSmallInstanceToOptimal(t *testing.T) {
	jobs := []escs.Job{
		{ID: 1, Index: 0, ProcTime: 2},
		{ID: 2, Index: 1, ProcTime: 1},
	}
	instance := flatCostInstance(jobs, 6)
	solver := &escs.SolverConfig{RandomSeed: 1, NumWorkers: 0}
	config := &escs.SpecializedSolverConfig{BranchPriority: escs.BranchForcedSpace}

	bab := escs.NewBranchAndBound(instance, solver, config, search.ExactBinPacker{}, search.MinDeviationBlockAssigner{})
	result, err := bab.Solve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, escs.Optimal, result.Status)
	require.NotNil(t, result.Objective)
	assert.Len(t, result.StartTimes, len(jobs))
	assert.False(t, result.TimeLimitReached)
}

func TestBranchAndBoundJobsJoiningOnGcdWholeTreeStillOptimal(t *testing.T) {
	jobs := []escs.Job{
		{ID: 1, Index: 0, ProcTime: 4},
		{ID: 2, Index: 1, ProcTime: 2},
		{ID: 3, Index: 2, ProcTime: 2},
	}
	instance := flatCostInstance(jobs, 10)
	solver := &escs.SolverConfig{RandomSeed: 7, NumWorkers: 0}
	config := &escs.SpecializedSolverConfig{
		BranchPriority:   escs.BranchJoinToPrev,
		JobsJoiningOnGcd: escs.GcdWholeTree,
	}

	bab := escs.NewBranchAndBound(instance, solver, config, search.ExactBinPacker{}, search.MinDeviationBlockAssigner{})
	result, err := bab.Solve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, escs.Optimal, result.Status)
	require.NotNil(t, result.Objective)
}

func TestBranchAndBoundPrimalHeuristicsFindSameOptimum(t *testing.T) {
	jobs := []escs.Job{
		{ID: 1, Index: 0, ProcTime: 1},
		{ID: 2, Index: 1, ProcTime: 1},
		{ID: 3, Index: 2, ProcTime: 1},
	}
	instance := flatCostInstance(jobs, 8)
	solver := &escs.SolverConfig{RandomSeed: 3, NumWorkers: 0}

	plain := escs.NewBranchAndBound(instance, solver, &escs.SpecializedSolverConfig{BranchPriority: escs.BranchForcedSpace},
		search.ExactBinPacker{}, search.MinDeviationBlockAssigner{})
	plainResult, err := plain.Solve(context.Background())
	require.NoError(t, err)

	heuristic := escs.NewBranchAndBound(instance, solver, &escs.SpecializedSolverConfig{
		BranchPriority:                     escs.BranchForcedSpace,
		UsePrimalHeuristicBlockDetection:   true,
		UsePrimalHeuristicPackToBlocksByCp: true,
		BlockFinding:                       escs.BlockFindingWholeTree,
	}, search.ExactBinPacker{}, search.MinDeviationBlockAssigner{})
	heuristicResult, err := heuristic.Solve(context.Background())
	require.NoError(t, err)

	require.NotNil(t, plainResult.Objective)
	require.NotNil(t, heuristicResult.Objective)
	assert.Equal(t, *plainResult.Objective, *heuristicResult.Objective)
}
