package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gokanlogic/internal/search"
)

func TestMinDeviationBlockAssignerFindsIdenticalMatch(t *testing.T) {
	assigner := search.MinDeviationBlockAssigner{}
	procTimes := []int{3, 2, 2, 3}
	targets := []int{5, 5}

	result, ok := assigner.Assign(context.Background(), procTimes, targets, time.Second)
	require.True(t, ok)
	require.True(t, result.IdenticalToRelaxedBlocks)

	sums := make([]int, len(targets))
	for job, blk := range result.BlockOfJob {
		sums[blk] += procTimes[job]
	}
	assert.Equal(t, targets, sums)
}

func TestMinDeviationBlockAssignerMinimizesDeviationWhenNoExactFit(t *testing.T) {
	assigner := search.MinDeviationBlockAssigner{}
	procTimes := []int{3, 3, 3}
	targets := []int{5, 4}

	result, ok := assigner.Assign(context.Background(), procTimes, targets, time.Second)
	require.True(t, ok)
	assert.False(t, result.IdenticalToRelaxedBlocks)

	sums := make([]int, len(targets))
	for job, blk := range result.BlockOfJob {
		sums[blk] += procTimes[job]
	}
	maxDeviation := 0
	for i, s := range sums {
		d := s - targets[i]
		if d < 0 {
			d = -d
		}
		if d > maxDeviation {
			maxDeviation = d
		}
	}
	assert.Equal(t, 1, maxDeviation) // 3+3 vs 5 (dev 1), 3 vs 4 (dev 1)
}

func TestMinDeviationBlockAssignerNoJobsTrivialMatch(t *testing.T) {
	assigner := search.MinDeviationBlockAssigner{}
	result, ok := assigner.Assign(context.Background(), nil, []int{0}, time.Second)
	require.True(t, ok)
	assert.True(t, result.IdenticalToRelaxedBlocks)
	assert.Empty(t, result.BlockOfJob)
}
