package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gokanlogic/internal/search"
)

func TestExactBinPackerFindsFeasiblePacking(t *testing.T) {
	packer := search.ExactBinPacker{}
	capacities := []int{5, 3}
	sizes := []int{2, 3, 3}

	assignment, ok := packer.Pack(context.Background(), capacities, sizes, time.Second)
	require.True(t, ok)
	require.Len(t, assignment, len(sizes))

	sums := make([]int, len(capacities))
	for item, bin := range assignment {
		sums[bin] += sizes[item]
	}
	assert.Equal(t, capacities, sums)
}

func TestExactBinPackerRejectsUnequalTotals(t *testing.T) {
	packer := search.ExactBinPacker{}
	_, ok := packer.Pack(context.Background(), []int{5}, []int{1, 1}, time.Second)
	assert.False(t, ok)
}

func TestExactBinPackerRejectsNoFeasibleSplit(t *testing.T) {
	packer := search.ExactBinPacker{}
	// totals match (6 == 6) but item 4 fits in neither bin of capacity 3.
	_, ok := packer.Pack(context.Background(), []int{3, 3}, []int{4, 2}, time.Second)
	assert.False(t, ok)
}

func TestExactBinPackerMultipleBinsSameCapacityAnyAssignmentValid(t *testing.T) {
	packer := search.ExactBinPacker{}
	capacities := []int{4, 4}
	sizes := []int{1, 1, 1, 1, 2, 2}

	assignment, ok := packer.Pack(context.Background(), capacities, sizes, time.Second)
	require.True(t, ok)

	sums := make([]int, len(capacities))
	for item, bin := range assignment {
		sums[bin] += sizes[item]
	}
	assert.ElementsMatch(t, capacities, sums)
}
