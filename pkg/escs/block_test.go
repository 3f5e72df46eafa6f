package escs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcBlocksFromStartTimesMergesAdjacent(t *testing.T) {
	starts := []int{0, 2, 5, 10}
	procTimes := []int{2, 3, 2, 1}
	blocks := ProcBlocksFromStartTimes(starts, procTimes, 0)

	assert.Equal(t, []Block{
		{Start: 0, Completion: 7}, // positions 0,1,2 merge: 0-2, 2-5, 5-7 back to back
		{Start: 10, Completion: 11},
	}, blocks)
}

func TestProcBlocksFromStartTimesHonorsFromPosition(t *testing.T) {
	starts := []int{0, 2, 10}
	procTimes := []int{2, 3, 1}
	blocks := ProcBlocksFromStartTimes(starts, procTimes, 1)
	assert.Equal(t, []Block{{Start: 2, Completion: 5}, {Start: 10, Completion: 11}}, blocks)
}

func TestBlockLength(t *testing.T) {
	assert.Equal(t, 5, Block{Start: 3, Completion: 8}.Length())
}
