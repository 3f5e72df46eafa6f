package escs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcTimeMultisetValuesAscending(t *testing.T) {
	m := newProcTimeMultiset([]int{3, 1, 3, 2, 1, 1})
	assert.Equal(t, []int{1, 1, 1, 2, 3, 3}, m.values())
	assert.Equal(t, 11, m.total())
	assert.Equal(t, 3, m.count(1))
	assert.Equal(t, []int{1, 2, 3}, m.distinctValues())
}

func TestProcTimeMultisetDecrementIncrement(t *testing.T) {
	m := newProcTimeMultiset([]int{5, 5})
	m.decrement(5)
	assert.Equal(t, 1, m.count(5))
	assert.Equal(t, 5, m.total())
	m.increment(5)
	assert.Equal(t, 2, m.count(5))
}
