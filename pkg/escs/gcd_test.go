package escs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGcdTablePairGcd(t *testing.T) {
	table := NewGcdTable([]int{4, 6, 10})
	assert.Equal(t, 2, table.PairGcd(4, 6))
	assert.Equal(t, 2, table.PairGcd(6, 4)) // order-independent
	assert.Equal(t, 2, table.PairGcd(4, 10))
}

func TestGcdTableGcdFold(t *testing.T) {
	table := NewGcdTable([]int{8, 12, 20})
	assert.Equal(t, 4, table.Gcd([]int{8, 12, 20}))
	assert.Equal(t, 0, table.Gcd(nil))
}

func TestGcdTableShortCircuitsAtOne(t *testing.T) {
	table := NewGcdTable([]int{7, 3, 999999})
	assert.Equal(t, 1, table.Gcd([]int{7, 3, 999999}))
}
