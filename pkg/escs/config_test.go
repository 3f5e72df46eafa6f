package escs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gitrdm/gokanlogic/pkg/escs"
)

func TestSolverConfigNewRandIsSeedDeterministic(t *testing.T) {
	a := &escs.SolverConfig{RandomSeed: 99}
	b := &escs.SolverConfig{RandomSeed: 99}

	ra, rb := a.NewRand(), b.NewRand()
	for i := 0; i < 10; i++ {
		assert.Equal(t, ra.Int63(), rb.Int63())
	}
}

func TestSolverConfigNewRandDiffersAcrossSeeds(t *testing.T) {
	a := &escs.SolverConfig{RandomSeed: 1}
	b := &escs.SolverConfig{RandomSeed: 2}

	assert.NotEqual(t, a.NewRand().Int63(), b.NewRand().Int63())
}

func TestStatusStringNames(t *testing.T) {
	assert.Equal(t, "NoSolution", escs.NoSolution.String())
	assert.Equal(t, "Optimal", escs.Optimal.String())
	assert.Equal(t, "Infeasible", escs.Infeasible.String())
	assert.Equal(t, "Heuristic", escs.Heuristic.String())
	assert.Equal(t, "Unknown", escs.Status(99).String())
}
