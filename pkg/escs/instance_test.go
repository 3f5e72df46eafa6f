package escs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gitrdm/gokanlogic/pkg/escs"
)

func TestNewInstanceComputesTotalProcTime(t *testing.T) {
	jobs := []escs.Job{{ID: 1, Index: 0, ProcTime: 3}, {ID: 2, Index: 1, ProcTime: 4}}
	instance := escs.NewInstance(1, jobs, nil, 1, 1, 0, 0, nil, nil, nil)
	assert.Equal(t, 7, instance.TotalProcTime)
}

func TestAllProcessableMarksEveryInterval(t *testing.T) {
	intervals := make([]escs.Interval, 5)
	instance := escs.NewInstance(1, nil, intervals, 1, 1, 0, 4, nil, nil, nil)

	mask := instance.AllProcessable()
	assert.Len(t, mask, 5)
	for _, on := range mask {
		assert.True(t, on)
	}
}
