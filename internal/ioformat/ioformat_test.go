package ioformat_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/gokanlogic/internal/ioformat"
	"github.com/gitrdm/gokanlogic/pkg/escs"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadSolverConfigParsesWarmStart(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "solver.cfg", "42 1500 4 2\n0 3\n1 7\n")

	cfg, err := ioformat.ReadSolverConfig(path)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.RandomSeed)
	require.NotNil(t, cfg.TimeLimit)
	assert.Equal(t, 4, cfg.NumWorkers)
	assert.Equal(t, []escs.JobStartTime{{JobIndex: 0, StartTime: 3}, {JobIndex: 1, StartTime: 7}}, cfg.InitStartTimes)
}

func TestReadSolverConfigNonPositiveTimeLimitMeansUnlimited(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "solver.cfg", "1 0 1 0\n")

	cfg, err := ioformat.ReadSolverConfig(path)
	require.NoError(t, err)
	assert.Nil(t, cfg.TimeLimit)
}

func TestReadSolverConfigMalformedReturnsMalformedInputError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "solver.cfg", "1 2 not-a-number 0\n")

	_, err := ioformat.ReadSolverConfig(path)
	require.Error(t, err)
	var malformed *ioformat.MalformedInputError
	assert.ErrorAs(t, err, &malformed)
}

func TestReadSpecializedConfigParsesFlagsAndOptionalFields(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "specialized.cfg", "1 0 1 0 2 0 1 2 -1 -1\n")

	cfg, err := ioformat.ReadSpecializedConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.UsePrimalHeuristicBlockDetection)
	assert.False(t, cfg.UsePrimalHeuristicPackToBlocksByCp)
	assert.True(t, cfg.PrimalHeuristicPackToBlocksByCpAllJobs)
	assert.Equal(t, escs.BlockFindingWholeTree, cfg.BlockFinding)
	assert.Equal(t, escs.BranchJoinToPrev, cfg.BranchPriority)
	assert.Nil(t, cfg.IterativeDeepeningTimeLimit)
	assert.Nil(t, cfg.FullHorizonBabNodesCountLimit)
}

func TestReadInstanceMapsNegativeOneToNoValueOnlyInSwitchingMatrices(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		"1",      // machinesCount
		"1",      // jobsCount
		"1 0 0 2", // job: id index machine proctime
		"3",      // intervalsCount
		"0 0 1 1",
		"1 1 2 1",
		"2 2 3 1",
		"1 1 0 2", // lengthInterval onPower earliest latest
		"2 2 -1 0 1 2", // optSwitchingCost 2x2 with a -1
		"2 2 -1 0 1 2", // fullOptSwitchingCost 2x2 with a -1
		"1 3 -1 2 3",   // cumulEnergyCost 1x3 with a -1, no mapping applied here
	}, "\n")
	path := writeFile(t, dir, "instance.txt", content)

	instance, err := ioformat.ReadInstance(path)
	require.NoError(t, err)

	assert.Equal(t, escs.NoValue, instance.OptSwitchingCost[0][0])
	assert.Equal(t, escs.NoValue, instance.FullOptSwitchingCost[0][0])
	assert.Equal(t, -1, instance.CumulEnergyCost[0][0])
	assert.Equal(t, 2, instance.TotalProcTime)
}

func TestWriteResultProducesThirteenLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.txt")

	obj := 17
	result := &escs.Result{
		Status:           escs.Optimal,
		Objective:        &obj,
		TimeLimitReached: false,
		StartTimes:       []escs.JobStartTime{{JobIndex: 0, StartTime: 2}, {JobIndex: 1, StartTime: 5}},
	}
	require.NoError(t, ioformat.WriteResult(path, result))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, "Optimal", lines[0])
	assert.Equal(t, "17", lines[1])
	assert.Equal(t, "0", lines[2])
	assert.Equal(t, "0 2 1 5", lines[3])
}

func TestWriteResultNoSolutionStartTimesLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.txt")

	result := &escs.Result{Status: escs.NoSolution}
	require.NoError(t, ioformat.WriteResult(path, result))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	assert.Equal(t, "NoSolution", lines[3])
	assert.Equal(t, "-1", lines[1]) // Objective absent
}
