// Package ioformat reads and writes the four whitespace/line-delimited
// file formats the solver binary exchanges with the outside world: it
// reads the solver config, the specialized (BranchAndBound) config and the
// instance, and writes the result. Every reader is built on a single token
// scanner since no library in the retrieved example pack handles ad-hoc
// whitespace-delimited integer formats -- bufio.Scanner with ScanWords is
// the standard library's own idiom for exactly this.
package ioformat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gitrdm/gokanlogic/pkg/escs"
)

// MalformedInputError wraps any read/parse failure against one of the
// four file formats; the caller treats it as fatal per the error taxonomy.
type MalformedInputError struct {
	Path string
	Err  error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input %s: %v", e.Path, e.Err)
}
func (e *MalformedInputError) Unwrap() error { return e.Err }

// tokenScanner pulls whitespace-separated tokens (including across
// newlines) off a reader one at a time.
type tokenScanner struct {
	path    string
	scanner *bufio.Scanner
}

func newTokenScanner(path string, r io.Reader) *tokenScanner {
	s := bufio.NewScanner(r)
	s.Split(bufio.ScanWords)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &tokenScanner{path: path, scanner: s}
}

func (t *tokenScanner) int() (int, error) {
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	return strconv.Atoi(t.scanner.Text())
}

func (t *tokenScanner) ints(n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		v, err := t.int()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func openScanner(path string) (*tokenScanner, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &MalformedInputError{Path: path, Err: err}
	}
	return newTokenScanner(path, f), f, nil
}

// millisPtr converts a millisecond count to a duration; with
// treatNonPositiveAsUnlimited set, a non-positive count maps onto "no
// limit" (nil), matching the solver config's "<=0 means unlimited" rule.
func millisPtr(ms int, treatNonPositiveAsUnlimited bool) *time.Duration {
	if treatNonPositiveAsUnlimited && ms <= 0 {
		return nil
	}
	d := time.Duration(ms) * time.Millisecond
	return &d
}

// ReadSolverConfig parses the solver config file:
// randomSeed timeLimitMs numWorkers initStartTimesCount [jobIndex startTime]*
func ReadSolverConfig(path string) (*escs.SolverConfig, error) {
	ts, f, err := openScanner(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wrap := func(err error) error { return &MalformedInputError{Path: path, Err: err} }

	seed, err := ts.int()
	if err != nil {
		return nil, wrap(err)
	}
	timeLimitMs, err := ts.int()
	if err != nil {
		return nil, wrap(err)
	}
	numWorkers, err := ts.int()
	if err != nil {
		return nil, wrap(err)
	}
	count, err := ts.int()
	if err != nil {
		return nil, wrap(err)
	}
	starts := make([]escs.JobStartTime, count)
	for i := range starts {
		pair, err := ts.ints(2)
		if err != nil {
			return nil, wrap(err)
		}
		starts[i] = escs.JobStartTime{JobIndex: pair[0], StartTime: pair[1]}
	}

	return &escs.SolverConfig{
		RandomSeed:     int64(seed),
		TimeLimit:      millisPtr(timeLimitMs, true),
		NumWorkers:     numWorkers,
		InitStartTimes: starts,
	}, nil
}

// ReadSpecializedConfig parses the BranchAndBound specialized config file.
func ReadSpecializedConfig(path string) (*escs.SpecializedSolverConfig, error) {
	ts, f, err := openScanner(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wrap := func(err error) error { return &MalformedInputError{Path: path, Err: err} }

	fields, err := ts.ints(10)
	if err != nil {
		return nil, wrap(err)
	}

	cfg := &escs.SpecializedSolverConfig{
		UsePrimalHeuristicBlockDetection:       fields[0] != 0,
		UsePrimalHeuristicPackToBlocksByCp:     fields[1] != 0,
		PrimalHeuristicPackToBlocksByCpAllJobs: fields[2] != 0,
		UseIterativeDeepening:                  fields[3] != 0,
		BlockFinding:                           escs.BlockFindingMode(fields[4]),
		BlockFindingStrategy:                   escs.BlockFindingStrategy(fields[5]),
		JobsJoiningOnGcd:                       escs.JobsJoiningOnGcd(fields[6]),
		BranchPriority:                         escs.BranchPriority(fields[7]),
	}
	if fields[8] >= 0 {
		d := time.Duration(fields[8]) * time.Millisecond
		cfg.IterativeDeepeningTimeLimit = &d
	}
	if fields[9] >= 0 {
		cfg.FullHorizonBabNodesCountLimit = &fields[9]
	}
	return cfg, nil
}

// ReadInstance parses the instance file.
func ReadInstance(path string) (*escs.Instance, error) {
	ts, f, err := openScanner(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wrap := func(err error) error { return &MalformedInputError{Path: path, Err: err} }

	machinesCount, err := ts.int()
	if err != nil {
		return nil, wrap(err)
	}
	jobsCount, err := ts.int()
	if err != nil {
		return nil, wrap(err)
	}
	jobs := make([]escs.Job, jobsCount)
	for i := range jobs {
		row, err := ts.ints(4)
		if err != nil {
			return nil, wrap(err)
		}
		jobs[i] = escs.Job{ID: row[0], Index: row[1], MachineIdx: row[2], ProcTime: row[3]}
	}

	intervalsCount, err := ts.int()
	if err != nil {
		return nil, wrap(err)
	}
	intervals := make([]escs.Interval, intervalsCount)
	for i := range intervals {
		row, err := ts.ints(4)
		if err != nil {
			return nil, wrap(err)
		}
		intervals[i] = escs.Interval{Index: row[0], Start: row[1], End: row[2], EnergyCost: row[3]}
	}

	lengthInterval, err := ts.int()
	if err != nil {
		return nil, wrap(err)
	}
	onPower, err := ts.int()
	if err != nil {
		return nil, wrap(err)
	}
	earliest, err := ts.int()
	if err != nil {
		return nil, wrap(err)
	}
	latest, err := ts.int()
	if err != nil {
		return nil, wrap(err)
	}

	optSwitching, err := readMatrix(ts, true)
	if err != nil {
		return nil, wrap(err)
	}
	fullOptSwitching, err := readMatrix(ts, true)
	if err != nil {
		return nil, wrap(err)
	}
	cumulEnergy, err := readMatrix(ts, false)
	if err != nil {
		return nil, wrap(err)
	}

	return escs.NewInstance(machinesCount, jobs, intervals, lengthInterval, onPower, earliest, latest,
		optSwitching, fullOptSwitching, cumulEnergy), nil
}

// readMatrix reads a (rows cols value_11 ... value_rc) block. When
// mapNegativeOneToNoValue is set, -1 entries become escs.NoValue (used
// for the two switching-cost matrices, never the energy matrix).
func readMatrix(ts *tokenScanner, mapNegativeOneToNoValue bool) ([][]int, error) {
	rows, err := ts.int()
	if err != nil {
		return nil, err
	}
	cols, err := ts.int()
	if err != nil {
		return nil, err
	}
	m := make([][]int, rows)
	for r := range m {
		row, err := ts.ints(cols)
		if err != nil {
			return nil, err
		}
		if mapNegativeOneToNoValue {
			for c, v := range row {
				if v == -1 {
					row[c] = escs.NoValue
				}
			}
		}
		m[r] = row
	}
	return m, nil
}

// WriteResult writes the 13-line result file. The start-time line reads
// "NoSolution" when Result.StartTimes is nil, so it stays distinguishable
// from an empty (zero-job) start-time line.
func WriteResult(path string, result *escs.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return &MalformedInputError{Path: path, Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	fmt.Fprintln(w, result.Status.String())
	fmt.Fprintln(w, intOrDash(result.Objective))
	fmt.Fprintln(w, boolAsInt(result.TimeLimitReached))

	if result.StartTimes == nil {
		fmt.Fprintln(w, "NoSolution")
	} else {
		var sb strings.Builder
		for _, st := range result.StartTimes {
			fmt.Fprintf(&sb, "%d %d ", st.JobIndex, st.StartTime)
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}

	fmt.Fprintln(w, intOrDash(result.NodesCount))
	fmt.Fprintln(w, intOrDash(result.PrimalHeuristicBlockDetectionFoundSolution))
	fmt.Fprintln(w, intOrDash(result.PrimalHeuristicPackToBlocksByCpFoundSolution))
	fmt.Fprintln(w, intOrDash(result.JobsJoinedOnLargerGcd))
	fmt.Fprintln(w, intOrDash(result.RootLowerBound))
	fmt.Fprintln(w, intOrDash(result.LowerBoundTotalDurationMs))
	fmt.Fprintln(w, intOrDash(result.PrimalHeuristicBlockDetectionTotalDurationMs))
	fmt.Fprintln(w, intOrDash(result.PrimalHeuristicPackToBlockByCpTotalDurationMs))
	fmt.Fprintln(w, intOrDash(result.PrimalHeuristicBlockFindingTotalDurationMs))
	return nil
}

func intOrDash(v *int) string {
	if v == nil {
		return "-1"
	}
	return strconv.Itoa(*v)
}

func boolAsInt(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
