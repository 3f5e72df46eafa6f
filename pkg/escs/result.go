package escs

// JobStartTime pairs a job index with its scheduled start interval.
type JobStartTime struct {
	JobIndex  int
	StartTime int
}

// Result is the outcome of a solve: status, objective (if any), the
// schedule (if any), and the statistics the result file reports.
type Result struct {
	Status           Status
	Objective        *int
	TimeLimitReached bool
	StartTimes       []JobStartTime

	NodesCount                                     *int
	PrimalHeuristicBlockDetectionFoundSolution      *int
	PrimalHeuristicPackToBlocksByCpFoundSolution    *int
	JobsJoinedOnLargerGcd                          *int
	RootLowerBound                                 *int
	LowerBoundTotalDurationMs                      *int
	PrimalHeuristicBlockDetectionTotalDurationMs   *int
	PrimalHeuristicPackToBlockByCpTotalDurationMs  *int
	PrimalHeuristicBlockFindingTotalDurationMs     *int
}

func intPtr(v int) *int { return &v }
