// Command escs-server exposes the energy-aware scheduling solver as an
// HTTP service: POST an instance + configs, get a result back, with each
// run tagged by a uuid that appears in its log line and its JSON response.
// /metrics exports a solve counter by terminal status and a solve-duration
// histogram.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"github.com/gitrdm/gokanlogic/internal/search"
	"github.com/gitrdm/gokanlogic/pkg/escs"
)

var (
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escs_solves_total",
		Help: "Total solve requests by terminal status.",
	}, []string{"status"})
	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "escs_solve_duration_seconds",
		Help:    "Wall-clock duration of a solve request.",
		Buckets: prometheus.DefBuckets,
	})
)

// solveRequest is the JSON body accepted by POST /solve: the same fields
// the positional file formats carry, structured for HTTP clients.
type solveRequest struct {
	Instance struct {
		MachinesCount         int             `json:"machinesCount"`
		Jobs                  []escs.Job      `json:"jobs"`
		Intervals             []escs.Interval `json:"intervals"`
		LengthInterval        int             `json:"lengthInterval"`
		OnPowerConsumption    int             `json:"onPowerConsumption"`
		EarliestOnIntervalIdx int             `json:"earliestOnIntervalIdx"`
		LatestOnIntervalIdx   int             `json:"latestOnIntervalIdx"`
		OptSwitchingCost      [][]int         `json:"optSwitchingCost"`
		FullOptSwitchingCost  [][]int         `json:"fullOptSwitchingCost"`
		CumulEnergyCost       [][]int         `json:"cumulEnergyCost"`
	} `json:"instance"`
	Solver      solverConfigJSON      `json:"solver"`
	Specialized specializedConfigJSON `json:"specialized"`
}

type solverConfigJSON struct {
	RandomSeed     int64               `json:"randomSeed"`
	TimeLimitMs    int                 `json:"timeLimitMs"`
	NumWorkers     int                 `json:"numWorkers"`
	InitStartTimes []escs.JobStartTime `json:"initStartTimes"`
}

type specializedConfigJSON struct {
	UsePrimalHeuristicBlockDetection       bool `json:"usePrimalHeuristicBlockDetection"`
	UsePrimalHeuristicPackToBlocksByCp     bool `json:"usePrimalHeuristicPackToBlocksByCp"`
	PrimalHeuristicPackToBlocksByCpAllJobs bool `json:"primalHeuristicPackToBlocksByCpAllJobs"`
	UseIterativeDeepening                  bool `json:"useIterativeDeepening"`
	BlockFinding                           int  `json:"blockFinding"`
	BlockFindingStrategy                   int  `json:"blockFindingStrategy"`
	JobsJoiningOnGcd                       int  `json:"jobsJoiningOnGcd"`
	BranchPriority                         int  `json:"branchPriority"`
	IterativeDeepeningTimeLimitMs          *int `json:"iterativeDeepeningTimeLimitMs"`
	FullHorizonBabNodesCountLimit          *int `json:"fullHorizonBabNodesCountLimit"`
}

type solveResponse struct {
	RunID            string              `json:"runId"`
	Status           string              `json:"status"`
	Objective        *int                `json:"objective"`
	TimeLimitReached bool                `json:"timeLimitReached"`
	StartTimes       []escs.JobStartTime `json:"startTimes"`
	NodesCount       *int                `json:"nodesCount"`
}

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	addr := os.Getenv("ESCS_SERVER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	router := gin.Default()
	router.Use(cors.Default())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/solve", handleSolve)

	klog.Infof("listening on %s", addr)
	if err := router.Run(addr); err != nil {
		klog.Fatalf("server exited: %v", err)
	}
}

func handleSolve(c *gin.Context) {
	var req solveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID := uuid.New().String()
	start := time.Now()

	instance := escs.NewInstance(
		req.Instance.MachinesCount, req.Instance.Jobs, req.Instance.Intervals,
		req.Instance.LengthInterval, req.Instance.OnPowerConsumption,
		req.Instance.EarliestOnIntervalIdx, req.Instance.LatestOnIntervalIdx,
		req.Instance.OptSwitchingCost, req.Instance.FullOptSwitchingCost, req.Instance.CumulEnergyCost,
	)

	var timeLimit *time.Duration
	if req.Solver.TimeLimitMs > 0 {
		d := time.Duration(req.Solver.TimeLimitMs) * time.Millisecond
		timeLimit = &d
	}
	solverCfg := &escs.SolverConfig{
		RandomSeed:     req.Solver.RandomSeed,
		TimeLimit:      timeLimit,
		NumWorkers:     req.Solver.NumWorkers,
		InitStartTimes: req.Solver.InitStartTimes,
	}

	specializedCfg := &escs.SpecializedSolverConfig{
		UsePrimalHeuristicBlockDetection:       req.Specialized.UsePrimalHeuristicBlockDetection,
		UsePrimalHeuristicPackToBlocksByCp:     req.Specialized.UsePrimalHeuristicPackToBlocksByCp,
		PrimalHeuristicPackToBlocksByCpAllJobs: req.Specialized.PrimalHeuristicPackToBlocksByCpAllJobs,
		UseIterativeDeepening:                  req.Specialized.UseIterativeDeepening,
		BlockFinding:                           escs.BlockFindingMode(req.Specialized.BlockFinding),
		BlockFindingStrategy:                   escs.BlockFindingStrategy(req.Specialized.BlockFindingStrategy),
		JobsJoiningOnGcd:                       escs.JobsJoiningOnGcd(req.Specialized.JobsJoiningOnGcd),
		BranchPriority:                         escs.BranchPriority(req.Specialized.BranchPriority),
		FullHorizonBabNodesCountLimit:          req.Specialized.FullHorizonBabNodesCountLimit,
	}
	if req.Specialized.IterativeDeepeningTimeLimitMs != nil {
		d := time.Duration(*req.Specialized.IterativeDeepeningTimeLimitMs) * time.Millisecond
		specializedCfg.IterativeDeepeningTimeLimit = &d
	}

	binPacker := search.ExactBinPacker{}
	blockAssigner := search.MinDeviationBlockAssigner{}

	klog.V(1).Infof("run %s: solving %d jobs", runID, len(req.Instance.Jobs))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Minute)
	defer cancel()

	var result *escs.Result
	var err error
	if specializedCfg.UseIterativeDeepening {
		result, err = escs.NewIterativeDeepening(instance, solverCfg, specializedCfg, binPacker, blockAssigner).Solve(ctx)
	} else {
		result, err = escs.NewBranchAndBound(instance, solverCfg, specializedCfg, binPacker, blockAssigner).Solve(ctx)
	}

	solveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		solvesTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"runId": runID, "error": err.Error()})
		return
	}
	solvesTotal.WithLabelValues(result.Status.String()).Inc()

	c.JSON(http.StatusOK, solveResponse{
		RunID:            runID,
		Status:           result.Status.String(),
		Objective:        result.Objective,
		TimeLimitReached: result.TimeLimitReached,
		StartTimes:       result.StartTimes,
		NodesCount:       result.NodesCount,
	})
}
