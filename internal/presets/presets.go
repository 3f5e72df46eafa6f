// Package presets layers optional named SpecializedSolverConfig profiles
// on top of the exact positional config file format -- a convenience for
// the CLI, never a replacement for it. A preset file is a
// YAML document mapping profile name to the same fields the positional
// specialized-config format carries.
package presets

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gokanlogic/pkg/escs"
)

// Profile is the YAML-friendly mirror of escs.SpecializedSolverConfig.
type Profile struct {
	UsePrimalHeuristicBlockDetection       bool `yaml:"usePrimalHeuristicBlockDetection"`
	UsePrimalHeuristicPackToBlocksByCp     bool `yaml:"usePrimalHeuristicPackToBlocksByCp"`
	PrimalHeuristicPackToBlocksByCpAllJobs bool `yaml:"primalHeuristicPackToBlocksByCpAllJobs"`
	UseIterativeDeepening                  bool `yaml:"useIterativeDeepening"`

	BlockFinding         int `yaml:"blockFinding"`
	BlockFindingStrategy int `yaml:"blockFindingStrategy"`
	JobsJoiningOnGcd     int `yaml:"jobsJoiningOnGcd"`
	BranchPriority       int `yaml:"branchPriority"`

	IterativeDeepeningTimeLimitMs *int `yaml:"iterativeDeepeningTimeLimitMs,omitempty"`
	FullHorizonBabNodesCountLimit *int `yaml:"fullHorizonBabNodesCountLimit,omitempty"`
}

// ToConfig converts a Profile into the core's SpecializedSolverConfig.
func (p Profile) ToConfig() *escs.SpecializedSolverConfig {
	cfg := &escs.SpecializedSolverConfig{
		UsePrimalHeuristicBlockDetection:       p.UsePrimalHeuristicBlockDetection,
		UsePrimalHeuristicPackToBlocksByCp:     p.UsePrimalHeuristicPackToBlocksByCp,
		PrimalHeuristicPackToBlocksByCpAllJobs: p.PrimalHeuristicPackToBlocksByCpAllJobs,
		UseIterativeDeepening:                  p.UseIterativeDeepening,
		BlockFinding:                           escs.BlockFindingMode(p.BlockFinding),
		BlockFindingStrategy:                   escs.BlockFindingStrategy(p.BlockFindingStrategy),
		JobsJoiningOnGcd:                       escs.JobsJoiningOnGcd(p.JobsJoiningOnGcd),
		BranchPriority:                         escs.BranchPriority(p.BranchPriority),
	}
	if p.IterativeDeepeningTimeLimitMs != nil {
		d := time.Duration(*p.IterativeDeepeningTimeLimitMs) * time.Millisecond
		cfg.IterativeDeepeningTimeLimit = &d
	}
	cfg.FullHorizonBabNodesCountLimit = p.FullHorizonBabNodesCountLimit
	return cfg
}

// Bundle is a named set of profiles, as loaded from a single YAML file.
type Bundle map[string]Profile

// Load reads a preset bundle file.
func Load(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("presets: %w", err)
	}
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("presets: %w", err)
	}
	return b, nil
}

// Lookup resolves a named profile, converted to a SpecializedSolverConfig.
func (b Bundle) Lookup(name string) (*escs.SpecializedSolverConfig, bool) {
	p, ok := b[name]
	if !ok {
		return nil, false
	}
	return p.ToConfig(), true
}

// Default profiles shipped inline for when no preset file is given --
// "fast" favors cheap heuristics over exhaustive search, "exact" disables
// every heuristic shortcut and runs BranchAndBound to proof.
var Default = Bundle{
	"fast": {
		UsePrimalHeuristicBlockDetection:   true,
		UsePrimalHeuristicPackToBlocksByCp: true,
		BlockFinding:                       2, // WholeTree
		JobsJoiningOnGcd:                   2, // WholeTree
		BranchPriority:                     3, // DynamicByBlockFitting
	},
	"exact": {
		JobsJoiningOnGcd: 0, // Off
		BranchPriority:   1, // ForcedSpace
	},
}
