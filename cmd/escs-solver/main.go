// Command escs-solver runs one energy-aware scheduling solve from a
// triple of input files and writes the result file, per the exact
// positional-argument contract:
//
//	escs-solver <solverConfigPath> <specializedSolverConfigPath> <instancePath> <resultPath>
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/gitrdm/gokanlogic/internal/ioformat"
	"github.com/gitrdm/gokanlogic/internal/presets"
	"github.com/gitrdm/gokanlogic/internal/search"
	"github.com/gitrdm/gokanlogic/pkg/escs"
)

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	var presetName string
	var presetFile string

	root := &cobra.Command{
		Use:   "escs-solver <solverConfigPath> <specializedSolverConfigPath> <instancePath> <resultPath>",
		Short: "Solve one energy-aware single-machine scheduling instance",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], args[2], args[3], presetFile, presetName)
		},
		SilenceUsage: true,
	}
	root.Flags().StringVar(&presetFile, "preset-file", "", "optional YAML file of named SpecializedSolverConfig profiles, layered over the positional specialized config")
	root.Flags().StringVar(&presetName, "preset", "", "name of the profile to apply from --preset-file (or the built-in defaults if --preset-file is unset)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(solverPath, specializedPath, instancePath, resultPath, presetFile, presetName string) error {
	klog.V(1).Infof("reading instance %s", instancePath)
	instance, err := ioformat.ReadInstance(instancePath)
	if err != nil {
		return fatalf(resultPath, "read instance: %v", err)
	}

	solverCfg, err := ioformat.ReadSolverConfig(solverPath)
	if err != nil {
		return fatalf(resultPath, "read solver config: %v", err)
	}

	specializedCfg, err := ioformat.ReadSpecializedConfig(specializedPath)
	if err != nil {
		return fatalf(resultPath, "read specialized config: %v", err)
	}

	if presetName != "" {
		bundle := presets.Default
		if presetFile != "" {
			loaded, err := presets.Load(presetFile)
			if err != nil {
				return fatalf(resultPath, "load presets: %v", err)
			}
			bundle = loaded
		}
		if applied, ok := bundle.Lookup(presetName); ok {
			klog.V(1).Infof("applying preset %q over the positional specialized config", presetName)
			specializedCfg = applied
		} else {
			return fatalf(resultPath, "unknown preset %q", presetName)
		}
	}

	binPacker := search.ExactBinPacker{}
	blockAssigner := search.MinDeviationBlockAssigner{}

	ctx := context.Background()
	var result *escs.Result
	if specializedCfg.UseIterativeDeepening {
		klog.V(1).Info("running iterative deepening")
		id := escs.NewIterativeDeepening(instance, solverCfg, specializedCfg, binPacker, blockAssigner)
		result, err = id.Solve(ctx)
	} else {
		klog.V(1).Info("running branch and bound")
		bab := escs.NewBranchAndBound(instance, solverCfg, specializedCfg, binPacker, blockAssigner)
		result, err = bab.Solve(ctx)
	}
	if err != nil {
		return fatalf(resultPath, "solve: %v", err)
	}

	klog.V(1).Infof("status=%s objective=%v nodes=%v", result.Status, result.Objective, result.NodesCount)
	if err := ioformat.WriteResult(resultPath, result); err != nil {
		return err
	}
	if result.Status == escs.Infeasible || result.Status == escs.NoSolution {
		os.Exit(0) // a proven-infeasible or exhausted-without-incumbent run is still a successful invocation
	}
	return nil
}

// fatalf is for MalformedInput-class failures: no result file is written,
// and the process exits non-zero.
func fatalf(resultPath string, format string, args ...any) error {
	klog.Errorf(format, args...)
	return fmt.Errorf(format, args...)
}
