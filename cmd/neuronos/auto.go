package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neuronos/neuronos/pkg/hwprobe"
	"github.com/neuronos/neuronos/pkg/neuronerr"
	"github.com/neuronos/neuronos/pkg/registry"
)

// newAutoCmd implements `auto {generate|agent} PROMPT`, per spec.md
// §6: probe hardware, scan --models for the best-fitting .gguf, then
// hand the prompt to either a one-shot generate or the full agent
// loop — no --model flag needed.
func newAutoCmd() *cobra.Command {
	autoCmd := &cobra.Command{
		Use:   "auto",
		Short: "Auto-select the best-fitting model, then run it",
	}

	var generateFlags cliFlags
	generateCmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Auto-select a model and generate a single completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			best, err := autoSelect(generateFlags.modelsDir)
			if err != nil {
				return err
			}
			fmt.Printf("✅ Selected %s\n", best.DisplayName)
			return runGenerate(best.Path, args[0], generateFlags)
		},
	}
	addCommonFlags(generateCmd, &generateFlags)

	var agentFlags cliFlags
	agentCmd := &cobra.Command{
		Use:   "agent [task]",
		Short: "Auto-select a model and run the ReAct agent against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			best, err := autoSelect(agentFlags.modelsDir)
			if err != nil {
				return err
			}
			fmt.Printf("✅ Selected %s\n", best.DisplayName)
			return runAgentTask(best.Path, args[0], agentFlags)
		},
	}
	addCommonFlags(agentCmd, &agentFlags)

	autoCmd.AddCommand(generateCmd, agentCmd)
	return autoCmd
}

func autoSelect(modelsDir string) (registry.ModelEntry, error) {
	hw := hwprobe.Detect()
	entries, err := scanWithMetadataCache(modelsDir, hw)
	if err != nil {
		return registry.ModelEntry{}, err
	}
	best, ok := registry.SelectBest(entries)
	if !ok {
		return registry.ModelEntry{}, neuronerr.New(neuronerr.KindResourceExhausted,
			"no model in "+modelsDir+" fits the available RAM budget")
	}
	return best, nil
}
