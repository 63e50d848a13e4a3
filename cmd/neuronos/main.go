// Package main provides the NeuronOS CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neuronos/neuronos/pkg/config"
	"github.com/neuronos/neuronos/pkg/neuronerr"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// cfg holds NEURONOS_* environment defaults (and an optional
// neuronos.yaml overlay, loaded in main), used to seed every
// subcommand's flag defaults the way the teacher's CLI layers flags
// over LoadFromEnv() rather than hardcoding them twice.
var cfg = config.LoadFromEnv()

// cliFlags mirrors the common flag set from spec.md §6: "-t threads,
// -n max tokens, -s max steps, --temp, --grammar, --models,
// --verbose", shared by every subcommand that talks to the engine.
type cliFlags struct {
	threads    int
	maxTokens  int
	maxSteps   int
	temp       float64
	grammar    string
	modelsDir  string
	verbose    bool
	engineName string
}

func addCommonFlags(cmd *cobra.Command, f *cliFlags) {
	cmd.Flags().IntVarP(&f.threads, "threads", "t", 0, "inference threads (accepted but not passed to the engine)")
	cmd.Flags().IntVarP(&f.maxTokens, "tokens", "n", cfg.Agent.MaxTokensPerStep, "max tokens to generate")
	cmd.Flags().IntVarP(&f.maxSteps, "steps", "s", cfg.Agent.MaxSteps, "max agent steps")
	cmd.Flags().Float64Var(&f.temp, "temp", cfg.Agent.Temperature, "sampling temperature")
	cmd.Flags().StringVar(&f.grammar, "grammar", "", "path to a GBNF grammar file constraining generate output (agent commands always use the tool-call grammar)")
	cmd.Flags().StringVar(&f.modelsDir, "models", cfg.Models.Dir, "models directory")
	cmd.Flags().BoolVar(&f.verbose, "verbose", cfg.Logging.Verbose, "verbose logging")
	cmd.Flags().StringVar(&f.engineName, "engine", "llama", "inference backend: llama (fails unless a loader is registered with engine.SetLoader) or reference (deterministic, no model required)")
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "neuronos",
		Short:         "NeuronOS — a self-contained local LLM agent runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `NeuronOS selects suitable hardware kernels for a quantized model on
disk, runs a tool-augmented ReAct reasoning loop against it, and
persists long-term memory across runs — all without a mandatory
network connection after installation.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("NeuronOS v%s (%s)\n", version, commit)
		},
	})

	if err := cfg.LoadOverlayFile("neuronos.yaml"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: neuronos.yaml:", err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(newHWInfoCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newAutoCmd())
	rootCmd.AddCommand(newModelCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(neuronerr.ExitCode(err))
	}
}
