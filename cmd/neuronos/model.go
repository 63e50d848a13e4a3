package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neuronos/neuronos/pkg/agent"
	"github.com/neuronos/neuronos/pkg/contextacct"
	"github.com/neuronos/neuronos/pkg/gguf"
)

func newModelCmd() *cobra.Command {
	modelCmd := &cobra.Command{
		Use:   "model",
		Short: "Operate on a single model file directly, bypassing auto-selection",
	}

	var modelPath string
	addModelFlag := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&modelPath, "model", "", "path to a .gguf model file (required)")
		cmd.MarkFlagRequired("model")
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Print model metadata and loaded engine info",
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := gguf.ReadMetadata(modelPath)
			if err != nil {
				return err
			}
			fmt.Printf("Name:          %s\n", meta.DisplayName)
			fmt.Printf("Architecture:  %s\n", meta.Architecture)
			fmt.Printf("Quantization:  %s\n", meta.QuantizationTag)
			fmt.Printf("File size:     %.1f MB\n", meta.FileSizeMB)
			fmt.Printf("Est. params:   %d\n", meta.EstimatedParams)
			return nil
		},
	}
	addModelFlag(infoCmd)

	var flags cliFlags
	generateCmd := &cobra.Command{
		Use:   "generate [prompt]",
		Short: "Generate a single completion from the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(modelPath, args[0], flags)
		},
	}
	addModelFlag(generateCmd)
	addCommonFlags(generateCmd, &flags)

	var agentFlags cliFlags
	agentCmd := &cobra.Command{
		Use:   "agent [task]",
		Short: "Run the ReAct agent against the model for a single task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgentTask(modelPath, args[0], agentFlags)
		},
	}
	addModelFlag(agentCmd)
	addCommonFlags(agentCmd, &agentFlags)

	var chatFlags cliFlags
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive multi-turn agent session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(modelPath, chatFlags)
		},
	}
	addModelFlag(chatCmd)
	addCommonFlags(chatCmd, &chatFlags)

	modelCmd.AddCommand(infoCmd, generateCmd, agentCmd, chatCmd)
	return modelCmd
}

func runGenerate(modelPath, prompt string, f cliFlags) error {
	eng, err := loadEngine(modelPath, f)
	if err != nil {
		return err
	}
	defer eng.Free()

	result, err := eng.Generate(context.Background(), buildGenerateParams(prompt, f))
	if err != nil {
		return err
	}
	fmt.Println(result.Text)
	return nil
}

func runAgentTask(modelPath, task string, f cliFlags) error {
	eng, err := loadEngine(modelPath, f)
	if err != nil {
		return err
	}
	defer eng.Free()

	store, err := openMemoryStore(cfg.Memory.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	registry, err := newDefaultRegistry(store, parseCapabilities(cfg.Capability.Granted), cfg.Agent.ToolTimeoutSeconds)
	if err != nil {
		return err
	}

	acct := contextacct.New(contextacct.Options{
		ContextCapacity: eng.Info().NCtxTrain,
		Threshold:       cfg.Agent.CompactionThreshold,
		RetentionTurns:  cfg.Agent.RetentionWindow,
		Engine:          eng,
		Memory:          store,
	})
	acct.Append(contextacct.Turn{Role: contextacct.RoleUser, Text: task})

	a := agent.New(agent.Config{
		MaxSteps:         f.maxSteps,
		MaxTokensPerStep: f.maxTokens,
		Temperature:      float32(f.temp),
		Capabilities:     parseCapabilities(cfg.Capability.Granted),
		OnStep: func(step int, thought, actionJSON, observation string) {
			if f.verbose {
				fmt.Printf("step %d: %s\n", step, thought)
			}
		},
	}, eng, registry, store, acct)

	result, err := a.Run(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(result.Answer)
	return nil
}

func runChat(modelPath string, f cliFlags) error {
	eng, err := loadEngine(modelPath, f)
	if err != nil {
		return err
	}
	defer eng.Free()

	store, err := openMemoryStore(cfg.Memory.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	registry, err := newDefaultRegistry(store, parseCapabilities(cfg.Capability.Granted), cfg.Agent.ToolTimeoutSeconds)
	if err != nil {
		return err
	}

	acct := contextacct.New(contextacct.Options{
		ContextCapacity: eng.Info().NCtxTrain,
		Threshold:       cfg.Agent.CompactionThreshold,
		RetentionTurns:  cfg.Agent.RetentionWindow,
		Engine:          eng,
		Memory:          store,
	})

	fmt.Println("NeuronOS chat — type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		acct.Append(contextacct.Turn{Role: contextacct.RoleUser, Text: line})
		a := agent.New(agent.Config{
			MaxSteps:         f.maxSteps,
			MaxTokensPerStep: f.maxTokens,
			Temperature:      float32(f.temp),
			Capabilities:     parseCapabilities(cfg.Capability.Granted),
		}, eng, registry, store, acct)

		result, err := a.Run(context.Background())
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Println(result.Answer)
	}
}
