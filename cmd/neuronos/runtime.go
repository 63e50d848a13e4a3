package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/neuronos/neuronos/pkg/engine"
	"github.com/neuronos/neuronos/pkg/engine/reference"
	"github.com/neuronos/neuronos/pkg/hwprobe"
	"github.com/neuronos/neuronos/pkg/memory"
	"github.com/neuronos/neuronos/pkg/neuronerr"
	"github.com/neuronos/neuronos/pkg/registry"
	"github.com/neuronos/neuronos/pkg/tools"
)

// loadEngine opens a model handle through the adapter contract (C7).
// "llama" goes through engine.Load, which fails with BackendUnavailable
// unless a loader has been registered with engine.SetLoader; this
// module registers none, so it fails the same way as the teacher's
// DefaultGeneratorLoader without a model backend wired in.
// "reference" is the deterministic,
// no-model-file escape hatch used for demos and tests.
func loadEngine(modelPath string, f cliFlags) (engine.Engine, error) {
	opts := engine.DefaultLoadOptions()
	switch f.engineName {
	case "reference":
		return reference.Load(modelPath, opts)
	case "llama", "":
		return engine.Load(modelPath, opts)
	default:
		return nil, neuronerr.New(neuronerr.KindInvalidArgument, "unknown --engine: "+f.engineName)
	}
}

// openMemoryStore opens the three-tier memory store (C6) at the
// configured path, falling back to an in-process store if the path is
// empty. Only the agent and chat commands open a store; the generate
// commands do not.
func openMemoryStore(dbPath string) (*memory.Store, error) {
	if dbPath == "" {
		return memory.Open(memory.Options{InMemory: true, RecallCapBytes: cfg.Memory.RecallCapBytes})
	}
	return memory.Open(memory.Options{DataDir: dbPath, RecallCapBytes: cfg.Memory.RecallCapBytes})
}

// newDefaultRegistry builds the tool registry (C5) with every
// built-in wired in, including the memory tools bound to store.
func newDefaultRegistry(store *memory.Store, grantedCaps tools.Capability, shellTimeoutSeconds int) (*tools.Registry, error) {
	r := tools.NewRegistry(0)
	registrations := []tools.Descriptor{
		tools.NewCalculateTool(),
		tools.NewReadFileTool(),
		tools.NewWriteFileTool(),
		tools.NewShellTool(secondsToDuration(shellTimeoutSeconds)),
		tools.NewMemorySearchTool(store),
		tools.NewMemoryStoreTool(store),
		tools.NewMemoryCoreUpdateTool(store),
	}
	for _, d := range registrations {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func buildGenerateParams(prompt string, f cliFlags) engine.GenerateParams {
	params := engine.GenerateParams{
		Prompt:      prompt,
		MaxTokens:   f.maxTokens,
		Temperature: float32(f.temp),
	}
	if f.grammar != "" {
		if data, err := os.ReadFile(f.grammar); err == nil {
			params.Grammar = string(data)
		}
	}
	return params
}

func secondsToDuration(seconds int) time.Duration {
	if seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}

// scanWithMetadataCache scans dir for GGUF models, consulting a Badger
// metadata cache (pkg/registry's xxhash-keyed Cache) stored alongside
// the models directory so unchanged files skip re-parsing on repeat
// `scan`/`auto` invocations. Falls back to an uncached scan if the
// cache directory can't be opened (e.g. read-only models dir).
func scanWithMetadataCache(dir string, hw hwprobe.HardwareInfo) ([]registry.ModelEntry, error) {
	cache, err := registry.OpenCache(filepath.Join(dir, ".neuronos-cache"))
	if err != nil {
		return registry.Scan(dir, hw)
	}
	defer cache.Close()
	return registry.ScanWithCache(dir, hw, cache)
}

func parseCapabilities(names []string) tools.Capability {
	var caps tools.Capability
	for _, n := range names {
		switch n {
		case "shell":
			caps |= tools.CapShell
		case "filesystem":
			caps |= tools.CapFilesystem
		case "network":
			caps |= tools.CapNetwork
		}
	}
	return caps
}
