// Package engine defines the thin contract the agent core uses to talk
// to the underlying token generator, per spec.md §4.6: the adapter
// layer is the only part of the core permitted to interact with the
// transformer implementation directly. Everything else — agent loop,
// tools, memory, compaction — goes through this interface only.
package engine

import (
	"context"
	"fmt"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// LoadOptions configures Load per spec.md §4.6's
// `load(path, {context_size, mmap})`.
type LoadOptions struct {
	ContextSize int
	Mmap        bool
	GPULayers   int
}

// DefaultLoadOptions mirrors the teacher's context/batch defaults
// (pkg/heimdall.DefaultConfig), scaled down for single-shot agent use.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{ContextSize: 8192, Mmap: true, GPULayers: -1}
}

// Info is the handle metadata returned by Engine.Info, per spec.md
// §4.6: `{n_params, n_vocab, n_ctx_train, n_embd, model_size}`.
type Info struct {
	NParams    int64
	NVocab     int
	NCtxTrain  int
	NEmbd      int
	ModelSize  int64
	ModelPath  string
}

// GenerateParams configures one generate call, per spec.md §4.6 and
// the ReAct step procedure in §4.7 (grammar-constrained sampling).
type GenerateParams struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
	TopP        float32
	TopK        int
	Grammar     string
	Seed        int64

	// OnToken is invoked with each decoded text chunk. Returning false
	// cancels generation early, per spec.md §4.6.
	OnToken func(chunk string) bool
}

// FinishReason enumerates why generation stopped.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishLength    FinishReason = "length"
	FinishCancelled FinishReason = "cancelled"
	FinishError     FinishReason = "error"
)

// GenerateResult is the outcome of one generate call, per spec.md §4.6:
// `{status, n_tokens, elapsed_ms, tokens_per_s, finish_reason}`.
type GenerateResult struct {
	Text         string
	NTokens      int
	ElapsedMS    int64
	TokensPerSec float64
	FinishReason FinishReason
}

// Engine is the adapter contract over the underlying token generator.
// Implementations load one model per handle and must be safe for use
// from a single goroutine at a time — the agent controller is strictly
// sequential per spec.md's Non-goals ("no generalized scheduler").
type Engine interface {
	Info() Info
	Generate(ctx context.Context, params GenerateParams) (GenerateResult, error)
	Tokenize(text string) (int, error)
	Free() error
}

// Loader loads a model at path into an Engine handle. Swappable via
// SetLoader the same way pkg/heimdall.SetGeneratorLoader lets a CGO
// build register a real backend over the teacher's stub default.
type Loader func(path string, opts LoadOptions) (Engine, error)

// DefaultLoader is the loader used when no CGO-backed implementation
// has registered itself. It always fails: a real generation backend is
// a deliberate black box behind this contract (spec.md's "inference
// engine adapter" component), not something this package fabricates.
var DefaultLoader Loader = func(path string, opts LoadOptions) (Engine, error) {
	return nil, neuronerr.New(neuronerr.KindBackendUnavailable,
		fmt.Sprintf("no inference engine backend registered for %q", path))
}

var activeLoader = DefaultLoader

// SetLoader overrides the active loader, returning the previous one so
// it can be restored (tests, or a CGO init() registering the real
// backend over the stub default).
func SetLoader(l Loader) Loader {
	prev := activeLoader
	activeLoader = l
	return prev
}

// Load loads a model using the active loader.
func Load(path string, opts LoadOptions) (Engine, error) {
	return activeLoader(path, opts)
}
