// Package reference implements a deterministic engine.Engine backend
// with no transformer inference at all. It exists for two reasons:
// exercising the agent controller, tool dispatch, and compaction logic
// in tests without a GGUF model or CGO toolchain, and giving operators
// a `--engine=reference` escape hatch to drive the CLI on hosts where
// no real backend has been registered, the same role
// pkg/localllm/llama_stub.go plays for embeddings on unsupported
// platforms — present and linkable, but explicit about not doing real
// inference.
package reference

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/neuronos/neuronos/pkg/engine"
	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// Responder produces the next reply for a prompt. Tests and callers
// supply one; Load's default always replies with a canned "final"
// action so a bare agent loop terminates instead of hanging.
type Responder func(prompt string) string

func defaultResponder(prompt string) string {
	return `{"action":"final","answer":"reference engine: no responder configured","thought":"default"}`
}

// Backend is a reference.Engine handle.
type Backend struct {
	path      string
	opts      engine.LoadOptions
	responder Responder
	freed     bool
}

// New constructs a Backend directly, bypassing the engine.Loader
// registry. Primarily for tests that want a handle without going
// through engine.Load.
func New(responder Responder) *Backend {
	if responder == nil {
		responder = defaultResponder
	}
	return &Backend{responder: responder}
}

// Load implements engine.Loader. The CLI's `--engine=reference` calls
// it directly; registering it with engine.SetLoader also makes it the
// backend behind engine.Load.
func Load(path string, opts engine.LoadOptions) (engine.Engine, error) {
	return &Backend{path: path, opts: opts, responder: defaultResponder}, nil
}

// SetResponder swaps the reply function, returning the previous one.
func (b *Backend) SetResponder(r Responder) Responder {
	prev := b.responder
	b.responder = r
	return prev
}

func (b *Backend) Info() engine.Info {
	return engine.Info{
		NParams:   0,
		NVocab:    0,
		NCtxTrain: b.opts.ContextSize,
		NEmbd:     0,
		ModelPath: b.path,
	}
}

func (b *Backend) Generate(ctx context.Context, params engine.GenerateParams) (engine.GenerateResult, error) {
	if b.freed {
		return engine.GenerateResult{}, neuronerr.New(neuronerr.KindEngineError, "reference engine handle freed")
	}
	start := time.Now()

	text := b.responder(params.Prompt)
	if params.OnToken != nil {
		for _, chunk := range splitChunks(text) {
			select {
			case <-ctx.Done():
				return engine.GenerateResult{
					Text: text, FinishReason: engine.FinishCancelled,
					ElapsedMS: time.Since(start).Milliseconds(),
				}, ctx.Err()
			default:
			}
			if !params.OnToken(chunk) {
				return engine.GenerateResult{
					Text: text, FinishReason: engine.FinishCancelled,
					ElapsedMS: time.Since(start).Milliseconds(),
				}, nil
			}
		}
	}

	nTokens, _ := b.Tokenize(text)
	elapsed := time.Since(start)
	tps := 0.0
	if elapsed > 0 {
		tps = float64(nTokens) / elapsed.Seconds()
	}
	return engine.GenerateResult{
		Text:         text,
		NTokens:      nTokens,
		ElapsedMS:    elapsed.Milliseconds(),
		TokensPerSec: tps,
		FinishReason: engine.FinishStop,
	}, nil
}

// Tokenize approximates token count the same way
// SPEC_FULL.md's supplemented token accounting does for the context
// compactor: len(text)/4, floored at 1 for non-empty input.
func (b *Backend) Tokenize(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n, nil
}

func (b *Backend) Free() error {
	b.freed = true
	return nil
}

// splitChunks breaks text into word-ish chunks for the streaming
// callback path, since the reference backend has no real tokenizer.
func splitChunks(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r)
	})
}
