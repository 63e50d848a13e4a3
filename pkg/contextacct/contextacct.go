// Package contextacct implements the context accountant: token budget
// tracking and compaction described in spec.md §4.8. It decides when a
// conversation has grown past the usable context window and collapses
// older turns into a single summary, always preserving the retention
// window and atomic tool-call/observation pairs.
package contextacct

import (
	"context"
	"fmt"

	"github.com/neuronos/neuronos/pkg/engine"
	"github.com/neuronos/neuronos/pkg/memory"
	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// Defaults per spec.md §4.8.
const (
	DefaultThreshold      = 0.85
	DefaultRetentionTurns = 6
	SummaryTag            = "compaction_summary"
)

// Role mirrors the chat-message roles the engine and memory layers
// already use (pkg/heimdall.ChatMessage's "system"/"user"/"assistant").
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one entry in the conversation. IsToolCall/IsObservation mark
// the two halves of an atomic pair so compaction can keep or drop them
// together (spec.md §8's "Atomic pair" invariant).
type Turn struct {
	Role          Role
	Text          string
	IsToolCall    bool
	IsObservation bool
	tokens        int
}

// Accountant tracks a single conversation's token usage against a
// context capacity and performs compaction in place.
type Accountant struct {
	capacity       int
	threshold      float64
	retentionTurns int
	eng            engine.Engine
	mem            *memory.Store

	turns      []Turn
	totalTokens int
}

// Options configures a new Accountant.
type Options struct {
	ContextCapacity int
	Threshold       float64
	RetentionTurns  int
	Engine          engine.Engine
	Memory          *memory.Store
}

// New builds an Accountant. Engine and Memory may be nil only in tests
// that never exceed the threshold or never call Compact.
func New(opt Options) *Accountant {
	if opt.Threshold <= 0 {
		opt.Threshold = DefaultThreshold
	}
	if opt.RetentionTurns <= 0 {
		opt.RetentionTurns = DefaultRetentionTurns
	}
	return &Accountant{
		capacity:       opt.ContextCapacity,
		threshold:      opt.Threshold,
		retentionTurns: opt.RetentionTurns,
		eng:            opt.Engine,
		mem:            opt.Memory,
	}
}

// EstimateTokens is the incremental per-turn cached estimate from
// SPEC_FULL.md's resolution of spec.md §9's open question on
// `neuronos_context_token_count`: len(text)/4, floored at 1 for
// non-empty text. Each Turn's token count is computed once, at Append
// time, and cached on the Turn rather than recomputed on every budget
// check.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}

// Append adds a turn to the conversation, caching its token estimate.
func (a *Accountant) Append(t Turn) {
	t.tokens = EstimateTokens(t.Text)
	a.turns = append(a.turns, t)
	a.totalTokens += t.tokens
}

// Turns returns the current conversation, in order.
func (a *Accountant) Turns() []Turn {
	return append([]Turn(nil), a.turns...)
}

// TotalTokens returns the cached running token total.
func (a *Accountant) TotalTokens() int {
	return a.totalTokens
}

// OverThreshold reports whether the conversation has crossed
// threshold·capacity and compaction should run before the next prompt
// is composed, per spec.md §4.7 step 2.
func (a *Accountant) OverThreshold() bool {
	if a.capacity <= 0 {
		return false
	}
	return float64(a.totalTokens) > a.threshold*float64(a.capacity)
}

// Compact runs the §4.8 compaction procedure. It is a no-op when usage
// is under threshold, satisfying the idempotence invariant from §4.8
// ("running it when usage < threshold is a no-op").
func (a *Accountant) Compact(ctx context.Context) error {
	if !a.OverThreshold() {
		return nil
	}
	if len(a.turns) == 0 {
		return nil
	}

	firstIdx := firstSummarizableIndex(a.turns)
	splitAt := a.retentionSplitPoint()
	if splitAt <= firstIdx {
		// Nothing old enough to summarize beyond the protected first
		// system turn and the retention window.
		return nil
	}

	var preserved []Turn
	if firstIdx == 1 {
		preserved = append(preserved, a.turns[0])
	}
	toSummarize := a.turns[firstIdx:splitAt]
	tail := a.turns[splitAt:]

	if a.mem != nil {
		for _, t := range toSummarize {
			if _, err := a.mem.AppendRecall(memory.Entry{
				Text:     fmt.Sprintf("[%s] %s", t.Role, t.Text),
				Metadata: map[string]string{"role": string(t.Role)},
			}); err != nil {
				return neuronerr.Wrap(neuronerr.KindIOError, "write-before-compact", err)
			}
		}
	}

	summaryText, err := a.summarize(ctx, toSummarize)
	if err != nil {
		return err
	}
	summary := Turn{Role: RoleSystem, Text: summaryText}
	summary.tokens = EstimateTokens(summaryText)

	newTurns := make([]Turn, 0, len(preserved)+1+len(tail))
	newTurns = append(newTurns, preserved...)
	newTurns = append(newTurns, summary)
	newTurns = append(newTurns, tail...)

	a.turns = newTurns
	a.recomputeTotal()
	return nil
}

func (a *Accountant) recomputeTotal() {
	total := 0
	for _, t := range a.turns {
		total += t.tokens
	}
	a.totalTokens = total
}

// retentionSplitPoint finds the turn index separating "old" turns from
// the last retentionTurns exchanges, never splitting an atomic
// tool-call/observation pair.
func (a *Accountant) retentionSplitPoint() int {
	exchanges := 0
	i := len(a.turns)
	for i > 0 {
		i--
		if a.turns[i].Role == RoleUser {
			exchanges++
			if exchanges >= a.retentionTurns {
				break
			}
		}
	}
	// i now indexes the start of the retained window. Walk backward
	// further if that boundary would split an atomic pair.
	for i > 0 && a.turns[i].IsObservation {
		i--
	}
	return i
}

func firstSummarizableIndex(turns []Turn) int {
	if len(turns) > 0 && turns[0].Role == RoleSystem {
		return 1
	}
	return 0
}

// summarize asks the engine for a low-temperature summary of the
// turns being collapsed, per spec.md §4.8 step 2.
func (a *Accountant) summarize(ctx context.Context, turns []Turn) (string, error) {
	if a.eng == nil {
		return "", neuronerr.New(neuronerr.KindEngineError, "compaction requires an engine handle")
	}

	var prompt string
	prompt = "Summarize the following conversation turns concisely, preserving facts and decisions:\n\n"
	for _, t := range turns {
		prompt += fmt.Sprintf("%s: %s\n", t.Role, t.Text)
	}

	result, err := a.eng.Generate(ctx, engine.GenerateParams{
		Prompt:      prompt,
		MaxTokens:   256,
		Temperature: 0.2,
	})
	if err != nil {
		return "", neuronerr.Wrap(neuronerr.KindEngineError, "compaction summarize", err)
	}
	return result.Text, nil
}
