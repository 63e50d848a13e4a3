package contextacct

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuronos/neuronos/pkg/engine/reference"
	"github.com/neuronos/neuronos/pkg/memory"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("ab"))
	assert.Equal(t, 3, EstimateTokens(strings.Repeat("x", 12)))
}

func TestOverThresholdAndIdempotence(t *testing.T) {
	a := New(Options{ContextCapacity: 100, Threshold: 0.5})
	a.Append(Turn{Role: RoleSystem, Text: "you are a helpful assistant"})
	assert.False(t, a.OverThreshold())

	a.Append(Turn{Role: RoleUser, Text: strings.Repeat("x", 400)})
	assert.True(t, a.OverThreshold())

	// Compact with no engine configured is only reached when over
	// threshold; below-threshold compaction must be a pure no-op.
	b := New(Options{ContextCapacity: 100, Threshold: 0.99})
	b.Append(Turn{Role: RoleUser, Text: "short"})
	require.NoError(t, b.Compact(context.Background()))
	assert.Equal(t, 1, len(b.Turns()))
}

func buildLongConversation(a *Accountant) {
	a.Append(Turn{Role: RoleSystem, Text: "system preamble describing the assistant"})
	for i := 0; i < 10; i++ {
		a.Append(Turn{Role: RoleUser, Text: strings.Repeat("u", 80)})
		a.Append(Turn{Role: RoleAssistant, Text: strings.Repeat("a", 80), IsToolCall: true})
		a.Append(Turn{Role: RoleTool, Text: strings.Repeat("o", 80), IsObservation: true})
	}
}

func TestCompactPreservesFirstSystemTurnAndRetentionWindow(t *testing.T) {
	eng := reference.New(func(prompt string) string { return "summary of earlier turns" })
	store, err := memory.Open(memory.Options{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	a := New(Options{ContextCapacity: 400, Threshold: 0.5, RetentionTurns: 2, Engine: eng, Memory: store})
	buildLongConversation(a)
	require.True(t, a.OverThreshold())

	require.NoError(t, a.Compact(context.Background()))

	turns := a.Turns()
	require.GreaterOrEqual(t, len(turns), 3)
	assert.Equal(t, RoleSystem, turns[0].Role)
	assert.Contains(t, turns[0].Text, "system preamble")

	assert.Equal(t, RoleSystem, turns[1].Role)
	assert.Contains(t, turns[1].Text, "summary")

	last := turns[len(turns)-1]
	assert.Equal(t, RoleTool, last.Role)
}

func TestCompactIsIdempotentBelowThreshold(t *testing.T) {
	eng := reference.New(func(prompt string) string { return "summary" })
	a := New(Options{ContextCapacity: 100000, Threshold: 0.85, Engine: eng})
	buildLongConversation(a)
	before := len(a.Turns())

	require.NoError(t, a.Compact(context.Background()))
	assert.Equal(t, before, len(a.Turns()))
}

func TestCompactWritesRemovedTurnsToRecall(t *testing.T) {
	eng := reference.New(func(prompt string) string { return "summary" })
	store, err := memory.Open(memory.Options{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	a := New(Options{ContextCapacity: 400, Threshold: 0.5, RetentionTurns: 1, Engine: eng, Memory: store})
	buildLongConversation(a)
	require.NoError(t, a.Compact(context.Background()))

	results, err := store.SearchRecall("uuuuuuuu", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}
