package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuronos/neuronos/pkg/memory"
)

func openTestMemoryStore(t *testing.T) *memory.Store {
	t.Helper()
	store, err := memory.Open(memory.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMemoryStoreAndSearchTools(t *testing.T) {
	store := openTestMemoryStore(t)
	storeTool := NewMemoryStoreTool(store)
	searchTool := NewMemorySearchTool(store)

	res := storeTool.Executor(`{"text":"the launch codes are under the mat"}`)
	require.True(t, res.Success)
	assert.Contains(t, res.Output, "stored as")

	res = searchTool.Executor(`{"query":"launch codes"}`)
	require.True(t, res.Success)
	assert.Contains(t, res.Output, "launch codes")
}

func TestMemorySearchEmptyReturnsNoMatches(t *testing.T) {
	store := openTestMemoryStore(t)
	searchTool := NewMemorySearchTool(store)

	res := searchTool.Executor(`{"query":"nothing here"}`)
	require.True(t, res.Success)
	assert.Equal(t, "no matching memory entries", res.Output)
}

func TestMemoryCoreUpdateTool(t *testing.T) {
	store := openTestMemoryStore(t)
	tool := NewMemoryCoreUpdateTool(store)

	res := tool.Executor(`{"name":"persona","value":"terse and direct"}`)
	require.True(t, res.Success)

	val, ok, err := store.GetCore("persona")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "terse and direct", string(val))
}

func TestMemoryStoreArchivalTier(t *testing.T) {
	store := openTestMemoryStore(t)
	storeTool := NewMemoryStoreTool(store)
	searchTool := NewMemorySearchTool(store)

	res := storeTool.Executor(`{"text":"archived fact about the user","tier":"archival"}`)
	require.True(t, res.Success)

	res = searchTool.Executor(`{"query":"archived fact","tier":"archival"}`)
	require.True(t, res.Success)
	assert.Contains(t, res.Output, "archived fact")
}
