package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuronos/neuronos/pkg/memory"
	"github.com/neuronos/neuronos/pkg/tools"
)

func openTestStoreForCLI(t *testing.T) *memory.Store {
	t.Helper()
	store, err := memory.Open(memory.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestParseCapabilities(t *testing.T) {
	caps := parseCapabilities([]string{"shell", "network", "bogus"})
	assert.True(t, caps.Has(tools.CapShell))
	assert.True(t, caps.Has(tools.CapNetwork))
	assert.False(t, caps.Has(tools.CapFilesystem))
}

func TestLoadEngineRejectsUnknownBackend(t *testing.T) {
	_, err := loadEngine("model.gguf", cliFlags{engineName: "nonexistent"})
	assert.Error(t, err)
}

func TestLoadEngineReferenceAlwaysSucceeds(t *testing.T) {
	eng, err := loadEngine("model.gguf", cliFlags{engineName: "reference"})
	require.NoError(t, err)
	assert.NotNil(t, eng)
}

func TestLoadEngineDefaultBackendFailsWithoutCGO(t *testing.T) {
	_, err := loadEngine("model.gguf", cliFlags{engineName: "llama"})
	assert.Error(t, err)
}

func TestNewDefaultRegistryRegistersMemoryTools(t *testing.T) {
	store := openTestStoreForCLI(t)
	r, err := newDefaultRegistry(store, 0, 30)
	require.NoError(t, err)

	for _, name := range []string{"calculate", "read_file", "write_file", "shell", "memory_search", "memory_store", "memory_core_update"} {
		_, ok := r.Lookup(name)
		assert.Truef(t, ok, "expected %s to be registered", name)
	}
}
