package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoaderFails(t *testing.T) {
	_, err := Load("/models/x.gguf", DefaultLoadOptions())
	require.Error(t, err)
}

func TestSetLoaderRestoresPrevious(t *testing.T) {
	calls := 0
	prev := SetLoader(func(path string, opts LoadOptions) (Engine, error) {
		calls++
		return nil, nil
	})
	defer SetLoader(prev)

	_, _ = Load("x", DefaultLoadOptions())
	assert.Equal(t, 1, calls)
}

func TestDefaultLoadOptions(t *testing.T) {
	opts := DefaultLoadOptions()
	assert.Greater(t, opts.ContextSize, 0)
	assert.True(t, opts.Mmap)
}
