package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := LoadFromEnv()
	assert.Equal(t, "./models", cfg.Models.Dir)
	assert.Equal(t, 128, cfg.Models.ScanLimit)
	assert.Equal(t, 25, cfg.Agent.MaxSteps)
	assert.Equal(t, 0.85, cfg.Agent.CompactionThreshold)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("NEURONOS_MAX_STEPS", "10")
	t.Setenv("NEURONOS_GRANTED_CAPS", "shell, filesystem")

	cfg := LoadFromEnv()
	assert.Equal(t, 10, cfg.Agent.MaxSteps)
	assert.Equal(t, []string{"shell", "filesystem"}, cfg.Capability.Granted)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownCapability(t *testing.T) {
	cfg := LoadFromEnv()
	cfg.Capability.Granted = []string{"nuke"}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeCompactionThreshold(t *testing.T) {
	cfg := LoadFromEnv()
	cfg.Agent.CompactionThreshold = 1.5
	assert.Error(t, cfg.Validate())
}

func TestLoadOverlayFileMissingIsNotError(t *testing.T) {
	cfg := LoadFromEnv()
	require.NoError(t, cfg.LoadOverlayFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestLoadOverlayFileAppliesOnlySetFields(t *testing.T) {
	cfg := LoadFromEnv()
	original := cfg.Models.ScanLimit

	path := filepath.Join(t.TempDir(), "neuronos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent:\n  max_steps: 7\n"), 0o644))

	require.NoError(t, cfg.LoadOverlayFile(path))
	assert.Equal(t, 7, cfg.Agent.MaxSteps)
	assert.Equal(t, original, cfg.Models.ScanLimit)
}

func TestStringRedactsNothingSensitiveAndIncludesKeyFields(t *testing.T) {
	cfg := LoadFromEnv()
	s := cfg.String()
	assert.Contains(t, s, "ModelsDir")
	assert.Contains(t, s, "MaxSteps")
}
