// Package config handles NeuronOS configuration via environment variables.
//
// Configuration is loaded with LoadFromEnv() and validated with
// Validate() before use, following the same shape as NornicDB's own
// config package: one Config struct composed of embedded sub-structs,
// each populated by a getEnv*/default pair, each independently
// testable.
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all NeuronOS configuration loaded from environment
// variables, organized by the subsystem that consumes it.
type Config struct {
	Hardware   HardwareConfig
	Models     ModelsConfig
	Agent      AgentConfig
	Memory     MemoryConfig
	Capability CapabilityConfig
	Logging    LoggingConfig
}

// HardwareConfig holds the hardware settings for HAL feature detection
// (C1) and model_budget_mb (C2). Neither field is read outside this
// package.
type HardwareConfig struct {
	// FeatureOverride holds the NEURONOS_FEATURE_OVERRIDE comma list
	// (e.g. "avx2,-avx512"). No package reads it: pkg/hal always
	// detects features from the host CPU.
	FeatureOverride []string
	// RAMReserveMB is loaded from NEURONOS_RAM_RESERVE_MB but not read;
	// pkg/hwprobe subtracts its own fixed 500 MB when computing
	// model_budget_mb.
	RAMReserveMB int
}

// ModelsConfig controls the model registry scan (C4).
type ModelsConfig struct {
	// Dir is scanned for .gguf files.
	Dir string
	// ScanLimit is loaded from NEURONOS_SCAN_LIMIT but not read;
	// pkg/registry caps a scan with its own ScanLimit constant (128).
	ScanLimit int
}

// AgentConfig controls the ReAct controller (C9) and context
// compaction (C8).
type AgentConfig struct {
	MaxSteps            int
	MaxTokensPerStep    int
	Temperature         float64
	ToolTimeoutSeconds  int
	ReentrantDepthLimit int
	CompactionThreshold float64
	RetentionWindow     int
}

// MemoryConfig controls the three-tier memory store (C6).
type MemoryConfig struct {
	DBPath             string
	CoreBlockLimit     int
	CoreBlockSizeBytes int
	RecallCapBytes     int64
}

// CapabilityConfig lists the capabilities granted to the agent at
// startup, mirroring the teacher's feature-flag pattern of env-driven
// boolean toggles, here collapsed to one comma-separated allowlist.
type CapabilityConfig struct {
	Granted []string
}

// LoggingConfig holds NEURONOS_LOG_LEVEL and NEURONOS_VERBOSE. Level is
// read by no package (the library packages do not log); Verbose is the
// default of the CLI's --verbose flag.
type LoggingConfig struct {
	Level   string
	Verbose bool
}

// LoadFromEnv builds a Config from the process environment, applying
// defaults for anything unset.
func LoadFromEnv() *Config {
	cfg := &Config{}

	cfg.Hardware.FeatureOverride = getEnvStringSlice("NEURONOS_FEATURE_OVERRIDE", nil)
	cfg.Hardware.RAMReserveMB = getEnvInt("NEURONOS_RAM_RESERVE_MB", 500)

	cfg.Models.Dir = getEnv("NEURONOS_MODELS_DIR", "./models")
	cfg.Models.ScanLimit = getEnvInt("NEURONOS_SCAN_LIMIT", 128)

	cfg.Agent.MaxSteps = getEnvInt("NEURONOS_MAX_STEPS", 25)
	cfg.Agent.MaxTokensPerStep = getEnvInt("NEURONOS_MAX_TOKENS_PER_STEP", 512)
	cfg.Agent.Temperature = getEnvFloat("NEURONOS_TEMPERATURE", 0.7)
	cfg.Agent.ToolTimeoutSeconds = getEnvInt("NEURONOS_TOOL_TIMEOUT_SECONDS", 30)
	cfg.Agent.ReentrantDepthLimit = getEnvInt("NEURONOS_REENTRANT_DEPTH_LIMIT", 1)
	cfg.Agent.CompactionThreshold = getEnvFloat("NEURONOS_COMPACTION_THRESHOLD", 0.85)
	cfg.Agent.RetentionWindow = getEnvInt("NEURONOS_RETENTION_WINDOW", 6)

	cfg.Memory.DBPath = getEnv("NEURONOS_MEMORY_DB_PATH", defaultMemoryDBPath())
	cfg.Memory.CoreBlockLimit = getEnvInt("NEURONOS_CORE_BLOCK_LIMIT", 8)
	cfg.Memory.CoreBlockSizeBytes = getEnvInt("NEURONOS_CORE_BLOCK_SIZE_BYTES", 2048)
	cfg.Memory.RecallCapBytes = getEnvInt64("NEURONOS_RECALL_CAP_BYTES", 0)

	cfg.Capability.Granted = getEnvStringSlice("NEURONOS_GRANTED_CAPS", nil)

	cfg.Logging.Level = getEnv("NEURONOS_LOG_LEVEL", "info")
	cfg.Logging.Verbose = getEnvBool("NEURONOS_VERBOSE", false)

	return cfg
}

func defaultMemoryDBPath() string {
	dir := getEnv("NEURONOS_INSTALL_DIR", ".")
	return dir + "/memory.db"
}

// Validate checks the configuration for logical errors, following the
// same field-by-field range-check structure as the teacher's
// (*Config).Validate.
func (c *Config) Validate() error {
	if c.Hardware.RAMReserveMB < 0 {
		return fmt.Errorf("invalid ram reserve: %d", c.Hardware.RAMReserveMB)
	}
	if c.Models.ScanLimit <= 0 {
		return fmt.Errorf("invalid scan limit: %d", c.Models.ScanLimit)
	}
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("invalid max steps: %d", c.Agent.MaxSteps)
	}
	if c.Agent.MaxTokensPerStep <= 0 {
		return fmt.Errorf("invalid max tokens per step: %d", c.Agent.MaxTokensPerStep)
	}
	if c.Agent.Temperature < 0 || c.Agent.Temperature > 2 {
		return fmt.Errorf("invalid temperature: %f", c.Agent.Temperature)
	}
	if c.Agent.CompactionThreshold <= 0 || c.Agent.CompactionThreshold > 1 {
		return fmt.Errorf("invalid compaction threshold: %f", c.Agent.CompactionThreshold)
	}
	if c.Agent.RetentionWindow <= 0 {
		return fmt.Errorf("invalid retention window: %d", c.Agent.RetentionWindow)
	}
	if c.Agent.ReentrantDepthLimit < 0 {
		return fmt.Errorf("invalid reentrant depth limit: %d", c.Agent.ReentrantDepthLimit)
	}
	if c.Memory.CoreBlockLimit <= 0 {
		return fmt.Errorf("invalid core block limit: %d", c.Memory.CoreBlockLimit)
	}
	if c.Memory.CoreBlockSizeBytes <= 0 {
		return fmt.Errorf("invalid core block size: %d", c.Memory.CoreBlockSizeBytes)
	}
	for _, granted := range c.Capability.Granted {
		switch granted {
		case "shell", "filesystem", "network":
		default:
			return fmt.Errorf("unknown capability in NEURONOS_GRANTED_CAPS: %s", granted)
		}
	}
	return nil
}

// String returns a representation of the Config safe for logging: no
// paths that could encode user directory structure beyond what's
// already in NEURONOS_MODELS_DIR/NEURONOS_MEMORY_DB_PATH, no secrets
// (NeuronOS has none — it runs fully local).
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{ModelsDir: %s, MaxSteps: %d, CompactionThreshold: %.2f, GrantedCaps: %v}",
		c.Models.Dir, c.Agent.MaxSteps, c.Agent.CompactionThreshold, c.Capability.Granted,
	)
}

// Helper functions for environment variable parsing, carried verbatim
// from the teacher's pkg/config.

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}

func getEnvStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultVal
}
