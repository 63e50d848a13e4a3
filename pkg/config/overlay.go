package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// overlay mirrors Config's env-settable fields for YAML decoding. Zero
// values are left alone by applyOverlay, so a neuronos.yaml only needs
// to name the fields it wants to override.
type overlay struct {
	Hardware struct {
		FeatureOverride []string `yaml:"feature_override"`
		RAMReserveMB    int      `yaml:"ram_reserve_mb"`
	} `yaml:"hardware"`
	Models struct {
		Dir       string `yaml:"dir"`
		ScanLimit int    `yaml:"scan_limit"`
	} `yaml:"models"`
	Agent struct {
		MaxSteps            int     `yaml:"max_steps"`
		MaxTokensPerStep    int     `yaml:"max_tokens_per_step"`
		Temperature         float64 `yaml:"temperature"`
		ToolTimeoutSeconds  int     `yaml:"tool_timeout_seconds"`
		ReentrantDepthLimit int     `yaml:"reentrant_depth_limit"`
		CompactionThreshold float64 `yaml:"compaction_threshold"`
		RetentionWindow     int     `yaml:"retention_window"`
	} `yaml:"agent"`
	Memory struct {
		DBPath             string `yaml:"db_path"`
		CoreBlockLimit     int    `yaml:"core_block_limit"`
		CoreBlockSizeBytes int    `yaml:"core_block_size_bytes"`
		RecallCapBytes     int64  `yaml:"recall_cap_bytes"`
	} `yaml:"memory"`
	Capability struct {
		Granted []string `yaml:"granted"`
	} `yaml:"capability"`
	Logging struct {
		Level   string `yaml:"level"`
		Verbose bool   `yaml:"verbose"`
	} `yaml:"logging"`
}

// LoadOverlayFile reads an optional YAML file and applies it on top of
// whatever LoadFromEnv already populated. Every non-zero field in the
// file replaces the current value, including a value that came from a
// NEURONOS_* variable: env vars do not take precedence over the file.
// A missing path is not an error.
func (c *Config) LoadOverlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return neuronerr.Wrap(neuronerr.KindIOError, "reading config overlay", err)
	}

	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return neuronerr.Wrap(neuronerr.KindParseError, "parsing config overlay", err)
	}
	c.applyOverlay(o)
	return nil
}

func (c *Config) applyOverlay(o overlay) {
	if len(o.Hardware.FeatureOverride) > 0 {
		c.Hardware.FeatureOverride = o.Hardware.FeatureOverride
	}
	if o.Hardware.RAMReserveMB > 0 {
		c.Hardware.RAMReserveMB = o.Hardware.RAMReserveMB
	}
	if o.Models.Dir != "" {
		c.Models.Dir = o.Models.Dir
	}
	if o.Models.ScanLimit > 0 {
		c.Models.ScanLimit = o.Models.ScanLimit
	}
	if o.Agent.MaxSteps > 0 {
		c.Agent.MaxSteps = o.Agent.MaxSteps
	}
	if o.Agent.MaxTokensPerStep > 0 {
		c.Agent.MaxTokensPerStep = o.Agent.MaxTokensPerStep
	}
	if o.Agent.Temperature > 0 {
		c.Agent.Temperature = o.Agent.Temperature
	}
	if o.Agent.ToolTimeoutSeconds > 0 {
		c.Agent.ToolTimeoutSeconds = o.Agent.ToolTimeoutSeconds
	}
	if o.Agent.ReentrantDepthLimit > 0 {
		c.Agent.ReentrantDepthLimit = o.Agent.ReentrantDepthLimit
	}
	if o.Agent.CompactionThreshold > 0 {
		c.Agent.CompactionThreshold = o.Agent.CompactionThreshold
	}
	if o.Agent.RetentionWindow > 0 {
		c.Agent.RetentionWindow = o.Agent.RetentionWindow
	}
	if o.Memory.DBPath != "" {
		c.Memory.DBPath = o.Memory.DBPath
	}
	if o.Memory.CoreBlockLimit > 0 {
		c.Memory.CoreBlockLimit = o.Memory.CoreBlockLimit
	}
	if o.Memory.CoreBlockSizeBytes > 0 {
		c.Memory.CoreBlockSizeBytes = o.Memory.CoreBlockSizeBytes
	}
	if o.Memory.RecallCapBytes > 0 {
		c.Memory.RecallCapBytes = o.Memory.RecallCapBytes
	}
	if len(o.Capability.Granted) > 0 {
		c.Capability.Granted = o.Capability.Granted
	}
	if o.Logging.Level != "" {
		c.Logging.Level = o.Logging.Level
	}
	if o.Logging.Verbose {
		c.Logging.Verbose = true
	}
}
