// Package config defines the run configuration for the replay CLI and
// its YAML loader.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the configuration for a replay run.
type Config struct {
	// LLM provider settings for the repair loop
	LLM LLMConfig `yaml:"llm" json:"llm"`

	// Browser launch settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Execution settings for candidate runs
	Execution ExecutionConfig `yaml:"execution" json:"execution"`

	// Refinement loop settings
	Refinement RefinementConfig `yaml:"refinement" json:"refinement"`

	// OutputDir is the root directory recording bundles are written under
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// LLMConfig defines the provider used to repair rejected candidates.
type LLMConfig struct {
	Model   string `yaml:"model" json:"model"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"api_key" json:"api_key"`
}

// BrowserConfig defines how browser instances are launched.
type BrowserConfig struct {
	Headless       bool    `yaml:"headless" json:"headless"`
	ViewportWidth  int     `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int     `yaml:"viewport_height" json:"viewport_height"`
	TimeoutMillis  float64 `yaml:"timeout_ms" json:"timeout_ms"`
}

// ExecutionConfig bounds individual candidate executions.
type ExecutionConfig struct {
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	SessionName string        `yaml:"session_name" json:"session_name"`
}

// RefinementConfig drives the repair loop.
type RefinementConfig struct {
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`

	// AcceptPattern is a glob the rendered return value must match.
	// Empty accepts any successful run.
	AcceptPattern string `yaml:"accept_pattern" json:"accept_pattern"`

	// MinOperations requires at least this many recorded operations.
	MinOperations int `yaml:"min_operations" json:"min_operations"`
}

// Validate checks the configuration and fills defaulted fields.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Execution.Timeout < 0 {
		return fmt.Errorf("execution timeout cannot be negative")
	}
	if c.Refinement.MaxIterations < 0 {
		return fmt.Errorf("max_iterations cannot be negative")
	}
	if c.Refinement.MinOperations < 0 {
		return fmt.Errorf("min_operations cannot be negative")
	}
	if c.Browser.ViewportWidth < 0 || c.Browser.ViewportHeight < 0 {
		return fmt.Errorf("viewport dimensions cannot be negative")
	}
	if c.Browser.TimeoutMillis < 0 {
		return fmt.Errorf("browser timeout cannot be negative")
	}

	if c.Execution.SessionName == "" {
		c.Execution.SessionName = "session"
	}

	return nil
}

// DefaultConfig returns a default configuration suitable for most runs.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model: "gpt-4o",
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		Execution: ExecutionConfig{
			Timeout: 2 * time.Minute,
		},
		Refinement: RefinementConfig{
			MaxIterations: 3,
		},
		OutputDir: ".replay/recordings",
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}
