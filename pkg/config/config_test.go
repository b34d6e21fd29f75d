package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Refinement.MaxIterations)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 2*time.Minute, cfg.Execution.Timeout)
	assert.Equal(t, "session", cfg.Execution.SessionName)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"missing output dir":  func(c *Config) { c.OutputDir = "" },
		"negative timeout":    func(c *Config) { c.Execution.Timeout = -time.Second },
		"negative iterations": func(c *Config) { c.Refinement.MaxIterations = -1 },
		"negative operations": func(c *Config) { c.Refinement.MinOperations = -2 },
		"negative viewport":   func(c *Config) { c.Browser.ViewportWidth = -100 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.yaml")
	content := `
llm:
  model: gpt-4o-mini
  base_url: http://localhost:8080/v1
browser:
  headless: false
  viewport_width: 1920
  viewport_height: 1080
execution:
  timeout: 30s
refinement:
  max_iterations: 5
  accept_pattern: "Order *"
output_dir: /tmp/recordings
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.BaseURL)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.ViewportWidth)
	assert.Equal(t, 30*time.Second, cfg.Execution.Timeout)
	assert.Equal(t, 5, cfg.Refinement.MaxIterations)
	assert.Equal(t, "Order *", cfg.Refinement.AcceptPattern)
	assert.Equal(t, "/tmp/recordings", cfg.OutputDir)
}

func TestLoadKeepsDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: out\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 3, cfg.Refinement.MaxIterations)
	assert.Equal(t, "out", cfg.OutputDir)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: [\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}
