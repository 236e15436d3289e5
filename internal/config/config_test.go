package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithNoOverlay(t *testing.T) {
	t.Setenv("STATE_DIR", "")
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 0.1, cfg.LivingEquation.LambdaDecay)
	require.Equal(t, 20, cfg.Checkpoint.MaxRetained)
	require.Equal(t, AnalyzerRules, cfg.Analyzer.Backend)
}

func TestLoadYAMLOverlayThenEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "continuum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
checkpoint:
  message_interval: 10
  max_retained: 5
analyzer:
  backend: remote
  model: custom-model
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Checkpoint.MessageInterval)
	require.Equal(t, 5, cfg.Checkpoint.MaxRetained)
	require.Equal(t, AnalyzerBackend("remote"), cfg.Analyzer.Backend)

	t.Setenv("STATE_DIR", "/tmp/override-state")
	cfg2, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/override-state", cfg2.StateDir)
}
