package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"continuum/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opentelemetry.io/otel/sdk/metric.(*PeriodicReader).run"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.StateDir = filepath.Join(dir, "state")
	cfg.WatchDir = filepath.Join(dir, "logs")
	cfg.Checkpoint.Targets = []string{filepath.Join(dir, "checkpoint-target")}
	require.NoError(t, os.MkdirAll(cfg.WatchDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.StateDir, 0o755))
	return cfg
}

func TestOrchestratorIngestsExistingBacklogAndCheckpointsOnShutdown(t *testing.T) {
	cfg := testConfig(t)
	content := "{\"role\":\"user\",\"content\":\"I finally shipped the project, huge relief\"}\n" +
		"{\"role\":\"assistant\",\"content\":\"That's wonderful, congratulations\"}\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.WatchDir, "A.log"), []byte(content), 0o644))

	o, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, o.Start(ctx))

	require.Eventually(t, func() bool {
		return o.engine.Session().MessagesTotal >= 2
	}, 2*time.Second, 10*time.Millisecond)

	o.Shutdown(context.Background())

	entries, err := os.ReadDir(filepath.Join(cfg.Checkpoint.Targets[0], "checkpoints"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

func TestOrchestratorRejectsSecondStartOnSameStateDir(t *testing.T) {
	cfg := testConfig(t)

	first, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, first.Start(ctx))
	defer first.Shutdown(context.Background())

	second, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	require.Error(t, second.Start(ctx))
}
