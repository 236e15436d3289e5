package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"continuum/internal/config"
	"continuum/internal/domain"
)

func newTestManager(t *testing.T, maxRetained int, targetCount int) (*Manager, []string) {
	t.Helper()
	targets := make([]string, targetCount)
	for i := range targets {
		targets[i] = filepath.Join(t.TempDir(), "target")
	}
	cfg := config.CheckpointConfig{MaxRetained: maxRetained, Targets: targets}
	return NewManager(cfg, zap.NewNop()), targets
}

func sampleCheckpoint() domain.Checkpoint {
	return domain.Checkpoint{
		Relationship: domain.DefaultRelationshipState(),
		Scales:       map[domain.Scale]domain.ScaleSnapshot{},
	}
}

func TestCreateWritesStateIndexAndLatestPointer(t *testing.T) {
	m, targets := newTestManager(t, 20, 1)
	at := time.Now()

	cp, err := m.Create(sampleCheckpoint(), domain.TriggerManual, at)
	require.NoError(t, err)
	require.NotEmpty(t, cp.ID)

	statePath := filepath.Join(targets[0], "checkpoints", cp.ID, "state.json")
	require.FileExists(t, statePath)

	latest, err := os.ReadFile(filepath.Join(targets[0], "checkpoints", "latest"))
	require.NoError(t, err)
	require.Equal(t, cp.ID, string(latest))
}

func TestCreateSucceedsWhenOneOfTwoTargetsFails(t *testing.T) {
	m, targets := newTestManager(t, 20, 2)
	// Sabotage the second target by putting a file where its directory should be.
	require.NoError(t, os.MkdirAll(filepath.Dir(targets[1]), 0o755))
	require.NoError(t, os.WriteFile(targets[1], []byte("not a directory"), 0o644))

	cp, err := m.Create(sampleCheckpoint(), domain.TriggerManual, time.Now())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(targets[0], "checkpoints", cp.ID, "state.json"))
}

func TestCreateFailsWhenAllTargetsFail(t *testing.T) {
	m, targets := newTestManager(t, 20, 1)
	require.NoError(t, os.MkdirAll(filepath.Dir(targets[0]), 0o755))
	require.NoError(t, os.WriteFile(targets[0], []byte("blocked"), 0o644))

	_, err := m.Create(sampleCheckpoint(), domain.TriggerManual, time.Now())
	require.Error(t, err)
}

func TestRotationKeepsOnlyMaxRetainedAndCompressesRest(t *testing.T) {
	m, targets := newTestManager(t, 2, 1)
	base := time.Now()

	var ids []string
	for i := 0; i < 4; i++ {
		cp, err := m.Create(sampleCheckpoint(), domain.TriggerManual, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		ids = append(ids, cp.ID)
	}

	idx, err := m.ListCheckpoints()
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)

	latest, ok := idx.Latest()
	require.True(t, ok)
	require.Equal(t, ids[len(ids)-1], latest.ID)

	// The oldest two checkpoints should have been compressed and removed.
	require.NoFileExists(t, filepath.Join(targets[0], "checkpoints", ids[0], "state.json"))
	require.FileExists(t, filepath.Join(targets[0], "checkpoints", ids[0]+".tar.gz"))
}

func TestRestoreReturnsLatestCheckpoint(t *testing.T) {
	m, _ := newTestManager(t, 20, 1)
	created, err := m.Create(sampleCheckpoint(), domain.TriggerManual, time.Now())
	require.NoError(t, err)

	restored, err := m.Restore()
	require.NoError(t, err)
	require.Equal(t, created.ID, restored.ID)
}

func TestRestoreFallsBackToNextTargetOnFailure(t *testing.T) {
	m, targets := newTestManager(t, 20, 2)
	_, err := m.Create(sampleCheckpoint(), domain.TriggerManual, time.Now())
	require.NoError(t, err)

	// Corrupt the first target's latest pointer so it must fall back.
	require.NoError(t, os.WriteFile(filepath.Join(targets[0], "checkpoints", "latest"), []byte("does-not-exist"), 0o644))

	restored, err := m.Restore()
	require.NoError(t, err)
	require.NotEmpty(t, restored.ID)
}

func TestRestoreRejectsNewerSchemaVersion(t *testing.T) {
	m, targets := newTestManager(t, 20, 1)
	cp, err := m.Create(sampleCheckpoint(), domain.TriggerManual, time.Now())
	require.NoError(t, err)

	statePath := filepath.Join(targets[0], "checkpoints", cp.ID, "state.json")
	data, err := os.ReadFile(statePath)
	require.NoError(t, err)
	var decoded domain.Checkpoint
	require.NoError(t, json.Unmarshal(data, &decoded))
	decoded.Version = domain.SchemaVersion + 1
	bumped, err := json.Marshal(decoded)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(statePath, bumped, 0o644))

	_, err = m.Restore()
	require.Error(t, err)
}
