package projector

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
	"continuum/internal/memory"
)

func TestProjectWritesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	h := memory.NewHierarchy(cfg.Scales)
	p := New(dir, cfg.Projector, zap.NewNop())

	err := p.Project(Input{
		GeneratedAt:  time.Now(),
		Relationship: domain.DefaultRelationshipState(),
		Hierarchy:    h,
	})
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(dir, "briefing.md"))
	for _, name := range []string{"emotional_state.json", "conversation_context.json", "work_context.json"} {
		require.FileExists(t, filepath.Join(dir, "realtime", name))
	}

	data, err := os.ReadFile(filepath.Join(dir, "realtime", "emotional_state.json"))
	require.NoError(t, err)
	var decoded EmotionalState
	require.NoError(t, json.Unmarshal(data, &decoded))
}

func TestProjectIncrementsVersionAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	h := memory.NewHierarchy(cfg.Scales)
	p := New(dir, cfg.Projector, zap.NewNop())

	in := Input{GeneratedAt: time.Now(), Relationship: domain.DefaultRelationshipState(), Hierarchy: h}
	require.NoError(t, p.Project(in))
	first, err := os.ReadFile(filepath.Join(dir, "briefing.md"))
	require.NoError(t, err)

	require.NoError(t, p.Project(in))
	second, err := os.ReadFile(filepath.Join(dir, "briefing.md"))
	require.NoError(t, err)

	require.NotEqual(t, string(first), string(second))
}
