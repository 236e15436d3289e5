package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"continuum/internal/config"
	"continuum/internal/domain"
)

func TestAdmitKeepsEntriesSortedByTimestamp(t *testing.T) {
	h := NewHierarchy(config.Default().Scales)
	now := time.Now()
	h.Admit(domain.ScaleImmediate, domain.MemoryEntry{ID: "b", Timestamp: now.Add(time.Minute)})
	h.Admit(domain.ScaleImmediate, domain.MemoryEntry{ID: "a", Timestamp: now})
	h.Admit(domain.ScaleImmediate, domain.MemoryEntry{ID: "c", Timestamp: now.Add(2 * time.Minute)})

	entries := h.Store(domain.ScaleImmediate).Entries
	require.Equal(t, []string{"a", "b", "c"}, []string{entries[0].ID, entries[1].ID, entries[2].ID})
}

func TestRemoveDropsOnlySpecifiedIDs(t *testing.T) {
	h := NewHierarchy(config.Default().Scales)
	now := time.Now()
	h.Admit(domain.ScaleImmediate, domain.MemoryEntry{ID: "a", Timestamp: now})
	h.Admit(domain.ScaleImmediate, domain.MemoryEntry{ID: "b", Timestamp: now})

	h.Remove(domain.ScaleImmediate, "a")
	entries := h.Store(domain.ScaleImmediate).Entries
	require.Len(t, entries, 1)
	require.Equal(t, "b", entries[0].ID)
}

func TestRetentionWeightDecaysWithAge(t *testing.T) {
	now := time.Now()
	fresh := domain.MemoryEntry{Importance: 1.0, Timestamp: now}
	old := domain.MemoryEntry{Importance: 1.0, Timestamp: now.Add(-10 * time.Hour)}

	halfLife := 3600.0
	require.Greater(t, RetentionWeight(fresh, halfLife, now), RetentionWeight(old, halfLife, now))
}

func TestRetentionWeightBoostedByAccessCount(t *testing.T) {
	now := time.Now()
	noAccess := domain.MemoryEntry{Importance: 1.0, Timestamp: now}
	accessed := domain.MemoryEntry{Importance: 1.0, Timestamp: now, AccessCount: 10}

	require.Greater(t, RetentionWeight(accessed, 3600, now), RetentionWeight(noAccess, 3600, now))
}

func TestMigrationThresholdIsTwiceHalfLife(t *testing.T) {
	h := NewHierarchy(config.Default().Scales)
	expected := time.Duration(2 * h.HalfLife(domain.ScaleImmediate) * float64(time.Second))
	require.Equal(t, expected, h.MigrationThreshold(domain.ScaleImmediate))
}
