package checkpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"continuum/internal/config"
	"continuum/internal/domain"
)

func testCfg() config.CheckpointConfig {
	return config.CheckpointConfig{
		MessageInterval:     50,
		TimeIntervalSeconds: 1800,
		EmotionThreshold:    0.85,
		MaxRetained:         20,
	}
}

func TestDueOnMessageCount(t *testing.T) {
	now := time.Now()
	ev := NewTriggerEvaluator(testCfg(), now)
	for i := 0; i < 49; i++ {
		ev.RecordMessage()
	}
	_, due := ev.Due(now, 0, false)
	require.False(t, due)

	ev.RecordMessage()
	trigger, due := ev.Due(now, 0, false)
	require.True(t, due)
	require.Equal(t, domain.TriggerMessageCount, trigger)
}

func TestDueOnTimeInterval(t *testing.T) {
	now := time.Now()
	ev := NewTriggerEvaluator(testCfg(), now)
	_, due := ev.Due(now.Add(29*time.Minute), 0, false)
	require.False(t, due)

	trigger, due := ev.Due(now.Add(31*time.Minute), 0, false)
	require.True(t, due)
	require.Equal(t, domain.TriggerTime, trigger)
}

func TestDueOnEmotionalPeak(t *testing.T) {
	now := time.Now()
	ev := NewTriggerEvaluator(testCfg(), now)
	trigger, due := ev.Due(now, 0.9, false)
	require.True(t, due)
	require.Equal(t, domain.TriggerEmotionalPeak, trigger)
}

func TestDueOnAccomplishment(t *testing.T) {
	now := time.Now()
	ev := NewTriggerEvaluator(testCfg(), now)
	trigger, due := ev.Due(now, 0, true)
	require.True(t, due)
	require.Equal(t, domain.TriggerAccomplishment, trigger)
}

func TestDueOnNewCalendarDay(t *testing.T) {
	now := time.Now()
	cfg := testCfg()
	// The time trigger is checked before Daily; push it past the 25h gap.
	cfg.TimeIntervalSeconds = 48 * 3600
	ev := NewTriggerEvaluator(cfg, now)
	trigger, due := ev.Due(now.Add(25*time.Hour), 0, false)
	require.True(t, due)
	require.Equal(t, domain.TriggerDaily, trigger)
}

func TestRecordCheckpointResetsCounters(t *testing.T) {
	now := time.Now()
	ev := NewTriggerEvaluator(testCfg(), now)
	for i := 0; i < 60; i++ {
		ev.RecordMessage()
	}
	ev.RecordCheckpoint(now)
	_, due := ev.Due(now, 0, false)
	require.False(t, due)
}
