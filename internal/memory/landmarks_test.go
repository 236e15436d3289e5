package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"continuum/internal/config"
	"continuum/internal/domain"
)

func TestDetectFirstSessionIsMilestone(t *testing.T) {
	d := NewLandmarkDetector(config.Default().Landmarks)
	msg := domain.Message{SessionID: "s1", Timestamp: time.Now(), Content: "hello"}
	kinds := d.Detect(msg, domain.Affect{})
	require.Contains(t, kinds, domain.KindMilestone)

	// A second message in the same session is not a fresh milestone on its own.
	kinds = d.Detect(domain.Message{SessionID: "s1", Timestamp: msg.Timestamp, Content: "hello again"}, domain.Affect{})
	require.NotContains(t, kinds, domain.KindMilestone)
}

func TestDetectNewSessionOnNewDayIsMilestone(t *testing.T) {
	d := NewLandmarkDetector(config.Default().Landmarks)
	base := time.Now()
	d.Detect(domain.Message{SessionID: "s1", Timestamp: base}, domain.Affect{})

	kinds := d.Detect(domain.Message{SessionID: "s2", Timestamp: base.Add(48 * time.Hour)}, domain.Affect{})
	require.Contains(t, kinds, domain.KindMilestone)
}

func TestDetectEmotionalPeakAboveThreshold(t *testing.T) {
	cfg := config.Default().Landmarks
	cfg.IntensityThreshold = 0.5
	d := NewLandmarkDetector(cfg)
	msg := domain.Message{SessionID: "s1", Timestamp: time.Now()}
	kinds := d.Detect(msg, domain.Affect{Intensity: 0.9})
	require.Contains(t, kinds, domain.KindEmotionalPeak)
}

func TestDetectAccomplishmentRequiresPositivePleasure(t *testing.T) {
	cfg := config.Default().Landmarks
	cfg.AccomplishmentMarkers = []string{"shipped it"}
	d := NewLandmarkDetector(cfg)
	msg := domain.Message{SessionID: "s1", Timestamp: time.Now(), Content: "finally shipped it"}

	kinds := d.Detect(msg, domain.Affect{PAD: domain.PAD{Pleasure: 0.5}})
	require.Contains(t, kinds, domain.KindAccomplishment)

	kinds = d.Detect(msg, domain.Affect{PAD: domain.PAD{Pleasure: -0.5}})
	require.NotContains(t, kinds, domain.KindAccomplishment)
}

func TestDetectRegretMarker(t *testing.T) {
	cfg := config.Default().Landmarks
	cfg.RegretMarkers = []string{"i shouldn't have"}
	d := NewLandmarkDetector(cfg)
	msg := domain.Message{SessionID: "s1", Timestamp: time.Now(), Content: "I shouldn't have said that"}
	kinds := d.Detect(msg, domain.Affect{})
	require.Contains(t, kinds, domain.KindRegret)
}

func TestMilestonePhraseOnlyFiresOnce(t *testing.T) {
	cfg := config.Default().Landmarks
	cfg.MilestonePhrases = []string{"we finished the project"}
	d := NewLandmarkDetector(cfg)
	base := time.Now()

	// Consume the first-session/first-day milestone, then the phrase's first occurrence.
	d.Detect(domain.Message{SessionID: "s1", Timestamp: base, Content: "hi"}, domain.Affect{})
	d.Detect(domain.Message{SessionID: "s1", Timestamp: base, Content: "we finished the project"}, domain.Affect{})

	kinds := d.Detect(domain.Message{SessionID: "s1", Timestamp: base, Content: "we finished the project again"}, domain.Affect{})
	require.NotContains(t, kinds, domain.KindMilestone)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	cfg := config.Default().Landmarks
	d := NewLandmarkDetector(cfg)
	base := time.Now()
	d.Detect(domain.Message{SessionID: "s1", Timestamp: base, Content: "hi"}, domain.Affect{})

	snap := d.Snapshot()
	restored := NewLandmarkDetector(cfg)
	restored.Restore(snap)

	// The restored detector must recognize the previously seen session and
	// day, so the same message should not re-fire as a milestone.
	kinds := restored.Detect(domain.Message{SessionID: "s1", Timestamp: base, Content: "hi again"}, domain.Affect{})
	require.NotContains(t, kinds, domain.KindMilestone)
}
