package domain

import "time"

// CheckpointTrigger is the reason a checkpoint was created.
type CheckpointTrigger string

const (
	TriggerMessageCount  CheckpointTrigger = "message_count"
	TriggerTime          CheckpointTrigger = "time"
	TriggerEmotionalPeak CheckpointTrigger = "emotional_peak"
	TriggerTopicShift    CheckpointTrigger = "topic_shift"
	TriggerAccomplishment CheckpointTrigger = "accomplishment"
	TriggerError         CheckpointTrigger = "error"
	TriggerShutdown      CheckpointTrigger = "shutdown"
	TriggerManual        CheckpointTrigger = "manual"
	TriggerDaily         CheckpointTrigger = "daily"
	TriggerBackfillComplete CheckpointTrigger = "backfill_complete"
)

// SchemaVersion is incremented on breaking checkpoint-schema changes.
// Loaders refuse to load a checkpoint with a version greater than this.
const SchemaVersion = 1

// SessionContext is the slice of session state captured into a checkpoint.
type SessionContext struct {
	ActiveSessionID string    `json:"active_session_id"`
	LastMessageAt   time.Time `json:"last_message_at"`
	MessagesTotal   uint64    `json:"messages_total"`
}

// ScaleSnapshot is the persisted contents of one MemoryScale.
type ScaleSnapshot struct {
	Entries []MemoryEntry `json:"entries"`
}

// StateSummary mirrors the original system's checkpoint_metadata
// state_summary block (original_source checkpoint_manager.py
// _create_state_summary): compact, human-scannable stats captured
// alongside the full snapshot.
type StateSummary struct {
	ScaleCounts       map[Scale]int `json:"scale_counts"`
	CurrentEmotion    EmotionTag    `json:"current_emotion"`
	CurrentIntensity  float64       `json:"current_intensity"`
	WorkProject       string        `json:"work_project,omitempty"`
	WorkTask          string        `json:"work_task,omitempty"`
	RelationshipDelta float64       `json:"relationship_delta"`
}

// LandmarkBookkeeping is the persisted first-occurrence state the landmark
// detector needs to survive a restart: which milestone phrases, sessions,
// and calendar days have already produced a milestone landmark.
type LandmarkBookkeeping struct {
	SeenMilestonePhrases []string `json:"seen_milestone_phrases"`
	SeenSessions         []string `json:"seen_sessions"`
	SeenDailyFirst       []string `json:"seen_daily_first"`
}

// Checkpoint is a full, atomic, fan-out snapshot of the engine's state.
type Checkpoint struct {
	Version      int                     `json:"version"`
	ID           string                  `json:"checkpoint_id"`
	CreatedAt    time.Time               `json:"created_at"`
	Trigger      CheckpointTrigger       `json:"trigger"`
	Relationship RelationshipState       `json:"relationship"`
	Scales       map[Scale]ScaleSnapshot `json:"scales"`
	Session      SessionContext          `json:"session"`
	Summary      StateSummary            `json:"summary"`
	Landmarks    LandmarkBookkeeping     `json:"landmarks"`
}
