package projector

import (
	"encoding/json"
	"time"

	"continuum/internal/domain"
)

// EmotionalState is the schema of state/realtime/emotional_state.json.
type EmotionalState struct {
	GeneratedAt    time.Time        `json:"generated_at"`
	PrimaryEmotion domain.EmotionTag `json:"primary_emotion"`
	Intensity      float64          `json:"intensity"`
	PAD            domain.PAD       `json:"pad"`
	Relationship   domain.RelationshipState `json:"relationship"`
}

// ConversationContext is the schema of state/realtime/conversation_context.json.
type ConversationContext struct {
	GeneratedAt     time.Time `json:"generated_at"`
	ActiveSessionID string    `json:"active_session_id"`
	LastMessageAt   time.Time `json:"last_message_at"`
	MessagesTotal   uint64    `json:"messages_total"`
	LastMessage     string    `json:"last_message,omitempty"`
}

// WorkContext is the schema of state/realtime/work_context.json. The original
// system's work/task tracking (current_project, current_task,
// completed_tasks) has no dedicated component in this spec; the
// projector derives a best-effort view from Lifetime accomplishments.
type WorkContext struct {
	GeneratedAt       time.Time `json:"generated_at"`
	AccomplishedCount int       `json:"accomplished_count"`
	RecentAccomplishments []string `json:"recent_accomplishments"`
}

func buildEmotionalState(in Input) EmotionalState {
	s := EmotionalState{GeneratedAt: in.GeneratedAt, Relationship: in.Relationship, PrimaryEmotion: domain.EmotionNeutral}
	if in.LastAffect != nil {
		s.PrimaryEmotion = in.LastAffect.PrimaryEmotion
		s.Intensity = in.LastAffect.Intensity
		s.PAD = in.LastAffect.PAD
	}
	return s
}

func buildConversationContext(in Input) ConversationContext {
	c := ConversationContext{
		GeneratedAt:     in.GeneratedAt,
		ActiveSessionID: in.Session.ActiveSessionID,
		LastMessageAt:   in.Session.LastMessageAt,
		MessagesTotal:   in.Session.MessagesTotal,
	}
	if in.LastMessage != nil {
		c.LastMessage = truncate(in.LastMessage.Content, 500)
	}
	return c
}

func buildWorkContext(in Input, recentCount int) WorkContext {
	entries := in.Hierarchy.Store(domain.ScaleLifetime).Entries
	var accomplishments []domain.MemoryEntry
	for _, e := range entries {
		if e.Kind == domain.KindAccomplishment {
			accomplishments = append(accomplishments, e)
		}
	}
	top := mostRecent(accomplishments, recentCount)
	recent := make([]string, len(top))
	for i, e := range top {
		recent[i] = truncate(e.Content, 160)
	}
	return WorkContext{
		GeneratedAt:           in.GeneratedAt,
		AccomplishedCount:     len(accomplishments),
		RecentAccomplishments: recent,
	}
}

func marshalIndent(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
