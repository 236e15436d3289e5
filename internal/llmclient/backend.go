// Package llmclient defines the pluggable analysis backend shared by the
// affective analyzer (C3) and the importance scorer's summarizer (C6),
// mirroring the teacher's llm package split between a narrow interface
// (client.go) and swappable implementations (provider.go, mock.go).
package llmclient

import (
	"context"

	"continuum/internal/domain"
)

// Backend is the pluggable analysis surface every scorer/analyzer
// component depends on, never a concrete client.
type Backend interface {
	// ScoreAffect estimates the PAD vector and emotion tags for a single
	// message, given the speaker's recent turns as context.
	ScoreAffect(ctx context.Context, window []domain.Message) (domain.RawAffect, error)

	// Summarize condenses a batch of memory entries into a short,
	// third-person narrative paragraph used by the C6 Summary entries
	// and the C8 briefing's temporal_memories section.
	Summarize(ctx context.Context, entries []domain.MemoryEntry) (string, error)

	// Name identifies the backend for logging and health reporting.
	Name() string
}

// Unavailable wraps a backend call failure so callers can distinguish a
// transient backend outage (errkind.AnalyzerUnavailable) from a genuine
// parse/schema defect.
type Unavailable struct {
	Backend string
	Err     error
}

func (e *Unavailable) Error() string {
	return "llmclient: " + e.Backend + " unavailable: " + e.Err.Error()
}

func (e *Unavailable) Unwrap() error { return e.Err }
