package llmclient

import (
	"context"

	"continuum/internal/domain"
)

// MockBackend lets tests exercise C3/C6 callers without a real network
// backend, mirroring the teacher's MockClient.
type MockBackend struct {
	Affect       domain.RawAffect
	AffectErr    error
	Summary      string
	SummaryErr   error
	NameOverride string
}

func (m *MockBackend) Name() string {
	if m.NameOverride != "" {
		return m.NameOverride
	}
	return "mock"
}

func (m *MockBackend) ScoreAffect(_ context.Context, _ []domain.Message) (domain.RawAffect, error) {
	return m.Affect, m.AffectErr
}

func (m *MockBackend) Summarize(_ context.Context, _ []domain.MemoryEntry) (string, error) {
	return m.Summary, m.SummaryErr
}
