package affect

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"continuum/internal/domain"
	"continuum/internal/llmclient"
)

func msg(speaker domain.Speaker, content string) domain.Message {
	return domain.Message{Speaker: speaker, Content: content, Timestamp: time.Now()}
}

func TestAnalyzeUsesPrimaryBackend(t *testing.T) {
	primary := &llmclient.MockBackend{Affect: domain.RawAffect{Pleasure: 0.5, Arousal: 0.2, Dominance: 0.1, PrimaryTag: "joy", Confidence: 0.9}}
	fallback := llmclient.NewRulesBackend()
	a := New(primary, fallback, zap.NewNop())

	window := []domain.Message{msg(domain.SpeakerUser, "I love this")}
	affect, err := a.Analyze(context.Background(), window[0], window)
	require.NoError(t, err)
	require.Equal(t, domain.EmotionJoy, affect.PrimaryEmotion)
	require.Equal(t, 0.9, affect.Confidence)
}

func TestAnalyzeFallsBackAndCapsConfidence(t *testing.T) {
	primary := &llmclient.MockBackend{AffectErr: errBackendDown}
	fallback := &llmclient.MockBackend{Affect: domain.RawAffect{PrimaryTag: "anger", Confidence: 0.95}}
	a := New(primary, fallback, zap.NewNop())

	window := []domain.Message{msg(domain.SpeakerUser, "this is infuriating")}
	affect, err := a.Analyze(context.Background(), window[0], window)
	require.NoError(t, err)
	require.LessOrEqual(t, affect.Confidence, 0.3)
}

func TestAnalyzeClampsOutOfRangeToZeroConfidence(t *testing.T) {
	primary := &llmclient.MockBackend{Affect: domain.RawAffect{Pleasure: math.NaN(), PrimaryTag: "joy", Confidence: 5}}
	fallback := llmclient.NewRulesBackend()
	a := New(primary, fallback, zap.NewNop())

	window := []domain.Message{msg(domain.SpeakerUser, "whatever")}
	affect, err := a.Analyze(context.Background(), window[0], window)
	require.NoError(t, err)
	require.Equal(t, 0.0, affect.Confidence)
	require.Equal(t, 0.0, affect.PAD.Pleasure)
}

func TestAnalyzePopulatesPerSpeaker(t *testing.T) {
	primary := &llmclient.MockBackend{Affect: domain.RawAffect{Pleasure: 0.4, PrimaryTag: "trust", Confidence: 0.8}}
	fallback := llmclient.NewRulesBackend()
	a := New(primary, fallback, zap.NewNop())

	window := []domain.Message{
		msg(domain.SpeakerUser, "hey"),
		msg(domain.SpeakerUser, "how are you"),
		msg(domain.SpeakerAssistant, "I'm good"),
	}
	affect, err := a.Analyze(context.Background(), window[2], window)
	require.NoError(t, err)
	require.Contains(t, affect.PerSpeaker, domain.SpeakerUser)
	require.Contains(t, affect.PerSpeaker, domain.SpeakerAssistant)
}

var errBackendDown = &llmclient.Unavailable{Backend: "test", Err: errTest{}}

type errTest struct{}

func (errTest) Error() string { return "backend down" }
