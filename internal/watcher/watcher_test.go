package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"continuum/internal/domain"
)

type recordingHandler struct {
	mu       sync.Mutex
	messages []domain.Message
	newFiles []string
}

func (h *recordingHandler) HandleMessage(_ context.Context, msg domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	return nil
}

func (h *recordingHandler) HandleNewFile(_ context.Context, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.newFiles = append(h.newFiles, path)
	return nil
}

func (h *recordingHandler) snapshot() ([]domain.Message, []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.Message(nil), h.messages...), append([]string(nil), h.newFiles...)
}

func TestWatcherProcessesExistingFileOnStart(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state")
	watchPath := filepath.Join(dir, "logs")
	require.NoError(t, os.MkdirAll(watchPath, 0o755))

	logFile := filepath.Join(watchPath, "A.log")
	content := "{\"role\":\"user\",\"content\":\"hello\"}\n{\"role\":\"assistant\",\"content\":\"hi\"}\n{\"role\":\"user\",\"content\":\"I love this\"}\n"
	require.NoError(t, os.WriteFile(logFile, []byte(content), 0o644))

	handler := &recordingHandler{}
	offsets := NewOffsetStore(filepath.Join(statePath, "offsets"))
	w, err := New(watchPath, offsets, handler, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	msgs, _ := handler.snapshot()
	require.Len(t, msgs, 3)
	require.Equal(t, "hello", msgs[0].Content)
	require.Equal(t, domain.SpeakerUser, msgs[0].Speaker)
	require.Equal(t, domain.SpeakerAssistant, msgs[1].Speaker)

	offset, err := offsets.Get("A.log")
	require.NoError(t, err)
	require.Equal(t, int64(len(content)), offset)
}

func TestWatcherStopsAtMalformedLineWithoutAdvancing(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state")
	watchPath := filepath.Join(dir, "logs")
	require.NoError(t, os.MkdirAll(watchPath, 0o755))

	logFile := filepath.Join(watchPath, "A.log")
	good := "{\"role\":\"user\",\"content\":\"hello\"}\n"
	bad := "not json\n"
	require.NoError(t, os.WriteFile(logFile, []byte(good+bad), 0o644))

	handler := &recordingHandler{}
	offsets := NewOffsetStore(filepath.Join(statePath, "offsets"))
	w, err := New(watchPath, offsets, handler, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	msgs, _ := handler.snapshot()
	require.Len(t, msgs, 1)

	offset, err := offsets.Get("A.log")
	require.NoError(t, err)
	require.Equal(t, int64(len(good)), offset)
}

func TestWatcherDetectsNewFileCreation(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state")
	watchPath := filepath.Join(dir, "logs")
	require.NoError(t, os.MkdirAll(watchPath, 0o755))

	handler := &recordingHandler{}
	offsets := NewOffsetStore(filepath.Join(statePath, "offsets"))
	w, err := New(watchPath, offsets, handler, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	bFile := filepath.Join(watchPath, "B.log")
	require.NoError(t, os.WriteFile(bFile, []byte("{\"role\":\"user\",\"content\":\"new session\"}\n"), 0o644))

	require.Eventually(t, func() bool {
		msgs, _ := handler.snapshot()
		return len(msgs) == 1
	}, 2*time.Second, 20*time.Millisecond)

	_, newFiles := handler.snapshot()
	require.Contains(t, newFiles, bFile)
}
