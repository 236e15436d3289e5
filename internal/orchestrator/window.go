package orchestrator

import (
	"sync"

	"continuum/internal/domain"
)

// windowSize bounds the recent-message context handed to each analyzer
// call, mirroring Engine's own recentWindow sizing for the single-
// threaded backfill path.
const windowSize = 12

// contextWindow is the small ring buffer of recent messages the watcher
// I/O task maintains for the bounded analyzer pool's context, kept
// outside Engine entirely: it is not relationship, scale, or checkpoint
// state, so spec.md §4.9's single-writer rule does not cover it and a
// plain mutex is enough.
type contextWindow struct {
	mu  sync.Mutex
	buf []domain.Message
}

func newContextWindow() *contextWindow { return &contextWindow{} }

// Append records msg and returns a snapshot of the window including it,
// safe to hand to a concurrent analyzer call.
func (w *contextWindow) Append(msg domain.Message) []domain.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, msg)
	if len(w.buf) > windowSize {
		w.buf = w.buf[len(w.buf)-windowSize:]
	}
	out := make([]domain.Message, len(w.buf))
	copy(out, w.buf)
	return out
}
