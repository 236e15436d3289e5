// Package session implements the session tracker (spec component C2): a
// tiny state machine that maintains the current active session id and
// emits a synthetic Separator message whenever the source file changes.
package session

import (
	"path/filepath"
	"sync"
	"time"

	"continuum/internal/domain"
)

// State is the tracker's current phase.
type State int

const (
	NoSession State = iota
	InSession
)

// Tracker holds the state machine from spec.md §4.2. It is safe for
// concurrent use, though in the orchestrator only the watcher I/O task
// (via HandleMessage) calls it.
type Tracker struct {
	mu      sync.Mutex
	state   State
	active  string
	seen    map[string]bool
	suppress bool
	seq     uint64
}

// New builds a tracker in NoSession. suppressSeparators disables
// synthetic Separator emission entirely, used by the history backfill
// pipeline (C10) per spec.md §4.10.
func New(suppressSeparators bool) *Tracker {
	return &Tracker{
		state:    NoSession,
		seen:     make(map[string]bool),
		suppress: suppressSeparators,
	}
}

// Observe feeds one incoming message's source path through the state
// machine. It returns a Separator message to emit before msg, or nil if
// none is warranted. Every observed path is recorded as seen, which
// decides the resume-separator wording when it becomes active again;
// MarkSeen records a path as seen without observing a message.
func (t *Tracker) Observe(path string, msgAt time.Time) *domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	name := filepath.Base(path)

	switch t.state {
	case NoSession:
		t.state = InSession
		t.active = name
		t.seen[name] = true
		return nil
	case InSession:
		if t.active == name {
			return nil
		}
		wasSeen := t.seen[name]
		from := t.active
		t.active = name
		t.seen[name] = true
		t.state = InSession

		if t.suppress {
			return nil
		}

		t.seq++
		body := separatorBody(from, name, wasSeen)
		sep := domain.NewSeparator(name, t.seq, body, msgAt)
		return &sep
	}
	return nil
}

// ActiveSession returns the currently active session id (source
// filename), or "" if no session has started yet.
func (t *Tracker) ActiveSession() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// MarkSeen records path as previously encountered without transitioning
// state, used by the backfill pipeline to pre-seed "seen" status as
// files are processed in order.
func (t *Tracker) MarkSeen(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[filepath.Base(path)] = true
}

func separatorBody(from, to string, resumed bool) string {
	if resumed {
		return "session resumed: " + from + " -> " + to
	}
	return "session changed: " + from + " -> " + to
}
