package orchestrator

import (
	"time"

	"continuum/internal/domain"
	"continuum/internal/telemetry"
)

// command is the typed message every other task submits to the memory
// task's ordered queue. Only the memory task mutates scales, relationship
// state, and the checkpoint index, per spec.md §4.9 — this is the single
// channel through which that rule is enforced.
type command interface{ isCommand() }

// ingestCommand carries a message and its already-computed affect (or a
// zero Affect for a separator, which Engine ignores) from the watcher's
// I/O task and the bounded analyzer pool into the memory task.
type ingestCommand struct {
	msg    domain.Message
	affect domain.Affect
	done   chan struct{}
}

func (ingestCommand) isCommand() {}

// checkpointCommand asks the memory task to write a checkpoint. An empty
// trigger means "evaluate whether one is due" (the periodic poller's use
// case); any other value creates one unconditionally (manual/error/
// shutdown).
type checkpointCommand struct {
	trigger domain.CheckpointTrigger
	at      time.Time
	done    chan error
}

func (checkpointCommand) isCommand() {}

type consolidateCommand struct {
	at   time.Time
	done chan error
}

func (consolidateCommand) isCommand() {}

type projectCommand struct {
	at   time.Time
	done chan error
}

func (projectCommand) isCommand() {}

// snapshotCommand answers a telemetry collection callback with a
// point-in-time read of engine state. Reads never mutate, but they still
// go through the memory task since Engine is not safe for concurrent
// access.
type snapshotCommand struct {
	result chan telemetrySnapshotResult
}

func (snapshotCommand) isCommand() {}

// telemetrySnapshotResult carries a snapshotCommand's answer back to the
// caller (the telemetry callback goroutine).
type telemetrySnapshotResult struct {
	snapshot telemetry.Snapshot
}
