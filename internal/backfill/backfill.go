// Package backfill implements the one-shot history backfill analyzer
// (spec component C10): on first run it scans every pre-existing session
// log already sitting in the watch directory, replays it through the
// same ingestion pipeline the live orchestrator uses, and marks itself
// done with a persistent sentinel so later starts skip straight to
// steady-state processing.
//
// Unlike the live orchestrator, backfill runs single-threaded: session
// separators are suppressed, there is no bounded analyzer pool and no
// command queue, and a backfill-complete checkpoint is written at the
// very end. The usual triggers are not suppressed: Engine.Ingest still
// evaluates them after each message, so triggered checkpoints can also be
// written during the replay. It reuses orchestrator.NewEngine
// directly, since Engine's Ingest already serializes analysis and
// admission for a single caller.
package backfill

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"continuum/internal/config"
	"continuum/internal/domain"
	"continuum/internal/errkind"
	"continuum/internal/orchestrator"
	"continuum/internal/session"
	"continuum/internal/watcher"
)

const (
	sentinelName   = "backfill_complete"
	progressEveryN = 10
)

// Result summarizes one backfill run, returned so the CLI's run
// subcommand can log a final tally.
type Result struct {
	Skipped        bool
	FilesProcessed int
	MessagesTotal  int
}

// Run performs the one-shot backfill if it has not already completed for
// this state directory, then writes the sentinel. It is idempotent:
// calling it again after a successful run is a no-op.
func Run(ctx context.Context, cfg config.Config, logger *zap.Logger) (Result, error) {
	sentinelPath := filepath.Join(cfg.StateDir, sentinelName)
	if _, err := os.Stat(sentinelPath); err == nil {
		return Result{Skipped: true}, nil
	}

	engine, err := orchestrator.NewEngine(cfg, logger)
	if err != nil {
		return Result{}, fmt.Errorf("backfill: build engine: %w", err)
	}

	files, err := listByModTime(cfg.WatchDir)
	if err != nil {
		return Result{}, errkind.New(errkind.StateIO, "backfill.Run", err)
	}

	offsets := watcher.NewOffsetStore(filepath.Join(cfg.StateDir, "offsets"))
	tracker := session.New(true)

	result := Result{FilesProcessed: len(files)}
	for i, path := range files {
		n, err := backfillFile(ctx, engine, tracker, offsets, path)
		if err != nil {
			return result, fmt.Errorf("backfill: process %s: %w", path, err)
		}
		result.MessagesTotal += n

		if (i+1)%progressEveryN == 0 || i == len(files)-1 {
			logger.Info("backfill: progress",
				zap.Int("files_done", i+1),
				zap.Int("files_total", len(files)),
				zap.Int("messages_total", result.MessagesTotal))
		}
	}

	now := time.Now()
	if _, err := engine.Checkpoint(ctx, domain.TriggerBackfillComplete, now); err != nil {
		return result, fmt.Errorf("backfill: final checkpoint: %w", err)
	}

	if err := os.WriteFile(sentinelPath, []byte(now.UTC().Format(time.RFC3339)), 0o644); err != nil {
		return result, errkind.New(errkind.StateIO, "backfill.Run", fmt.Errorf("write sentinel: %w", err))
	}

	return result, nil
}

// backfillFile drains one log file from its persisted offset to EOF,
// ingesting every well-formed line through engine and tracker exactly as
// the live watcher's processFile does, but without fsnotify or retry:
// a malformed line halts this file at its offset, same as steady-state.
func backfillFile(ctx context.Context, engine *orchestrator.Engine, tracker *session.Tracker, offsets *watcher.OffsetStore, path string) (int, error) {
	filename := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	offset, err := offsets.Get(filename)
	if err != nil {
		return 0, fmt.Errorf("load offset: %w", err)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to %d: %w", offset, err)
	}

	reader := bufio.NewReader(f)
	pos := offset
	var seq uint64
	count := 0

	for {
		line, readErr := reader.ReadBytes('\n')
		if len(line) == 0 && readErr != nil {
			break
		}

		trimmed := strings.TrimRight(string(line), "\r\n")
		advance := int64(len(line))

		if strings.TrimSpace(trimmed) == "" {
			pos += advance
			if err := offsets.Set(filename, pos); err != nil {
				return count, fmt.Errorf("persist offset: %w", err)
			}
			if readErr != nil {
				break
			}
			continue
		}

		msg, parseErr := watcher.ParseLine(filename, seq, []byte(trimmed))
		if parseErr != nil {
			break
		}

		if sep := tracker.Observe(msg.SessionID, msg.Timestamp); sep != nil {
			if err := engine.Ingest(ctx, *sep); err != nil {
				return count, fmt.Errorf("ingest separator: %w", err)
			}
		}
		if err := engine.Ingest(ctx, msg); err != nil {
			return count, fmt.Errorf("ingest message %s: %w", msg.ID, err)
		}
		count++

		seq++
		pos += advance
		if err := offsets.Set(filename, pos); err != nil {
			return count, fmt.Errorf("persist offset: %w", err)
		}
		if readErr != nil {
			break
		}
	}

	return count, nil
}

func listByModTime(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read watch dir: %w", err)
	}

	type fileInfo struct {
		path string
		mod  time.Time
	}
	var files []fileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{filepath.Join(dir, e.Name()), info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })

	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}
