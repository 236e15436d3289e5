// Package watcher implements the message store watcher (spec component
// C1): it tails append-only, line-delimited JSON session logs in a
// watched directory and delivers new records downstream at least once,
// with resumable per-file offsets. Structurally grounded on the
// teacher corpus's fsnotify-driven debounced directory watcher, adapted
// from one-shot validation-on-change to a durable tail-and-emit pipeline.
package watcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"continuum/internal/domain"
	"continuum/internal/errkind"
)

// Handler receives normalized events in file-append order. HandleMessage
// must not return until the message has been durably enqueued downstream;
// the watcher only advances its persisted offset after this call
// succeeds, so a crash between the two causes a duplicate on restart.
// Nothing downstream filters repeated message IDs, so such a duplicate
// is ingested a second time.
type Handler interface {
	HandleMessage(ctx context.Context, msg domain.Message) error
	HandleNewFile(ctx context.Context, path string) error
}

const (
	debounceWindow = 100 * time.Millisecond
	debounceTick   = 50 * time.Millisecond
	retryBase      = 100 * time.Millisecond
	retryCap       = 30 * time.Second
)

// Watcher tails every file in watchDir and feeds Handler in file-append
// order, one file at a time, debouncing rapid write bursts.
type Watcher struct {
	mu          sync.Mutex
	watchDir    string
	offsets     *OffsetStore
	handler     Handler
	logger      *zap.Logger
	fsw         *fsnotify.Watcher
	debounceMap map[string]time.Time
	seqCounters map[string]uint64
	seenFiles   map[string]bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

func New(watchDir string, offsets *OffsetStore, handler Handler, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: create fsnotify watcher: %w", err)
	}
	return &Watcher{
		watchDir:    watchDir,
		offsets:     offsets,
		handler:     handler,
		logger:      logger,
		fsw:         fsw,
		debounceMap: make(map[string]time.Time),
		seqCounters: make(map[string]uint64),
		seenFiles:   make(map[string]bool),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start scans pre-existing files in modification-time order, processes
// the bytes past each one's persisted offset, then subscribes to
// filesystem change events for subsequently appended or created files.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.watchDir, 0o755); err != nil {
		return errkind.New(errkind.StateIO, "watcher.Start", fmt.Errorf("mkdir watch dir: %w", err))
	}

	existing, err := w.listByModTime()
	if err != nil {
		return errkind.New(errkind.StateIO, "watcher.Start", err)
	}
	for _, path := range existing {
		w.seenFiles[filepath.Base(path)] = true
		w.processFileWithRetry(ctx, path)
	}

	if err := w.fsw.Add(w.watchDir); err != nil {
		return errkind.New(errkind.StateIO, "watcher.Start", fmt.Errorf("watch dir: %w", err))
	}

	go w.run(ctx)
	return nil
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("watcher: close fsnotify", zap.Error(err))
	}
}

func (w *Watcher) listByModTime() ([]string, error) {
	entries, err := os.ReadDir(w.watchDir)
	if err != nil {
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
		files = append(files, fileInfo{filepath.Join(w.watchDir, e.Name()), info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })

	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(debounceTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher: fsnotify error", zap.Error(err))
		case <-ticker.C:
			w.processDebounced(ctx)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	switch {
	case event.Op&fsnotify.Create != 0:
		w.mu.Lock()
		isNew := !w.seenFiles[filepath.Base(event.Name)]
		w.seenFiles[filepath.Base(event.Name)] = true
		w.mu.Unlock()
		if isNew {
			if err := w.handler.HandleNewFile(ctx, event.Name); err != nil {
				w.logger.Warn("watcher: handle new file", zap.String("path", event.Name), zap.Error(err))
			}
		}
		w.mu.Lock()
		w.debounceMap[event.Name] = time.Now()
		w.mu.Unlock()
	case event.Op&fsnotify.Write != 0:
		w.mu.Lock()
		w.debounceMap[event.Name] = time.Now()
		w.mu.Unlock()
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.logger.Debug("watcher: source removed or renamed", zap.String("path", event.Name))
	}
}

func (w *Watcher) processDebounced(ctx context.Context) {
	now := time.Now()
	var settled []string

	w.mu.Lock()
	for path, at := range w.debounceMap {
		if now.Sub(at) >= debounceWindow {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.processFileWithRetry(ctx, path)
	}
}

// processFileWithRetry retries I/O failures with exponential backoff
// (base 100ms, cap 30s, unbounded attempts within this call), per
// spec.md §4.1's failure semantics. It returns once processFile succeeds
// (the file was drained to EOF, or processing halted at a malformed line
// or a rejected message), or when the context is cancelled or the
// watcher is stopped.
func (w *Watcher) processFileWithRetry(ctx context.Context, path string) {
	backoff := retryBase
	for {
		err := w.processFile(ctx, path)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		w.logger.Warn("watcher: process file failed, retrying", zap.String("path", path), zap.Error(err), zap.Duration("backoff", backoff))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		}
		backoff *= 2
		if backoff > retryCap {
			backoff = retryCap
		}
	}
}

// processFile seeks to the persisted offset, reads line-by-line to EOF,
// parses and hands off each record, and persists the new offset only
// after the handler acknowledges — never before.
func (w *Watcher) processFile(ctx context.Context, path string) error {
	filename := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	offset, err := w.offsets.Get(filename)
	if err != nil {
		return fmt.Errorf("load offset for %s: %w", filename, err)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s to %d: %w", path, offset, err)
	}

	reader := bufio.NewReader(f)
	pos := offset

	w.mu.Lock()
	seq := w.seqCounters[filename]
	w.mu.Unlock()

	for {
		line, readErr := reader.ReadBytes('\n')
		if len(line) == 0 && readErr != nil {
			break
		}

		trimmed := strings.TrimRight(string(line), "\r\n")
		advance := int64(len(line))

		if strings.TrimSpace(trimmed) == "" {
			pos += advance
			if err := w.offsets.Set(filename, pos); err != nil {
				return fmt.Errorf("persist offset for %s: %w", filename, err)
			}
			if readErr != nil {
				break
			}
			continue
		}

		msg, parseErr := ParseLine(filename, seq, []byte(trimmed))
		if parseErr != nil {
			w.logger.Warn("watcher: malformed line, halting at offset until corrected",
				zap.String("path", path), zap.Int64("offset", pos), zap.Error(parseErr))
			break
		}

		if err := w.handler.HandleMessage(ctx, msg); err != nil {
			w.logger.Warn("watcher: downstream rejected message, halting at offset",
				zap.String("path", path), zap.Int64("offset", pos), zap.Error(err))
			break
		}

		seq++
		pos += advance
		if err := w.offsets.Set(filename, pos); err != nil {
			return fmt.Errorf("persist offset for %s: %w", filename, err)
		}

		if readErr != nil {
			break
		}
	}

	w.mu.Lock()
	w.seqCounters[filename] = seq
	w.mu.Unlock()

	return nil
}
