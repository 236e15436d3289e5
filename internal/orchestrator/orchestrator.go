// Package orchestrator wires every other component into the running
// engine (spec component C9): a dedicated watcher I/O task, a bounded
// analyzer worker pool, and a single memory task that is the only
// goroutine allowed to touch the Engine. Every cross-task call is a
// typed command on a bounded channel; back-pressure is the channel
// filling up and callers blocking on send, exactly as spec.md §4.9
// describes.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"continuum/internal/config"
	"continuum/internal/domain"
	"continuum/internal/session"
	"continuum/internal/statefs"
	"continuum/internal/telemetry"
	"continuum/internal/watcher"
)

const (
	cmdQueueDepth       = 64
	consolidateInterval = 15 * time.Minute
	checkpointPollEvery = 5 * time.Second
	healthInterval      = 30 * time.Second
)

// Orchestrator owns process lifetime: the pid lock, the watcher, the
// bounded analyzer pool, and the single memory task that mutates the
// Engine.
type Orchestrator struct {
	cfg    config.Config
	logger *zap.Logger

	engine  *Engine
	tracker *session.Tracker
	window  *contextWindow
	lock    *statefs.ProcessLock
	watch   *watcher.Watcher
	offsets *watcher.OffsetStore

	analyzeSem *semaphore.Weighted

	cmdCh chan command

	group  *errgroup.Group
	cancel context.CancelFunc

	lastCheckpointAt time.Time
	lastCheckpointMu sync.Mutex
	meterShutdown    func(context.Context) error
}

// New constructs the orchestrator and its Engine, but does not acquire
// the process lock or start any goroutine — call Start for that.
func New(cfg config.Config, logger *zap.Logger) (*Orchestrator, error) {
	engine, err := NewEngine(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build engine: %w", err)
	}

	return &Orchestrator{
		cfg:        cfg,
		logger:     logger,
		engine:     engine,
		tracker:    session.New(false),
		window:     newContextWindow(),
		offsets:    watcher.NewOffsetStore(filepath.Join(cfg.StateDir, "offsets")),
		analyzeSem: semaphore.NewWeighted(int64(cfg.Analyzer.WorkerPoolSize())),
		cmdCh:      make(chan command, cmdQueueDepth),
	}, nil
}

// Start acquires the state-directory pid lock, wires the watcher, starts
// the memory task and periodic tasks, and begins tailing watchDir. It
// returns after the watcher has processed the files already present in
// watchDir; ongoing work continues in background goroutines until
// Shutdown is called.
func (o *Orchestrator) Start(parent context.Context) error {
	lock, ok, err := statefs.AcquireProcessLock(filepath.Join(o.cfg.StateDir, "pid.lock"))
	if err != nil {
		return fmt.Errorf("orchestrator: acquire state lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("orchestrator: state directory %s is locked by another process", o.cfg.StateDir)
	}
	o.lock = lock

	if shutdownMeter, err := telemetry.InitMeterProvider(parent, "continuum", healthInterval); err != nil {
		o.logger.Warn("orchestrator: metrics exporter unavailable, continuing without it", zap.Error(err))
	} else {
		o.meterShutdown = shutdownMeter
	}
	if health, err := telemetry.NewHealth("continuum", o.telemetrySnapshot); err != nil {
		o.logger.Warn("orchestrator: health instrument registration failed", zap.Error(err))
	} else {
		o.engine.AttachHealth(health)
	}

	w, err := watcher.New(o.cfg.WatchDir, o.offsets, o, o.logger)
	if err != nil {
		lock.Release()
		return fmt.Errorf("orchestrator: build watcher: %w", err)
	}
	o.watch = w

	ctx, cancel := context.WithCancel(parent)
	o.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { o.runMemoryTask(gctx); return nil })
	g.Go(func() error { o.runPeriodic(gctx); return nil })
	o.group = g

	if err := o.watch.Start(ctx); err != nil {
		o.Shutdown(context.Background())
		return fmt.Errorf("orchestrator: start watcher: %w", err)
	}
	return nil
}

// Shutdown stops the watcher, writes a final shutdown checkpoint through
// the still-running memory task, then tears down the periodic tasks and
// releases the process lock. Safe to call once after Start.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	if o.watch != nil {
		o.watch.Stop()
	}

	done := make(chan error, 1)
	select {
	case o.cmdCh <- checkpointCommand{trigger: domain.TriggerShutdown, at: time.Now(), done: done}:
		select {
		case err := <-done:
			if err != nil {
				o.logger.Warn("orchestrator: final shutdown checkpoint failed", zap.Error(err))
			}
		case <-time.After(10 * time.Second):
			o.logger.Warn("orchestrator: timed out waiting for shutdown checkpoint")
		}
	default:
		o.logger.Warn("orchestrator: command queue full at shutdown, skipping final checkpoint")
	}

	close(o.cmdCh)
	if o.cancel != nil {
		o.cancel()
	}
	if o.group != nil {
		_ = o.group.Wait()
	}

	if o.meterShutdown != nil {
		if err := o.meterShutdown(ctx); err != nil {
			o.logger.Warn("orchestrator: metrics shutdown failed", zap.Error(err))
		}
	}
	if o.lock != nil {
		if err := o.lock.Release(); err != nil {
			o.logger.Warn("orchestrator: release state lock failed", zap.Error(err))
		}
	}
}

// HandleNewFile implements watcher.Handler. It is purely informational;
// session bookkeeping happens per-message in HandleMessage via the
// tracker, which keys off the message's own session id.
func (o *Orchestrator) HandleNewFile(_ context.Context, path string) error {
	o.logger.Info("orchestrator: new session source discovered", zap.String("path", path))
	return nil
}

// HandleMessage implements watcher.Handler, running in the watcher's
// dedicated I/O task. It detects a session switch, runs the bounded
// affective analysis (gated by analyzeSem, the worker pool spec.md §4.9
// names), and hands the fully-analyzed message off to the memory task —
// blocking on the channel send expresses the watcher-blocks-on-enqueue
// back-pressure spec.md §4.9 calls for.
func (o *Orchestrator) HandleMessage(ctx context.Context, msg domain.Message) error {
	if sep := o.tracker.Observe(msg.SessionID, msg.Timestamp); sep != nil {
		if err := o.enqueueIngest(ctx, *sep, domain.Affect{}); err != nil {
			return err
		}
	}

	if msg.IsSeparator() {
		return o.enqueueIngest(ctx, msg, domain.Affect{})
	}

	if err := o.analyzeSem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("orchestrator: acquire analyzer slot: %w", err)
	}
	window := o.window.Append(msg)
	affectResult, err := o.engine.Analyze(ctx, msg, window)
	o.analyzeSem.Release(1)
	if err != nil {
		return fmt.Errorf("orchestrator: analyze message %s: %w", msg.ID, err)
	}

	return o.enqueueIngest(ctx, msg, affectResult)
}

func (o *Orchestrator) enqueueIngest(ctx context.Context, msg domain.Message, affectResult domain.Affect) error {
	done := make(chan struct{})
	cmd := ingestCommand{msg: msg, affect: affectResult, done: done}

	select {
	case o.cmdCh <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// runMemoryTask is the single goroutine allowed to call into Engine. It
// drains cmdCh in order for the lifetime of the process.
func (o *Orchestrator) runMemoryTask(ctx context.Context) {
	for cmd := range o.cmdCh {
		switch c := cmd.(type) {
		case ingestCommand:
			if err := o.engine.IngestAnalyzed(ctx, c.msg, c.affect); err != nil {
				o.logger.Warn("orchestrator: ingest failed", zap.String("message_id", c.msg.ID), zap.Error(err))
			}
			close(c.done)

		case checkpointCommand:
			err := o.handleCheckpoint(ctx, c.trigger, c.at)
			if c.done != nil {
				c.done <- err
			}

		case consolidateCommand:
			err := o.engine.Consolidate(ctx, c.at)
			if err != nil {
				o.logger.Warn("orchestrator: consolidation failed", zap.Error(err))
			}
			if c.done != nil {
				c.done <- err
			}

		case projectCommand:
			// Projection already happens inline after every ingest and
			// consolidation pass; this command exists for the CLI's
			// export-briefing subcommand to force a fresh render.
			err := o.engine.project(c.at)
			if c.done != nil {
				c.done <- err
			}

		case snapshotCommand:
			o.lastCheckpointMu.Lock()
			at := o.lastCheckpointAt
			o.lastCheckpointMu.Unlock()
			c.result <- telemetrySnapshotResult{snapshot: o.engine.TelemetrySnapshot(at)}
		}
	}
}

// handleCheckpoint creates a checkpoint unconditionally for an explicit
// trigger (manual/error/shutdown), or, for the empty trigger the periodic
// poller sends, asks the engine's trigger evaluator whether one is due
// and creates it only then.
func (o *Orchestrator) handleCheckpoint(ctx context.Context, trigger domain.CheckpointTrigger, at time.Time) error {
	if trigger == "" {
		due, ok := o.engine.triggerEval.Due(at, 0, false)
		if !ok {
			return nil
		}
		trigger = due
	}
	if _, err := o.engine.Checkpoint(ctx, trigger, at); err != nil {
		return err
	}
	o.lastCheckpointMu.Lock()
	o.lastCheckpointAt = at
	o.lastCheckpointMu.Unlock()
	return nil
}

// runPeriodic drives the consolidation and checkpoint-poll tasks on
// their own tickers, submitting commands rather than touching the
// Engine directly. The health task needs no ticker of its own: the
// OpenTelemetry periodic reader installed in Start invokes
// telemetrySnapshot on its own schedule.
func (o *Orchestrator) runPeriodic(ctx context.Context) {
	consolidateTicker := time.NewTicker(consolidateInterval)
	defer consolidateTicker.Stop()
	checkpointTicker := time.NewTicker(checkpointPollEvery)
	defer checkpointTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-consolidateTicker.C:
			o.submit(ctx, consolidateCommand{at: now, done: make(chan error, 1)})
		case now := <-checkpointTicker.C:
			o.submit(ctx, checkpointCommand{trigger: "", at: now, done: make(chan error, 1)})
		}
	}
}

func (o *Orchestrator) submit(ctx context.Context, cmd command) {
	select {
	case o.cmdCh <- cmd:
	case <-ctx.Done():
	}
}

// telemetrySnapshot is the callback OpenTelemetry invokes on each metrics
// collection. It round-trips through the memory task via snapshotCommand
// so it never reads Engine state from outside the owning goroutine.
func (o *Orchestrator) telemetrySnapshot() telemetry.Snapshot {
	result := make(chan telemetrySnapshotResult, 1)
	select {
	case o.cmdCh <- snapshotCommand{result: result}:
	case <-time.After(time.Second):
		return telemetry.Snapshot{}
	}
	select {
	case r := <-result:
		return r.snapshot
	case <-time.After(time.Second):
		return telemetry.Snapshot{}
	}
}
