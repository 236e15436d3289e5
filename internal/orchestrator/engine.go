package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"continuum/internal/affect"
	"continuum/internal/checkpoint"
	"continuum/internal/config"
	"continuum/internal/domain"
	"continuum/internal/living"
	"continuum/internal/llmclient"
	"continuum/internal/memory"
	"continuum/internal/projector"
	"continuum/internal/scoring"
	"continuum/internal/telemetry"
)

// Engine holds every piece of mutable engine state and the one pipeline
// that advances it: relationship dynamics, the memory hierarchy,
// landmark bookkeeping, and checkpoint/projection side effects. It is
// deliberately NOT safe for concurrent use — per spec.md §4.9 a single
// memory task owns it, serializing every call through Ingest,
// Consolidate, and Checkpoint. Orchestrator enforces that by routing all
// access through its command queue; internal/backfill enforces it by
// construction, running single-threaded.
type Engine struct {
	cfg    config.Config
	logger *zap.Logger

	analyzer     *affect.Analyzer
	evolver      *living.Evolver
	hierarchy    *memory.Hierarchy
	landmarks    *memory.LandmarkDetector
	scorer       *scoring.Scorer
	consolidator *scoring.Consolidator
	checkpoints  *checkpoint.Manager
	triggerEval  *checkpoint.TriggerEvaluator
	projector    *projector.Projector
	health       *telemetry.Health

	session      domain.SessionContext
	recentWindow []domain.Message
	lastMessage  *domain.Message
	lastAffect   *domain.Affect
}

// NewEngine wires every component from cfg, attempts to restore the most
// recent checkpoint (a missing or unreadable one is not fatal — the
// engine simply starts fresh, logged at warn), and returns ready to
// Ingest.
func NewEngine(cfg config.Config, logger *zap.Logger) (*Engine, error) {
	primary := analyzerBackend(cfg.Analyzer)
	fallback := llmclient.NewRulesBackend()

	e := &Engine{
		cfg:          cfg,
		logger:       logger,
		analyzer:     affect.New(primary, fallback, logger),
		evolver:      living.NewEvolver(cfg.LivingEquation, domain.DefaultRelationshipState(), logger),
		hierarchy:    memory.NewHierarchy(cfg.Scales),
		landmarks:    memory.NewLandmarkDetector(cfg.Landmarks),
		scorer:       scoring.NewScorer(cfg.Scoring, cfg.Landmarks),
		checkpoints:  checkpoint.NewManager(cfg.Checkpoint, logger),
		triggerEval:  checkpoint.NewTriggerEvaluator(cfg.Checkpoint, time.Now()),
		projector:    projector.New(cfg.StateDir, cfg.Projector, logger),
	}
	summarizer := scoring.NewSummarizer(primary, logger, cfg.Analyzer.Timeout())
	e.consolidator = scoring.NewConsolidator(e.scorer, summarizer, logger)

	if err := e.restore(); err != nil {
		logger.Warn("engine: starting without a prior checkpoint", zap.Error(err))
	}

	return e, nil
}

func analyzerBackend(cfg config.AnalyzerConfig) llmclient.Backend {
	switch cfg.Backend {
	case config.AnalyzerLocal, config.AnalyzerRemote:
		apiKey := os.Getenv(cfg.APIKeyEnv)
		return llmclient.NewOpenAIBackend(apiKey, cfg.BaseURL, cfg.Model, cfg.Timeout())
	default:
		return llmclient.NewRulesBackend()
	}
}

// AttachHealth wires the OpenTelemetry health-snapshot instruments,
// called once by Orchestrator.Start after the engine is constructed.
func (e *Engine) AttachHealth(h *telemetry.Health) { e.health = h }

// Relationship returns the evolver's current state.
func (e *Engine) Relationship() domain.RelationshipState { return e.evolver.State() }

// Hierarchy exposes the memory hierarchy for read-only callers
// (projector input assembly, telemetry snapshots) run from within the
// single task that owns the Engine.
func (e *Engine) Hierarchy() *memory.Hierarchy { return e.hierarchy }

// Session returns the current session bookkeeping.
func (e *Engine) Session() domain.SessionContext { return e.session }

// Ingest runs the full per-message pipeline: affect analysis, discrete
// living-equation event, memory admission, landmark detection/copy,
// checkpoint-trigger evaluation, and a projector refresh. A separator
// message short-circuits to just the living-equation separation event
// and session bookkeeping, per spec.md §4.2/§4.4. Ingest runs the
// analysis itself, via the single-threaded caller's own recent-window
// bookkeeping; the orchestrator's memory task instead calls
// IngestAnalyzed with affect already computed by the bounded analyzer
// pool, so analysis never blocks the memory task.
func (e *Engine) Ingest(ctx context.Context, msg domain.Message) error {
	if msg.IsSeparator() {
		return e.ingestSeparator(msg)
	}

	e.recentWindow = append(e.recentWindow, msg)
	if len(e.recentWindow) > windowSize {
		e.recentWindow = e.recentWindow[len(e.recentWindow)-windowSize:]
	}

	affectResult, err := e.analyzer.Analyze(ctx, msg, e.recentWindow)
	if err != nil {
		return fmt.Errorf("engine: analyze message %s: %w", msg.ID, err)
	}
	return e.IngestAnalyzed(ctx, msg, affectResult)
}

// Analyze runs the affective analysis backend over window, with no
// Engine state touched, so it is safe to call concurrently from the
// orchestrator's bounded analyzer worker pool, outside the memory task.
func (e *Engine) Analyze(ctx context.Context, target domain.Message, window []domain.Message) (domain.Affect, error) {
	return e.analyzer.Analyze(ctx, target, window)
}

func (e *Engine) ingestSeparator(msg domain.Message) error {
	now := msg.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	e.evolver.ApplyEvent(now, living.Context{}, living.EventSeparation, 1.0)
	e.session.ActiveSessionID = msg.SessionID
	return e.project(now)
}

// IngestAnalyzed runs everything Ingest does after analysis, given an
// already-computed Affect: discrete living-equation event, memory
// admission, landmark detection/copy, checkpoint-trigger evaluation, and
// a projector refresh.
func (e *Engine) IngestAnalyzed(ctx context.Context, msg domain.Message, affectResult domain.Affect) error {
	if msg.IsSeparator() {
		return e.ingestSeparator(msg)
	}

	now := msg.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	before := e.evolver.State()
	kind, intensity := living.ClassifyEvent(affectResult, false)
	after := e.evolver.ApplyEvent(now, living.ContextFromAffect(affectResult), kind, intensity)
	delta := before.Delta(after)

	entryID := domain.DeriveEntryID(domain.KindRawMessage, msg.Content, msg.Timestamp)
	rawEntry := domain.MemoryEntry{
		ID:        entryID,
		Kind:      domain.KindRawMessage,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
		Affect:    &affectResult,
	}
	rawEntry.Importance = e.scorer.Score(rawEntry, now, delta)
	e.hierarchy.Admit(domain.ScaleImmediate, rawEntry)

	landmarkKinds := e.landmarks.Detect(msg, affectResult)
	isAccomplishment := false
	for _, lk := range landmarkKinds {
		if lk == domain.KindAccomplishment {
			isAccomplishment = true
		}
		entry := domain.MemoryEntry{
			ID:        domain.DeriveEntryID(lk, msg.Content, msg.Timestamp),
			Kind:      lk,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
			Affect:    &affectResult,
		}
		entry.Importance = e.scorer.Score(entry, now, delta)
		scoring.CopyLandmark(e.hierarchy, entry)
	}

	e.session.ActiveSessionID = msg.SessionID
	e.session.LastMessageAt = msg.Timestamp
	e.session.MessagesTotal++
	e.triggerEval.RecordMessage()
	e.lastMessage = &msg
	e.lastAffect = &affectResult

	if trigger, due := e.triggerEval.Due(now, affectResult.Intensity, isAccomplishment); due {
		if _, err := e.Checkpoint(ctx, trigger, now); err != nil {
			e.logger.Warn("engine: triggered checkpoint failed", zap.Error(err))
		}
	}

	return e.project(now)
}

// Consolidate runs one migration pass over every non-terminal scale.
func (e *Engine) Consolidate(ctx context.Context, now time.Time) error {
	delta := func(string) float64 { return 0 }
	if err := e.consolidator.MigrateAll(ctx, e.hierarchy, now, scoring.RelationshipDeltaFunc(delta)); err != nil {
		return fmt.Errorf("engine: consolidate: %w", err)
	}
	return e.project(now)
}

// Checkpoint snapshots the engine's full state and writes it through the
// checkpoint manager's fan-out protocol, resetting the trigger evaluator
// on success.
func (e *Engine) Checkpoint(ctx context.Context, trigger domain.CheckpointTrigger, now time.Time) (domain.Checkpoint, error) {
	snapshot := domain.Checkpoint{
		Relationship: e.evolver.State(),
		Scales:       e.scaleSnapshots(),
		Session:      e.session,
		Summary:      e.stateSummary(),
		Landmarks:    e.landmarks.Snapshot(),
	}

	cp, err := e.checkpoints.Create(snapshot, trigger, now)
	if err != nil {
		return cp, fmt.Errorf("engine: checkpoint: %w", err)
	}
	e.triggerEval.RecordCheckpoint(now)
	if e.health != nil {
		e.health.RecordCheckpoint(ctx)
	}
	return cp, nil
}

// Restore is exported for the CLI's `restore` subcommand, which replays
// a selected checkpoint into a fresh engine rather than the latest one
// found at startup.
func (e *Engine) Restore() error { return e.restore() }

// RestoreByID replays a specific checkpoint rather than whichever is
// latest, for the CLI's `restore --checkpoint-id` subcommand.
func (e *Engine) RestoreByID(id string) error {
	cp, err := e.checkpoints.RestoreByID(id)
	if err != nil {
		return err
	}
	e.applyCheckpoint(cp)
	return nil
}

// ListCheckpoints returns the checkpoint index for the CLI's
// `list-checkpoints` subcommand.
func (e *Engine) ListCheckpoints() (checkpoint.Index, error) {
	return e.checkpoints.ListCheckpoints()
}

// ProjectNow forces an immediate briefing/context re-render, for the
// CLI's `export-briefing` subcommand.
func (e *Engine) ProjectNow(now time.Time) error { return e.project(now) }

// StateDir exposes the configured state directory so the CLI can locate
// rendered artifacts (briefing.md and friends) without re-deriving cfg.
func (e *Engine) StateDir() string { return e.cfg.StateDir }

func (e *Engine) restore() error {
	cp, err := e.checkpoints.Restore()
	if err != nil {
		return err
	}
	e.applyCheckpoint(cp)
	return nil
}

func (e *Engine) applyCheckpoint(cp domain.Checkpoint) {
	e.evolver.Restore(cp.Relationship, cp.CreatedAt)
	e.session = cp.Session
	e.landmarks.Restore(cp.Landmarks)
	for scale, snap := range cp.Scales {
		for _, entry := range snap.Entries {
			e.hierarchy.Admit(scale, entry)
		}
	}
}

func (e *Engine) scaleSnapshots() map[domain.Scale]domain.ScaleSnapshot {
	out := make(map[domain.Scale]domain.ScaleSnapshot, 4)
	for _, scale := range []domain.Scale{domain.ScaleImmediate, domain.ScaleShortTerm, domain.ScaleLongTerm, domain.ScaleLifetime} {
		out[scale] = domain.ScaleSnapshot{Entries: e.hierarchy.Store(scale).Entries}
	}
	return out
}

func (e *Engine) stateSummary() domain.StateSummary {
	counts := make(map[domain.Scale]int, 4)
	for scale, snap := range e.scaleSnapshots() {
		counts[scale] = len(snap.Entries)
	}
	summary := domain.StateSummary{ScaleCounts: counts}
	if e.lastAffect != nil {
		summary.CurrentEmotion = e.lastAffect.PrimaryEmotion
		summary.CurrentIntensity = e.lastAffect.Intensity
	}
	return summary
}

func (e *Engine) project(now time.Time) error {
	in := projector.Input{
		GeneratedAt:  now,
		Relationship: e.evolver.State(),
		Hierarchy:    e.hierarchy,
		LastMessage:  e.lastMessage,
		LastAffect:   e.lastAffect,
		Session:      e.session,
	}
	if err := e.projector.Project(in); err != nil {
		return fmt.Errorf("engine: project: %w", err)
	}
	return nil
}

// TelemetrySnapshot builds the health-metrics snapshot, called from
// within the owning task in response to a metrics collection callback.
func (e *Engine) TelemetrySnapshot(lastCheckpointAt time.Time) telemetry.Snapshot {
	counts := make(map[string]int64, 4)
	for scale, snap := range e.scaleSnapshots() {
		counts[string(scale)] = int64(len(snap.Entries))
	}
	state := e.evolver.State()

	age := 0.0
	if !lastCheckpointAt.IsZero() {
		age = time.Since(lastCheckpointAt).Seconds()
	}

	return telemetry.Snapshot{
		ScaleCounts:       counts,
		MessagesProcessed: int64(e.session.MessagesTotal),
		CheckpointAgeSecs: age,
		Connection:        state.Connection,
		Resonance:         state.Resonance,
		Growth:            state.Growth,
		Trust:             state.Trust,
	}
}
