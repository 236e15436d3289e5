// Package checkpoint implements the multi-trigger, atomic, fan-out
// persistence layer (spec component C7): serializing the full engine
// state to every configured target directory, rotating old checkpoints
// into compressed archives, and restoring on startup.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"continuum/internal/config"
	"continuum/internal/domain"
	"continuum/internal/errkind"
	"continuum/internal/statefs"
)

// Manager owns the fan-out write protocol, rotation, and restore across
// every configured target directory.
type Manager struct {
	targets     []string
	maxRetained int
	logger      *zap.Logger
}

func NewManager(cfg config.CheckpointConfig, logger *zap.Logger) *Manager {
	return &Manager{targets: cfg.Targets, maxRetained: cfg.MaxRetained, logger: logger}
}

// Create writes snapshot as a new checkpoint to every target, per
// spec.md §4.7's write protocol. It assigns ID/CreatedAt/Trigger onto
// snapshot before serializing, and returns the finished Checkpoint.
func (m *Manager) Create(snapshot domain.Checkpoint, trigger domain.CheckpointTrigger, at time.Time) (domain.Checkpoint, error) {
	snapshot.Version = domain.SchemaVersion
	snapshot.ID = GenerateID(at)
	snapshot.CreatedAt = at
	snapshot.Trigger = trigger

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return snapshot, errkind.New(errkind.StateIO, "checkpoint.Create", fmt.Errorf("marshal state: %w", err))
	}

	succeeded := 0
	for _, target := range m.targets {
		if err := m.writeToTarget(target, snapshot.ID, payload, trigger, at); err != nil {
			m.logger.Warn("checkpoint target write failed",
				zap.String("target", target), zap.String("checkpoint_id", snapshot.ID), zap.Error(err))
			continue
		}
		succeeded++
	}

	if succeeded == 0 {
		return snapshot, errkind.New(errkind.StateIO, "checkpoint.Create",
			fmt.Errorf("all %d targets failed for checkpoint %s", len(m.targets), snapshot.ID))
	}

	m.logger.Info("checkpoint created",
		zap.String("checkpoint_id", snapshot.ID),
		zap.String("trigger", string(trigger)),
		zap.Int("targets_succeeded", succeeded),
		zap.Int("targets_total", len(m.targets)))

	return snapshot, nil
}

func (m *Manager) writeToTarget(target, id string, payload []byte, trigger domain.CheckpointTrigger, at time.Time) error {
	checkpointsDir := filepath.Join(target, "checkpoints")
	statePath := filepath.Join(checkpointsDir, id, "state.json")
	if err := statefs.WriteAtomic(statePath, payload, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	indexPath := filepath.Join(checkpointsDir, "index.json")
	idx, err := readIndex(indexPath)
	if err != nil {
		m.logger.Warn("checkpoint index unreadable, starting fresh", zap.String("target", target), zap.Error(err))
		idx = Index{}
	}
	idx = idx.Append(IndexEntry{
		ID: id, CreatedAt: at, Trigger: trigger,
		SizeBytes: int64(len(payload)),
	})

	kept, dropped := idx.Prune(m.maxRetained)
	for _, e := range dropped {
		m.rotateOut(checkpointsDir, e)
	}
	for i := range kept.Entries {
		if kept.Entries[i].ID == id {
			kept.Entries[i].SizeBytes = dirSize(filepath.Join(checkpointsDir, id))
		}
	}

	encoded, err := kept.encode()
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := statefs.WriteAtomic(indexPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	latestPath := filepath.Join(checkpointsDir, "latest")
	if err := statefs.WriteAtomic(latestPath, []byte(id), 0o644); err != nil {
		return fmt.Errorf("write latest pointer: %w", err)
	}
	return nil
}

// rotateOut compresses a dropped checkpoint directory into a tar.gz
// archive. Failure to compress is logged, never fatal — rotation has
// already removed the entry from the active index.
func (m *Manager) rotateOut(checkpointsDir string, entry IndexEntry) {
	dir := filepath.Join(checkpointsDir, entry.ID)
	if _, err := os.Stat(dir); err != nil {
		return
	}
	if _, err := compressDir(dir); err != nil {
		m.logger.Warn("checkpoint rotation compress failed", zap.String("checkpoint_id", entry.ID), zap.Error(err))
	}
}

func readIndex(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Index{}, nil
		}
		return Index{}, err
	}
	return decodeIndex(data)
}

// Restore tries each target in configured preference order, loading the
// "latest" checkpoint that parses and passes the schema-version check
// (spec.md §4.7 restore contract).
func (m *Manager) Restore() (domain.Checkpoint, error) {
	var lastErr error
	for _, target := range m.targets {
		cp, err := m.restoreFromTarget(target)
		if err != nil {
			lastErr = err
			m.logger.Warn("checkpoint restore failed for target", zap.String("target", target), zap.Error(err))
			continue
		}
		return cp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no targets configured")
	}
	return domain.Checkpoint{}, errkind.New(errkind.StateIO, "checkpoint.Restore", lastErr)
}

func (m *Manager) restoreFromTarget(target string) (domain.Checkpoint, error) {
	checkpointsDir := filepath.Join(target, "checkpoints")
	latestID, err := os.ReadFile(filepath.Join(checkpointsDir, "latest"))
	if err != nil {
		return domain.Checkpoint{}, fmt.Errorf("read latest pointer: %w", err)
	}
	return m.readCheckpoint(checkpointsDir, string(latestID))
}

func (m *Manager) readCheckpoint(checkpointsDir, id string) (domain.Checkpoint, error) {
	data, err := os.ReadFile(filepath.Join(checkpointsDir, id, "state.json"))
	if err != nil {
		return domain.Checkpoint{}, fmt.Errorf("read state: %w", err)
	}

	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return domain.Checkpoint{}, fmt.Errorf("decode state: %w", err)
	}
	if cp.Version > domain.SchemaVersion {
		return domain.Checkpoint{}, errkind.New(errkind.SchemaMismatch, "checkpoint.readCheckpoint",
			fmt.Errorf("checkpoint schema version %d newer than supported %d", cp.Version, domain.SchemaVersion))
	}
	return cp, nil
}

// RestoreByID loads a specific checkpoint instead of whichever is latest,
// used by the CLI's `restore --checkpoint-id` subcommand.
func (m *Manager) RestoreByID(id string) (domain.Checkpoint, error) {
	var lastErr error
	for _, target := range m.targets {
		cp, err := m.readCheckpoint(filepath.Join(target, "checkpoints"), id)
		if err != nil {
			lastErr = err
			m.logger.Warn("checkpoint restore by id failed for target", zap.String("target", target), zap.String("checkpoint_id", id), zap.Error(err))
			continue
		}
		return cp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no targets configured")
	}
	return domain.Checkpoint{}, errkind.New(errkind.StateIO, "checkpoint.RestoreByID", lastErr)
}

// ListCheckpoints returns the index for the first target that has one,
// used by the `list-checkpoints` CLI subcommand.
func (m *Manager) ListCheckpoints() (Index, error) {
	var lastErr error
	for _, target := range m.targets {
		idx, err := readIndex(filepath.Join(target, "checkpoints", "index.json"))
		if err != nil {
			lastErr = err
			continue
		}
		return idx, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no targets configured")
	}
	return Index{}, lastErr
}
