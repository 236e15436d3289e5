package projector

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"

	"continuum/internal/config"
	"continuum/internal/errkind"
	"continuum/internal/statefs"
)

// Projector regenerates the briefing and machine-readable artifacts on
// every state change, per spec.md §4.8. It owns the monotonic version
// counter that makes every render traceable to an ordering even though
// the rest of the content is a deterministic function of Input.
type Projector struct {
	stateDir string
	cfg      config.ProjectorConfig
	logger   *zap.Logger
	version  uint64
}

func New(stateDir string, cfg config.ProjectorConfig, logger *zap.Logger) *Projector {
	return &Projector{stateDir: stateDir, cfg: cfg, logger: logger}
}

// Project renders and atomically writes briefing.md in the state
// directory, then emotional_state.json, conversation_context.json, and
// work_context.json under its realtime/ subdirectory. A briefing.md
// failure is logged and returned before any JSON file is written; a
// failure on one JSON file is logged and does not prevent the others.
func (p *Projector) Project(in Input) error {
	in.Version = atomic.AddUint64(&p.version, 1)

	briefing := RenderBriefing(in, p.cfg)
	if err := statefs.WriteAtomic(filepath.Join(p.stateDir, "briefing.md"), []byte(briefing), 0o644); err != nil {
		p.logger.Warn("projector briefing write failed", zap.Error(err))
		return errkind.New(errkind.StateIO, "projector.Project", fmt.Errorf("write briefing.md: %w", err))
	}

	if err := p.writeJSON("emotional_state.json", buildEmotionalState(in)); err != nil {
		p.logger.Warn("projector emotional_state write failed", zap.Error(err))
	}
	if err := p.writeJSON("conversation_context.json", buildConversationContext(in)); err != nil {
		p.logger.Warn("projector conversation_context write failed", zap.Error(err))
	}
	if err := p.writeJSON("work_context.json", buildWorkContext(in, p.cfg.RecentAccomplishmentCount)); err != nil {
		p.logger.Warn("projector work_context write failed", zap.Error(err))
	}

	return nil
}

func (p *Projector) writeJSON(name string, v interface{}) error {
	data, err := marshalIndent(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return statefs.WriteAtomic(filepath.Join(p.stateDir, "realtime", name), data, 0o644)
}
