package checkpoint

import (
	"sync"
	"time"

	"continuum/internal/config"
	"continuum/internal/domain"
)

// TriggerEvaluator tracks the counters spec.md §4.7 needs to decide
// whether a checkpoint is due: messages since last checkpoint, time since
// last checkpoint, and the calendar date of the last checkpoint.
type TriggerEvaluator struct {
	mu sync.Mutex

	cfg config.CheckpointConfig

	lastAt           time.Time
	lastDate         string
	messagesSinceLast int
}

func NewTriggerEvaluator(cfg config.CheckpointConfig, now time.Time) *TriggerEvaluator {
	return &TriggerEvaluator{cfg: cfg, lastAt: now, lastDate: now.UTC().Format("2006-01-02")}
}

// RecordMessage increments the message counter; call once per ingested
// non-separator message.
func (t *TriggerEvaluator) RecordMessage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messagesSinceLast++
}

// RecordCheckpoint resets the counters after a checkpoint has been
// written, regardless of which trigger fired it.
func (t *TriggerEvaluator) RecordCheckpoint(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastAt = at
	t.lastDate = at.UTC().Format("2006-01-02")
	t.messagesSinceLast = 0
}

// Due reports the first matching trigger, if any, evaluated in the
// priority order spec.md §4.7 lists them. intensity and isAccomplishment
// describe the just-processed event, if any; pass 0/false for periodic
// polling with no associated event.
func (t *TriggerEvaluator) Due(now time.Time, intensity float64, isAccomplishment bool) (domain.CheckpointTrigger, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.messagesSinceLast >= t.cfg.MessageInterval {
		return domain.TriggerMessageCount, true
	}
	if now.Sub(t.lastAt) >= t.cfg.TimeInterval() {
		return domain.TriggerTime, true
	}
	if intensity >= t.cfg.EmotionThreshold {
		return domain.TriggerEmotionalPeak, true
	}
	if isAccomplishment {
		return domain.TriggerAccomplishment, true
	}
	if now.UTC().Format("2006-01-02") > t.lastDate {
		return domain.TriggerDaily, true
	}
	return "", false
}
