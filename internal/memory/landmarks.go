package memory

import (
	"strings"
	"sync"

	"continuum/internal/config"
	"continuum/internal/domain"
)

// LandmarkDetector decides whether a just-analyzed message qualifies as
// one of the emotional landmarks that get copied into Lifetime on first
// detection (spec.md §4.5). It keeps the small bookkeeping state
// ("have we seen this milestone phrase before", "is this the first
// session", "first message of the day") that first-occurrence detection
// requires across restarts.
type LandmarkDetector struct {
	mu sync.Mutex

	cfg config.LandmarksConfig

	seenMilestonePhrases map[string]bool
	seenSessions         map[string]bool
	seenDailyFirst       map[string]bool // date (YYYY-MM-DD) -> true
	anySessionSeen       bool
}

func NewLandmarkDetector(cfg config.LandmarksConfig) *LandmarkDetector {
	return &LandmarkDetector{
		cfg:                  cfg,
		seenMilestonePhrases: make(map[string]bool),
		seenSessions:         make(map[string]bool),
		seenDailyFirst:       make(map[string]bool),
	}
}

// Bookkeeping is the serializable snapshot of detector state, persisted
// alongside checkpoints so first-occurrence detection survives restarts.
type Bookkeeping = domain.LandmarkBookkeeping

func (d *LandmarkDetector) Snapshot() Bookkeeping {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Bookkeeping{
		SeenMilestonePhrases: keys(d.seenMilestonePhrases),
		SeenSessions:         keys(d.seenSessions),
		SeenDailyFirst:       keys(d.seenDailyFirst),
	}
}

func (d *LandmarkDetector) Restore(b Bookkeeping) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seenMilestonePhrases = toSet(b.SeenMilestonePhrases)
	d.seenSessions = toSet(b.SeenSessions)
	d.seenDailyFirst = toSet(b.SeenDailyFirst)
	d.anySessionSeen = len(d.seenSessions) > 0
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func toSet(vals []string) map[string]bool {
	out := make(map[string]bool, len(vals))
	for _, v := range vals {
		out[v] = true
	}
	return out
}

// Detect returns the landmark kinds entry qualifies for, given its
// affect and session id. A message may qualify for more than one
// landmark kind (e.g. an intense accomplishment).
func (d *LandmarkDetector) Detect(msg domain.Message, affect domain.Affect) []domain.EntryKind {
	d.mu.Lock()
	defer d.mu.Unlock()

	var kinds []domain.EntryKind
	content := strings.ToLower(msg.Content)

	if affect.Intensity >= d.cfg.IntensityThreshold {
		kinds = append(kinds, domain.KindEmotionalPeak)
	}

	if containsAny(content, d.cfg.AccomplishmentMarkers) && affect.PAD.Pleasure > 0 {
		kinds = append(kinds, domain.KindAccomplishment)
	}

	if containsAny(content, d.cfg.RegretMarkers) {
		kinds = append(kinds, domain.KindRegret)
	}

	if d.isMilestone(msg, content) {
		kinds = append(kinds, domain.KindMilestone)
	}

	return kinds
}

func (d *LandmarkDetector) isMilestone(msg domain.Message, lowerContent string) bool {
	isFirstSession := !d.anySessionSeen
	if !d.seenSessions[msg.SessionID] {
		d.seenSessions[msg.SessionID] = true
		d.anySessionSeen = true
	}

	day := msg.Timestamp.UTC().Format("2006-01-02")
	firstOfDay := !d.seenDailyFirst[day]
	d.seenDailyFirst[day] = true

	newPhrase := false
	for _, phrase := range d.cfg.MilestonePhrases {
		p := strings.ToLower(phrase)
		if strings.Contains(lowerContent, p) {
			if !d.seenMilestonePhrases[p] {
				d.seenMilestonePhrases[p] = true
				newPhrase = true
			}
		}
	}

	return isFirstSession || firstOfDay || newPhrase
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
