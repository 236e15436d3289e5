package projector

import (
	"fmt"
	"sort"
	"strings"

	"continuum/internal/config"
	"continuum/internal/domain"
	"continuum/internal/memory"
)

// RenderBriefing assembles the plain-text briefing.md per spec.md §4.8.
// Every section is a deterministic function of in; only the header line
// embeds the generation timestamp and version.
func RenderBriefing(in Input, cfg config.ProjectorConfig) string {
	var sb strings.Builder

	writeHeader(&sb, in)
	writeIdentity(&sb, cfg)
	writeMemoryDNA(&sb, in.Hierarchy)
	writeImmediateContext(&sb, in)
	writeTemporalSummaries(&sb, in.Hierarchy)
	writePeaksAndAccomplishments(&sb, in.Hierarchy, cfg.RecentAccomplishmentCount)
	writeRelationshipDynamics(&sb, in.Relationship)
	writeConversationSeeds(&sb, in.Hierarchy, cfg.ConversationSeedCount)

	return sb.String()
}

func writeHeader(sb *strings.Builder, in Input) {
	sb.WriteString("=== CONTINUUM BRIEFING ===\n")
	fmt.Fprintf(sb, "Generated: %s\n", in.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(sb, "Version: %d\n\n", in.Version)
}

func writeIdentity(sb *strings.Builder, cfg config.ProjectorConfig) {
	sb.WriteString("=== IDENTITY ===\n")
	fmt.Fprintf(sb, "%s — %s\n\n", cfg.IdentityName, cfg.IdentityDetail)
}

func writeMemoryDNA(sb *strings.Builder, h *memory.Hierarchy) {
	sb.WriteString("=== MEMORY DNA ===\n")
	entries := h.Store(domain.ScaleLifetime).Entries

	counts := make(map[domain.EntryKind]int)
	emotionVotes := make(map[domain.EmotionTag]int)
	for _, e := range entries {
		counts[e.Kind]++
		if e.Affect != nil {
			emotionVotes[e.Affect.PrimaryEmotion]++
		}
	}

	fmt.Fprintf(sb, "Lifetime entries: %d\n", len(entries))
	for _, kind := range []domain.EntryKind{
		domain.KindEmotionalPeak, domain.KindAccomplishment, domain.KindRegret,
		domain.KindMilestone, domain.KindSummary, domain.KindRawMessage,
	} {
		if counts[kind] > 0 {
			fmt.Fprintf(sb, "  %s: %d\n", kind, counts[kind])
		}
	}
	fmt.Fprintf(sb, "Dominant emotion: %s\n\n", modeEmotion(emotionVotes))
}

func writeImmediateContext(sb *strings.Builder, in Input) {
	sb.WriteString("=== IMMEDIATE CONTEXT ===\n")
	if in.LastMessage != nil {
		fmt.Fprintf(sb, "Last message (%s): %s\n", in.LastMessage.Speaker, truncate(in.LastMessage.Content, 200))
	} else {
		sb.WriteString("Last message: (none)\n")
	}
	if in.LastAffect != nil {
		fmt.Fprintf(sb, "Current affect: %s (intensity %.2f, P=%.2f A=%.2f D=%.2f)\n",
			in.LastAffect.PrimaryEmotion, in.LastAffect.Intensity,
			in.LastAffect.PAD.Pleasure, in.LastAffect.PAD.Arousal, in.LastAffect.PAD.Dominance)
	}
	fmt.Fprintf(sb, "Relationship (rounded): connection=%.3f resonance=%.3f growth=%.3f trust=%.3f phase=%.3f\n\n",
		round3(in.Relationship.Connection), round3(in.Relationship.Resonance),
		round3(in.Relationship.Growth), round3(in.Relationship.Trust), round3(in.Relationship.Phase))
}

func writeTemporalSummaries(sb *strings.Builder, h *memory.Hierarchy) {
	sb.WriteString("=== TEMPORAL SUMMARIES ===\n")
	for _, scale := range []domain.Scale{domain.ScaleImmediate, domain.ScaleShortTerm, domain.ScaleLongTerm, domain.ScaleLifetime} {
		entries := h.Store(scale).Entries
		fmt.Fprintf(sb, "%s: %d entries\n", scale, len(entries))
		if summary := latestSummary(entries); summary != nil {
			fmt.Fprintf(sb, "  latest summary: %s\n", truncate(summary.Content, 240))
		}
	}
	sb.WriteString("\n")
}

func writePeaksAndAccomplishments(sb *strings.Builder, h *memory.Hierarchy, topK int) {
	sb.WriteString("=== EMOTIONAL PEAKS & ACCOMPLISHMENTS ===\n")
	entries := h.Store(domain.ScaleLifetime).Entries
	var landmarks []domain.MemoryEntry
	for _, e := range entries {
		if e.Kind == domain.KindEmotionalPeak || e.Kind == domain.KindAccomplishment {
			landmarks = append(landmarks, e)
		}
	}
	top := mostRecent(landmarks, topK)
	if len(top) == 0 {
		sb.WriteString("(none yet)\n\n")
		return
	}
	for _, e := range top {
		fmt.Fprintf(sb, "- [%s] %s: %s\n", e.Timestamp.UTC().Format("2006-01-02"), e.Kind, truncate(e.Content, 160))
	}
	sb.WriteString("\n")
}

func writeRelationshipDynamics(sb *strings.Builder, rel domain.RelationshipState) {
	sb.WriteString("=== RELATIONSHIP DYNAMICS ===\n")
	fmt.Fprintf(sb, "Connection: %.3f\n", round3(rel.Connection))
	fmt.Fprintf(sb, "Resonance:  %.3f\n", round3(rel.Resonance))
	fmt.Fprintf(sb, "Growth:     %.3f\n", round3(rel.Growth))
	fmt.Fprintf(sb, "Trust:      %.3f\n", round3(rel.Trust))
	fmt.Fprintf(sb, "Phase:      %.3f\n\n", round3(rel.Phase))
}

func writeConversationSeeds(sb *strings.Builder, h *memory.Hierarchy, k int) {
	sb.WriteString("=== CONVERSATION SEEDS ===\n")
	entries := h.Store(domain.ScaleLifetime).Entries
	var landmarks []domain.MemoryEntry
	for _, e := range entries {
		if e.Kind.IsLandmark() {
			landmarks = append(landmarks, e)
		}
	}
	seeds := mostRecent(landmarks, k)
	if len(seeds) == 0 {
		sb.WriteString("(none yet)\n")
		return
	}
	for _, e := range seeds {
		sb.WriteString("- " + seedPrompt(e) + "\n")
	}
}

func seedPrompt(e domain.MemoryEntry) string {
	switch e.Kind {
	case domain.KindAccomplishment:
		return fmt.Sprintf("Ask how things turned out after: %q", truncate(e.Content, 100))
	case domain.KindRegret:
		return fmt.Sprintf("Check in gently about: %q", truncate(e.Content, 100))
	case domain.KindMilestone:
		return fmt.Sprintf("Revisit the milestone: %q", truncate(e.Content, 100))
	default:
		return fmt.Sprintf("Bring up the moment when: %q", truncate(e.Content, 100))
	}
}

func latestSummary(entries []domain.MemoryEntry) *domain.MemoryEntry {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind == domain.KindSummary {
			e := entries[i]
			return &e
		}
	}
	return nil
}

// mostRecent returns up to k entries from entries (assumed timestamp
// ascending), most recent first.
func mostRecent(entries []domain.MemoryEntry, k int) []domain.MemoryEntry {
	if k <= 0 || len(entries) == 0 {
		return nil
	}
	sorted := append([]domain.MemoryEntry{}, entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

func modeEmotion(votes map[domain.EmotionTag]int) domain.EmotionTag {
	best := domain.EmotionNeutral
	bestVotes := -1
	for tag, v := range votes {
		if v > bestVotes || (v == bestVotes && tag < best) {
			best, bestVotes = tag, v
		}
	}
	return best
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
