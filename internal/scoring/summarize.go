package scoring

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"continuum/internal/domain"
	"continuum/internal/llmclient"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+\s+`)

// Summarizer produces the narrative text for a Summary entry, preferring
// the pluggable backend and falling back to a deterministic extractive
// heuristic when the backend is unavailable or times out (spec.md §4.6).
type Summarizer struct {
	backend llmclient.Backend
	logger  *zap.Logger
	timeout time.Duration
}

func NewSummarizer(backend llmclient.Backend, logger *zap.Logger, timeout time.Duration) *Summarizer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Summarizer{backend: backend, logger: logger, timeout: timeout}
}

// Summarize returns the summary text and whether the fallback heuristic
// was used (the caller marks the resulting Summary with reduced
// confidence when fellBack is true).
func (s *Summarizer) Summarize(ctx context.Context, entries []domain.MemoryEntry) (text string, fellBack bool) {
	if s.backend == nil {
		return extractiveSummary(entries), true
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.backend.Summarize(cctx, entries)
	if err != nil || strings.TrimSpace(out) == "" {
		s.logger.Warn("summarize backend unavailable, falling back to extractive heuristic",
			zap.Error(err), zap.String("backend", backendName(s.backend)))
		return extractiveSummary(entries), true
	}
	return out, false
}

func backendName(b llmclient.Backend) string {
	if b == nil {
		return "none"
	}
	return b.Name()
}

// extractiveSummary picks the top sentences by keyword density across all
// entry content, concatenating the whole thing as-is when there are three
// sentences or fewer (spec.md §4.6).
func extractiveSummary(entries []domain.MemoryEntry) string {
	var all []string
	for _, e := range entries {
		all = append(all, strings.TrimSpace(e.Content))
	}
	joined := strings.Join(all, " ")

	sentences := splitSentences(joined)
	if len(sentences) <= 3 {
		return strings.TrimSpace(joined)
	}

	density := keywordDensity(sentences)
	type scored struct {
		sentence string
		score    float64
		idx      int
	}
	ranked := make([]scored, len(sentences))
	for i, sent := range sentences {
		ranked[i] = scored{sentence: sent, score: density[i], idx: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	top := ranked
	if len(top) > 3 {
		top = top[:3]
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].idx < top[j].idx })

	picked := make([]string, len(top))
	for i, r := range top {
		picked[i] = r.sentence
	}
	return strings.Join(picked, ". ") + "."
}

func splitSentences(text string) []string {
	raw := sentenceSplit.Split(text, -1)
	var out []string
	for _, s := range raw {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// keywordDensity scores each sentence by how many of its words recur
// across the other sentences — a cheap, corpus-free proxy for salience
// that needs no external model.
func keywordDensity(sentences []string) []float64 {
	freq := make(map[string]int)
	wordsOf := make([][]string, len(sentences))
	for i, s := range sentences {
		words := strings.Fields(strings.ToLower(s))
		wordsOf[i] = words
		for _, w := range words {
			freq[w]++
		}
	}

	scores := make([]float64, len(sentences))
	for i, words := range wordsOf {
		total := 0.0
		for _, w := range words {
			total += float64(freq[w])
		}
		if len(words) > 0 {
			scores[i] = total / float64(len(words))
		}
	}
	return scores
}
