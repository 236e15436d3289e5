package domain

import "math"

// EmotionTag is a member of the closed emotion vocabulary. The set is the
// union of tags referenced across the Plutchik, PAD, and Geneva-wheel
// models the source system mixed together (spec.md §9 Open Question);
// freezing it here resolves that ambiguity.
type EmotionTag string

const (
	EmotionJoy          EmotionTag = "joy"
	EmotionSadness      EmotionTag = "sadness"
	EmotionAnger        EmotionTag = "anger"
	EmotionFear         EmotionTag = "fear"
	EmotionDisgust      EmotionTag = "disgust"
	EmotionSurprise     EmotionTag = "surprise"
	EmotionTrust        EmotionTag = "trust"
	EmotionAnticipation EmotionTag = "anticipation"
	EmotionLove         EmotionTag = "love"
	EmotionPride        EmotionTag = "pride"
	EmotionShame        EmotionTag = "shame"
	EmotionGuilt        EmotionTag = "guilt"
	EmotionGratitude    EmotionTag = "gratitude"
	EmotionHope         EmotionTag = "hope"
	EmotionRelief       EmotionTag = "relief"
	EmotionContentment  EmotionTag = "contentment"
	EmotionAmusement    EmotionTag = "amusement"
	EmotionAwe          EmotionTag = "awe"
	EmotionInterest     EmotionTag = "interest"
	EmotionBoredom      EmotionTag = "boredom"
	EmotionLoneliness   EmotionTag = "loneliness"
	EmotionNostalgia    EmotionTag = "nostalgia"
	EmotionEnvy         EmotionTag = "envy"
	EmotionJealousy     EmotionTag = "jealousy"
	EmotionContempt     EmotionTag = "contempt"
	EmotionRegret       EmotionTag = "regret"
	EmotionAnxiety      EmotionTag = "anxiety"
	EmotionFrustration  EmotionTag = "frustration"
	EmotionCuriosity    EmotionTag = "curiosity"
	EmotionNeutral      EmotionTag = "neutral"
	EmotionOther        EmotionTag = "other"
)

var closedVocabulary = map[EmotionTag]struct{}{
	EmotionJoy: {}, EmotionSadness: {}, EmotionAnger: {}, EmotionFear: {},
	EmotionDisgust: {}, EmotionSurprise: {}, EmotionTrust: {}, EmotionAnticipation: {},
	EmotionLove: {}, EmotionPride: {}, EmotionShame: {}, EmotionGuilt: {},
	EmotionGratitude: {}, EmotionHope: {}, EmotionRelief: {}, EmotionContentment: {},
	EmotionAmusement: {}, EmotionAwe: {}, EmotionInterest: {}, EmotionBoredom: {},
	EmotionLoneliness: {}, EmotionNostalgia: {}, EmotionEnvy: {}, EmotionJealousy: {},
	EmotionContempt: {}, EmotionRegret: {}, EmotionAnxiety: {}, EmotionFrustration: {},
	EmotionCuriosity: {}, EmotionNeutral: {}, EmotionOther: {},
}

// NormalizeEmotionTag maps a raw backend tag string onto the closed
// vocabulary. Unknown tags become Other; callers are expected to stash the
// original string in Affect.Secondary so it is not silently lost.
func NormalizeEmotionTag(raw string) EmotionTag {
	tag := EmotionTag(raw)
	if _, ok := closedVocabulary[tag]; ok {
		return tag
	}
	return EmotionOther
}

// PAD is a pleasure-arousal-dominance vector; each component is clamped to
// [-1, 1].
type PAD struct {
	Pleasure float64 `json:"p"`
	Arousal  float64 `json:"a"`
	Dominance float64 `json:"d"`
}

// Clamp returns the PAD with each component clamped to [-1, 1].
func (p PAD) Clamp() PAD {
	return PAD{
		Pleasure:  clamp(p.Pleasure, -1, 1),
		Arousal:   clamp(p.Arousal, -1, 1),
		Dominance: clamp(p.Dominance, -1, 1),
	}
}

// Intensity computes min(1, sqrt(p²+a²+d²)/√3) per spec.md §4.3.
func (p PAD) Intensity() float64 {
	mag := math.Sqrt(p.Pleasure*p.Pleasure + p.Arousal*p.Arousal + p.Dominance*p.Dominance)
	return math.Min(1, mag/math.Sqrt(3))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SpeakerAffect is the per-speaker decomposition of an Affect.
type SpeakerAffect struct {
	PAD             PAD        `json:"pad"`
	PrimaryEmotion  EmotionTag `json:"primary_emotion"`
	Intensity       float64    `json:"intensity"`
}

// Affect is the structured emotional assessment produced by C3 for one
// non-separator message (or a coalesced speaker window).
type Affect struct {
	PAD             PAD                        `json:"pad"`
	PrimaryEmotion  EmotionTag                 `json:"primary_emotion"`
	Secondary       []string                   `json:"secondary"`
	Intensity       float64                    `json:"intensity"`
	PerSpeaker      map[Speaker]SpeakerAffect  `json:"per_speaker"`
	Confidence      float64                    `json:"confidence"`
}

// Clamp returns a copy of the Affect with every numeric invariant
// enforced and Secondary truncated to 3 tags; the receiver is unchanged.
func (a Affect) Clamp() Affect {
	a.PAD = a.PAD.Clamp()
	a.Intensity = clamp(a.Intensity, 0, 1)
	a.Confidence = clamp(a.Confidence, 0, 1)
	if len(a.Secondary) > 3 {
		a.Secondary = a.Secondary[:3]
	}
	return a
}

// RawAffect is what a pluggable analyzer backend returns for one input
// text, before the core's post-processing (clamping, vocabulary mapping,
// intensity derivation) is applied.
type RawAffect struct {
	Pleasure   float64  `json:"pleasure"`
	Arousal    float64  `json:"arousal"`
	Dominance  float64  `json:"dominance"`
	PrimaryTag string   `json:"primary_tag"`
	Secondary  []string `json:"secondary"`
	Confidence float64  `json:"confidence"`
}
