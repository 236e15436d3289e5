package living

import "continuum/internal/domain"

// ClassifyEvent maps a message's resulting Affect onto the discrete event
// table apply_event operates on. spec.md §4.4 names the five event kinds
// but leaves the classification rule to the implementation; this mirrors
// the emotion-bucket approach the rules-based analyzer fallback already
// uses for keyword scoring, so the whole pipeline reasons about emotion
// the same way end to end.
func ClassifyEvent(affect domain.Affect, isSeparation bool) (EventKind, float64) {
	if isSeparation {
		return EventSeparation, affect.Intensity
	}

	switch affect.PrimaryEmotion {
	case domain.EmotionJoy, domain.EmotionGratitude, domain.EmotionLove, domain.EmotionAmusement,
		domain.EmotionContentment, domain.EmotionPride, domain.EmotionHope, domain.EmotionRelief:
		return EventPositiveInteraction, affect.Intensity

	case domain.EmotionAnger, domain.EmotionFrustration, domain.EmotionContempt, domain.EmotionDisgust,
		domain.EmotionEnvy, domain.EmotionJealousy:
		return EventConflict, affect.Intensity

	case domain.EmotionSadness, domain.EmotionFear, domain.EmotionLoneliness, domain.EmotionAnxiety,
		domain.EmotionShame, domain.EmotionGuilt:
		return EventSupport, affect.Intensity

	case domain.EmotionInterest, domain.EmotionCuriosity, domain.EmotionAnticipation:
		return EventCollaborativeWork, affect.Intensity

	default:
		return EventPositiveInteraction, affect.Intensity * 0.5
	}
}
