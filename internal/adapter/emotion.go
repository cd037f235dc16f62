package adapter

import "github.com/nhle/inbox-copilot/internal/model"

// InferEmotion derives the tone shown for an email. A risk flag always
// means anxious; otherwise the category decides, and any category without
// a rule (including unknown ones) is neutral.
func InferEmotion(category string, riskFlag bool) model.Emotion {
	if riskFlag {
		return model.EmotionAnxious
	}

	switch category {
	case model.CategoryUrgent, model.CategoryHonor:
		return model.EmotionAnxious
	case model.CategoryGrades:
		return model.EmotionFrustrated
	case model.CategoryClarification:
		return model.EmotionConfused
	case model.CategoryExtension:
		return model.EmotionCalm
	case model.CategoryAll, model.CategoryLogistics:
		return model.EmotionNeutral
	default:
		return model.EmotionNeutral
	}
}

// EmotionLabel is the hover text for an emotion marker.
func EmotionLabel(e model.Emotion) string {
	switch e {
	case model.EmotionAnxious:
		return "Anxious tone detected"
	case model.EmotionConfused:
		return "Student seems confused"
	case model.EmotionFrustrated:
		return "Frustrated tone detected"
	case model.EmotionCalm:
		return "Calm, polite tone"
	default:
		return "Neutral tone"
	}
}
