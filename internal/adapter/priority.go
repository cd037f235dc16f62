package adapter

import "math"

// DefaultPriority is used when the classifier has not scored an email.
// TODO: drop once the backend classifies every email during sync.
const DefaultPriority = 0.3

// maxUrgency is the top of the backend's urgency scale.
const maxUrgency = 5.0

// NormalizePriority maps a 0-5 urgency onto [0, 1].
func NormalizePriority(urgency *float64) float64 {
	if urgency == nil || math.IsNaN(*urgency) {
		return DefaultPriority
	}
	return math.Max(0, math.Min(*urgency/maxUrgency, 1))
}

// PriorityLevel buckets a normalized priority for display.
type PriorityLevel string

const (
	PriorityUrgent PriorityLevel = "urgent"
	PriorityHigh   PriorityLevel = "high"
	PriorityMedium PriorityLevel = "medium"
	PriorityLow    PriorityLevel = "low"
)

// PriorityLevelOf returns the display bucket for priority p.
func PriorityLevelOf(p float64) PriorityLevel {
	switch {
	case p >= 0.8:
		return PriorityUrgent
	case p >= 0.6:
		return PriorityHigh
	case p >= 0.4:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Label is the text shown next to the priority bar.
func (l PriorityLevel) Label() string {
	switch l {
	case PriorityUrgent:
		return "Urgent"
	case PriorityHigh:
		return "High Priority"
	case PriorityMedium:
		return "Medium Priority"
	default:
		return "Low Priority"
	}
}
