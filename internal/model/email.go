package model

// Emotion is the tone the dashboard attaches to an email.
type Emotion string

const (
	EmotionNeutral    Emotion = "neutral"
	EmotionAnxious    Emotion = "anxious"
	EmotionConfused   Emotion = "confused"
	EmotionFrustrated Emotion = "frustrated"
	EmotionCalm       Emotion = "calm"
)

// Emotions lists every Emotion value.
var Emotions = []Emotion{
	EmotionNeutral,
	EmotionAnxious,
	EmotionConfused,
	EmotionFrustrated,
	EmotionCalm,
}

// Category constants assigned by the backend classifier. CategoryAll is
// both the default for unclassified mail and the "show everything" filter.
const (
	CategoryAll           = "all"
	CategoryClarification = "clarification"
	CategoryExtension     = "extension"
	CategoryLogistics     = "logistics"
	CategoryGrades        = "grades"
	CategoryUrgent        = "urgent"
	CategoryHonor         = "honor"
)

// KnownCategories lists the categories the classifier can produce, in
// sidebar order. Other strings may still arrive from the backend and are
// carried through unchanged.
var KnownCategories = []string{
	CategoryAll,
	CategoryClarification,
	CategoryExtension,
	CategoryLogistics,
	CategoryGrades,
	CategoryUrgent,
	CategoryHonor,
}

// BackendEmail is an email record exactly as the backend serializes it.
// Nullable fields are pointers; nil means the field was null or missing.
type BackendEmail struct {
	ID ID `json:"id"`

	Subject     *string `json:"subject"`
	SenderName  *string `json:"sender_name"`
	SenderEmail *string `json:"sender_email"`
	BodyPreview *string `json:"body_preview"`
	BodyContent *string `json:"body_content"`

	// ReceivedAt is an ISO-8601 timestamp string.
	ReceivedAt *string `json:"received_at"`

	IsRead    bool `json:"is_read"`
	Processed bool `json:"processed"`

	Category *string `json:"category"`

	// Urgency is the classifier's score on a 0-5 scale.
	Urgency *float64 `json:"urgency"`

	Summary    *string `json:"summary"`
	RiskFlag   bool    `json:"risk_flag"`
	DraftReply *string `json:"draft_reply"`
}

// DisplayEmail is the normalized record rendered by the dashboard.
// Every field is always populated.
type DisplayEmail struct {
	ID          string  `json:"id" yaml:"id"`
	StudentName string  `json:"studentName" yaml:"student_name"`
	Subject     string  `json:"subject" yaml:"subject"`
	Summary     string  `json:"summary" yaml:"summary"`
	Priority    float64 `json:"priority" yaml:"priority"`
	Category    string  `json:"category" yaml:"category"`
	Emotion     Emotion `json:"emotion" yaml:"emotion"`
	Timestamp   string  `json:"timestamp" yaml:"timestamp"`
	Unread      bool    `json:"unread" yaml:"unread"`
}

// EmailWithContent is a DisplayEmail plus the full body and any AI draft.
// A nil BodyContent or DraftReply means the value is absent.
type EmailWithContent struct {
	DisplayEmail `yaml:",inline"`

	BodyContent *string `json:"bodyContent,omitempty" yaml:"body_content,omitempty"`
	DraftReply  *string `json:"draftReply,omitempty" yaml:"draft_reply,omitempty"`
}

// SearchHit is a raw backend record returned by semantic search, with the
// relevance score the backend attached to it.
type SearchHit struct {
	BackendEmail
	Relevance float64 `json:"relevance"`
}
