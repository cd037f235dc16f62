package model

// Pagination describes one page of the backend's email listing.
type Pagination struct {
	Page    int  `json:"page" yaml:"page"`
	PerPage int  `json:"per_page" yaml:"per_page"`
	Total   int  `json:"total" yaml:"total"`
	Pages   int  `json:"pages" yaml:"pages"`
	HasNext bool `json:"has_next" yaml:"has_next"`
	HasPrev bool `json:"has_prev" yaml:"has_prev"`
}

// Normalize fills HasNext and HasPrev from Page and Pages for backends
// that only send the counts.
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	p.HasNext = p.HasNext || p.Page < p.Pages
	p.HasPrev = p.HasPrev || p.Page > 1
}

// ListFilter controls which emails GET /emails/ returns. Zero values are
// left out of the query string.
type ListFilter struct {
	Page    int
	PerPage int

	// Category filters by classifier category; "" and "all" mean no filter.
	Category string

	// Urgency keeps emails with exactly this urgency level; 0 disables it.
	Urgency int

	UnreadOnly bool
}

// PriorityDistribution buckets digest emails by priority.
type PriorityDistribution struct {
	Low    int `json:"low" yaml:"low"`
	Medium int `json:"medium" yaml:"medium"`
	High   int `json:"high" yaml:"high"`
}

// DigestStatistics holds the numeric part of a daily digest.
type DigestStatistics struct {
	TotalEmails          int                  `json:"total_emails" yaml:"total_emails"`
	PriorityDistribution PriorityDistribution `json:"priority_distribution" yaml:"priority_distribution"`
}

// Digest is the daily summary produced by the backend. The backend passes
// the model output through, so every field is optional; Text carries the
// plain-string form some backends return under "digest".
type Digest struct {
	Summary         string            `json:"summary,omitempty" yaml:"summary,omitempty"`
	Categories      map[string]int    `json:"categories,omitempty" yaml:"categories,omitempty"`
	HighPriority    []string          `json:"high_priority,omitempty" yaml:"high_priority,omitempty"`
	CommonThemes    []string          `json:"common_themes,omitempty" yaml:"common_themes,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Statistics      *DigestStatistics `json:"statistics,omitempty" yaml:"statistics,omitempty"`
	Text            string            `json:"digest,omitempty" yaml:"digest,omitempty"`
}

// Classification is the classifier's verdict for a single email.
type Classification struct {
	Category      string  `json:"category" yaml:"category"`
	PriorityScore float64 `json:"priority_score" yaml:"priority_score"`
	Tone          string  `json:"tone" yaml:"tone"`
	Summary       string  `json:"summary" yaml:"summary"`
	HiddenIntent  string  `json:"hidden_intent" yaml:"hidden_intent"`
}

// DraftReply is an AI-generated reply for one email.
type DraftReply struct {
	Reply     string `json:"reply" yaml:"reply"`
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

// SyncResult reports the outcome of a mailbox sync on the backend.
type SyncResult struct {
	Message     string `json:"message" yaml:"message"`
	NewEmails   int    `json:"new_emails" yaml:"new_emails"`
	TotalEmails int    `json:"total_emails" yaml:"total_emails"`
}

// CategoryCount is one row of the backend's category breakdown.
type CategoryCount struct {
	Category string `json:"category" yaml:"category"`
	Count    int    `json:"count" yaml:"count"`
}

// Stats summarizes the professor's mailbox.
type Stats struct {
	TotalEmails     int     `json:"total_emails" yaml:"total_emails"`
	UnreadEmails    int     `json:"unread_emails" yaml:"unread_emails"`
	ProcessedEmails int     `json:"processed_emails" yaml:"processed_emails"`
	UrgentEmails    int     `json:"urgent_emails" yaml:"urgent_emails"`
	RiskEmails      int     `json:"risk_emails" yaml:"risk_emails"`
	ProcessingRate  float64 `json:"processing_rate" yaml:"processing_rate"`
}
