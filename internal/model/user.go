package model

import (
	"fmt"
	"strings"
	"time"
)

// User is the signed-in professor as returned by the auth callback.
type User struct {
	ID               ID     `json:"id" yaml:"id"`
	Email            string `json:"email" yaml:"email"`
	Name             string `json:"name" yaml:"name"`
	ToneProfile      string `json:"tone_profile,omitempty" yaml:"tone_profile,omitempty"`
	ReplyLength      string `json:"reply_length,omitempty" yaml:"reply_length,omitempty"`
	AutoReplyEnabled bool   `json:"auto_reply_enabled,omitempty" yaml:"auto_reply_enabled,omitempty"`
}

// Reply tone options offered in settings.
const (
	ToneNeutral      = "neutral"
	ToneWarm         = "warm"
	ToneProfessional = "professional"
	ToneBrief        = "brief"
)

// Tones lists the selectable reply tones.
var Tones = []string{ToneNeutral, ToneWarm, ToneProfessional, ToneBrief}

// Preferences are the professor's local reply and alert settings.
type Preferences struct {
	// Tone is one of the Tone* constants.
	Tone string `db:"tone" json:"tone"`

	// ReplyLength runs from 0 (brief) to 100 (detailed).
	ReplyLength int `db:"reply_length" json:"reply_length"`

	AutoGenerate    bool `db:"auto_generate" json:"auto_generate"`
	DetectDistress  bool `db:"detect_distress" json:"detect_distress"`
	HighlightUrgent bool `db:"highlight_urgent" json:"highlight_urgent"`
	WellbeingAlerts bool `db:"wellbeing_alerts" json:"wellbeing_alerts"`

	// Course policies the reply generator should respect.
	LatePolicy      string `db:"late_policy" json:"late_policy"`
	ExtensionPolicy string `db:"extension_policy" json:"extension_policy"`
	HonorPolicy     string `db:"honor_policy" json:"honor_policy"`
	GradePolicy     string `db:"grade_policy" json:"grade_policy"`

	Signature string `db:"signature" json:"signature"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultPreferences returns the settings used before the user saves any.
func DefaultPreferences() Preferences {
	return Preferences{
		Tone:            ToneProfessional,
		ReplyLength:     50,
		AutoGenerate:    true,
		DetectDistress:  true,
		HighlightUrgent: true,
		WellbeingAlerts: true,
		LatePolicy:      "Late submissions lose 10% per day, up to 3 days.",
		ExtensionPolicy: "Extensions require a request at least 48 hours before the deadline.",
		HonorPolicy:     "All suspected honor code violations are referred to the honor council.",
		GradePolicy:     "Regrade requests must be submitted within one week of grades being posted.",
	}
}

// LengthLabel maps ReplyLength onto the three buckets the reply
// generator understands.
func (p Preferences) LengthLabel() string {
	switch {
	case p.ReplyLength < 34:
		return "short"
	case p.ReplyLength < 67:
		return "medium"
	default:
		return "long"
	}
}

// ReplyPreferences renders the preferences string sent with a draft
// request.
func (p Preferences) ReplyPreferences() string {
	parts := []string{
		"tone: " + p.Tone,
		"length: " + p.LengthLabel(),
	}

	policies := []struct{ name, text string }{
		{"late work policy", p.LatePolicy},
		{"extension policy", p.ExtensionPolicy},
		{"academic integrity policy", p.HonorPolicy},
		{"grade appeal policy", p.GradePolicy},
	}
	for _, pol := range policies {
		if strings.TrimSpace(pol.text) != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", pol.name, pol.text))
		}
	}

	if p.DetectDistress {
		parts = append(parts, "if the student appears distressed, acknowledge it and point to support resources")
	}
	if strings.TrimSpace(p.Signature) != "" {
		parts = append(parts, "signature: "+p.Signature)
	}

	return strings.Join(parts, "; ")
}
