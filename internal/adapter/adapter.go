// Package adapter converts backend email records into the display shapes
// the dashboard renders. Every function here is pure and total: nullable
// backend fields get an explicit default, and nothing returns an error.
package adapter

import (
	"strings"
	"time"

	"github.com/nhle/inbox-copilot/internal/model"
)

// Defaults substituted for missing backend fields.
const (
	UnknownSender = "Unknown"
	NoSubject     = "No Subject"
	NoPreview     = "No preview available"
)

// AdaptOne converts a backend record into a DisplayEmail, reading the
// clock once for the relative timestamp.
func AdaptOne(e model.BackendEmail) model.DisplayEmail {
	return AdaptOneAt(e, time.Now())
}

// AdaptOneAt is AdaptOne with an explicit "now".
func AdaptOneAt(e model.BackendEmail, now time.Time) model.DisplayEmail {
	category := valueOr(e.Category, model.CategoryAll)

	return model.DisplayEmail{
		ID:          e.ID.String(),
		StudentName: studentName(e.SenderName, e.SenderEmail),
		Subject:     valueOr(e.Subject, NoSubject),
		Summary:     valueOr(e.Summary, valueOr(e.BodyPreview, NoPreview)),
		Priority:    NormalizePriority(e.Urgency),
		Category:    category,
		Emotion:     InferEmotion(category, e.RiskFlag),
		Timestamp:   FormatRelativeTimeAt(e.ReceivedAt, now),
		Unread:      !e.IsRead,
	}
}

// AdaptMany converts records one-to-one, preserving order. The result is
// never nil.
func AdaptMany(emails []model.BackendEmail) []model.DisplayEmail {
	now := time.Now()
	out := make([]model.DisplayEmail, 0, len(emails))
	for _, e := range emails {
		out = append(out, AdaptOneAt(e, now))
	}
	return out
}

// AdaptOneWithContent is AdaptOne plus the full body and the AI draft.
// BodyContent falls back to the preview; DraftReply is copied as is, so a
// missing draft stays nil.
func AdaptOneWithContent(e model.BackendEmail) model.EmailWithContent {
	out := model.EmailWithContent{
		DisplayEmail: AdaptOne(e),
	}

	switch {
	case present(e.BodyContent):
		out.BodyContent = copyString(e.BodyContent)
	case present(e.BodyPreview):
		out.BodyContent = copyString(e.BodyPreview)
	}

	out.DraftReply = copyString(e.DraftReply)

	return out
}

// studentName prefers the display name, then the local part of the
// address, then UnknownSender.
func studentName(name, email *string) string {
	if present(name) {
		return *name
	}
	if present(email) {
		local, _, _ := strings.Cut(*email, "@")
		if local != "" {
			return local
		}
	}
	return UnknownSender
}

// present reports whether an optional string carries a non-empty value.
func present(s *string) bool {
	return s != nil && *s != ""
}

func valueOr(s *string, fallback string) string {
	if present(s) {
		return *s
	}
	return fallback
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
