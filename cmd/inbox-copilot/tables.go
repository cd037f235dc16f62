package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/nhle/inbox-copilot/internal/adapter"
	"github.com/nhle/inbox-copilot/internal/model"
	"github.com/nhle/inbox-copilot/internal/output"
)

const maxSubjectWidth = 48

func emailsTable(emails []model.DisplayEmail) output.Table {
	t := output.Table{Headers: []string{"ID", "", "FROM", "SUBJECT", "CATEGORY", "PRIORITY", "RECEIVED"}}
	for _, e := range emails {
		unread := ""
		if e.Unread {
			unread = "●"
		}
		t.Rows = append(t.Rows, []string{
			e.ID,
			unread,
			e.StudentName,
			clip(e.Subject, maxSubjectWidth),
			adapter.CategoryLabel(e.Category),
			adapter.PriorityLevelOf(e.Priority).Label(),
			e.Timestamp,
		})
	}
	return t
}

func emailTable(e model.EmailWithContent) output.Table {
	t := output.KeyValues(
		"ID", e.ID,
		"From", e.StudentName,
		"Subject", e.Subject,
		"Received", e.Timestamp,
		"Category", adapter.CategoryLabel(e.Category),
		"Priority", fmt.Sprintf("%s (%.0f%%)", adapter.PriorityLevelOf(e.Priority).Label(), e.Priority*100),
		"Tone", adapter.EmotionLabel(e.Emotion),
		"Unread", strconv.FormatBool(e.Unread),
		"Summary", e.Summary,
	)
	if e.BodyContent != nil {
		t.Rows = append(t.Rows, []string{"Message", adapter.PlainText(*e.BodyContent)})
	}
	if e.DraftReply != nil {
		t.Rows = append(t.Rows, []string{"Draft reply", *e.DraftReply})
	}
	return t
}

// searchTable formats raw hits; the sender address comes from the backend
// record because the adapted email drops it.
func searchTable(hits []model.SearchHit, now time.Time) output.Table {
	t := output.Table{Headers: []string{"#", "ID", "FROM", "SUBJECT", "CATEGORY", "RELEVANCE", "RECEIVED"}}
	for i, h := range hits {
		e := adapter.AdaptOneAt(h.BackendEmail, now)
		from := e.StudentName
		if h.SenderEmail != nil && *h.SenderEmail != "" {
			from = fmt.Sprintf("%s <%s>", e.StudentName, *h.SenderEmail)
		}
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1),
			e.ID,
			from,
			clip(e.Subject, maxSubjectWidth),
			adapter.CategoryLabel(e.Category),
			fmt.Sprintf("%.0f%%", h.Relevance*100),
			e.Timestamp,
		})
	}
	return t
}

func userTable(u *model.User, expires time.Time) output.Table {
	t := output.KeyValues(
		"Name", u.Name,
		"Email", u.Email,
		"ID", u.ID.String(),
	)
	if !expires.IsZero() {
		t.Rows = append(t.Rows, []string{"Session expires", expires.Local().Format("Jan 2, 2006 3:04 PM")})
	}
	return t
}

func categoriesTable(rows []model.CategoryCount) output.Table {
	sorted := make([]model.CategoryCount, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })

	t := output.Table{Headers: []string{"CATEGORY", "LABEL", "COUNT"}}
	for _, r := range sorted {
		t.Rows = append(t.Rows, []string{r.Category, adapter.CategoryLabel(r.Category), strconv.Itoa(r.Count)})
	}
	return t
}

func statsTable(s *model.Stats) output.Table {
	return output.KeyValues(
		"Total", strconv.Itoa(s.TotalEmails),
		"Unread", strconv.Itoa(s.UnreadEmails),
		"Processed", strconv.Itoa(s.ProcessedEmails),
		"Urgent", strconv.Itoa(s.UrgentEmails),
		"Flagged for wellbeing", strconv.Itoa(s.RiskEmails),
		"Processing rate", fmt.Sprintf("%.0f%%", s.ProcessingRate),
	)
}

func classificationTable(id string, c *model.Classification) output.Table {
	return output.KeyValues(
		"ID", id,
		"Category", adapter.CategoryLabel(c.Category),
		"Priority score", strconv.FormatFloat(c.PriorityScore, 'f', -1, 64),
		"Tone", c.Tone,
		"Summary", c.Summary,
		"Hidden intent", c.HiddenIntent,
	)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
