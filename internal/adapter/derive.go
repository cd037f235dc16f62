package adapter

import (
	"html"
	"regexp"
	"strings"

	"github.com/nhle/inbox-copilot/internal/model"
)

// CategoryLabel is the badge text for a category.
func CategoryLabel(category string) string {
	switch category {
	case model.CategoryClarification:
		return "Clarification"
	case model.CategoryExtension:
		return "Extension"
	case model.CategoryLogistics:
		return "Logistics"
	case model.CategoryGrades:
		return "Grade Dispute"
	case model.CategoryUrgent:
		return "Urgent"
	case model.CategoryHonor:
		return "Honor Code"
	default:
		return "General"
	}
}

// CountCategories tallies emails per category for the sidebar. Every known
// category is present (possibly zero), "all" counts every email, and
// unknown categories get their own entry.
func CountCategories(emails []model.DisplayEmail) map[string]int {
	counts := make(map[string]int, len(model.KnownCategories))
	for _, c := range model.KnownCategories {
		counts[c] = 0
	}
	for _, e := range emails {
		counts[model.CategoryAll]++
		if e.Category != model.CategoryAll {
			counts[e.Category]++
		}
	}
	return counts
}

// CountsFromBackend turns the backend's category breakdown into the same
// shape as CountCategories.
func CountsFromBackend(rows []model.CategoryCount) map[string]int {
	counts := make(map[string]int, len(model.KnownCategories))
	for _, c := range model.KnownCategories {
		counts[c] = 0
	}
	for _, r := range rows {
		counts[model.CategoryAll] += r.Count
		if r.Category != "" && r.Category != model.CategoryAll {
			counts[r.Category] += r.Count
		}
	}
	return counts
}

var (
	htmlTagPattern   = regexp.MustCompile(`<[^>]*>`)
	htmlBlockPattern = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</li>|</tr>`)
	htmlDropPattern  = regexp.MustCompile(`(?is)<(style|script|head)[^>]*>.*?</(style|script|head)>`)
)

// PlainText renders an HTML email body for the terminal. Plain text
// passes through with only whitespace tidied.
func PlainText(body string) string {
	if body == "" {
		return ""
	}

	result := htmlDropPattern.ReplaceAllString(body, "")
	result = htmlBlockPattern.ReplaceAllString(result, "\n")
	result = htmlTagPattern.ReplaceAllString(result, "")
	result = html.UnescapeString(result)
	result = strings.ReplaceAll(result, "\u00a0", " ")
	result = strings.ReplaceAll(result, "\r\n", "\n")

	lines := strings.Split(result, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	result = strings.Join(lines, "\n")

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}
