package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox-copilot/internal/model"
)

func strPtr(s string) *string { return &s }

func TestEmailsTable(t *testing.T) {
	tbl := emailsTable([]model.DisplayEmail{
		{ID: "7", StudentName: "Ana Diaz", Subject: "Extension request", Category: model.CategoryExtension, Priority: 0.9, Timestamp: "2 hours ago", Unread: true},
		{ID: "8", StudentName: "Ben Ode", Subject: "Office hours", Category: "all", Priority: 0.3, Timestamp: "Yesterday"},
	})

	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"7", "●", "Ana Diaz", "Extension request", "Extension", "Urgent", "2 hours ago"}, tbl.Rows[0])
	assert.Equal(t, "", tbl.Rows[1][1])
	assert.Equal(t, "General", tbl.Rows[1][4])
	assert.Equal(t, "Low Priority", tbl.Rows[1][5])
}

func TestSearchTableUsesSenderAddress(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	hits := []model.SearchHit{
		{
			BackendEmail: model.BackendEmail{
				ID:          "3",
				Subject:     strPtr("Regrade"),
				SenderName:  strPtr("Ana Diaz"),
				SenderEmail: strPtr("ana@uni.edu"),
				Category:    strPtr(model.CategoryGrades),
				ReceivedAt:  strPtr("2026-03-10T10:00:00Z"),
			},
			Relevance: 0.873,
		},
		{BackendEmail: model.BackendEmail{ID: "4"}, Relevance: 0.4},
	}

	tbl := searchTable(hits, now)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"1", "3", "Ana Diaz <ana@uni.edu>", "Regrade", "Grade Dispute", "87%", "2 hours ago"}, tbl.Rows[0])
	assert.Equal(t, "Unknown", tbl.Rows[1][2])
	assert.Equal(t, "40%", tbl.Rows[1][5])
}

func TestCategoriesTableSortsByCount(t *testing.T) {
	tbl := categoriesTable([]model.CategoryCount{
		{Category: model.CategoryHonor, Count: 1},
		{Category: model.CategoryExtension, Count: 5},
	})
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"extension", "Extension", "5"}, tbl.Rows[0])
	assert.Equal(t, []string{"honor", "Honor Code", "1"}, tbl.Rows[1])
}

func TestEmailTableIncludesBodyAndDraft(t *testing.T) {
	e := model.EmailWithContent{
		DisplayEmail: model.DisplayEmail{ID: "1", StudentName: "Ana", Subject: "Hi", Priority: 0.5, Category: model.CategoryLogistics},
		BodyContent:  strPtr("<p>Hello</p>"),
		DraftReply:   strPtr("Thanks!"),
	}
	tbl := emailTable(e)
	last := tbl.Rows[len(tbl.Rows)-1]
	assert.Equal(t, []string{"Draft reply", "Thanks!"}, last)
	assert.Equal(t, "Message", tbl.Rows[len(tbl.Rows)-2][0])
	assert.Contains(t, tbl.Rows[5][1], "Medium Priority")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcd…", clip("abcdefgh", 5))
}

func TestUserTable(t *testing.T) {
	u := &model.User{ID: "12", Name: "Dr. Kim", Email: "kim@uni.edu"}
	assert.Len(t, userTable(u, time.Time{}).Rows, 3)
	assert.Len(t, userTable(u, time.Now()).Rows, 4)
}
