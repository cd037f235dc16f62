package adapter

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox-copilot/internal/model"
)

func strp(s string) *string { return &s }

func floatp(f float64) *float64 { return &f }

var fixedNow = time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)

func agoString(d time.Duration) *string {
	return strp(fixedNow.Add(-d).Format(time.RFC3339))
}

func TestAdaptOneNullUrgencyDefaultsPriority(t *testing.T) {
	got := AdaptOneAt(model.BackendEmail{ID: "1"}, fixedNow)
	assert.Equal(t, 0.3, got.Priority)
}

func TestNormalizePriority(t *testing.T) {
	t.Run("in range divides by five", func(t *testing.T) {
		for _, u := range []float64{0, 1, 2.5, 3, 4, 5} {
			assert.InDelta(t, u/5, NormalizePriority(floatp(u)), 1e-12, "urgency %v", u)
		}
	})

	t.Run("above range clamps to one", func(t *testing.T) {
		for _, u := range []float64{5.01, 7, 100, math.Inf(1)} {
			assert.Equal(t, 1.0, NormalizePriority(floatp(u)), "urgency %v", u)
		}
	})

	t.Run("below range clamps to zero", func(t *testing.T) {
		assert.Equal(t, 0.0, NormalizePriority(floatp(-2)))
	})

	t.Run("nil and NaN use default", func(t *testing.T) {
		assert.Equal(t, DefaultPriority, NormalizePriority(nil))
		assert.Equal(t, DefaultPriority, NormalizePriority(floatp(math.NaN())))
	})
}

func TestInferEmotionRiskFlagWins(t *testing.T) {
	categories := append([]string{"", "something-new"}, model.KnownCategories...)
	for _, c := range categories {
		assert.Equal(t, model.EmotionAnxious, InferEmotion(c, true), "category %q", c)
	}
}

func TestInferEmotionByCategory(t *testing.T) {
	want := map[string]model.Emotion{
		model.CategoryAll:           model.EmotionNeutral,
		model.CategoryClarification: model.EmotionConfused,
		model.CategoryExtension:     model.EmotionCalm,
		model.CategoryLogistics:     model.EmotionNeutral,
		model.CategoryGrades:        model.EmotionFrustrated,
		model.CategoryUrgent:        model.EmotionAnxious,
		model.CategoryHonor:         model.EmotionAnxious,
	}

	// A category added to KnownCategories must get an entry here.
	require.Len(t, want, len(model.KnownCategories))

	for _, c := range model.KnownCategories {
		expected, ok := want[c]
		require.True(t, ok, "no expected emotion for category %q", c)
		assert.Equal(t, expected, InferEmotion(c, false), "category %q", c)
	}

	assert.Equal(t, model.EmotionNeutral, InferEmotion("scheduling", false))
	assert.Equal(t, model.EmotionNeutral, InferEmotion("", false))
}

func TestAdaptManyPreservesOrderAndIdentity(t *testing.T) {
	records := []model.BackendEmail{
		{ID: "c"}, {ID: "a"}, {ID: "b"}, {ID: "a"},
	}

	got := AdaptMany(records)
	require.Len(t, got, len(records))
	for i := range records {
		assert.Equal(t, records[i].ID.String(), got[i].ID)
	}
}

func TestAdaptManyEmpty(t *testing.T) {
	got := AdaptMany(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUnreadIsNegationOfIsRead(t *testing.T) {
	assert.True(t, AdaptOneAt(model.BackendEmail{IsRead: false}, fixedNow).Unread)
	assert.False(t, AdaptOneAt(model.BackendEmail{IsRead: true}, fixedNow).Unread)
}

func TestFormatRelativeTimeAt(t *testing.T) {
	cases := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"seconds", 30 * time.Second, "Just now"},
		{"one minute", time.Minute, "1 minute ago"},
		{"minutes", 5 * time.Minute, "5 minutes ago"},
		{"59 minutes", 59*time.Minute + 59*time.Second, "59 minutes ago"},
		{"one hour", time.Hour, "1 hour ago"},
		{"ninety minutes", 90 * time.Minute, "1 hour ago"},
		{"23 hours", 23 * time.Hour, "23 hours ago"},
		{"one day", 24 * time.Hour, "1 day ago"},
		{"three days", 3 * 24 * time.Hour, "3 days ago"},
		{"six days", 6*24*time.Hour + 23*time.Hour, "6 days ago"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatRelativeTimeAt(agoString(tc.ago), fixedNow))
		})
	}
}

func TestFormatRelativeTimeAbsoluteAfterAWeek(t *testing.T) {
	assert.Equal(t, "3/7/2024", FormatRelativeTimeAt(agoString(7*24*time.Hour), fixedNow))
	assert.Equal(t, "3/4/2024", FormatRelativeTimeAt(agoString(10*24*time.Hour), fixedNow))
}

func TestFormatRelativeTimeUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", FormatRelativeTimeAt(nil, fixedNow))
	assert.Equal(t, "Unknown", FormatRelativeTimeAt(strp(""), fixedNow))
	assert.Equal(t, "Unknown", FormatRelativeTimeAt(strp("yesterday-ish"), fixedNow))
}

func TestFormatRelativeTimeBackendFormats(t *testing.T) {
	cases := map[string]string{
		"2024-03-14T13:00:00":         "2 hours ago",
		"2024-03-14T12:30:00.123456":  "2 hours ago",
		"2024-03-14T13:00:00+00:00":   "2 hours ago",
		"2024-03-14T14:00:00+01:00":   "2 hours ago",
		"2024-03-14T13:00:00Z":        "2 hours ago",
		"2024-03-14 13:00:00":         "2 hours ago",
		"2024-03-11":                  "3 days ago",
		"2024-03-14T14:59:30.000000Z": "Just now",
		"2024-03-15T09:00:00Z":        "Just now",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatRelativeTimeAt(strp(in), fixedNow), "input %q", in)
	}
}

func TestFormatRelativeTimeUsesWallClock(t *testing.T) {
	recent := strp(time.Now().Add(-3 * time.Minute).Format(time.RFC3339))
	assert.Equal(t, "3 minutes ago", FormatRelativeTime(recent))
}

func TestAdaptOneFallbacksAreIndependent(t *testing.T) {
	full := model.BackendEmail{
		ID:          "7",
		Subject:     strp("Quiz 3"),
		SenderName:  strp("Ada Park"),
		SenderEmail: strp("apark@uni.edu"),
		BodyPreview: strp("preview text"),
		Summary:     strp("AI summary"),
		ReceivedAt:  agoString(5 * time.Minute),
	}

	t.Run("missing subject", func(t *testing.T) {
		e := full
		e.Subject = nil
		got := AdaptOneAt(e, fixedNow)
		assert.Equal(t, "No Subject", got.Subject)
		assert.Equal(t, "Ada Park", got.StudentName)
		assert.Equal(t, "AI summary", got.Summary)
	})

	t.Run("missing sender name uses address local part", func(t *testing.T) {
		e := full
		e.SenderName = nil
		got := AdaptOneAt(e, fixedNow)
		assert.Equal(t, "apark", got.StudentName)
		assert.Equal(t, "Quiz 3", got.Subject)
	})

	t.Run("empty sender name uses address local part", func(t *testing.T) {
		e := full
		e.SenderName = strp("")
		assert.Equal(t, "apark", AdaptOneAt(e, fixedNow).StudentName)
	})

	t.Run("missing sender name and address", func(t *testing.T) {
		e := full
		e.SenderName = nil
		e.SenderEmail = nil
		got := AdaptOneAt(e, fixedNow)
		assert.Equal(t, "Unknown", got.StudentName)
		assert.Equal(t, "AI summary", got.Summary)
	})

	t.Run("address without local part", func(t *testing.T) {
		e := full
		e.SenderName = nil
		e.SenderEmail = strp("@uni.edu")
		assert.Equal(t, "Unknown", AdaptOneAt(e, fixedNow).StudentName)
	})

	t.Run("missing summary uses preview", func(t *testing.T) {
		e := full
		e.Summary = nil
		got := AdaptOneAt(e, fixedNow)
		assert.Equal(t, "preview text", got.Summary)
		assert.Equal(t, "Quiz 3", got.Subject)
	})

	t.Run("missing summary and preview", func(t *testing.T) {
		e := full
		e.Summary = nil
		e.BodyPreview = nil
		got := AdaptOneAt(e, fixedNow)
		assert.Equal(t, "No preview available", got.Summary)
		assert.Equal(t, "Ada Park", got.StudentName)
	})

	t.Run("missing category", func(t *testing.T) {
		got := AdaptOneAt(full, fixedNow)
		assert.Equal(t, "all", got.Category)
		assert.Equal(t, model.EmotionNeutral, got.Emotion)
	})
}

func TestAdaptOneWithContent(t *testing.T) {
	t.Run("absent draft stays absent", func(t *testing.T) {
		got := AdaptOneWithContent(model.BackendEmail{ID: "1", BodyContent: strp("<p>hi</p>")})
		assert.Nil(t, got.DraftReply)
		require.NotNil(t, got.BodyContent)
		assert.Equal(t, "<p>hi</p>", *got.BodyContent)
	})

	t.Run("draft passes through verbatim", func(t *testing.T) {
		got := AdaptOneWithContent(model.BackendEmail{ID: "1", DraftReply: strp("Dear Jo,")})
		require.NotNil(t, got.DraftReply)
		assert.Equal(t, "Dear Jo,", *got.DraftReply)
	})

	t.Run("body falls back to preview", func(t *testing.T) {
		got := AdaptOneWithContent(model.BackendEmail{ID: "1", BodyPreview: strp("short")})
		require.NotNil(t, got.BodyContent)
		assert.Equal(t, "short", *got.BodyContent)
	})

	t.Run("no body at all", func(t *testing.T) {
		got := AdaptOneWithContent(model.BackendEmail{ID: "1"})
		assert.Nil(t, got.BodyContent)
	})

	t.Run("display fields match AdaptOne", func(t *testing.T) {
		rec := model.BackendEmail{ID: "9", Category: strp("grades"), Urgency: floatp(4)}
		got := AdaptOneWithContent(rec)
		assert.Equal(t, "9", got.ID)
		assert.Equal(t, model.EmotionFrustrated, got.Emotion)
		assert.InDelta(t, 0.8, got.Priority, 1e-12)
	})
}

func TestAdaptOneEndToEnd(t *testing.T) {
	rec := model.BackendEmail{
		ID:          "42",
		Subject:     nil,
		SenderName:  nil,
		SenderEmail: strp("jdoe@uni.edu"),
		BodyPreview: strp("need extension"),
		ReceivedAt:  agoString(2 * time.Hour),
		IsRead:      false,
		Category:    strp("extension"),
		Urgency:     floatp(3),
		RiskFlag:    false,
		Summary:     nil,
	}

	got := AdaptOneAt(rec, fixedNow)

	assert.Equal(t, model.DisplayEmail{
		ID:          "42",
		StudentName: "jdoe",
		Subject:     "No Subject",
		Summary:     "need extension",
		Priority:    got.Priority,
		Category:    "extension",
		Emotion:     model.EmotionCalm,
		Timestamp:   "2 hours ago",
		Unread:      true,
	}, got)
	assert.InDelta(t, 0.6, got.Priority, 1e-12)
}

func TestPriorityLevelOf(t *testing.T) {
	cases := []struct {
		p     float64
		level PriorityLevel
		label string
	}{
		{1, PriorityUrgent, "Urgent"},
		{0.8, PriorityUrgent, "Urgent"},
		{0.79, PriorityHigh, "High Priority"},
		{0.6, PriorityHigh, "High Priority"},
		{0.4, PriorityMedium, "Medium Priority"},
		{0.3, PriorityLow, "Low Priority"},
		{0, PriorityLow, "Low Priority"},
	}
	for _, tc := range cases {
		level := PriorityLevelOf(tc.p)
		assert.Equal(t, tc.level, level, "priority %v", tc.p)
		assert.Equal(t, tc.label, level.Label())
	}
}

func TestCountCategories(t *testing.T) {
	emails := []model.DisplayEmail{
		{Category: "grades"},
		{Category: "grades"},
		{Category: "all"},
		{Category: "office-hours"},
	}

	counts := CountCategories(emails)
	assert.Equal(t, 4, counts["all"])
	assert.Equal(t, 2, counts["grades"])
	assert.Equal(t, 1, counts["office-hours"])
	assert.Equal(t, 0, counts["honor"])
	for _, c := range model.KnownCategories {
		assert.Contains(t, counts, c)
	}
}

func TestCountsFromBackend(t *testing.T) {
	counts := CountsFromBackend([]model.CategoryCount{
		{Category: "urgent", Count: 2},
		{Category: "logistics", Count: 5},
	})
	assert.Equal(t, 7, counts["all"])
	assert.Equal(t, 2, counts["urgent"])
	assert.Equal(t, 0, counts["extension"])
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Grade Dispute", CategoryLabel("grades"))
	assert.Equal(t, "Honor Code", CategoryLabel("honor"))
	assert.Equal(t, "General", CategoryLabel("all"))
	assert.Equal(t, "General", CategoryLabel("unheard-of"))

	for _, e := range model.Emotions {
		assert.NotEmpty(t, EmotionLabel(e))
	}
	assert.Equal(t, "Calm, polite tone", EmotionLabel(model.EmotionCalm))
}

func TestPlainText(t *testing.T) {
	in := "<html><head><style>p{}</style></head><body><p>Hi&nbsp;Prof,</p><p>Can I &amp; my team<br/>meet?</p></body></html>"
	assert.Equal(t, "Hi Prof,\nCan I & my team\nmeet?", PlainText(in))
	assert.Equal(t, "already plain", PlainText("already plain"))
	assert.Equal(t, "", PlainText(""))
}
