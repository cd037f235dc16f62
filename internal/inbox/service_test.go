package inbox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox-copilot/internal/api"
	"github.com/nhle/inbox-copilot/internal/model"
)

// fakeBackend routes "METHOD /path" to canned handlers and remembers the
// last JSON body sent to each route.
type fakeBackend struct {
	routes map[string]http.HandlerFunc

	mu     sync.Mutex
	bodies map[string]map[string]interface{}
}

func (fb *fakeBackend) body(key string) map[string]interface{} {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.bodies[key]
}

func newService(t *testing.T, routes map[string]http.HandlerFunc) (*Service, *fakeBackend) {
	t.Helper()

	fb := &fakeBackend{routes: routes, bodies: map[string]map[string]interface{}{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				var body map[string]interface{}
				assert.NoError(t, json.Unmarshal(data, &body))
				fb.mu.Lock()
				fb.bodies[key] = body
				fb.mu.Unlock()
			}
		}
		h, ok := fb.routes[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"error":"no route"}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewService(api.NewClient(srv.URL), nil), fb
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func replyStatus(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestListEmailsAdaptsRecords(t *testing.T) {
	received := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"GET /emails/": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "extension", r.URL.Query().Get("category"))
			assert.Equal(t, "true", r.URL.Query().Get("unread_only"))
			assert.Empty(t, r.URL.Query().Get("urgency"))
			reply(`{
				"success": true,
				"emails": [
					{"id":"42","subject":null,"sender_name":null,"sender_email":"jdoe@uni.edu",
					 "body_preview":"need extension","received_at":"` + received + `","is_read":false,
					 "category":"extension","urgency":3,"risk_flag":false,"summary":null},
					{"id":"43","subject":"Quiz","is_read":true,"risk_flag":true}
				],
				"pagination": {"page":2,"pages":3,"per_page":2,"total":6,"has_next":true,"has_prev":true}
			}`)(w, r)
		},
	})

	page, err := svc.ListEmails(context.Background(), model.ListFilter{Page: 2, Category: "extension", UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, page.Emails, 2)

	first := page.Emails[0]
	assert.Equal(t, "42", first.ID)
	assert.Equal(t, "jdoe", first.StudentName)
	assert.Equal(t, "No Subject", first.Subject)
	assert.Equal(t, "need extension", first.Summary)
	assert.InDelta(t, 0.6, first.Priority, 1e-12)
	assert.Equal(t, model.EmotionCalm, first.Emotion)
	assert.Equal(t, "2 hours ago", first.Timestamp)
	assert.True(t, first.Unread)

	second := page.Emails[1]
	assert.Equal(t, model.EmotionAnxious, second.Emotion)
	assert.Equal(t, 0.3, second.Priority)
	assert.Equal(t, "Unknown", second.Timestamp)

	assert.Equal(t, 6, page.Pagination.Total)
	assert.True(t, page.Pagination.HasNext)
}

func TestListEmailsDerivesPagingFromCounts(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"GET /emails/": reply(`{
			"success": true,
			"emails": [{"id":"1"},{"id":"2"}],
			"pagination": {"page":1,"per_page":2,"total":4,"pages":2}
		}`),
	})

	page, err := svc.ListEmails(context.Background(), model.ListFilter{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.True(t, page.Pagination.HasNext)
	assert.False(t, page.Pagination.HasPrev)
}

func TestListEmailsAllCategoryIsNotAFilter(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"GET /emails/": func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.URL.RawQuery)
			reply(`{"success":true,"emails":[]}`)(w, r)
		},
	})

	page, err := svc.ListEmails(context.Background(), model.ListFilter{Category: "all"})
	require.NoError(t, err)
	assert.Empty(t, page.Emails)
	assert.NotNil(t, page.Emails)
}

func TestListEmailsMissingField(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"GET /emails/": reply(`{"success":true}`),
	})

	_, err := svc.ListEmails(context.Background(), model.ListFilter{})
	assert.True(t, api.IsEnvelope(err))
}

func TestListEmailsEnvelopeFailure(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"GET /emails/": replyStatus(http.StatusInternalServerError,
			`{"success":false,"error":"Failed to fetch emails","message":"db down"}`),
	})

	_, err := svc.ListEmails(context.Background(), model.ListFilter{})
	reqErr, ok := api.AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, api.KindEnvelope, reqErr.Kind)
	assert.Equal(t, "Failed to fetch emails: db down", reqErr.Message)
}

func TestGetEmailWithContent(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"GET /emails/7": reply(`{"success":true,"email":{"id":"7","sender_name":"Lee",
			"body_preview":"short","body_content":"<p>long</p>","is_read":true,"category":"grades"}}`),
	})

	email, err := svc.GetEmailWithContent(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "7", email.ID)
	assert.Equal(t, "Lee", email.StudentName)
	assert.Equal(t, model.EmotionFrustrated, email.Emotion)
	require.NotNil(t, email.BodyContent)
	assert.Equal(t, "<p>long</p>", *email.BodyContent)
	assert.Nil(t, email.DraftReply)

	display, err := svc.GetEmail(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, email.DisplayEmail, *display)
}

func TestGetEmailNotFound(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"GET /emails/404": replyStatus(http.StatusNotFound, `{"success":false,"error":"Email not found"}`),
		"GET /emails/nil": reply(`{"success":true,"email":null}`),
	})

	_, err := svc.GetEmail(context.Background(), "404")
	assert.True(t, api.IsNotFound(err))

	_, err = svc.GetEmailWithContent(context.Background(), "nil")
	assert.True(t, api.IsNotFound(err))
}

func TestMarkRead(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"POST /emails/5/mark-read": reply(`{"success":true,"message":"Email marked as read"}`),
		"POST /emails/6/mark-read": reply(`{"success":false,"error":"locked"}`),
	})

	require.NoError(t, svc.MarkRead(context.Background(), "5"))
	assert.True(t, api.IsEnvelope(svc.MarkRead(context.Background(), "6")))
}

func TestSearchReturnsRawRecords(t *testing.T) {
	svc, fb := newService(t, map[string]http.HandlerFunc{
		"POST /process/search": reply(`{"success":true,"results":[
			{"id":"9","sender_email":"kim@uni.edu","summary":null,"urgency":null,"relevance":0.82}
		]}`),
	})

	res, err := svc.Search(context.Background(), "midterm regrade")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	hit := res.Results[0]
	assert.Equal(t, model.ID("9"), hit.ID)
	require.NotNil(t, hit.SenderEmail)
	assert.Equal(t, "kim@uni.edu", *hit.SenderEmail)
	assert.Nil(t, hit.Summary, "raw records keep nulls")
	assert.Nil(t, hit.Urgency)
	assert.InDelta(t, 0.82, hit.Relevance, 1e-9)

	assert.Equal(t, "midterm regrade", fb.body("POST /process/search")["query"])
}

func TestSearchBadRequest(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"POST /process/search": replyStatus(http.StatusBadRequest, `{"success":false,"error":"query required"}`),
	})

	_, err := svc.Search(context.Background(), "")
	reqErr, ok := api.AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, "query required", reqErr.Message)
}

func TestGenerateDailyDigest(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		svc, fb := newService(t, map[string]http.HandlerFunc{
			"POST /process/digest": reply(`{"success":true,"digest":{
				"summary":"Quiet day.","categories":{"extension":2},
				"high_priority":["Jo: family emergency"],"common_themes":["deadlines"],
				"recommendations":["Reply to Jo first"],
				"statistics":{"total_emails":3,"priority_distribution":{"low":1,"medium":1,"high":1}}}}`),
		})

		d, err := svc.GenerateDailyDigest(context.Background(), "2024-03-14")
		require.NoError(t, err)
		assert.Equal(t, "Quiet day.", d.Summary)
		assert.Equal(t, 2, d.Categories["extension"])
		assert.Equal(t, []string{"Jo: family emergency"}, d.HighPriority)
		require.NotNil(t, d.Statistics)
		assert.Equal(t, 3, d.Statistics.TotalEmails)
		assert.Equal(t, 1, d.Statistics.PriorityDistribution.High)
		assert.Equal(t, "2024-03-14", fb.body("POST /process/digest")["date"])
	})

	t.Run("plain text", func(t *testing.T) {
		svc, fb := newService(t, map[string]http.HandlerFunc{
			"POST /process/digest": reply(`{"success":true,"digest":"Three emails today."}`),
		})

		d, err := svc.GenerateDailyDigest(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "Three emails today.", d.Text)
		assert.NotContains(t, fb.body("POST /process/digest"), "date")
	})

	t.Run("missing", func(t *testing.T) {
		svc, _ := newService(t, map[string]http.HandlerFunc{
			"POST /process/digest": reply(`{"success":true,"digest":null}`),
		})

		_, err := svc.GenerateDailyDigest(context.Background(), "")
		assert.True(t, api.IsEnvelope(err))
	})
}

func TestGenerateReply(t *testing.T) {
	svc, fb := newService(t, map[string]http.HandlerFunc{
		"POST /process/draft": reply(`{"success":true,"draft":{"reply":"Hi Jo, yes.","reasoning":"polite"}}`),
	})

	draft, err := svc.GenerateReply(context.Background(), "12", "tone: warm")
	require.NoError(t, err)
	assert.Equal(t, "Hi Jo, yes.", draft.Reply)
	assert.Equal(t, "12", fb.body("POST /process/draft")["email_id"])
	assert.Equal(t, "tone: warm", fb.body("POST /process/draft")["preferences"])

	_, err = svc.GenerateReply(context.Background(), "12", "")
	require.NoError(t, err)
	assert.NotContains(t, fb.body("POST /process/draft"), "preferences")
}

func TestGenerateReplyNotFound(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"POST /process/draft": replyStatus(http.StatusNotFound, `{"success":false,"error":"Email not found"}`),
	})

	_, err := svc.GenerateReply(context.Background(), "99", "")
	assert.True(t, api.IsNotFound(err))
}

func TestClassifyEmail(t *testing.T) {
	svc, fb := newService(t, map[string]http.HandlerFunc{
		"POST /process/classify": reply(`{"success":true,"classification":{
			"category":"honor","priority_score":0.9,"tone":"anxious","summary":"Possible collaboration","hidden_intent":""}}`),
	})

	c, err := svc.ClassifyEmail(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "honor", c.Category)
	assert.InDelta(t, 0.9, c.PriorityScore, 1e-9)
	assert.Equal(t, "3", fb.body("POST /process/classify")["email_id"])
}

func TestBatchClassify(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"POST /process/batch-classify": reply(`{"success":true,"processed":14}`),
	})

	n, err := svc.BatchClassify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 14, n)
}

func TestBatchClassifyMissingCount(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"POST /process/batch-classify": reply(`{"success":true}`),
	})

	_, err := svc.BatchClassify(context.Background())
	assert.True(t, api.IsEnvelope(err))
}

func TestSyncEmails(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"POST /emails/sync": reply(`{"success":true,"new_emails":4,"total_emails":120,"message":"Synced 4 new emails"}`),
	})

	res, err := svc.SyncEmails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.NewEmails)
	assert.Equal(t, 120, res.TotalEmails)
	assert.Equal(t, "Synced 4 new emails", res.Message)
}

func TestSyncEmailsConflict(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"POST /emails/sync": replyStatus(http.StatusConflict, `{"success":false,"error":"Sync already in progress"}`),
	})

	_, err := svc.SyncEmails(context.Background())
	reqErr, ok := api.AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, reqErr.Status)
	assert.Equal(t, "Sync already in progress", reqErr.Message)
}

func TestCategoriesAndStats(t *testing.T) {
	svc, _ := newService(t, map[string]http.HandlerFunc{
		"GET /emails/categories": reply(`{"success":true,"categories":[{"category":"urgent","count":2},{"category":"grades","count":5}]}`),
		"GET /emails/stats": reply(`{"success":true,"stats":{"total_emails":40,"unread_emails":7,
			"processed_emails":30,"urgent_emails":2,"risk_emails":1,"processing_rate":75.0}}`),
	})

	cats, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryCount{{Category: "urgent", Count: 2}, {Category: "grades", Count: 5}}, cats)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40, stats.TotalEmails)
	assert.Equal(t, 1, stats.RiskEmails)
	assert.InDelta(t, 75.0, stats.ProcessingRate, 1e-9)
}

func TestTransportFailureSurfacesAsRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	svc := NewService(api.NewClient(base), nil)
	_, err := svc.ListEmails(context.Background(), model.ListFilter{})
	assert.True(t, api.IsTransport(err))
}
