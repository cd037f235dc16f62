// Package inbox is the email service: every email and AI-processing
// operation the backend offers, with results adapted for display.
package inbox

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/inbox-copilot/internal/adapter"
	"github.com/nhle/inbox-copilot/internal/api"
	"github.com/nhle/inbox-copilot/internal/metrics"
	"github.com/nhle/inbox-copilot/internal/model"
)

// Backend is the transport the service talks through; *api.Client
// implements it.
type Backend interface {
	Get(ctx context.Context, path string, result interface{}) error
	Post(ctx context.Context, path string, body, result interface{}) error
}

// Service exposes the backend's email endpoints.
type Service struct {
	backend Backend
	logger  *zap.Logger
}

// NewService creates an email service on top of backend.
func NewService(backend Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, logger: logger.Named("inbox")}
}

// EmailPage is one page of adapted emails.
type EmailPage struct {
	Emails     []model.DisplayEmail `json:"emails" yaml:"emails"`
	Pagination model.Pagination     `json:"pagination" yaml:"pagination"`
}

// SearchResult holds raw search hits. They are deliberately not adapted:
// callers format sender addresses and summaries themselves.
type SearchResult struct {
	Results []model.SearchHit `json:"results" yaml:"results"`
}

type listResponse struct {
	api.Envelope
	Emails     []model.BackendEmail `json:"emails"`
	Pagination *model.Pagination    `json:"pagination"`
}

type emailResponse struct {
	api.Envelope
	Email *model.BackendEmail `json:"email"`
}

type searchResponse struct {
	api.Envelope
	Results []model.SearchHit `json:"results"`
}

type digestResponse struct {
	api.Envelope
	Digest json.RawMessage `json:"digest"`
}

type draftResponse struct {
	api.Envelope
	Draft *model.DraftReply `json:"draft"`
}

type classifyResponse struct {
	api.Envelope
	Classification *model.Classification `json:"classification"`
}

type batchResponse struct {
	api.Envelope
	Processed *int `json:"processed"`
}

type syncResponse struct {
	api.Envelope
	NewEmails   int `json:"new_emails"`
	TotalEmails int `json:"total_emails"`
}

type categoriesResponse struct {
	api.Envelope
	Categories []model.CategoryCount `json:"categories"`
}

type statsResponse struct {
	api.Envelope
	Stats *model.Stats `json:"stats"`
}

// ListEmails fetches one page of emails matching filter.
func (s *Service) ListEmails(ctx context.Context, filter model.ListFilter) (*EmailPage, error) {
	path := "/emails/"
	if q := listQuery(filter).Encode(); q != "" {
		path += "?" + q
	}

	var resp listResponse
	if err := s.backend.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if resp.Emails == nil {
		return nil, api.MissingField(http.MethodGet, path, "emails")
	}

	page := &EmailPage{Emails: adapter.AdaptMany(resp.Emails)}
	if resp.Pagination != nil {
		page.Pagination = *resp.Pagination
	} else {
		page.Pagination = model.Pagination{Page: 1, PerPage: len(resp.Emails), Total: len(resp.Emails), Pages: 1}
	}
	page.Pagination.Normalize()

	s.logger.Debug("listed emails",
		zap.Int("count", len(page.Emails)),
		zap.Int("page", page.Pagination.Page),
		zap.Int("total", page.Pagination.Total),
	)
	return page, nil
}

func listQuery(f model.ListFilter) url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(f.PerPage))
	}
	if f.Category != "" && f.Category != model.CategoryAll {
		q.Set("category", f.Category)
	}
	if f.Urgency > 0 {
		q.Set("urgency", strconv.Itoa(f.Urgency))
	}
	if f.UnreadOnly {
		q.Set("unread_only", "true")
	}
	return q
}

// GetRaw fetches a single backend record without adapting it.
func (s *Service) GetRaw(ctx context.Context, id string) (*model.BackendEmail, error) {
	path := emailPath(id)

	var resp emailResponse
	if err := s.backend.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if resp.Email == nil {
		return nil, &api.RequestError{
			Kind: api.KindNotFound, Method: http.MethodGet, Path: path,
			Message: "email " + id + " not found",
		}
	}
	return resp.Email, nil
}

// GetEmail fetches a single email.
func (s *Service) GetEmail(ctx context.Context, id string) (*model.DisplayEmail, error) {
	raw, err := s.GetRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	email := adapter.AdaptOne(*raw)
	return &email, nil
}

// GetEmailWithContent fetches a single email with its body and draft.
func (s *Service) GetEmailWithContent(ctx context.Context, id string) (*model.EmailWithContent, error) {
	raw, err := s.GetRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	email := adapter.AdaptOneWithContent(*raw)
	return &email, nil
}

// MarkRead marks an email as read on the backend.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	var resp api.Envelope
	if err := s.backend.Post(ctx, emailPath(id)+"/mark-read", nil, &resp); err != nil {
		return err
	}
	s.logger.Debug("marked email read", zap.String("email_id", id))
	return nil
}

// Search runs a semantic search over the inbox.
func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	const path = "/process/search"

	var resp searchResponse
	if err := s.backend.Post(ctx, path, map[string]string{"query": query}, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return nil, api.MissingField(http.MethodPost, path, "results")
	}
	return &SearchResult{Results: resp.Results}, nil
}

// GenerateDailyDigest asks the backend to summarize one day of mail. An
// empty date means today on the server's clock.
func (s *Service) GenerateDailyDigest(ctx context.Context, date string) (*model.Digest, error) {
	const path = "/process/digest"

	body := map[string]string{}
	if date != "" {
		body["date"] = date
	}

	var resp digestResponse
	if err := s.backend.Post(ctx, path, body, &resp); err != nil {
		return nil, err
	}

	digest, ok := decodeDigest(resp.Digest)
	if !ok {
		return nil, api.MissingField(http.MethodPost, path, "digest")
	}
	return digest, nil
}

// decodeDigest accepts either the structured digest object or a plain
// string.
func decodeDigest(raw json.RawMessage) (*model.Digest, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}

	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, false
		}
		return &model.Digest{Text: text}, true
	}

	var digest model.Digest
	if err := json.Unmarshal(raw, &digest); err != nil {
		return nil, false
	}
	return &digest, true
}

// GenerateReply asks the backend to draft a reply to an email. Preferences
// is free text (tone, length, policies) and is omitted when empty.
func (s *Service) GenerateReply(ctx context.Context, id, preferences string) (*model.DraftReply, error) {
	const path = "/process/draft"

	body := map[string]string{"email_id": id}
	if strings.TrimSpace(preferences) != "" {
		body["preferences"] = preferences
	}

	var resp draftResponse
	if err := s.backend.Post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Draft == nil {
		return nil, api.MissingField(http.MethodPost, path, "draft")
	}
	return resp.Draft, nil
}

// ClassifyEmail runs the classifier on one email.
func (s *Service) ClassifyEmail(ctx context.Context, id string) (*model.Classification, error) {
	const path = "/process/classify"

	var resp classifyResponse
	if err := s.backend.Post(ctx, path, map[string]string{"email_id": id}, &resp); err != nil {
		return nil, err
	}
	if resp.Classification == nil {
		return nil, api.MissingField(http.MethodPost, path, "classification")
	}
	return resp.Classification, nil
}

// BatchClassify classifies every unprocessed email and returns how many
// were processed.
func (s *Service) BatchClassify(ctx context.Context) (int, error) {
	const path = "/process/batch-classify"

	var resp batchResponse
	if err := s.backend.Post(ctx, path, map[string]string{}, &resp); err != nil {
		return 0, err
	}
	if resp.Processed == nil {
		return 0, api.MissingField(http.MethodPost, path, "processed")
	}
	s.logger.Info("batch classified emails", zap.Int("processed", *resp.Processed))
	return *resp.Processed, nil
}

// SyncEmails pulls new mail from the professor's mailbox into the backend.
func (s *Service) SyncEmails(ctx context.Context) (*model.SyncResult, error) {
	var resp syncResponse
	if err := s.backend.Post(ctx, "/emails/sync", nil, &resp); err != nil {
		return nil, err
	}

	metrics.EmailsSynced.Add(float64(resp.NewEmails))
	s.logger.Info("synced mailbox",
		zap.Int("new_emails", resp.NewEmails),
		zap.Int("total_emails", resp.TotalEmails),
	)

	return &model.SyncResult{
		Message:     resp.Message,
		NewEmails:   resp.NewEmails,
		TotalEmails: resp.TotalEmails,
	}, nil
}

// Categories returns the number of emails in each category.
func (s *Service) Categories(ctx context.Context) ([]model.CategoryCount, error) {
	const path = "/emails/categories"

	var resp categoriesResponse
	if err := s.backend.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if resp.Categories == nil {
		return nil, api.MissingField(http.MethodGet, path, "categories")
	}
	return resp.Categories, nil
}

// Stats returns mailbox statistics.
func (s *Service) Stats(ctx context.Context) (*model.Stats, error) {
	const path = "/emails/stats"

	var resp statsResponse
	if err := s.backend.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if resp.Stats == nil {
		return nil, api.MissingField(http.MethodGet, path, "stats")
	}
	return resp.Stats, nil
}

func emailPath(id string) string {
	return "/emails/" + url.PathEscape(id)
}
