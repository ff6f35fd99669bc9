package contract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	httpadapter "github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/application"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
)

func TestEvaluateHTTPContract(t *testing.T) {
	t.Parallel()

	router := newContractRouter(newContractService())

	body := `{"content":"BUY NOW http://a.example http://b.example http://c.example","author_id":"author-1","context":{"source_id":"stream-7","kind":"chat"}}`
	req := httptest.NewRequest(http.MethodPost, "/moderation/v1/evaluate", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer viewer-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var envelope struct {
		Status string `json:"status"`
		Data   struct {
			Verdict domain.Verdict           `json:"verdict"`
			Action  domain.EnforcementAction `json:"action"`
		} `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("expected success envelope, got %q", envelope.Status)
	}
	if envelope.Data.Verdict.Allowed {
		t.Fatalf("expected spam to be rejected: %+v", envelope.Data.Verdict)
	}
	if envelope.Data.Action.Kind != domain.ActionMute || envelope.Data.Action.DurationSeconds != domain.MuteSeconds {
		t.Fatalf("expected %ds mute, got %+v", domain.MuteSeconds, envelope.Data.Action)
	}
}

func TestEvaluateHTTPRequiresBearer(t *testing.T) {
	t.Parallel()

	router := newContractRouter(newContractService())

	req := httptest.NewRequest(http.MethodPost, "/moderation/v1/evaluate", strings.NewReader(`{"content":"x","author_id":"a"}`))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/moderation/v1/evaluate", strings.NewReader(`{"content":"x","author_id":"a"}`))
	req.Header.Set("Authorization", "Bearer forged-token")
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", res.Code)
	}
	var apiErr struct {
		Status string `json:"status"`
		Code   string `json:"code"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if apiErr.Status != "error" || apiErr.Code != "UNAUTHORIZED" {
		t.Fatalf("unexpected error body: %+v", apiErr)
	}
}

func TestEvaluateHTTPRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	router := newContractRouter(newContractService())

	req := httptest.NewRequest(http.MethodPost, "/moderation/v1/evaluate", strings.NewReader(`{"content":"x","author_id":"a","surprise":true}`))
	req.Header.Set("Authorization", "Bearer viewer-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown body field, got %d", res.Code)
	}
}

func TestReportHTTPContract(t *testing.T) {
	t.Parallel()

	router := newContractRouter(newContractService())
	body := `{"reported_user_id":"seller-3","reason":"fake listings","context":{"source_id":"listing-9","kind":"review"}}`

	req := httptest.NewRequest(http.MethodPost, "/moderation/v1/reports", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer viewer-token")
	req.Header.Set("Idempotency-Key", "report-1")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	var first struct {
		Data application.ReportResponse `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if first.Data.ReportID == "" || first.Data.ReportCount != 1 || first.Data.Flagged {
		t.Fatalf("unexpected first report response: %+v", first.Data)
	}

	// Replaying the same key returns the stored response.
	req = httptest.NewRequest(http.MethodPost, "/moderation/v1/reports", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer viewer-token")
	req.Header.Set("Idempotency-Key", "report-1")
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 on replay, got %d", res.Code)
	}
	var replay struct {
		Data application.ReportResponse `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &replay); err != nil {
		t.Fatalf("decode replay: %v", err)
	}
	if replay.Data.ReportID != first.Data.ReportID {
		t.Fatalf("replay must return the original report id: %q vs %q", replay.Data.ReportID, first.Data.ReportID)
	}

	// Same key with a different body is a conflict.
	req = httptest.NewRequest(http.MethodPost, "/moderation/v1/reports", strings.NewReader(`{"reported_user_id":"seller-4","reason":"other"}`))
	req.Header.Set("Authorization", "Bearer viewer-token")
	req.Header.Set("Idempotency-Key", "report-1")
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key, got %d", res.Code)
	}
}

func TestReportHTTPRequiresIdempotencyKey(t *testing.T) {
	t.Parallel()

	router := newContractRouter(newContractService())

	req := httptest.NewRequest(http.MethodPost, "/moderation/v1/reports", strings.NewReader(`{"reported_user_id":"seller-3","reason":"spam"}`))
	req.Header.Set("Authorization", "Bearer viewer-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key, got %d", res.Code)
	}
	var apiErr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if apiErr.Code != "IDEMPOTENCY_KEY_REQUIRED" {
		t.Fatalf("expected IDEMPOTENCY_KEY_REQUIRED, got %q", apiErr.Code)
	}
}

func TestQueueHTTPContractEnforcesRoles(t *testing.T) {
	t.Parallel()

	service := newContractService()
	router := newContractRouter(service)

	// Put one rejected entry on the queue first.
	evalBody := `{"content":"BUY NOW http://a.example http://b.example http://c.example","author_id":"author-q"}`
	seedReq := httptest.NewRequest(http.MethodPost, "/moderation/v1/evaluate", strings.NewReader(evalBody))
	seedReq.Header.Set("Authorization", "Bearer viewer-token")
	seedRes := httptest.NewRecorder()
	router.ServeHTTP(seedRes, seedReq)
	if seedRes.Code != http.StatusOK {
		t.Fatalf("seeding evaluate failed: %d", seedRes.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/moderation/v1/queue", nil)
	req.Header.Set("Authorization", "Bearer viewer-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/moderation/v1/queue?limit=10", nil)
	req.Header.Set("Authorization", "Bearer moderator-token")
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for moderator, got %d: %s", res.Code, res.Body.String())
	}
	var envelope struct {
		Data struct {
			Entries []domain.AuditEntry `json:"entries"`
		} `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode queue: %v", err)
	}
	if len(envelope.Data.Entries) != 1 || envelope.Data.Entries[0].AuthorID != "author-q" {
		t.Fatalf("unexpected queue contents: %+v", envelope.Data.Entries)
	}
}

func TestReputationHTTPContract(t *testing.T) {
	t.Parallel()

	router := newContractRouter(newContractService())

	req := httptest.NewRequest(http.MethodGet, "/moderation/v1/reputation/user-55", nil)
	req.Header.Set("Authorization", "Bearer viewer-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var envelope struct {
		Data domain.ReputationScore `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode reputation: %v", err)
	}
	if envelope.Data.UserID != "user-55" || envelope.Data.Score != 100 || envelope.Data.Level != domain.LevelTrusted {
		t.Fatalf("fresh users start trusted at 100: %+v", envelope.Data)
	}
}

func TestRestrictionHTTPContract(t *testing.T) {
	t.Parallel()

	router := newContractRouter(newContractService())

	req := httptest.NewRequest(http.MethodGet, "/moderation/v1/restrictions/user-free", nil)
	req.Header.Set("Authorization", "Bearer viewer-token")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unrestricted user, got %d", res.Code)
	}

	// A muted author shows up with an active marker.
	evalBody := `{"content":"BUY NOW http://a.example http://b.example http://c.example","author_id":"author-muted"}`
	seedReq := httptest.NewRequest(http.MethodPost, "/moderation/v1/evaluate", strings.NewReader(evalBody))
	seedReq.Header.Set("Authorization", "Bearer viewer-token")
	seedRes := httptest.NewRecorder()
	router.ServeHTTP(seedRes, seedReq)
	if seedRes.Code != http.StatusOK {
		t.Fatalf("seeding evaluate failed: %d", seedRes.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/moderation/v1/restrictions/author-muted", nil)
	req.Header.Set("Authorization", "Bearer viewer-token")
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for muted author, got %d", res.Code)
	}
	var envelope struct {
		Data domain.Restriction `json:"data"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode restriction: %v", err)
	}
	if envelope.Data.Kind != domain.ActionMute || !envelope.Data.ExpiresAt.After(time.Now().UTC()) {
		t.Fatalf("unexpected restriction: %+v", envelope.Data)
	}
}

func newContractRouter(service *application.Service) http.Handler {
	return httpadapter.NewRouter(httpadapter.NewHandler(service, stubVerifier{}, nil))
}

func newContractService() *application.Service {
	return newContractServiceWith(&contractAudit{})
}

func newContractServiceWith(audit *contractAudit) *application.Service {
	return application.NewService(application.Dependencies{
		Config: application.Config{
			ClassifierTimeout:     100 * time.Millisecond,
			ReportReviewThreshold: 5,
			IdempotencyTTL:        time.Hour,
			QueueDefaultLimit:     50,
			QueueMaxLimit:         200,
			BanRetryDelay:         time.Second,
			BanMaxAttempts:        3,
			RecentFlagWindow:      7 * 24 * time.Hour,
		},
		Policy:       contractPolicy(),
		Audit:        audit,
		Reports:      &contractReports{audit: audit},
		Directory:    noopDirectory{},
		Classifier:   allowAllClassifier{},
		Restrictions: &contractRestrictions{items: map[string]domain.Restriction{}},
		Outbox:       noopOutbox{},
		BanQueue:     noopBanQueue{},
		Idempotency:  &contractIdempotency{records: map[string]ports.IdempotencyRecord{}},
	})
}

func contractPolicy() *domain.Policy {
	policy, err := domain.NewPolicy(
		[]string{"badword"},
		[]string{`\bbuy now\b`},
		[]string{`\bwire transfer\b`},
	)
	if err != nil {
		panic(err)
	}
	return policy
}

// stubVerifier resolves well-known bearer tokens to fixed claims.
type stubVerifier struct{}

func (stubVerifier) Verify(token string) (ports.AuthClaims, error) {
	claims := map[string]ports.AuthClaims{
		"viewer-token":    {UserID: "viewer-1", Role: "viewer", ExpiresAt: time.Now().Add(time.Hour)},
		"moderator-token": {UserID: "mod-1", Role: "moderator", ExpiresAt: time.Now().Add(time.Hour)},
		"admin-token":     {UserID: "admin-1", Role: "admin", ExpiresAt: time.Now().Add(time.Hour)},
	}
	c, ok := claims[token]
	if !ok {
		return ports.AuthClaims{}, errors.New("unknown token")
	}
	return c, nil
}

type contractAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	reports []domain.UserReport
}

func (c *contractAudit) Append(_ context.Context, entry domain.AuditEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
	return nil
}

func (c *contractAudit) CountViolations(_ context.Context, userID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.AuthorID == userID && !e.Allowed {
			n++
		}
	}
	return n, nil
}

func (c *contractAudit) CountViolationsSince(_ context.Context, userID string, since time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.AuthorID == userID && !e.Allowed && e.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (c *contractAudit) CountReports(_ context.Context, userID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.reports {
		if r.ReportedUserID == userID {
			n++
		}
	}
	return n, nil
}

func (c *contractAudit) ListDisallowed(_ context.Context, limit int) ([]domain.AuditEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []domain.AuditEntry{}
	for i := len(c.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if !c.entries[i].Allowed {
			out = append(out, c.entries[i])
		}
	}
	return out, nil
}

func (c *contractAudit) seedViolations(userID string, n int, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < n; i++ {
		c.entries = append(c.entries, domain.AuditEntry{
			EntryID:   uuid.NewString(),
			AuthorID:  userID,
			Allowed:   false,
			Severity:  domain.SeverityMedium,
			Kind:      domain.KindChat,
			CreatedAt: at,
		})
	}
}

func (c *contractAudit) seedReports(userID string, n int, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < n; i++ {
		c.reports = append(c.reports, domain.UserReport{
			ReportID:       uuid.NewString(),
			ReporterID:     "seed-reporter",
			ReportedUserID: userID,
			Reason:         "seeded",
			CreatedAt:      at,
		})
	}
}

type contractReports struct {
	audit *contractAudit
}

func (c *contractReports) FileReport(_ context.Context, report domain.UserReport) error {
	c.audit.mu.Lock()
	defer c.audit.mu.Unlock()
	c.audit.reports = append(c.audit.reports, report)
	return nil
}

type noopDirectory struct{}

func (noopDirectory) Ban(context.Context, string, string) error { return nil }

type allowAllClassifier struct{}

func (allowAllClassifier) Classify(context.Context, string, ports.ClassificationPolicy) (domain.Verdict, error) {
	return domain.Verdict{Allowed: true, Severity: domain.SeverityLow, Categories: []string{}, Confidence: 0.99}, nil
}

type contractRestrictions struct {
	mu    sync.Mutex
	items map[string]domain.Restriction
}

func (c *contractRestrictions) Put(_ context.Context, restriction domain.Restriction, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[restriction.UserID] = restriction
	return nil
}

func (c *contractRestrictions) Get(_ context.Context, userID string) (*domain.Restriction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[userID]
	if !ok {
		return nil, nil
	}
	cp := r
	return &cp, nil
}

type noopOutbox struct{}

func (noopOutbox) Enqueue(context.Context, ports.OutboxEvent) error { return nil }
func (noopOutbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}
func (noopOutbox) MarkPublished(context.Context, uuid.UUID, string, time.Time) error { return nil }
func (noopOutbox) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}
func (noopOutbox) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

type noopBanQueue struct{}

func (noopBanQueue) Enqueue(context.Context, string, string, string, time.Time) error { return nil }
func (noopBanQueue) ListDue(context.Context, int, time.Time) ([]ports.BanExecution, error) {
	return nil, nil
}
func (noopBanQueue) MarkSucceeded(context.Context, uuid.UUID, time.Time) error { return nil }
func (noopBanQueue) MarkFailed(context.Context, uuid.UUID, string, time.Time, bool, time.Time) error {
	return nil
}

type contractIdempotency struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
}

func (c *contractIdempotency) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.records[key]
	if !ok {
		return nil, nil
	}
	cp := v
	return &cp, nil
}

func (c *contractIdempotency) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[key]; ok {
		return domain.ErrConflict
	}
	c.records[key] = ports.IdempotencyRecord{Key: key, RequestHash: requestHash, Status: "PENDING", ExpiresAt: expiresAt}
	return nil
}

func (c *contractIdempotency) Complete(_ context.Context, key string, responseCode int, responseBody []byte, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.records[key]
	v.Status = "COMPLETED"
	v.ResponseCode = responseCode
	v.ResponseBody = responseBody
	v.UpdatedAt = at
	c.records[key] = v
	return nil
}
