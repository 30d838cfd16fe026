package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/umiddey/propertyflow-backend/internal/config"
	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/mail"
	"github.com/umiddey/propertyflow-backend/internal/repo"
)

// --- fake mailer capturing outbound messages ---

type captureMailer struct {
	sent []mail.Message
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

// --- test DB helper (pure-Go sqlite, no CGO) ---

func newRouterDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		APIBasePath: "/api/v1",
		PublicBase:  "http://localhost:8080",
		UploadDir:   t.TempDir(),
		RateRPS:     100,
		RateBurst:   100,
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
		Workflow: config.WorkflowConfig{
			ConfirmationWindow:  48 * time.Hour,
			AutoConfirmAfter:    48 * time.Hour,
			ConfirmationLinkTTL: 7 * 24 * time.Hour,
			MaxMatchResults:     5,
			MaxUploadBytes:      1 << 20,
		},
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *captureMailer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newRouterDB(t)
	mailer := &captureMailer{}
	cfg := testConfig(t)
	r := gin.New()
	RegisterRoutes(r, BuildServices(db, mailer, cfg), cfg)
	return r, db, mailer
}

func TestRegisterRoutes_HealthMetricsFallbacks(t *testing.T) {
	r, _, _ := newTestRouter(t)

	// /health works
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404 envelope
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid 404 body: %v", err)
	}
	if body["code"] != "not_found" {
		t.Fatalf("404 code = %v", body["code"])
	}

	// NoMethod → 405 (DELETE /health)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSAllowAll(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
}

// The full happy path through real services: contract gate, legal verdict,
// matching, invitation email, scheduling link, completion, confirmation
// link, invoice link.
func TestRegisterRoutes_WorkflowEndToEnd(t *testing.T) {
	r, db, mailer := newTestRouter(t)
	ctx := context.Background()

	// An active contract so intake passes the legal gate.
	if err := db.Create(&domain.Contract{
		ID: uuid.NewString(), TenantID: "tenant-1", PropertyID: "prop-1",
		Active: true, StartDate: time.Now().AddDate(-1, 0, 0),
	}).Error; err != nil {
		t.Fatalf("seed contract: %v", err)
	}

	// One eligible plumber in Berlin.
	plumber := &domain.ContractorProfile{
		ID: uuid.NewString(), AccountID: uuid.NewString(),
		Email: "plumber@example.com", Company: "Rohr Frei GmbH",
		ServicesOffered: []string{"plumbing"}, ServiceAreas: []string{"Berlin"},
		PostalCodes: []string{"10115"}, ServiceRadiusKm: 25,
		HourlyRate: 60, EmergencyMultiplier: 1.5,
		Rating: 4.5, RatingCount: 12, CompletionRate: 95, OnTimeRate: 90,
		TenantSatisfaction: 4, AvgResponseHours: 6,
		MaxConcurrentJobs: 3, Available: true, InsuranceVerified: true,
	}
	if err := repo.CreateContractor(ctx, db, plumber); err != nil {
		t.Fatalf("seed contractor: %v", err)
	}
	if err := repo.CreateLicense(ctx, db, &domain.ContractorLicense{
		ID: uuid.NewString(), ContractorID: plumber.ID,
		LicenseType: "plumbing", LicenseNumber: "HWK-1",
		VerificationStatus: domain.LicenseVerified,
		ExpirationDate:     time.Now().AddDate(1, 0, 0),
	}); err != nil {
		t.Fatalf("seed license: %v", err)
	}

	// 1) Tenant submits.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/portal/requests", strings.NewReader(`{
		"property_id": "prop-1",
		"tenant_name": "Frau Schmidt",
		"tenant_email": "schmidt@example.com",
		"property_address": "Hauptstr. 1, 10115 Berlin",
		"request_type": "plumbing",
		"priority": "routine",
		"title": "Leaking pipe",
		"item_ownership": "landlord",
		"item_category": "bathroom"
	}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "tenant-1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: status = %d, body %s", w.Code, w.Body.String())
	}
	var created domain.ServiceRequest
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("submit body: %v", err)
	}

	// 2) Back office approves; matching runs and the plumber is invited.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+created.ID+"/approve",
		strings.NewReader(`{"decision":"approved","postal_code":"10115","city":"Berlin"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: status = %d, body %s", w.Code, w.Body.String())
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To != "plumber@example.com" {
		t.Fatalf("expected one invitation to the plumber, got %+v", mailer.sent)
	}

	// The invitation embeds the scheduling link.
	var schedToken string
	for _, part := range strings.Split(mailer.sent[0].Body, `"`) {
		if i := strings.Index(part, "/contractor/schedule/"); i >= 0 {
			schedToken = part[i+len("/contractor/schedule/"):]
		}
	}
	if !strings.HasPrefix(schedToken, "schedule_") {
		t.Fatalf("no scheduling link in invitation: %q", mailer.sent[0].Body)
	}

	// 3) Contractor opens the link and proposes a time.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/contractor/schedule/"+schedToken, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("schedule form: status = %d, body %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/contractor/schedule/"+schedToken,
		strings.NewReader(`{"action":"propose","proposed_datetime":"2026-09-02T09:00:00Z"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("schedule respond: status = %d, body %s", w.Code, w.Body.String())
	}

	// The link is now spent.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/contractor/schedule/"+schedToken, nil))
	if w.Code != http.StatusGone {
		t.Fatalf("spent link: status = %d, want 410", w.Code)
	}

	// 4) Work done; tenant gets the confirmation email.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/requests/"+created.ID+"/complete",
		strings.NewReader(`{"notes":"pipe replaced"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("complete: status = %d, body %s", w.Code, w.Body.String())
	}
	if len(mailer.sent) != 2 || mailer.sent[1].To != "schmidt@example.com" {
		t.Fatalf("expected confirmation email to tenant, got %+v", mailer.sent)
	}

	// 5) Tenant confirms via the emailed link; invoice upload opens and the
	// contractor receives the invoice invitation.
	sr, err := repo.GetServiceRequest(ctx, db, created.ID)
	if err != nil {
		t.Fatalf("reload request: %v", err)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/v1/portal/confirm-completion?token="+sr.ConfirmationToken+"&completed=true", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: status = %d, body %s", w.Code, w.Body.String())
	}
	if len(mailer.sent) != 3 || mailer.sent[2].To != "plumber@example.com" {
		t.Fatalf("expected invoice invitation, got %d mails", len(mailer.sent))
	}

	// 6) Contractor submits the invoice; small plumbing bills auto-approve
	// and the request stays completed.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/contractor/invoice/"+sr.InvoiceToken,
		strings.NewReader(`{"amount":280,"description":"Pipe replacement"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("invoice: status = %d, body %s", w.Code, w.Body.String())
	}

	final, err := repo.GetServiceRequest(ctx, db, created.ID)
	if err != nil {
		t.Fatalf("reload final: %v", err)
	}
	if final.Status != domain.StatusCompleted {
		t.Fatalf("final status = %q, want completed", final.Status)
	}
	if final.InvoiceSubmittedAt == nil {
		t.Fatal("invoice submission not stamped")
	}
}
