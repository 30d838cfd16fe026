package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/repo"
	"github.com/umiddey/propertyflow-backend/internal/services"
)

func TestSubmitRequest_BindsFullPayload(t *testing.T) {
	var got services.CreateInput
	wf := &stubWorkflow{
		create: func(_ context.Context, in services.CreateInput) (*domain.ServiceRequest, error) {
			got = in
			return &domain.ServiceRequest{ID: "sr-1", TenantID: in.TenantID}, nil
		},
	}
	r := newRouter(t, wf, &stubContractors{})

	body := `{
		"property_id": "prop-7",
		"tenant_name": "Frau Schmidt",
		"tenant_email": "schmidt@example.com",
		"property_address": "Hauptstr. 1, 10115 Berlin",
		"request_type": "plumbing",
		"priority": "urgent",
		"title": "Leaking pipe",
		"description": "Under the kitchen sink",
		"preferred_slots": ["2026-09-02T09:00:00Z", "2026-09-03T14:00:00Z"],
		"item_ownership": "landlord",
		"item_category": "kitchen",
		"is_essential": true
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/portal/requests", jsonBody(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "tenant-42")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got.TenantID != "tenant-42" || got.CreatedBy != "tenant-42" {
		t.Errorf("tenant identity not taken from header: %+v", got)
	}
	if got.PropertyID != "prop-7" || got.TenantEmail != "schmidt@example.com" {
		t.Errorf("contact fields not bound: %+v", got)
	}
	if got.RequestType != domain.RequestTypePlumbing || got.Priority != domain.PriorityUrgent {
		t.Errorf("type/priority = %q/%q", got.RequestType, got.Priority)
	}
	if len(got.PreferredSlots) != 2 || !got.PreferredSlots[0].Equal(time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("slots not parsed: %v", got.PreferredSlots)
	}
	if got.Legal.ItemOwnership != "landlord" || !got.Legal.IsEssential {
		t.Errorf("legal facts not bound: %+v", got.Legal)
	}
}

func TestSubmitRequest_RejectsBadSlots(t *testing.T) {
	r := newRouter(t, &stubWorkflow{}, &stubContractors{})
	w := doJSON(t, r, http.MethodPost, "/portal/requests",
		`{"property_id":"p","request_type":"plumbing","title":"x","preferred_slots":["tomorrow morning"]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSubmitRequest_NoContractIs403(t *testing.T) {
	r := newRouter(t, errStub(services.ErrNoActiveContract), &stubContractors{})
	w := doJSON(t, r, http.MethodPost, "/portal/requests",
		`{"property_id":"p","request_type":"plumbing","title":"x"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestMyRequests_ScopedToCaller(t *testing.T) {
	var gotFilter repo.ListFilter
	wf := &stubWorkflow{
		list: func(_ context.Context, f repo.ListFilter, _, _ int) ([]domain.ServiceRequest, int64, error) {
			gotFilter = f
			return nil, 0, nil
		},
	}
	r := newRouter(t, wf, &stubContractors{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/portal/requests", nil)
	req.Header.Set("X-User-ID", "tenant-42")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotFilter.TenantID != "tenant-42" {
		t.Errorf("filter.TenantID = %q, want tenant-42", gotFilter.TenantID)
	}
}

func TestMyRequest_ForwardsTenantID(t *testing.T) {
	var gotID, gotTenant string
	wf := &stubWorkflow{
		getForTenant: func(_ context.Context, id, tenantID string) (*domain.ServiceRequest, error) {
			gotID, gotTenant = id, tenantID
			return &domain.ServiceRequest{ID: id}, nil
		},
	}
	r := newRouter(t, wf, &stubContractors{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/portal/requests/sr-5", nil)
	req.Header.Set("X-User-ID", "tenant-42")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotID != "sr-5" || gotTenant != "tenant-42" {
		t.Errorf("got (%q, %q), want (sr-5, tenant-42)", gotID, gotTenant)
	}
}

func TestConfirmCompletion_QueryContract(t *testing.T) {
	var gotToken string
	var gotIn services.ConfirmInput
	wf := &stubWorkflow{
		confirm: func(_ context.Context, token string, in services.ConfirmInput) (*domain.ServiceRequest, error) {
			gotToken, gotIn = token, in
			return &domain.ServiceRequest{ID: "sr-1"}, nil
		},
	}
	r := newRouter(t, wf, &stubContractors{})

	w := doJSON(t, r, http.MethodGet,
		"/portal/confirm-completion?token=confirm_abcd1234abcd1234&completed=false&notes=still+broken&rating=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if gotToken != "confirm_abcd1234abcd1234" {
		t.Errorf("token = %q", gotToken)
	}
	if gotIn.Completed || gotIn.Notes != "still broken" {
		t.Errorf("input = %+v", gotIn)
	}
	if gotIn.Rating == nil || *gotIn.Rating != 2 {
		t.Errorf("rating not forwarded: %v", gotIn.Rating)
	}
}

func TestConfirmCompletion_Validation(t *testing.T) {
	r := newRouter(t, &stubWorkflow{}, &stubContractors{})

	if w := doJSON(t, r, http.MethodGet, "/portal/confirm-completion?completed=true", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing token: status = %d, want 400", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/portal/confirm-completion?token=confirm_aa&completed=maybe", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad completed flag: status = %d, want 400", w.Code)
	}
}

func TestConfirmCompletion_SpentLinkIs410(t *testing.T) {
	r := newRouter(t, errStub(services.ErrTokenAlreadyUsed), &stubContractors{})
	w := doJSON(t, r, http.MethodGet, "/portal/confirm-completion?token=confirm_aa&completed=true", "")
	if w.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", w.Code)
	}
}

func TestUploadRequestPhoto_AcceptsJPEG(t *testing.T) {
	var gotID, gotTenant, gotURL string
	wf := &stubWorkflow{
		attachPhoto: func(_ context.Context, id, tenantID, fileURL string) (*domain.ServiceRequest, error) {
			gotID, gotTenant, gotURL = id, tenantID, fileURL
			return &domain.ServiceRequest{ID: id, TenantID: tenantID, AttachmentURLs: []string{fileURL}}, nil
		},
	}
	r := newRouter(t, wf, &stubContractors{})

	body, ct := multipartUpload(t, "leak.jpg", "image/jpeg", []byte{0xFF, 0xD8, 0xFF})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/portal/requests/sr-5/photos", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-User-ID", "tenant-42")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if gotID != "sr-5" || gotTenant != "tenant-42" {
		t.Errorf("got (%q, %q), want (sr-5, tenant-42)", gotID, gotTenant)
	}
	if gotURL == "" {
		t.Error("no file URL attached")
	}
}

func TestUploadRequestPhoto_RejectsNonImage(t *testing.T) {
	r := newRouter(t, &stubWorkflow{}, &stubContractors{})

	body, ct := multipartUpload(t, "invoice.pdf", "application/pdf", []byte("%PDF-1.4 fake"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/portal/requests/sr-5/photos", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-User-ID", "tenant-42")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", w.Code)
	}
}

func TestUploadRequestPhoto_MissingPart(t *testing.T) {
	r := newRouter(t, &stubWorkflow{}, &stubContractors{})
	w := doJSON(t, r, http.MethodPost, "/portal/requests/sr-5/photos", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestUploadRequestPhoto_ForeignRequestIs404(t *testing.T) {
	r := newRouter(t, errStub(services.ErrRequestNotFound), &stubContractors{})

	body, ct := multipartUpload(t, "leak.jpg", "image/jpeg", []byte{0xFF, 0xD8, 0xFF})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/portal/requests/sr-other/photos", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-User-ID", "tenant-42")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
