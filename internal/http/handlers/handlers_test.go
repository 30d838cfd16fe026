package handlers

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/repo"
	"github.com/umiddey/propertyflow-backend/internal/services"
)

// ---------- flexible service stubs ----------

// stubWorkflow implements WorkflowService with overridable behavior per
// method; a nil field yields a harmless zero response.
type stubWorkflow struct {
	create       func(context.Context, services.CreateInput) (*domain.ServiceRequest, error)
	approve      func(context.Context, string, services.ApproveInput) (*services.ApprovalResult, error)
	get          func(context.Context, string) (*domain.ServiceRequest, error)
	getForTenant func(context.Context, string, string) (*domain.ServiceRequest, error)
	list         func(context.Context, repo.ListFilter, int, int) ([]domain.ServiceRequest, int64, error)
	archive      func(context.Context, string) error
	complete     func(context.Context, string, string, bool) (*domain.ServiceRequest, error)
	completeTnt  func(context.Context, string, string, string) (*domain.ServiceRequest, error)
	getSchedule  func(context.Context, string) (*domain.ServiceRequest, error)
	respond      func(context.Context, string, services.ScheduleInput) (*domain.ServiceRequest, error)
	getInvoice   func(context.Context, string) (*domain.ServiceRequest, error)
	submitInv    func(context.Context, string, float64, string) (*services.InvoiceResult, error)
	attachFile   func(context.Context, string, string) error
	attachPhoto  func(context.Context, string, string, string) (*domain.ServiceRequest, error)
	confirm      func(context.Context, string, services.ConfirmInput) (*domain.ServiceRequest, error)
}

func (s *stubWorkflow) Create(ctx context.Context, in services.CreateInput) (*domain.ServiceRequest, error) {
	if s.create != nil {
		return s.create(ctx, in)
	}
	return &domain.ServiceRequest{ID: "sr-1", TenantID: in.TenantID, Title: in.Title}, nil
}

func (s *stubWorkflow) Approve(ctx context.Context, id string, in services.ApproveInput) (*services.ApprovalResult, error) {
	if s.approve != nil {
		return s.approve(ctx, id, in)
	}
	return &services.ApprovalResult{Request: &domain.ServiceRequest{ID: id}}, nil
}

func (s *stubWorkflow) Get(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.ServiceRequest{ID: id}, nil
}

func (s *stubWorkflow) GetForTenant(ctx context.Context, id, tenantID string) (*domain.ServiceRequest, error) {
	if s.getForTenant != nil {
		return s.getForTenant(ctx, id, tenantID)
	}
	return &domain.ServiceRequest{ID: id, TenantID: tenantID}, nil
}

func (s *stubWorkflow) List(ctx context.Context, f repo.ListFilter, offset, limit int) ([]domain.ServiceRequest, int64, error) {
	if s.list != nil {
		return s.list(ctx, f, offset, limit)
	}
	return nil, 0, nil
}

func (s *stubWorkflow) Archive(ctx context.Context, id string) error {
	if s.archive != nil {
		return s.archive(ctx, id)
	}
	return nil
}

func (s *stubWorkflow) MarkComplete(ctx context.Context, id, notes string, confirmed bool) (*domain.ServiceRequest, error) {
	if s.complete != nil {
		return s.complete(ctx, id, notes, confirmed)
	}
	return &domain.ServiceRequest{ID: id}, nil
}

func (s *stubWorkflow) MarkCompleteForTenant(ctx context.Context, id, tenantID, notes string) (*domain.ServiceRequest, error) {
	if s.completeTnt != nil {
		return s.completeTnt(ctx, id, tenantID, notes)
	}
	return &domain.ServiceRequest{ID: id, TenantID: tenantID}, nil
}

func (s *stubWorkflow) GetBySchedulingToken(ctx context.Context, token string) (*domain.ServiceRequest, error) {
	if s.getSchedule != nil {
		return s.getSchedule(ctx, token)
	}
	return &domain.ServiceRequest{ID: "sr-1"}, nil
}

func (s *stubWorkflow) ScheduleRespond(ctx context.Context, token string, in services.ScheduleInput) (*domain.ServiceRequest, error) {
	if s.respond != nil {
		return s.respond(ctx, token, in)
	}
	return &domain.ServiceRequest{ID: "sr-1"}, nil
}

func (s *stubWorkflow) GetByInvoiceToken(ctx context.Context, token string) (*domain.ServiceRequest, error) {
	if s.getInvoice != nil {
		return s.getInvoice(ctx, token)
	}
	return &domain.ServiceRequest{ID: "sr-1"}, nil
}

func (s *stubWorkflow) SubmitInvoice(ctx context.Context, token string, amount float64, notes string) (*services.InvoiceResult, error) {
	if s.submitInv != nil {
		return s.submitInv(ctx, token, amount, notes)
	}
	return &services.InvoiceResult{Request: &domain.ServiceRequest{ID: "sr-1"}}, nil
}

func (s *stubWorkflow) AttachInvoiceFile(ctx context.Context, token, fileURL string) error {
	if s.attachFile != nil {
		return s.attachFile(ctx, token, fileURL)
	}
	return nil
}

func (s *stubWorkflow) AttachRequestPhoto(ctx context.Context, id, tenantID, fileURL string) (*domain.ServiceRequest, error) {
	if s.attachPhoto != nil {
		return s.attachPhoto(ctx, id, tenantID, fileURL)
	}
	return &domain.ServiceRequest{ID: id, TenantID: tenantID, AttachmentURLs: []string{fileURL}}, nil
}

func (s *stubWorkflow) ConfirmCompletion(ctx context.Context, token string, in services.ConfirmInput) (*domain.ServiceRequest, error) {
	if s.confirm != nil {
		return s.confirm(ctx, token, in)
	}
	return &domain.ServiceRequest{ID: "sr-1"}, nil
}

// stubContractors implements ContractorAdmin.
type stubContractors struct {
	create     func(context.Context, *domain.ContractorProfile) (*domain.ContractorProfile, error)
	get        func(context.Context, string) (*domain.ContractorProfile, error)
	addLicense func(context.Context, string, *domain.ContractorLicense) (*domain.ContractorLicense, error)
	licenses   func(context.Context, string) (*services.LicenseOverview, error)
}

func (s *stubContractors) Create(ctx context.Context, p *domain.ContractorProfile) (*domain.ContractorProfile, error) {
	if s.create != nil {
		return s.create(ctx, p)
	}
	p.ID = "ctr-1"
	return p, nil
}

func (s *stubContractors) Get(ctx context.Context, id string) (*domain.ContractorProfile, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.ContractorProfile{ID: id}, nil
}

func (s *stubContractors) AddLicense(ctx context.Context, contractorID string, l *domain.ContractorLicense) (*domain.ContractorLicense, error) {
	if s.addLicense != nil {
		return s.addLicense(ctx, contractorID, l)
	}
	l.ID = "lic-1"
	l.ContractorID = contractorID
	return l, nil
}

func (s *stubContractors) LicensesFor(ctx context.Context, contractorID string) (*services.LicenseOverview, error) {
	if s.licenses != nil {
		return s.licenses(ctx, contractorID)
	}
	return &services.LicenseOverview{}, nil
}

// ---------- router scaffolding ----------

// newRouter mounts every handler route the way the real router does, minus
// the middleware stack.
func newRouter(t *testing.T, wf WorkflowService, ca ContractorAdmin) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := New(wf, ca, 1<<20, t.TempDir())

	r := gin.New()
	r.GET("/requests", h.ListRequests)
	r.GET("/requests/:id", h.GetRequest)
	r.POST("/requests/:id/approve", h.ApproveRequest)
	r.POST("/requests/:id/complete", h.CompleteRequest)
	r.DELETE("/requests/:id", h.ArchiveRequest)

	r.POST("/contractors", h.CreateContractor)
	r.GET("/contractors/:id", h.GetContractor)
	r.POST("/contractors/:id/licenses", h.AddLicense)
	r.GET("/contractors/:id/licenses", h.ListLicenses)

	r.POST("/portal/requests", h.SubmitRequest)
	r.GET("/portal/requests", h.MyRequests)
	r.GET("/portal/requests/:id", h.MyRequest)
	r.POST("/portal/requests/:id/complete", h.CompleteMyRequest)
	r.POST("/portal/requests/:id/photos", h.UploadRequestPhoto)
	r.GET("/portal/confirm-completion", h.ConfirmCompletion)

	r.GET("/contractor/schedule/:token", h.GetSchedule)
	r.POST("/contractor/schedule/:token", h.RespondSchedule)
	r.GET("/contractor/invoice/:token", h.GetInvoiceContext)
	r.POST("/contractor/invoice/:token", h.SubmitInvoice)
	r.POST("/contractor/invoice/:token/upload", h.UploadInvoiceFile)
	return r
}

// errStub wraps a WorkflowService whose every overridable method fails with
// the given error, for exercising mapServiceError.
func errStub(err error) *stubWorkflow {
	return &stubWorkflow{
		create:       func(context.Context, services.CreateInput) (*domain.ServiceRequest, error) { return nil, err },
		approve:      func(context.Context, string, services.ApproveInput) (*services.ApprovalResult, error) { return nil, err },
		get:          func(context.Context, string) (*domain.ServiceRequest, error) { return nil, err },
		getForTenant: func(context.Context, string, string) (*domain.ServiceRequest, error) { return nil, err },
		archive:      func(context.Context, string) error { return err },
		complete:     func(context.Context, string, string, bool) (*domain.ServiceRequest, error) { return nil, err },
		completeTnt:  func(context.Context, string, string, string) (*domain.ServiceRequest, error) { return nil, err },
		getSchedule:  func(context.Context, string) (*domain.ServiceRequest, error) { return nil, err },
		respond: func(context.Context, string, services.ScheduleInput) (*domain.ServiceRequest, error) {
			return nil, err
		},
		getInvoice: func(context.Context, string) (*domain.ServiceRequest, error) { return nil, err },
		submitInv:  func(context.Context, string, float64, string) (*services.InvoiceResult, error) { return nil, err },
		attachFile: func(context.Context, string, string) error { return err },
		attachPhoto: func(context.Context, string, string, string) (*domain.ServiceRequest, error) {
			return nil, err
		},
		confirm: func(context.Context, string, services.ConfirmInput) (*domain.ServiceRequest, error) {
			return nil, err
		},
	}
}

var errBoom = errors.New("boom")

// jsonBody returns a reader for body, or nil when body is empty so requests
// without payloads have ContentLength 0.
func jsonBody(body string) io.Reader {
	if body == "" {
		return nil
	}
	return strings.NewReader(body)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, jsonBody(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}
