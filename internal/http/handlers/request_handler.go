// Service-request HTTP handlers (back-office API).
//
// This file exposes the admin REST endpoints for service requests:
//   - GET    /requests                (list, filtered + paginated)
//   - GET    /requests/{id}          (fetch)
//   - POST   /requests/{id}/approve  (approval decision, runs matching)
//   - POST   /requests/{id}/complete (mark work done)
//   - POST   /requests/{id}/archive  (hide from listings)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/repo"
	"github.com/umiddey/propertyflow-backend/internal/services"
	"github.com/umiddey/propertyflow-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// WorkflowService defines the service-request lifecycle operations consumed
// by the HTTP handlers. Implementations must be safe for concurrent use and
// honor the provided context.
type WorkflowService interface {
	// Create verifies the contract, runs the legal assessment, and stores a
	// new submitted request.
	Create(ctx context.Context, in services.CreateInput) (*domain.ServiceRequest, error)
	// Approve records the admin decision and runs matching on approval.
	Approve(ctx context.Context, id string, in services.ApproveInput) (*services.ApprovalResult, error)
	// Get fetches a request by ID.
	Get(ctx context.Context, id string) (*domain.ServiceRequest, error)
	// GetForTenant fetches a request only when owned by the tenant.
	GetForTenant(ctx context.Context, id, tenantID string) (*domain.ServiceRequest, error)
	// List returns a page of requests plus the total count.
	List(ctx context.Context, f repo.ListFilter, offset, limit int) ([]domain.ServiceRequest, int64, error)
	// Archive hides a request from listings.
	Archive(ctx context.Context, id string) error
	// MarkComplete records completion; by default the tenant is asked to
	// confirm, with confirmed set the admin confirms directly.
	MarkComplete(ctx context.Context, id, notes string, confirmed bool) (*domain.ServiceRequest, error)
	// MarkCompleteForTenant is the tenant-initiated completion.
	MarkCompleteForTenant(ctx context.Context, id, tenantID, notes string) (*domain.ServiceRequest, error)
	// GetBySchedulingToken loads the request behind a scheduling link.
	GetBySchedulingToken(ctx context.Context, token string) (*domain.ServiceRequest, error)
	// ScheduleRespond resolves a scheduling token (first response wins).
	ScheduleRespond(ctx context.Context, token string, in services.ScheduleInput) (*domain.ServiceRequest, error)
	// GetByInvoiceToken loads the request behind an invoice-upload link.
	GetByInvoiceToken(ctx context.Context, token string) (*domain.ServiceRequest, error)
	// SubmitInvoice resolves an invoice token exactly once.
	SubmitInvoice(ctx context.Context, token string, amount float64, notes string) (*services.InvoiceResult, error)
	// AttachInvoiceFile stores the uploaded document URL on the invoice.
	AttachInvoiceFile(ctx context.Context, token, fileURL string) error
	// AttachRequestPhoto appends a photo URL to the tenant's own request.
	AttachRequestPhoto(ctx context.Context, id, tenantID, fileURL string) (*domain.ServiceRequest, error)
	// ConfirmCompletion resolves a tenant confirmation token.
	ConfirmCompletion(ctx context.Context, token string, in services.ConfirmInput) (*domain.ServiceRequest, error)
}

// ContractorAdmin defines contractor profile administration operations.
type ContractorAdmin interface {
	// Create registers a contractor profile.
	Create(ctx context.Context, p *domain.ContractorProfile) (*domain.ContractorProfile, error)
	// Get fetches a contractor profile by ID.
	Get(ctx context.Context, id string) (*domain.ContractorProfile, error)
	// AddLicense records a trade license for the contractor.
	AddLicense(ctx context.Context, contractorID string, l *domain.ContractorLicense) (*domain.ContractorLicense, error)
	// LicensesFor returns the contractor's licenses plus the health summary.
	LicensesFor(ctx context.Context, contractorID string) (*services.LicenseOverview, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for the contractor workflow: the
// back-office API, the tenant portal, and the token-gated contractor links.
type Handlers struct {
	workflow    WorkflowService
	contractors ContractorAdmin

	// maxUploadBytes caps multipart uploads (invoices, photos).
	maxUploadBytes int64
	// uploadDir is where accepted files are stored.
	uploadDir string
}

// New constructs a Handlers instance bound to the given services.
func New(workflow WorkflowService, contractors ContractorAdmin, maxUploadBytes int64, uploadDir string) *Handlers {
	return &Handlers{
		workflow:       workflow,
		contractors:    contractors,
		maxUploadBytes: maxUploadBytes,
		uploadDir:      uploadDir,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListRequestsResponse wraps a page of requests and pagination information.
type ListRequestsResponse struct {
	Requests   []domain.ServiceRequest `json:"requests"`
	Pagination Pagination              `json:"pagination"`
}

// ApproveRequestPayload is the JSON body for the approval decision. The
// property coordinates feed the distance scoring of the matcher.
type ApproveRequestPayload struct {
	Decision   string   `json:"decision" binding:"required" example:"approved"`
	Notes      string   `json:"notes"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	PostalCode string   `json:"postal_code"`
	City       string   `json:"city"`
}

// CompleteRequestPayload is the JSON body for marking work complete.
// Confirmed lets the back office vouch for the result directly instead of
// asking the tenant.
type CompleteRequestPayload struct {
	Notes     string `json:"notes"`
	Confirmed bool   `json:"confirmed"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	return utils.PageBounds(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
}

// mapServiceError translates service-level sentinel errors into the
// corresponding HTTP status and stable error code. Unknown errors become
// 500 internal_error.
func mapServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrTokenNotFound),
		errors.Is(err, services.ErrContractorNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrNoActiveContract):
		fail(c, http.StatusForbidden, ErrCodeNoContract, err.Error())
	case errors.Is(err, services.ErrNotPendingApproval):
		fail(c, http.StatusConflict, ErrCodeNotPending, err.Error())
	case errors.Is(err, services.ErrAlreadyAssigned):
		fail(c, http.StatusConflict, ErrCodeAlreadyAssigned, err.Error())
	case errors.Is(err, services.ErrNotInProgress):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrUploadNotEnabled):
		fail(c, http.StatusConflict, ErrCodeUploadDisabled, err.Error())
	case errors.Is(err, services.ErrTokenAlreadyUsed):
		fail(c, http.StatusGone, ErrCodeTokenUsed, "this link has already been used")
	case errors.Is(err, services.ErrTokenExpired):
		fail(c, http.StatusGone, ErrCodeTokenExpired, "this link has expired")
	case errors.Is(err, services.ErrFileTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodeFileTooLarge, err.Error())
	case errors.Is(err, services.ErrFileTypeNotAllowed):
		fail(c, http.StatusUnsupportedMediaType, ErrCodeFileType, err.Error())
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidDecision),
		errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrMissingSlot),
		errors.Is(err, services.ErrSlotNotOffered),
		errors.Is(err, services.ErrMissingProposal),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidContractor),
		errors.Is(err, services.ErrInvalidLicense):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// ListRequests godoc
// @ID          listRequests
// @Summary     List service requests (paginated)
// @Description Returns a filtered page of service requests for the back office.
// @Tags        Requests
// @Produce     json
//
// @Param       status       query  string false "Lifecycle status filter"   example(submitted)
// @Param       approval     query  string false "Approval status filter"    example(pending_approval)
// @Param       type         query  string false "Request type filter"       example(plumbing)
// @Param       tenant_id    query  string false "Tenant filter"
// @Param       property_id  query  string false "Property filter"
// @Param       page         query  int    false "Page number"               minimum(1) default(1)
// @Param       page_size    query  int    false "Items per page"            minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListRequestsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /requests [get]
func (h *Handlers) ListRequests(c *gin.Context) {
	page, pageSize := clampPagination(c)
	f := repo.ListFilter{
		Status:         domain.RequestStatus(c.Query("status")),
		ApprovalStatus: domain.ApprovalStatus(c.Query("approval")),
		RequestType:    domain.RequestType(c.Query("type")),
		TenantID:       c.Query("tenant_id"),
		PropertyID:     c.Query("property_id"),
	}

	items, total, err := h.workflow.List(c.Request.Context(), f, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, pagedRequests(items, page, pageSize, total))
}

// pagedRequests assembles the standard list envelope.
func pagedRequests(items []domain.ServiceRequest, page, pageSize int, total int64) ListRequestsResponse {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return ListRequestsResponse{
		Requests: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
}

// GetRequest godoc
// @ID          getRequest
// @Summary     Fetch one service request
// @Tags        Requests
// @Produce     json
// @Param       id  path  string  true  "Request ID"
// @Success     200  {object} domain.ServiceRequest
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Router      /requests/{id} [get]
func (h *Handlers) GetRequest(c *gin.Context) {
	sr, err := h.workflow.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, sr)
}

// ApproveRequest godoc
// @ID          approveRequest
// @Summary     Decide on a pending request
// @Description Approval runs contractor matching and sends scheduling invitations;
// @Description rejection cancels the request. The decision is final once a
// @Description contractor is assigned.
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Param       id    path  string                          true  "Request ID"
// @Param       body  body  handlers.ApproveRequestPayload  true  "Decision payload"
// @Success     200  {object} services.ApprovalResult
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     409  {object} handlers.ErrorResponse "Already decided"
// @Router      /requests/{id}/approve [post]
func (h *Handlers) ApproveRequest(c *gin.Context) {
	var req ApproveRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	res, err := h.workflow.Approve(c.Request.Context(), c.Param("id"), services.ApproveInput{
		Decision: req.Decision,
		Notes:    req.Notes,
		Location: services.PropertyLocation{
			Latitude:   req.Latitude,
			Longitude:  req.Longitude,
			PostalCode: req.PostalCode,
			City:       req.City,
		},
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// CompleteRequest godoc
// @ID          completeRequest
// @Summary     Mark the work on a request as done
// @Description Moves an in-progress request to completed and emails the tenant
// @Description a confirmation link.
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Param       id    path  string                           true  "Request ID"
// @Param       body  body  handlers.CompleteRequestPayload  false "Completion notes"
// @Success     200  {object} domain.ServiceRequest
// @Failure     409  {object} handlers.ErrorResponse "Not in progress"
// @Router      /requests/{id}/complete [post]
func (h *Handlers) CompleteRequest(c *gin.Context) {
	var req CompleteRequestPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	sr, err := h.workflow.MarkComplete(c.Request.Context(), c.Param("id"), req.Notes, req.Confirmed)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, sr)
}

// ArchiveRequest godoc
// @ID          archiveRequest
// @Summary     Archive a request
// @Description Hides the request from listings without deleting its history.
// @Tags        Requests
// @Param       id  path  string  true  "Request ID"
// @Success     204  {string} string "No Content"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Router      /requests/{id}/archive [post]
func (h *Handlers) ArchiveRequest(c *gin.Context) {
	if err := h.workflow.Archive(c.Request.Context(), c.Param("id")); err != nil {
		mapServiceError(c, err)
		return
	}
	noContent(c)
}

// parseSlots converts RFC3339 strings into timestamps, rejecting malformed
// entries with a descriptive error.
func parseSlots(raw []string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, err
		}
		out = append(out, t.UTC())
	}
	return out, nil
}
