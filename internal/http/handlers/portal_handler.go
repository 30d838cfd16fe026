// Tenant portal HTTP handlers.
//
// This file exposes the tenant-facing endpoints:
//   - POST /portal/requests                   (submit a maintenance request)
//   - GET  /portal/requests                   (my requests, paginated)
//   - GET  /portal/requests/{id}              (fetch own request)
//   - POST /portal/requests/{id}/complete     (tenant confirms the work directly)
//   - POST /portal/requests/{id}/photos       (attach a photo upload)
//   - GET  /portal/confirm-completion         (confirmation-email webhook)
//
// The confirmation webhook is a GET because it is the target of the links in
// the tenant email; it is gated by the single-use confirmation token rather
// than by a session.
package handlers

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/repo"
	"github.com/umiddey/propertyflow-backend/internal/services"
)

// SubmitRequestPayload is the JSON body for a tenant maintenance request.
// Preferred slots are RFC3339 timestamps offered to the contractor.
type SubmitRequestPayload struct {
	PropertyID      string `json:"property_id" binding:"required"`
	TenantName      string `json:"tenant_name"`
	TenantEmail     string `json:"tenant_email"`
	PropertyAddress string `json:"property_address"`

	RequestType string `json:"request_type" binding:"required" example:"plumbing"`
	Priority    string `json:"priority" example:"routine"`
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Description string `json:"description"`

	PreferredSlots []string `json:"preferred_slots"`
	AttachmentURLs []string `json:"attachment_urls"`

	// Furnished-item facts feeding the responsibility assessment.
	FurnishedItemID string `json:"furnished_item_id"`
	ItemOwnership   string `json:"item_ownership" example:"landlord"`
	ItemCategory    string `json:"item_category" example:"heating"`
	ItemCondition   string `json:"item_condition" example:"good"`
	IsEssential     bool   `json:"is_essential"`
}

// SubmitRequest godoc
// @ID          submitRequest
// @Summary     Submit a maintenance request
// @Description Creates a service request for the calling tenant. Requires an
// @Description active contract for the property; the legal responsibility
// @Description assessment runs at intake.
// @Tags        Portal
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                          false "Tenant ID (demo header)"
// @Param       body       body    handlers.SubmitRequestPayload   true  "Request payload"
// @Success     201  {object} domain.ServiceRequest
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "No active contract"
// @Router      /portal/requests [post]
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var req SubmitRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	slots, err := parseSlots(req.PreferredSlots)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "preferred_slots must be RFC3339 timestamps")
		return
	}

	tenantID := userID(c)
	sr, err := h.workflow.Create(c.Request.Context(), services.CreateInput{
		TenantID:        tenantID,
		PropertyID:      req.PropertyID,
		TenantName:      req.TenantName,
		TenantEmail:     req.TenantEmail,
		PropertyAddress: req.PropertyAddress,
		RequestType:     domain.RequestType(req.RequestType),
		Priority:        domain.Priority(req.Priority),
		Title:           req.Title,
		Description:     req.Description,
		PreferredSlots:  slots,
		AttachmentURLs:  req.AttachmentURLs,
		FurnishedItemID: req.FurnishedItemID,
		Legal: services.LegalInput{
			ItemOwnership: req.ItemOwnership,
			ItemCategory:  req.ItemCategory,
			ItemCondition: req.ItemCondition,
			IsEssential:   req.IsEssential,
			IssueType:     domain.RequestType(req.RequestType),
		},
		CreatedBy: tenantID,
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusCreated, sr)
}

// MyRequests godoc
// @ID          myRequests
// @Summary     List the calling tenant's requests (paginated)
// @Tags        Portal
// @Produce     json
// @Param       X-User-ID  header  string  false "Tenant ID (demo header)"
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.ListRequestsResponse
// @Router      /portal/requests [get]
func (h *Handlers) MyRequests(c *gin.Context) {
	page, pageSize := clampPagination(c)
	f := repo.ListFilter{TenantID: userID(c)}

	items, total, err := h.workflow.List(c.Request.Context(), f, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, pagedRequests(items, page, pageSize, total))
}

// MyRequest godoc
// @ID          myRequest
// @Summary     Fetch one of the calling tenant's requests
// @Tags        Portal
// @Produce     json
// @Param       X-User-ID  header  string  false "Tenant ID (demo header)"
// @Param       id         path    string  true  "Request ID"
// @Success     200  {object} domain.ServiceRequest
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Router      /portal/requests/{id} [get]
func (h *Handlers) MyRequest(c *gin.Context) {
	sr, err := h.workflow.GetForTenant(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, sr)
}

// CompleteMyRequest godoc
// @ID          completeMyRequest
// @Summary     Tenant reports and confirms completion in one step
// @Description The tenant both marks the work done and confirms it, so invoice
// @Description upload opens immediately and no confirmation email goes out.
// @Tags        Portal
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                           false "Tenant ID (demo header)"
// @Param       id         path    string                           true  "Request ID"
// @Param       body       body    handlers.CompleteRequestPayload  false "Completion notes"
// @Success     200  {object} domain.ServiceRequest
// @Failure     409  {object} handlers.ErrorResponse "Not in progress"
// @Router      /portal/requests/{id}/complete [post]
func (h *Handlers) CompleteMyRequest(c *gin.Context) {
	var req CompleteRequestPayload
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	sr, err := h.workflow.MarkCompleteForTenant(c.Request.Context(), c.Param("id"), userID(c), req.Notes)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, sr)
}

// ConfirmCompletion godoc
// @ID          confirmCompletion
// @Summary     Resolve a completion-confirmation link
// @Description Target of the links in the tenant confirmation email. completed=true
// @Description confirms the work and opens invoice upload; completed=false disputes
// @Description it and reopens the request. The token is single-use.
// @Tags        Portal
// @Produce     json
// @Param       token      query  string  true   "Confirmation token"
// @Param       completed  query  bool    true   "true to confirm, false to dispute"
// @Param       notes      query  string  false  "Tenant notes"
// @Param       rating     query  number  false  "Contractor rating 1-5"
// @Success     200  {object} domain.ServiceRequest
// @Failure     404  {object} handlers.ErrorResponse "Unknown token"
// @Failure     410  {object} handlers.ErrorResponse "Used or expired link"
// @Router      /portal/confirm-completion [get]
func (h *Handlers) ConfirmCompletion(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "token is required")
		return
	}
	completed, err := strconv.ParseBool(c.Query("completed"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "completed must be true or false")
		return
	}

	in := services.ConfirmInput{Completed: completed, Notes: c.Query("notes")}
	if raw := c.Query("rating"); raw != "" {
		if r, err := strconv.ParseFloat(raw, 64); err == nil {
			in.Rating = &r
		}
	}

	sr, err := h.workflow.ConfirmCompletion(c.Request.Context(), token, in)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, sr)
}

// UploadRequestPhoto godoc
// @ID          uploadRequestPhoto
// @Summary     Attach a photo to an own service request
// @Description Accepts a multipart image upload and appends its URL to the
// @Description request's attachments.
// @Tags        Portal
// @Accept      multipart/form-data
// @Produce     json
// @Param       id    path      string  true  "Request ID"
// @Param       file  formData  file    true  "Photo (JPEG, PNG or WebP)"
// @Success     200  {object} domain.ServiceRequest
// @Failure     413  {object} handlers.ErrorResponse "File too large"
// @Failure     415  {object} handlers.ErrorResponse "Unsupported file type"
// @Router      /portal/requests/{id}/photos [post]
func (h *Handlers) UploadRequestPhoto(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart field 'file' is required")
		return
	}
	if err := services.ValidatePhotoUpload(fh.Header.Get("Content-Type"), fh.Size, h.maxUploadBytes); err != nil {
		mapServiceError(c, err)
		return
	}

	name := uuid.NewString() + filepath.Ext(fh.Filename)
	if err := c.SaveUploadedFile(fh, filepath.Join(h.uploadDir, name)); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not store file")
		return
	}

	fileURL := "/uploads/" + name
	sr, err := h.workflow.AttachRequestPhoto(c.Request.Context(), c.Param("id"), userID(c), fileURL)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, sr)
}
