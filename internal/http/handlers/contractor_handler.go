// Contractor-facing HTTP handlers.
//
// Two groups live here:
//
//   - Token-gated workflow endpoints backing the links sent in contractor
//     emails (/contractor/schedule/{token}, /contractor/invoice/{token}).
//     These carry no session; the single-use token is the credential.
//   - Admin contractor CRUD (/contractors, /contractors/{id}/licenses).
package handlers

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/services"
)

//
// Scheduling link
//

// ScheduleContext is what the scheduling response form needs to render:
// the job summary and the slots the tenant offered.
type ScheduleContext struct {
	RequestID       string      `json:"request_id"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	RequestType     string      `json:"request_type"`
	Priority        string      `json:"priority"`
	PropertyAddress string      `json:"property_address,omitempty"`
	PreferredSlots  []time.Time `json:"preferred_slots"`
}

// ScheduleResponsePayload is the contractor's answer to a scheduling link.
type ScheduleResponsePayload struct {
	Action           string     `json:"action" binding:"required" example:"accept"`
	SelectedSlot     *time.Time `json:"selected_slot,omitempty"`
	ProposedDateTime *time.Time `json:"proposed_datetime,omitempty"`
	Notes            string     `json:"notes"`
	// Email identifies the responder when several contractors were invited.
	Email string `json:"email"`
}

// GetSchedule godoc
// @ID          getSchedule
// @Summary     Load the scheduling form context behind an email link
// @Tags        Contractor
// @Produce     json
// @Param       token  path  string  true  "Scheduling token"
// @Success     200  {object} handlers.ScheduleContext
// @Failure     404  {object} handlers.ErrorResponse "Unknown token"
// @Failure     410  {object} handlers.ErrorResponse "Already scheduled"
// @Router      /contractor/schedule/{token} [get]
func (h *Handlers) GetSchedule(c *gin.Context) {
	sr, err := h.workflow.GetBySchedulingToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, ScheduleContext{
		RequestID:       sr.ID,
		Title:           sr.Title,
		Description:     sr.Description,
		RequestType:     string(sr.RequestType),
		Priority:        string(sr.Priority),
		PropertyAddress: sr.PropertyAddress,
		PreferredSlots:  sr.TenantPreferredSlots,
	})
}

// RespondSchedule godoc
// @ID          respondSchedule
// @Summary     Accept a slot or propose an alternative appointment
// @Description First response wins: on multiple-bid requests all invited
// @Description contractors share the same link and the token is consumed by
// @Description whoever answers first.
// @Tags        Contractor
// @Accept      json
// @Produce     json
// @Param       token  path  string                             true  "Scheduling token"
// @Param       body   body  handlers.ScheduleResponsePayload   true  "Response"
// @Success     200  {object} domain.ServiceRequest
// @Failure     400  {object} handlers.ErrorResponse "Invalid response"
// @Failure     410  {object} handlers.ErrorResponse "Already scheduled"
// @Router      /contractor/schedule/{token} [post]
func (h *Handlers) RespondSchedule(c *gin.Context) {
	var req ScheduleResponsePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	sr, err := h.workflow.ScheduleRespond(c.Request.Context(), c.Param("token"), services.ScheduleInput{
		Action:           req.Action,
		SelectedSlot:     req.SelectedSlot,
		ProposedDateTime: req.ProposedDateTime,
		Notes:            req.Notes,
		Email:            req.Email,
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, sr)
}

//
// Invoice link
//

// InvoiceContext is what the invoice form needs to render.
type InvoiceContext struct {
	RequestID       string `json:"request_id"`
	Title           string `json:"title"`
	PropertyAddress string `json:"property_address,omitempty"`
	UploadEnabled   bool   `json:"upload_enabled"`
}

// InvoicePayload is the invoice submission body.
type InvoicePayload struct {
	Amount      float64 `json:"amount" binding:"required" example:"285.50"`
	Description string  `json:"description"`
}

// GetInvoiceContext godoc
// @ID          getInvoiceContext
// @Summary     Load the invoice form context behind an email link
// @Tags        Contractor
// @Produce     json
// @Param       token  path  string  true  "Invoice token"
// @Success     200  {object} handlers.InvoiceContext
// @Failure     404  {object} handlers.ErrorResponse "Unknown token"
// @Failure     410  {object} handlers.ErrorResponse "Invoice already submitted"
// @Router      /contractor/invoice/{token} [get]
func (h *Handlers) GetInvoiceContext(c *gin.Context) {
	sr, err := h.workflow.GetByInvoiceToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, InvoiceContext{
		RequestID:       sr.ID,
		Title:           sr.Title,
		PropertyAddress: sr.PropertyAddress,
		UploadEnabled:   sr.InvoiceUploadEnabled,
	})
}

// SubmitInvoice godoc
// @ID          submitInvoice
// @Summary     Submit the invoice amount for a completed job
// @Description Single-use: the first submission fixes the amount and either
// @Description auto-approves the invoice or queues it for review, then closes
// @Description the request.
// @Tags        Contractor
// @Accept      json
// @Produce     json
// @Param       token  path  string                    true  "Invoice token"
// @Param       body   body  handlers.InvoicePayload   true  "Invoice"
// @Success     200  {object} services.InvoiceResult
// @Failure     409  {object} handlers.ErrorResponse "Upload not enabled"
// @Failure     410  {object} handlers.ErrorResponse "Invoice already submitted"
// @Router      /contractor/invoice/{token} [post]
func (h *Handlers) SubmitInvoice(c *gin.Context) {
	var req InvoicePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	res, err := h.workflow.SubmitInvoice(c.Request.Context(), c.Param("token"), req.Amount, req.Description)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// UploadInvoiceFile godoc
// @ID          uploadInvoiceFile
// @Summary     Attach the invoice document (PDF or image)
// @Description Accepts a multipart upload after the amount has been submitted.
// @Tags        Contractor
// @Accept      multipart/form-data
// @Produce     json
// @Param       token  path      string  true  "Invoice token"
// @Param       file   formData  file    true  "Invoice document"
// @Success     200  {object} map[string]string
// @Failure     413  {object} handlers.ErrorResponse "File too large"
// @Failure     415  {object} handlers.ErrorResponse "Unsupported file type"
// @Router      /contractor/invoice/{token}/upload [post]
func (h *Handlers) UploadInvoiceFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart field 'file' is required")
		return
	}
	if err := services.ValidateInvoiceUpload(fh.Header.Get("Content-Type"), fh.Size, h.maxUploadBytes); err != nil {
		mapServiceError(c, err)
		return
	}

	name := uuid.NewString() + filepath.Ext(fh.Filename)
	dst := filepath.Join(h.uploadDir, name)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not store file")
		return
	}

	fileURL := "/uploads/" + name
	if err := h.workflow.AttachInvoiceFile(c.Request.Context(), c.Param("token"), fileURL); err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"file_url": fileURL})
}

//
// Contractor admin
//

// AddLicensePayload registers a trade license for review.
type AddLicensePayload struct {
	LicenseType      string    `json:"license_type" binding:"required" example:"plumbing"`
	LicenseNumber    string    `json:"license_number" binding:"required"`
	IssuingAuthority string    `json:"issuing_authority"`
	IssueDate        time.Time `json:"issue_date"`
	ExpirationDate   time.Time `json:"expiration_date"`
}

// CreateContractor godoc
// @ID          createContractor
// @Summary     Register a contractor profile
// @Tags        Contractors
// @Accept      json
// @Produce     json
// @Param       body  body  domain.ContractorProfile  true  "Profile"
// @Success     201  {object} domain.ContractorProfile
// @Failure     400  {object} handlers.ErrorResponse "Invalid profile"
// @Router      /contractors [post]
func (h *Handlers) CreateContractor(c *gin.Context) {
	var p domain.ContractorProfile
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	created, err := h.contractors.Create(c.Request.Context(), &p)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusCreated, created)
}

// GetContractor godoc
// @ID          getContractor
// @Summary     Fetch a contractor profile
// @Tags        Contractors
// @Produce     json
// @Param       id  path  string  true  "Contractor ID"
// @Success     200  {object} domain.ContractorProfile
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Router      /contractors/{id} [get]
func (h *Handlers) GetContractor(c *gin.Context) {
	p, err := h.contractors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// AddLicense godoc
// @ID          addLicense
// @Summary     Record a trade license for a contractor
// @Description New licenses start in pending verification and do not count
// @Description toward assignment eligibility until verified.
// @Tags        Contractors
// @Accept      json
// @Produce     json
// @Param       id    path  string                       true  "Contractor ID"
// @Param       body  body  handlers.AddLicensePayload   true  "License"
// @Success     201  {object} domain.ContractorLicense
// @Failure     404  {object} handlers.ErrorResponse "Contractor not found"
// @Router      /contractors/{id}/licenses [post]
func (h *Handlers) AddLicense(c *gin.Context) {
	var req AddLicensePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	lic, err := h.contractors.AddLicense(c.Request.Context(), c.Param("id"), &domain.ContractorLicense{
		LicenseType:      req.LicenseType,
		LicenseNumber:    req.LicenseNumber,
		IssuingAuthority: req.IssuingAuthority,
		IssueDate:        req.IssueDate,
		ExpirationDate:   req.ExpirationDate,
	})
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusCreated, lic)
}

// ListLicenses godoc
// @ID          listLicenses
// @Summary     List a contractor's licenses with the health summary
// @Tags        Contractors
// @Produce     json
// @Param       id  path  string  true  "Contractor ID"
// @Success     200  {object} services.LicenseOverview
// @Failure     404  {object} handlers.ErrorResponse "Contractor not found"
// @Router      /contractors/{id}/licenses [get]
func (h *Handlers) ListLicenses(c *gin.Context) {
	ov, err := h.contractors.LicensesFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, ov)
}
