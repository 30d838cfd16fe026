// Package domain defines the persistence models for service requests,
// contractors, licenses, contracts, and invoices. These types are mapped
// with GORM and form the core data layer of the property-management
// workflow application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// RequestType classifies the kind of maintenance work a tenant is asking for.
type RequestType string

// Supported request types.
const (
	RequestTypePlumbing    RequestType = "plumbing"
	RequestTypeElectrical  RequestType = "electrical"
	RequestTypeHVAC        RequestType = "hvac"
	RequestTypeAppliance   RequestType = "appliance"
	RequestTypeGeneral     RequestType = "general_maintenance"
	RequestTypeCleaning    RequestType = "cleaning"
	RequestTypeSecurity    RequestType = "security"
	RequestTypeOther       RequestType = "other"
)

// Priority ranks how quickly a request must be acted upon. It drives both
// contractor response-time estimates and the assignment strategy.
type Priority string

// Supported priorities.
const (
	PriorityEmergency Priority = "emergency"
	PriorityUrgent    Priority = "urgent"
	PriorityRoutine   Priority = "routine"
)

// RequestStatus is the primary lifecycle state of a service request.
//
// Valid forward path: submitted → assigned → in_progress → completed →
// closed. cancelled is reachable from submitted/assigned via rejection or
// explicit cancellation. closed and cancelled are terminal.
type RequestStatus string

// Request lifecycle states.
const (
	StatusSubmitted  RequestStatus = "submitted"
	StatusAssigned   RequestStatus = "assigned"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusClosed     RequestStatus = "closed"
	StatusCancelled  RequestStatus = "cancelled"
)

// IsTerminal reports whether no further status transition is allowed.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// statusRank orders the forward lifecycle so that monotonicity can be
// enforced on writes. cancelled is handled separately (terminal branch).
var statusRank = map[RequestStatus]int{
	StatusSubmitted:  0,
	StatusAssigned:   1,
	StatusInProgress: 2,
	StatusCompleted:  3,
	StatusClosed:     4,
}

// CanTransitionTo reports whether moving from s to next respects the
// monotonic lifecycle. Terminal states never transition. cancelled is only
// reachable from submitted or assigned.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return s == StatusSubmitted || s == StatusAssigned
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// ApprovalStatus is the admin approval sub-state. It is set exactly once:
// pending_approval → approved | rejected.
type ApprovalStatus string

// Approval states.
const (
	ApprovalPending  ApprovalStatus = "pending_approval"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// CompletionStatus tracks how (and whether) the tenant confirmed that the
// work was actually done. It runs in parallel with RequestStatus.
type CompletionStatus string

// Completion confirmation states.
const (
	CompletionPending        CompletionStatus = "pending"
	CompletionTenantConfirmed CompletionStatus = "tenant_confirmed"
	CompletionTenantDisputed  CompletionStatus = "tenant_disputed"
	CompletionAutoConfirmed   CompletionStatus = "auto_confirmed"
	CompletionAdminConfirmed  CompletionStatus = "admin_confirmed"
)

// IsConfirmed reports whether the completion has been affirmed by any path.
func (s CompletionStatus) IsConfirmed() bool {
	switch s {
	case CompletionTenantConfirmed, CompletionAutoConfirmed, CompletionAdminConfirmed:
		return true
	}
	return false
}

// Responsibility names who bears the repair cost under German rental-law
// heuristics.
type Responsibility string

// Responsibility outcomes.
const (
	ResponsibilityLandlord Responsibility = "landlord"
	ResponsibilityTenant   Responsibility = "tenant"
	ResponsibilityShared   Responsibility = "shared"
)

// ServiceRequest is the aggregate root of the contractor workflow: a
// tenant-submitted maintenance ticket that moves through approval,
// contractor assignment, scheduling, completion confirmation, and
// invoicing.
//
// The three token fields (scheduling, invoice, confirmation) are secondary
// lookup keys; each is unique across all rows and single-use. Rows are
// never hard-deleted, only archived.
type ServiceRequest struct {
	ID         string `json:"id"          gorm:"type:char(36);primaryKey"`
	TenantID   string `json:"tenant_id"   gorm:"type:varchar(64);not null;index:idx_tenant_requests"`
	PropertyID string `json:"property_id" gorm:"type:varchar(64);not null;index"`

	// Contact details are denormalized onto the ticket at intake so the
	// email workflow never has to call back into the accounts system.
	TenantName      string `json:"tenant_name,omitempty"      gorm:"type:varchar(255)"`
	TenantEmail     string `json:"tenant_email,omitempty"     gorm:"type:varchar(255)"`
	PropertyAddress string `json:"property_address,omitempty" gorm:"type:varchar(255)"`

	RequestType RequestType `json:"request_type" gorm:"type:varchar(32);not null"`
	Priority    Priority    `json:"priority"     gorm:"type:varchar(16);not null;default:'routine'"`

	Title          string   `json:"title"       gorm:"type:varchar(255);not null"`
	Description    string   `json:"description" gorm:"type:text"`
	AttachmentURLs []string `json:"attachment_urls" gorm:"serializer:json"`

	Status           RequestStatus    `json:"status"            gorm:"type:varchar(16);not null;default:'submitted';index"`
	ApprovalStatus   ApprovalStatus   `json:"approval_status"   gorm:"type:varchar(20);not null;default:'pending_approval';index"`
	ApprovalNotes    string           `json:"approval_notes,omitempty" gorm:"type:text"`
	CompletionStatus CompletionStatus `json:"completion_status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CompletionNotes  string           `json:"completion_notes,omitempty" gorm:"type:text"`

	// Contractor workflow fields. The scheduling and invoice tokens are
	// minted together when the contractor email goes out; the confirmation
	// token is minted by the completion sweep.
	TenantPreferredSlots []time.Time `json:"tenant_preferred_slots" gorm:"serializer:json"`
	ContractorEmail      string      `json:"contractor_email,omitempty"       gorm:"type:varchar(255)"`
	SchedulingToken      string      `json:"-" gorm:"column:contractor_response_token;type:varchar(64);uniqueIndex:ux_sched_token,where:contractor_response_token <> ''"`
	InvoiceToken         string      `json:"-" gorm:"column:invoice_upload_token;type:varchar(64);uniqueIndex:ux_invoice_token,where:invoice_upload_token <> ''"`
	ConfirmationToken    string      `json:"-" gorm:"column:tenant_confirmation_token;type:varchar(64);uniqueIndex:ux_confirm_token,where:tenant_confirmation_token <> ''"`

	AppointmentConfirmedAt *time.Time `json:"appointment_confirmed_datetime,omitempty" gorm:"column:appointment_confirmed_datetime"`
	SchedulingResponse     string     `json:"contractor_scheduling_response,omitempty" gorm:"column:contractor_scheduling_response;type:varchar(16)"`
	ContractorNotes        string     `json:"contractor_notes,omitempty" gorm:"type:text"`

	InvoiceLinkSent      bool       `json:"invoice_link_sent"      gorm:"not null;default:false"`
	InvoiceUploadEnabled bool       `json:"invoice_upload_enabled" gorm:"not null;default:false"`
	InvoiceSubmittedAt   *time.Time `json:"invoice_submitted_at,omitempty"`
	InvoiceAmount        *float64   `json:"invoice_amount,omitempty"`

	ContractorEmailSentAt   *time.Time `json:"contractor_email_sent_at,omitempty"`
	ConfirmationEmailSentAt *time.Time `json:"confirmation_email_sent_at,omitempty"`

	// Legal determination produced at intake.
	FurnishedItemID     string         `json:"related_furnished_item_id,omitempty" gorm:"type:varchar(64)"`
	LegalResponsibility Responsibility `json:"legal_responsibility,omitempty"      gorm:"type:varchar(16)"`
	LegalReasoning      string         `json:"legal_reasoning,omitempty"           gorm:"type:text"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`

	CreatedBy  string         `json:"created_by,omitempty" gorm:"type:varchar(64)"`
	IsArchived bool           `json:"is_archived" gorm:"not null;default:false;index"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for ServiceRequest.
func (ServiceRequest) TableName() string { return "service_requests" }
