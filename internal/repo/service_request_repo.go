// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ServiceRequest aggregate.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a request is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// The token-guarded updaters (ConfirmAppointment, MarkInvoiceSubmitted,
// SetCompletionStatus) implement the workflow's one-shot semantics: every
// mutation carries a WHERE precondition on the current state, so a retry or
// a concurrent duplicate call updates zero rows instead of overwriting.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/umiddey/propertyflow-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateServiceRequest inserts a new service request row.
func CreateServiceRequest(ctx context.Context, db *gorm.DB, sr *domain.ServiceRequest) error {
	return db.WithContext(ctx).Create(sr).Error
}

// GetServiceRequest fetches a request by ID, or ErrNotFound.
func GetServiceRequest(ctx context.Context, db *gorm.DB, id string) (*domain.ServiceRequest, error) {
	var sr domain.ServiceRequest
	if err := db.WithContext(ctx).First(&sr, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sr, nil
}

// GetServiceRequestForTenant fetches a request by ID ensuring it belongs to
// the given tenant.
func GetServiceRequestForTenant(ctx context.Context, db *gorm.DB, id, tenantID string) (*domain.ServiceRequest, error) {
	var sr domain.ServiceRequest
	err := db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&sr).Error
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// GetBySchedulingToken resolves a request from its scheduling token (Link 1).
func GetBySchedulingToken(ctx context.Context, db *gorm.DB, token string) (*domain.ServiceRequest, error) {
	return getByTokenColumn(ctx, db, "contractor_response_token", token)
}

// GetByInvoiceToken resolves a request from its invoice token (Link 2).
func GetByInvoiceToken(ctx context.Context, db *gorm.DB, token string) (*domain.ServiceRequest, error) {
	return getByTokenColumn(ctx, db, "invoice_upload_token", token)
}

// GetByConfirmationToken resolves a request from its tenant confirmation token.
func GetByConfirmationToken(ctx context.Context, db *gorm.DB, token string) (*domain.ServiceRequest, error) {
	return getByTokenColumn(ctx, db, "tenant_confirmation_token", token)
}

func getByTokenColumn(ctx context.Context, db *gorm.DB, column, token string) (*domain.ServiceRequest, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var sr domain.ServiceRequest
	err := db.WithContext(ctx).
		Where(column+" = ?", token).
		First(&sr).Error
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// ListFilter narrows admin listings of service requests.
type ListFilter struct {
	TenantID       string
	PropertyID     string
	Status         domain.RequestStatus
	ApprovalStatus domain.ApprovalStatus
	RequestType    domain.RequestType
}

// CountServiceRequests returns the total matching rows for pagination.
// Archived requests are always excluded.
func CountServiceRequests(ctx context.Context, db *gorm.DB, f ListFilter) (int64, error) {
	var n int64
	err := applyFilter(db.WithContext(ctx).Model(&domain.ServiceRequest{}), f).Count(&n).Error
	return n, err
}

// ListServiceRequestsPage returns a page of requests ordered by creation
// time descending. Archived requests are always excluded.
func ListServiceRequestsPage(ctx context.Context, db *gorm.DB, f ListFilter, offset, limit int) ([]domain.ServiceRequest, error) {
	var out []domain.ServiceRequest
	err := applyFilter(db.WithContext(ctx), f).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func applyFilter(q *gorm.DB, f ListFilter) *gorm.DB {
	q = q.Where("is_archived = ?", false)
	if f.TenantID != "" {
		q = q.Where("tenant_id = ?", f.TenantID)
	}
	if f.PropertyID != "" {
		q = q.Where("property_id = ?", f.PropertyID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ApprovalStatus != "" {
		q = q.Where("approval_status = ?", f.ApprovalStatus)
	}
	if f.RequestType != "" {
		q = q.Where("request_type = ?", f.RequestType)
	}
	return q
}

// UpdateServiceRequest applies the given column updates to one request.
func UpdateServiceRequest(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.ServiceRequest{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveAttachments replaces the request's attachment list. Struct-based
// update so the JSON serializer on the field runs.
func SaveAttachments(ctx context.Context, db *gorm.DB, id string, urls []string) error {
	res := db.WithContext(ctx).
		Model(&domain.ServiceRequest{ID: id}).
		Select("attachment_urls").
		Updates(&domain.ServiceRequest{AttachmentURLs: urls})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAssigned stamps the assignment fields. The WHERE clause only matches
// while no appointment is confirmed, so a request that already entered
// scheduling can never be dragged back to assigned. Returns (false, nil)
// when the row has moved on.
func MarkAssigned(ctx context.Context, db *gorm.DB, id string, updates map[string]any) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.ServiceRequest{}).
		Where("id = ? AND status IN ? AND appointment_confirmed_datetime IS NULL",
			id, []domain.RequestStatus{domain.StatusSubmitted, domain.StatusAssigned}).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ConfirmAppointment records the contractor's scheduling response. The WHERE
// clause enforces first-response-wins: it only matches while no appointment
// is confirmed yet. Returns (false, nil) when the row was already claimed.
func ConfirmAppointment(ctx context.Context, db *gorm.DB, id string, at time.Time, response, notes string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.ServiceRequest{}).
		Where("id = ? AND appointment_confirmed_datetime IS NULL", id).
		Updates(map[string]any{
			"appointment_confirmed_datetime": at,
			"contractor_scheduling_response": response,
			"contractor_notes":               notes,
			"status":                         domain.StatusInProgress,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkInvoiceSubmitted stamps the invoice submission exactly once. Returns
// (false, nil) when an invoice was already submitted on this request.
func MarkInvoiceSubmitted(ctx context.Context, db *gorm.DB, id string, amount float64, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.ServiceRequest{}).
		Where("id = ? AND invoice_submitted_at IS NULL", id).
		Updates(map[string]any{
			"invoice_submitted_at": at,
			"invoice_amount":       amount,
			"status":               domain.StatusCompleted,
			"completed_at":         at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetCompletionStatus moves completion_status off pending exactly once.
// The pending-only precondition makes sweeps and webhook retries idempotent.
func SetCompletionStatus(ctx context.Context, db *gorm.DB, id string, to domain.CompletionStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"completion_status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := db.WithContext(ctx).
		Model(&domain.ServiceRequest{}).
		Where("id = ? AND completion_status = ?", id, domain.CompletionPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListCompletedAwaitingConfirmation finds requests whose confirmation email
// still needs to go out: completed, confirmation pending, completed within
// the window, no email recorded yet.
func ListCompletedAwaitingConfirmation(ctx context.Context, db *gorm.DB, since time.Time) ([]domain.ServiceRequest, error) {
	var out []domain.ServiceRequest
	err := db.WithContext(ctx).
		Where("status = ?", domain.StatusCompleted).
		Where("completion_status = ?", domain.CompletionPending).
		Where("completed_at >= ?", since).
		Where("confirmation_email_sent_at IS NULL").
		Find(&out).Error
	return out, err
}

// ListConfirmationsOverdue finds requests whose confirmation email went out
// at or before the deadline and whose completion is still pending. These are
// the auto-confirm candidates.
func ListConfirmationsOverdue(ctx context.Context, db *gorm.DB, sentBefore time.Time) ([]domain.ServiceRequest, error) {
	var out []domain.ServiceRequest
	err := db.WithContext(ctx).
		Where("completion_status = ?", domain.CompletionPending).
		Where("confirmation_email_sent_at IS NOT NULL").
		Where("confirmation_email_sent_at <= ?", sentBefore).
		Find(&out).Error
	return out, err
}
