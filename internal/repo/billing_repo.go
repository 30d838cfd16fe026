// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for contracts,
// invoices, and internal task records.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/umiddey/propertyflow-backend/internal/domain"
)

// FindActiveContract returns the tenant's active contract for a property,
// or ErrNotFound. When several are active the most recent start date wins.
func FindActiveContract(ctx context.Context, db *gorm.DB, tenantID, propertyID string) (*domain.Contract, error) {
	var c domain.Contract
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND property_id = ? AND active = ?", tenantID, propertyID, true).
		Order("start_date DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateInvoice inserts a contractor invoice linked to a service request.
func CreateInvoice(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(inv).Error
}

// GetInvoiceForRequest returns the invoice recorded for a service request,
// or ErrNotFound.
func GetInvoiceForRequest(ctx context.Context, db *gorm.DB, serviceRequestID string) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := db.WithContext(ctx).
		Where("service_request_id = ?", serviceRequestID).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// UpdateInvoiceFileURL stores the uploaded document location on an invoice.
func UpdateInvoiceFileURL(ctx context.Context, db *gorm.DB, invoiceID, fileURL string) error {
	res := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", invoiceID).
		Update("file_url", fileURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTask inserts an internal work-order task record. Callers treat
// failures as best-effort (logged, never fatal).
func CreateTask(ctx context.Context, db *gorm.DB, serviceRequestID, kind, subject string, dueAt *time.Time) (*domain.WorkOrderTask, error) {
	t := &domain.WorkOrderTask{
		ID:               uuid.NewString(),
		ServiceRequestID: serviceRequestID,
		Kind:             kind,
		Subject:          subject,
		DueAt:            dueAt,
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}
