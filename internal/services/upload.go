package services

import (
	"context"
	"errors"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/repo"
)

// MIME allowlists for contractor and tenant uploads. Invoices may be PDFs
// or photographed documents; tenant photos are image formats only.
var (
	invoiceMIMETypes = map[string]bool{
		"application/pdf": true,
		"image/jpeg":      true,
		"image/png":       true,
	}
	photoMIMETypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
	}
)

// ValidateInvoiceUpload checks an invoice document against the MIME
// allowlist and size cap.
func ValidateInvoiceUpload(contentType string, size, maxBytes int64) error {
	if size > maxBytes {
		return ErrFileTooLarge
	}
	if !invoiceMIMETypes[contentType] {
		return ErrFileTypeNotAllowed
	}
	return nil
}

// ValidatePhotoUpload checks a tenant-submitted photo against the MIME
// allowlist and size cap.
func ValidatePhotoUpload(contentType string, size, maxBytes int64) error {
	if size > maxBytes {
		return ErrFileTooLarge
	}
	if !photoMIMETypes[contentType] {
		return ErrFileTypeNotAllowed
	}
	return nil
}

// AttachInvoiceFile stores the uploaded document's URL on the invoice
// belonging to the request behind the token. The invoice must already be
// submitted; the upload endpoint stays usable after the one-shot amount
// submission so a contractor can add the document separately.
func (s *RequestService) AttachInvoiceFile(ctx context.Context, token, fileURL string) error {
	sr, err := repo.GetByInvoiceToken(ctx, s.DB, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrTokenNotFound
		}
		return err
	}
	if sr.InvoiceSubmittedAt == nil {
		return ErrUploadNotEnabled
	}
	inv, err := repo.GetInvoiceForRequest(ctx, s.DB, sr.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUploadNotEnabled
		}
		return err
	}
	return repo.UpdateInvoiceFileURL(ctx, s.DB, inv.ID, fileURL)
}

// AttachRequestPhoto appends a stored photo URL to the tenant's own request.
// Callers validate the upload with ValidatePhotoUpload before storing it.
func (s *RequestService) AttachRequestPhoto(ctx context.Context, id, tenantID, fileURL string) (*domain.ServiceRequest, error) {
	sr, err := repo.GetServiceRequestForTenant(ctx, s.DB, id, tenantID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	urls := append(sr.AttachmentURLs, fileURL)
	if err := repo.SaveAttachments(ctx, s.DB, sr.ID, urls); err != nil {
		return nil, err
	}
	return repo.GetServiceRequest(ctx, s.DB, sr.ID)
}
