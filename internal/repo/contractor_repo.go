// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for contractor
// profiles and licenses.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/umiddey/propertyflow-backend/internal/domain"
)

// CreateContractor inserts a contractor profile row.
func CreateContractor(ctx context.Context, db *gorm.DB, p *domain.ContractorProfile) error {
	return db.WithContext(ctx).Create(p).Error
}

// GetContractor fetches a contractor profile by ID, or ErrNotFound.
func GetContractor(ctx context.Context, db *gorm.DB, id string) (*domain.ContractorProfile, error) {
	var p domain.ContractorProfile
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListAvailableContractors returns the candidate pool for matching:
// available, insurance-verified contractors. Service and license filtering
// happens in the matcher, which needs the full profile anyway for scoring.
func ListAvailableContractors(ctx context.Context, db *gorm.DB) ([]domain.ContractorProfile, error) {
	var out []domain.ContractorProfile
	err := db.WithContext(ctx).
		Where("available = ? AND insurance_verified = ?", true, true).
		Find(&out).Error
	return out, err
}

// IncrementJobCount bumps current_job_count, guarded so a contractor is
// never pushed past max_concurrent_jobs. Returns (false, nil) when the
// contractor was already at capacity.
func IncrementJobCount(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.ContractorProfile{}).
		Where("id = ? AND current_job_count < max_concurrent_jobs", id).
		Update("current_job_count", gorm.Expr("current_job_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DecrementJobCount releases one job slot, never going below zero.
func DecrementJobCount(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.ContractorProfile{}).
		Where("id = ? AND current_job_count > 0", id).
		Update("current_job_count", gorm.Expr("current_job_count - 1")).Error
}

// RecordCompletionRating folds a new tenant rating into the contractor's
// running average and bumps the rating count.
func RecordCompletionRating(ctx context.Context, db *gorm.DB, id string, rating float64) error {
	return db.WithContext(ctx).
		Model(&domain.ContractorProfile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating":       gorm.Expr("(rating * rating_count + ?) / (rating_count + 1)", rating),
			"rating_count": gorm.Expr("rating_count + 1"),
		}).Error
}

// FindContractorByEmail resolves a profile from its contact email, or
// ErrNotFound.
func FindContractorByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.ContractorProfile, error) {
	var p domain.ContractorProfile
	if err := db.WithContext(ctx).First(&p, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateLicense inserts a contractor license row.
func CreateLicense(ctx context.Context, db *gorm.DB, l *domain.ContractorLicense) error {
	return db.WithContext(ctx).Create(l).Error
}

// ListLicenses returns all licenses held by a contractor.
func ListLicenses(ctx context.Context, db *gorm.DB, contractorID string) ([]domain.ContractorLicense, error) {
	var out []domain.ContractorLicense
	err := db.WithContext(ctx).
		Where("contractor_id = ?", contractorID).
		Find(&out).Error
	return out, err
}

// HasValidLicense reports whether the contractor holds at least one verified,
// unexpired license of the given type (any type when licenseType is empty).
func HasValidLicense(ctx context.Context, db *gorm.DB, contractorID, licenseType string, now time.Time) (bool, error) {
	q := db.WithContext(ctx).
		Model(&domain.ContractorLicense{}).
		Where("contractor_id = ?", contractorID).
		Where("verification_status = ?", domain.LicenseVerified).
		Where("expiration_date > ?", now)
	if licenseType != "" {
		q = q.Where("license_type = ?", licenseType)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
