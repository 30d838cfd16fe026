package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedContractor(t *testing.T, db *gorm.DB, mutate func(*domain.ContractorProfile)) *domain.ContractorProfile {
	t.Helper()
	p := &domain.ContractorProfile{
		ID:                  uuid.NewString(),
		AccountID:           uuid.NewString(),
		Email:               uuid.NewString()[:8] + "@contractors.example",
		ServicesOffered:     []string{"plumbing"},
		ServiceAreas:        []string{"Berlin"},
		PostalCodes:         []string{"10115"},
		ServiceRadiusKm:     25,
		HourlyRate:          60,
		EmergencyMultiplier: 1.5,
		TravelRatePerKm:     0.5,
		Rating:              4,
		RatingCount:         10,
		CompletionRate:      95,
		OnTimeRate:          90,
		TenantSatisfaction:  4,
		AvgResponseHours:    6,
		MaxConcurrentJobs:   3,
		Available:           true,
		InsuranceVerified:   true,
	}
	if mutate != nil {
		mutate(p)
	}
	if err := repo.CreateContractor(context.Background(), db, p); err != nil {
		t.Fatalf("seed contractor: %v", err)
	}
	return p
}

// seedValidLicense gives the contractor a verified, long-lived license of
// the given type.
func seedValidLicense(t *testing.T, db *gorm.DB, contractorID, licType string) {
	t.Helper()
	seedLicense(t, db, contractorID, licType, domain.LicenseVerified, time.Now().UTC().AddDate(1, 0, 0))
}

func seedRequest(t *testing.T, db *gorm.DB, mutate func(*domain.ServiceRequest)) *domain.ServiceRequest {
	t.Helper()
	now := time.Now().UTC()
	sr := &domain.ServiceRequest{
		ID:               uuid.NewString(),
		TenantID:         "tenant-1",
		PropertyID:       "prop-1",
		TenantName:       "Frau Schmidt",
		TenantEmail:      "tenant@example.com",
		PropertyAddress:  "Hauptstr. 1, 10115 Berlin",
		RequestType:      domain.RequestTypePlumbing,
		Priority:         domain.PriorityRoutine,
		Title:            "Leaking pipe",
		Description:      "Water under the kitchen sink",
		Status:           domain.StatusSubmitted,
		ApprovalStatus:   domain.ApprovalPending,
		CompletionStatus: domain.CompletionPending,
		SubmittedAt:      &now,
	}
	if mutate != nil {
		mutate(sr)
	}
	if err := repo.CreateServiceRequest(context.Background(), db, sr); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return sr
}

func seedContract(t *testing.T, db *gorm.DB, tenantID, propertyID string, active bool) *domain.Contract {
	t.Helper()
	c := &domain.Contract{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		PropertyID: propertyID,
		Active:     active,
		StartDate:  time.Now().UTC().AddDate(-1, 0, 0),
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed contract: %v", err)
	}
	return c
}
