package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/repo"
)

func seedLicense(t *testing.T, db *gorm.DB, contractorID, licType string, status domain.LicenseVerification, expires time.Time) {
	t.Helper()
	l := &domain.ContractorLicense{
		ID:                 uuid.NewString(),
		ContractorID:       contractorID,
		LicenseType:        licType,
		LicenseNumber:      "L-" + uuid.NewString()[:8],
		IssueDate:          expires.AddDate(-2, 0, 0),
		ExpirationDate:     expires,
		VerificationStatus: status,
	}
	if err := repo.CreateLicense(context.Background(), db, l); err != nil {
		t.Fatalf("seed license: %v", err)
	}
}

func TestRequiredLicenseType(t *testing.T) {
	cases := []struct {
		rt       domain.RequestType
		want     string
		required bool
	}{
		{domain.RequestTypeElectrical, "electrical", true},
		{domain.RequestTypePlumbing, "plumbing", true},
		{domain.RequestTypeHVAC, "hvac", true},
		{domain.RequestTypeAppliance, "electrical", true},
		{domain.RequestTypeGeneral, "general_contractor", true},
		{domain.RequestTypeCleaning, "", false},
		{domain.RequestTypeSecurity, "", false},
		{domain.RequestTypeOther, "", false},
	}
	for _, c := range cases {
		got, req := RequiredLicenseType(c.rt)
		if got != c.want || req != c.required {
			t.Errorf("RequiredLicenseType(%s) = (%q, %v), want (%q, %v)", c.rt, got, req, c.want, c.required)
		}
	}
}

func TestLicenseService_IsEligible(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewLicenseService(db)
	now := time.Now().UTC()

	contractor := seedContractor(t, db, nil)
	seedLicense(t, db, contractor.ID, "plumbing", domain.LicenseVerified, now.AddDate(1, 0, 0))
	seedLicense(t, db, contractor.ID, "electrical", domain.LicenseVerified, now.AddDate(0, 0, -1))

	ok, err := svc.IsEligible(ctx, contractor.ID, domain.RequestTypePlumbing)
	if err != nil || !ok {
		t.Fatalf("plumbing eligibility: ok=%v err=%v", ok, err)
	}
	ok, err = svc.IsEligible(ctx, contractor.ID, domain.RequestTypeElectrical)
	if err != nil {
		t.Fatalf("electrical eligibility errored: %v", err)
	}
	if ok {
		t.Error("expired electrical license must not grant eligibility")
	}

	// No license needed for cleaning.
	ok, err = svc.IsEligible(ctx, contractor.ID, domain.RequestTypeCleaning)
	if err != nil || !ok {
		t.Fatalf("cleaning should always be eligible: ok=%v err=%v", ok, err)
	}
}

func TestLicenseService_VerifyAny(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewLicenseService(db)

	bare := seedContractor(t, db, nil)
	ok, err := svc.VerifyAny(ctx, bare.ID)
	if err != nil {
		t.Fatalf("VerifyAny errored: %v", err)
	}
	if ok {
		t.Error("contractor without licenses must fail VerifyAny")
	}

	licensed := seedContractor(t, db, nil)
	seedLicense(t, db, licensed.ID, "hvac", domain.LicenseVerified, time.Now().UTC().AddDate(1, 0, 0))
	ok, err = svc.VerifyAny(ctx, licensed.ID)
	if err != nil || !ok {
		t.Fatalf("VerifyAny with valid license: ok=%v err=%v", ok, err)
	}
}

func TestSummarize_HealthScores(t *testing.T) {
	now := time.Now().UTC()
	mk := func(status domain.LicenseVerification, expires time.Time) domain.ContractorLicense {
		return domain.ContractorLicense{VerificationStatus: status, ExpirationDate: expires}
	}

	cases := []struct {
		name     string
		licenses []domain.ContractorLicense
		want     float64
	}{
		{"no data", nil, 0.5},
		{"all healthy", []domain.ContractorLicense{mk(domain.LicenseVerified, now.AddDate(1, 0, 0))}, 1.0},
		{"expiring soon", []domain.ContractorLicense{mk(domain.LicenseVerified, now.Add(10 * 24 * time.Hour))}, 0.8},
		{"one expired", []domain.ContractorLicense{
			mk(domain.LicenseVerified, now.AddDate(1, 0, 0)),
			mk(domain.LicenseVerified, now.AddDate(0, 0, -1)),
		}, 0.3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := summarize(c.licenses, now)
			if got.HealthScore != c.want {
				t.Errorf("health = %v, want %v (summary %+v)", got.HealthScore, c.want, got)
			}
		})
	}
}

func TestSummarize_Counts(t *testing.T) {
	now := time.Now().UTC()
	licenses := []domain.ContractorLicense{
		{VerificationStatus: domain.LicenseVerified, ExpirationDate: now.AddDate(1, 0, 0)},
		{VerificationStatus: domain.LicenseVerified, ExpirationDate: now.Add(5 * 24 * time.Hour)},
		{VerificationStatus: domain.LicenseVerified, ExpirationDate: now.AddDate(0, -1, 0)},
		{VerificationStatus: domain.LicensePending, ExpirationDate: now.AddDate(1, 0, 0)},
	}
	got := summarize(licenses, now)
	if got.Total != 4 || got.Valid != 2 || got.Expired != 1 || got.ExpiringSoon != 1 || got.PendingVerification != 1 {
		t.Errorf("summary = %+v", got)
	}
}
