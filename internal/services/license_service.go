// Package services – license gate
//
// This file implements the license checks that stand between a contractor
// and an assignment: a fixed mapping from requested service type to the
// license type it requires, eligibility checks against verified and
// unexpired licenses, and a summary with a health score consumed by the
// contractor matcher.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/repo"
)

// requiredLicenseTypes maps a request type to the license a contractor must
// hold to take the job. Types absent from the map need no license.
var requiredLicenseTypes = map[domain.RequestType]string{
	domain.RequestTypeElectrical: "electrical",
	domain.RequestTypePlumbing:   "plumbing",
	domain.RequestTypeHVAC:       "hvac",
	domain.RequestTypeAppliance:  "electrical",
	domain.RequestTypeGeneral:    "general_contractor",
}

// RequiredLicenseType returns the license type a service type demands, and
// whether one is required at all.
func RequiredLicenseType(rt domain.RequestType) (string, bool) {
	lt, ok := requiredLicenseTypes[rt]
	return lt, ok
}

// LicenseSummary aggregates a contractor's license portfolio.
type LicenseSummary struct {
	Total               int     `json:"total"`
	Valid               int     `json:"valid"`
	Expired             int     `json:"expired"`
	ExpiringSoon        int     `json:"expiring_within_30_days"`
	PendingVerification int     `json:"pending_verification"`
	HealthScore         float64 `json:"health_score"`
}

// LicenseService answers eligibility questions about contractor licenses.
type LicenseService struct {
	DB *gorm.DB
}

// NewLicenseService constructs a LicenseService.
func NewLicenseService(db *gorm.DB) *LicenseService {
	return &LicenseService{DB: db}
}

// IsEligible reports whether the contractor may be assigned work of the
// given service type. Service types without a license requirement are always
// eligible.
func (s *LicenseService) IsEligible(ctx context.Context, contractorID string, rt domain.RequestType) (bool, error) {
	licType, required := RequiredLicenseType(rt)
	if !required {
		return true, nil
	}
	return repo.HasValidLicense(ctx, s.DB, contractorID, licType, time.Now().UTC())
}

// VerifyAny reports whether the contractor holds at least one valid license
// of any type.
func (s *LicenseService) VerifyAny(ctx context.Context, contractorID string) (bool, error) {
	return repo.HasValidLicense(ctx, s.DB, contractorID, "", time.Now().UTC())
}

// Summary tallies the contractor's licenses and derives the health score
// used as a quality sub-metric by the matcher:
//
//	1.0  no expired and none expiring within 30 days
//	0.8  none expired, some expiring soon
//	0.3  at least one expired
//	0.5  no license data at all
func (s *LicenseService) Summary(ctx context.Context, contractorID string) (LicenseSummary, error) {
	licenses, err := repo.ListLicenses(ctx, s.DB, contractorID)
	if err != nil {
		return LicenseSummary{}, err
	}
	return summarize(licenses, time.Now().UTC()), nil
}

// summarize is the pure core of Summary, split out for testability.
func summarize(licenses []domain.ContractorLicense, now time.Time) LicenseSummary {
	sum := LicenseSummary{Total: len(licenses)}
	soon := now.Add(30 * 24 * time.Hour)

	for i := range licenses {
		l := &licenses[i]
		switch {
		case l.VerificationStatus == domain.LicensePending:
			sum.PendingVerification++
		case !l.ExpirationDate.After(now):
			sum.Expired++
		case l.VerificationStatus == domain.LicenseVerified:
			sum.Valid++
			if !l.ExpirationDate.After(soon) {
				sum.ExpiringSoon++
			}
		}
	}

	switch {
	case sum.Total == 0:
		sum.HealthScore = 0.5
	case sum.Expired > 0:
		sum.HealthScore = 0.3
	case sum.ExpiringSoon > 0:
		sum.HealthScore = 0.8
	default:
		sum.HealthScore = 1.0
	}
	return sum
}
