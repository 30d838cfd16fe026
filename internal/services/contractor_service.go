package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/repo"
)

// Contractor admin errors.
var (
	// ErrContractorNotFound indicates an unknown contractor profile.
	ErrContractorNotFound = errors.New("contractor not found")

	// ErrInvalidContractor is returned for malformed profile payloads.
	ErrInvalidContractor = errors.New("contractor profile requires an account id and email")

	// ErrInvalidLicense is returned for malformed license payloads.
	ErrInvalidLicense = errors.New("license requires a type and number")
)

// ContractorService owns contractor profile and license administration.
type ContractorService struct {
	DB       *gorm.DB
	Licenses *LicenseService
}

// NewContractorService wires the contractor admin operations.
func NewContractorService(db *gorm.DB, licenses *LicenseService) *ContractorService {
	return &ContractorService{DB: db, Licenses: licenses}
}

// Create registers a contractor profile. Sensible capacity and radius
// defaults apply when the payload leaves them zero.
func (s *ContractorService) Create(ctx context.Context, p *domain.ContractorProfile) (*domain.ContractorProfile, error) {
	if strings.TrimSpace(p.AccountID) == "" || strings.TrimSpace(p.Email) == "" {
		return nil, ErrInvalidContractor
	}
	if p.ID == "" {
		p.ID = newID()
	}
	if p.ServiceRadiusKm <= 0 {
		p.ServiceRadiusKm = 25
	}
	if p.MaxConcurrentJobs <= 0 {
		p.MaxConcurrentJobs = 3
	}
	if err := repo.CreateContractor(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a contractor profile by ID.
func (s *ContractorService) Get(ctx context.Context, id string) (*domain.ContractorProfile, error) {
	p, err := repo.GetContractor(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrContractorNotFound
		}
		return nil, err
	}
	return p, nil
}

// AddLicense records a trade license for the contractor. New licenses start
// pending until an admin verifies them.
func (s *ContractorService) AddLicense(ctx context.Context, contractorID string, l *domain.ContractorLicense) (*domain.ContractorLicense, error) {
	if _, err := s.Get(ctx, contractorID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(l.LicenseType) == "" || strings.TrimSpace(l.LicenseNumber) == "" {
		return nil, ErrInvalidLicense
	}
	if l.ID == "" {
		l.ID = newID()
	}
	l.ContractorID = contractorID
	if l.VerificationStatus == "" {
		l.VerificationStatus = domain.LicensePending
	}
	if err := repo.CreateLicense(ctx, s.DB, l); err != nil {
		return nil, err
	}
	return l, nil
}

// LicenseOverview bundles a contractor's licenses with the derived summary.
type LicenseOverview struct {
	Licenses []domain.ContractorLicense `json:"licenses"`
	Summary  LicenseSummary             `json:"summary"`
}

// Licenses returns the contractor's licenses plus the health summary used
// by the matcher.
func (s *ContractorService) LicensesFor(ctx context.Context, contractorID string) (*LicenseOverview, error) {
	if _, err := s.Get(ctx, contractorID); err != nil {
		return nil, err
	}
	lics, err := repo.ListLicenses(ctx, s.DB, contractorID)
	if err != nil {
		return nil, err
	}
	return &LicenseOverview{
		Licenses: lics,
		Summary:  summarize(lics, time.Now().UTC()),
	}, nil
}
