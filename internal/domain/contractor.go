package domain

import (
	"time"

	"gorm.io/gorm"
)

// LicenseVerification is the admin verification state of a contractor license.
type LicenseVerification string

// License verification states.
const (
	LicensePending  LicenseVerification = "pending"
	LicenseVerified LicenseVerification = "verified"
	LicenseRejected LicenseVerification = "rejected"
)

// ContractorProfile holds the matching-relevant data for one contractor
// account: offered services, geography, rates, quality metrics, and
// capacity. It is long-lived reference data mutated by admin CRUD and by
// workflow side effects (job-count bookkeeping, running-average metrics).
//
// Bounds: Rating and TenantSatisfaction live in [1,5], CompletionRate and
// OnTimeRate in [0,100]. A contractor is at capacity when CurrentJobCount
// reaches MaxConcurrentJobs.
type ContractorProfile struct {
	ID        string `json:"id"         gorm:"type:char(36);primaryKey"`
	AccountID string `json:"account_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	Email     string `json:"email"      gorm:"type:varchar(255);not null"`
	Company   string `json:"company,omitempty" gorm:"type:varchar(255)"`

	ServicesOffered []string `json:"services_offered" gorm:"serializer:json"`
	ServiceAreas    []string `json:"service_areas"    gorm:"serializer:json"`
	PostalCodes     []string `json:"postal_codes_served" gorm:"serializer:json"`

	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	ServiceRadiusKm float64  `json:"service_radius_km" gorm:"not null;default:25"`

	HourlyRate          float64            `json:"hourly_rate"`
	FixedRates          map[string]float64 `json:"fixed_rates" gorm:"serializer:json"`
	EmergencyMultiplier float64            `json:"emergency_multiplier" gorm:"not null;default:1.5"`
	TravelRatePerKm     float64            `json:"travel_rate_per_km"`

	Rating             float64 `json:"rating"              gorm:"not null;default:3"`
	RatingCount        int     `json:"rating_count"        gorm:"not null;default:0"`
	CompletionRate     float64 `json:"completion_rate"     gorm:"not null;default:100"`
	OnTimeRate         float64 `json:"on_time_rate"        gorm:"not null;default:100"`
	TenantSatisfaction float64 `json:"tenant_satisfaction" gorm:"not null;default:3"`
	AvgResponseHours   float64 `json:"average_response_time" gorm:"not null;default:24"`

	CurrentJobCount    int  `json:"current_job_count"   gorm:"not null;default:0"`
	MaxConcurrentJobs  int  `json:"max_concurrent_jobs" gorm:"not null;default:5"`
	Available          bool `json:"available"           gorm:"not null;default:true"`
	EmergencyAvailable bool `json:"emergency_available" gorm:"not null;default:false"`
	InsuranceVerified  bool `json:"insurance_verified"  gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for ContractorProfile.
func (ContractorProfile) TableName() string { return "contractor_profiles" }

// HasCapacity reports whether the contractor can take one more job.
func (p *ContractorProfile) HasCapacity() bool {
	return p.CurrentJobCount < p.MaxConcurrentJobs
}

// Offers reports whether the contractor lists the given service keyword.
func (p *ContractorProfile) Offers(service string) bool {
	for _, s := range p.ServicesOffered {
		if s == service {
			return true
		}
	}
	return false
}

// ContractorLicense records one trade license held by a contractor.
//
// A license is valid for assignment iff VerificationStatus is verified and
// ExpirationDate is in the future.
type ContractorLicense struct {
	ID           string `json:"id"            gorm:"type:char(36);primaryKey"`
	ContractorID string `json:"contractor_id" gorm:"type:char(36);not null;index:idx_contractor_licenses"`

	LicenseType      string `json:"license_type"      gorm:"type:varchar(64);not null"`
	LicenseNumber    string `json:"license_number"    gorm:"type:varchar(128);not null"`
	IssuingAuthority string `json:"issuing_authority" gorm:"type:varchar(255)"`

	IssueDate      time.Time `json:"issue_date"`
	ExpirationDate time.Time `json:"expiration_date"`

	VerificationStatus LicenseVerification `json:"verification_status" gorm:"type:varchar(16);not null;default:'pending'"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Contractor is the owning profile. Licenses are cascade-deleted if the
	// profile is removed.
	Contractor ContractorProfile `json:"-" gorm:"foreignKey:ContractorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ContractorLicense.
func (ContractorLicense) TableName() string { return "contractor_licenses" }

// ValidAt reports whether the license is usable for assignment at the given
// instant.
func (l *ContractorLicense) ValidAt(now time.Time) bool {
	return l.VerificationStatus == LicenseVerified && l.ExpirationDate.After(now)
}
