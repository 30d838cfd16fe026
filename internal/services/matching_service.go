// Package services – contractor matcher
//
// This file implements contractor selection for an approved service
// request. Candidates are filtered by offered service, insurance, license
// eligibility, and service radius, then scored on quality (rating,
// completion rate, punctuality, responsiveness, satisfaction, license
// health), availability, and geography. The final strategy depends on the
// request priority: emergencies fan out to the top three, urgent requests
// go to the single best match, and routine work is load-balanced onto the
// least busy eligible contractor.
package services

import (
	"context"
	"math"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/repo"
)

// AssignmentStrategy is the contractor-notification fan-out policy.
type AssignmentStrategy string

// Fan-out policies by priority.
const (
	StrategyMultipleBid AssignmentStrategy = "multiple_bid" // emergency: top 3
	StrategyBestMatch   AssignmentStrategy = "best_match"   // urgent: top 1
	StrategyLoadBalance AssignmentStrategy = "load_balance" // routine: least busy
)

// StrategyForPriority maps a request priority to its assignment strategy.
func StrategyForPriority(p domain.Priority) AssignmentStrategy {
	switch p {
	case domain.PriorityEmergency:
		return StrategyMultipleBid
	case domain.PriorityUrgent:
		return StrategyBestMatch
	default:
		return StrategyLoadBalance
	}
}

// PropertyLocation is the geographic anchor of the request's property.
type PropertyLocation struct {
	Latitude   *float64
	Longitude  *float64
	PostalCode string
	City       string
}

// ContractorMatch is one scored candidate.
type ContractorMatch struct {
	Contractor          domain.ContractorProfile `json:"contractor"`
	DistanceKm          float64                  `json:"distance_km"`
	QualityScore        float64                  `json:"quality_score"`
	AvailabilityScore   float64                  `json:"availability_score"`
	TotalScore          float64                  `json:"total_score"`
	EstimatedCost       float64                  `json:"estimated_cost"`
	EstimatedResponseHr float64                  `json:"estimated_response_hours"`
}

// Fallback distances when coordinates are missing on either side.
const (
	distSamePostalKm = 5
	distSameCityKm   = 15
	distOutOfAreaKm  = 50
)

// Quality sub-metric weights; they sum to 1.
const (
	weightRating       = 0.25
	weightCompletion   = 0.20
	weightOnTime       = 0.20
	weightResponseTime = 0.15
	weightSatisfaction = 0.10
	weightLicense      = 0.10
)

// responseBenchmarkHours normalizes average response time: anything at or
// beyond a full day scores zero.
const responseBenchmarkHours = 24.0

// MatchingService selects contractors for approved service requests.
type MatchingService struct {
	DB       *gorm.DB
	Licenses *LicenseService
}

// NewMatchingService constructs a MatchingService sharing the license gate.
func NewMatchingService(db *gorm.DB, licenses *LicenseService) *MatchingService {
	return &MatchingService{DB: db, Licenses: licenses}
}

// FindBest returns up to maxResults eligible contractors for the request,
// ordered by descending total score. An empty result is not an error;
// callers decide whether that degrades or aborts their flow.
func (s *MatchingService) FindBest(ctx context.Context, sr *domain.ServiceRequest, loc PropertyLocation, maxResults int) ([]ContractorMatch, error) {
	if maxResults < 1 {
		maxResults = 1
	}

	pool, err := repo.ListAvailableContractors(ctx, s.DB)
	if err != nil {
		return nil, err
	}

	matches := make([]ContractorMatch, 0, len(pool))
	for i := range pool {
		c := &pool[i]
		if !c.Offers(string(sr.RequestType)) {
			continue
		}

		// License gate: the contractor needs both a generally valid license
		// portfolio entry and eligibility for this specific service type.
		anyValid, err := s.Licenses.VerifyAny(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		eligible, err := s.Licenses.IsEligible(ctx, c.ID, sr.RequestType)
		if err != nil {
			return nil, err
		}
		if _, required := RequiredLicenseType(sr.RequestType); required && (!anyValid || !eligible) {
			continue
		}

		summary, err := s.Licenses.Summary(ctx, c.ID)
		if err != nil {
			return nil, err
		}

		m, ok := scoreContractor(c, loc, string(sr.RequestType), sr.Priority, summary.HealthScore)
		if !ok {
			continue
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].TotalScore > matches[j].TotalScore
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

// SelectByStrategy reduces an ordered match list to the contractors that
// should actually be notified under the given strategy.
func SelectByStrategy(matches []ContractorMatch, strategy AssignmentStrategy) []ContractorMatch {
	if len(matches) == 0 {
		return nil
	}
	switch strategy {
	case StrategyMultipleBid:
		n := 3
		if len(matches) < n {
			n = len(matches)
		}
		return matches[:n]
	case StrategyLoadBalance:
		best := matches[0]
		for _, m := range matches[1:] {
			if m.Contractor.CurrentJobCount < best.Contractor.CurrentJobCount {
				best = m
			}
		}
		return []ContractorMatch{best}
	default: // best_match
		return matches[:1]
	}
}

// scoreContractor computes the per-candidate scores. It returns ok=false
// when the candidate must be excluded (out of radius, fully booked).
func scoreContractor(c *domain.ContractorProfile, loc PropertyLocation, serviceType string, prio domain.Priority, licenseHealth float64) (ContractorMatch, bool) {
	// A zero radius means the contractor serves nowhere; it would also make
	// the geo score divide by zero.
	if c.ServiceRadiusKm <= 0 {
		return ContractorMatch{}, false
	}
	dist := contractorDistanceKm(c, loc)
	if dist > c.ServiceRadiusKm {
		return ContractorMatch{}, false
	}

	avail := availabilityScore(c, prio)
	if avail == 0 {
		return ContractorMatch{}, false
	}

	quality := qualityScore(c, licenseHealth)

	geo := 1 - dist/c.ServiceRadiusKm
	if geo < 0.1 {
		geo = 0.1
	}

	total := quality*0.5 + avail*0.3 + geo*0.2

	return ContractorMatch{
		Contractor:          *c,
		DistanceKm:          dist,
		QualityScore:        quality,
		AvailabilityScore:   avail,
		TotalScore:          total,
		EstimatedCost:       estimateCost(c, serviceType, prio, dist),
		EstimatedResponseHr: estimateResponseHours(c, prio),
	}, true
}

// qualityScore is the weighted sum of normalized quality sub-metrics.
func qualityScore(c *domain.ContractorProfile, licenseHealth float64) float64 {
	rating := clamp01((c.Rating - 1) / 4)
	completion := clamp01(c.CompletionRate / 100)
	onTime := clamp01(c.OnTimeRate / 100)
	response := clamp01(1 - c.AvgResponseHours/responseBenchmarkHours)
	satisfaction := clamp01((c.TenantSatisfaction - 1) / 4)

	return rating*weightRating +
		completion*weightCompletion +
		onTime*weightOnTime +
		response*weightResponseTime +
		satisfaction*weightSatisfaction +
		clamp01(licenseHealth)*weightLicense
}

// availabilityScore grades remaining capacity. Fully booked contractors
// score zero and are excluded. For emergencies, contractors who do not take
// emergency work are demoted to 0.3 instead of excluded.
func availabilityScore(c *domain.ContractorProfile, prio domain.Priority) float64 {
	if !c.HasCapacity() || c.MaxConcurrentJobs <= 0 {
		return 0
	}
	score := 1 - float64(c.CurrentJobCount)/float64(c.MaxConcurrentJobs)
	if prio == domain.PriorityEmergency && !c.EmergencyAvailable {
		return 0.3
	}
	return score
}

// contractorDistanceKm prefers the haversine distance when both sides have
// coordinates, and falls back to postal-code / city heuristics otherwise.
func contractorDistanceKm(c *domain.ContractorProfile, loc PropertyLocation) float64 {
	if c.Latitude != nil && c.Longitude != nil && loc.Latitude != nil && loc.Longitude != nil {
		return haversineKm(*c.Latitude, *c.Longitude, *loc.Latitude, *loc.Longitude)
	}
	if loc.PostalCode != "" {
		for _, pc := range c.PostalCodes {
			if pc == loc.PostalCode {
				return distSamePostalKm
			}
		}
	}
	if loc.City != "" {
		lower := cases.Lower(language.German)
		city := lower.String(loc.City)
		for _, area := range c.ServiceAreas {
			if lower.String(area) == city {
				return distSameCityKm
			}
		}
	}
	return distOutOfAreaKm
}

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// haversineKm computes the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// fallbackHourlyRate is used when a contractor has neither a fixed rate for
// the service nor an hourly rate on file.
const fallbackHourlyRate = 50.0

// estimateCost combines the fixed rate for the service type (hourly rate as
// fallback), the emergency multiplier, and travel cost.
func estimateCost(c *domain.ContractorProfile, serviceType string, prio domain.Priority, distKm float64) float64 {
	base := c.HourlyRate
	if fixed, ok := c.FixedRates[serviceType]; ok && fixed > 0 {
		base = fixed
	}
	if base <= 0 {
		base = fallbackHourlyRate
	}
	if prio == domain.PriorityEmergency && c.EmergencyMultiplier > 0 {
		base *= c.EmergencyMultiplier
	}
	return base + distKm*c.TravelRatePerKm
}

// estimateResponseHours projects when the contractor will react, scaled by
// priority against their historical average.
func estimateResponseHours(c *domain.ContractorProfile, prio domain.Priority) float64 {
	target := c.AvgResponseHours
	if target <= 0 {
		target = responseBenchmarkHours
	}
	switch prio {
	case domain.PriorityEmergency:
		return math.Min(2, target)
	case domain.PriorityUrgent:
		return target * 2
	default:
		return target * 12
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
