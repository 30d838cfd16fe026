// Package services – legal responsibility resolver
//
// This file implements the German rental-law responsibility heuristics:
// given facts about the affected item (who owns it, what it is, whether the
// dwelling is uninhabitable without it, what went wrong), it decides whether
// the landlord, the tenant, or both share the repair cost. The resolver is a
// pure decision table: no I/O, deterministic, trivially testable.
//
// The rules fire in order with later rules refining earlier ones; the two
// safety overrides (electrical/plumbing/hvac, landlord kitchen/bathroom
// appliances) run last and take precedence.
package services

import (
	"fmt"

	"github.com/umiddey/propertyflow-backend/internal/domain"
)

// Item ownership values accepted by Resolve.
const (
	OwnershipLandlord = "landlord"
	OwnershipTenant   = "tenant"
	OwnershipUnknown  = "unknown"
)

// LegalInput carries the facts the resolver decides on.
type LegalInput struct {
	ItemOwnership string // landlord | tenant | unknown
	ItemCategory  string // e.g. kitchen, bathroom, heating
	IsEssential   bool   // habitability-critical (heating, water, ...)
	IssueType     domain.RequestType
	ItemCondition string // good | fair | poor
}

// LegalAssessment is the resolver's verdict.
type LegalAssessment struct {
	Responsibility       domain.Responsibility
	Reasoning            string
	RequiresManualReview bool
	// PriorityAdjustment is "urgent" when a landlord-owned essential item is
	// affected, otherwise empty.
	PriorityAdjustment string
}

// Resolve maps item facts to a responsibility verdict. Same inputs always
// yield the same output.
func Resolve(in LegalInput) LegalAssessment {
	var out LegalAssessment

	switch in.ItemOwnership {
	case OwnershipTenant:
		out.Responsibility = domain.ResponsibilityTenant
		out.Reasoning = "tenant-owned item: tenant bears repair cost (§ 538 BGB analog)"
	case OwnershipLandlord:
		if in.IsEssential {
			out.Responsibility = domain.ResponsibilityLandlord
			out.Reasoning = "landlord-owned essential item: habitability duty (§ 535 Abs. 1 BGB)"
		} else {
			out.Responsibility = domain.ResponsibilityLandlord
			out.Reasoning = "landlord-owned item: landlord default, unless tenant negligence is established"
		}
	default:
		out.Responsibility = domain.ResponsibilityShared
		out.Reasoning = "ownership unclear: shared pending manual review"
		out.RequiresManualReview = true
	}

	// Safety override: building-systems issues on landlord-owned or essential
	// items are always the landlord's duty regardless of the rules above.
	switch in.IssueType {
	case domain.RequestTypeElectrical, domain.RequestTypePlumbing, domain.RequestTypeHVAC:
		if in.ItemOwnership == OwnershipLandlord || in.IsEssential {
			out.Responsibility = domain.ResponsibilityLandlord
			out.Reasoning = fmt.Sprintf("safety-critical %s issue: landlord responsibility enforced", in.IssueType)
			out.RequiresManualReview = false
		}
	case domain.RequestTypeAppliance:
		if in.ItemOwnership == OwnershipLandlord && (in.ItemCategory == "kitchen" || in.ItemCategory == "bathroom") {
			out.Responsibility = domain.ResponsibilityLandlord
			out.Reasoning = "landlord-provided kitchen/bathroom appliance: landlord responsibility"
		}
	}

	// Poor condition on a tenant-owned item reinforces the tenant verdict
	// with a negligence note; it never flips responsibility.
	if in.ItemCondition == "poor" && out.Responsibility == domain.ResponsibilityTenant {
		out.Reasoning += "; poor item condition suggests tenant negligence"
	}

	if out.Responsibility == domain.ResponsibilityLandlord && in.IsEssential {
		out.PriorityAdjustment = string(domain.PriorityUrgent)
	}

	return out
}

// CostSplit returns the landlord/tenant percentage split for a
// responsibility verdict. Unknown values fall back to the landlord paying in
// full (conservative default).
func CostSplit(r domain.Responsibility) (landlordPct, tenantPct int) {
	switch r {
	case domain.ResponsibilityLandlord:
		return 100, 0
	case domain.ResponsibilityTenant:
		return 0, 100
	case domain.ResponsibilityShared:
		// 50/50 default, pending manual review.
		return 50, 50
	default:
		return 100, 0
	}
}

// landlordAutoApproveLimit is the cost ceiling under which landlord-side
// repairs skip property-manager approval.
const landlordAutoApproveLimit = 500.0

// ApprovalRequirement describes who (if anyone) must sign off on a repair.
type ApprovalRequirement struct {
	AutoApprove bool
	// ApprovedBy names the required approver when AutoApprove is false:
	// property_manager, tenant, or manual_review.
	ApprovedBy string
}

// RequiredApproval maps a responsibility verdict and cost estimate to the
// approval policy.
func RequiredApproval(r domain.Responsibility, estimatedCost float64) ApprovalRequirement {
	switch r {
	case domain.ResponsibilityLandlord:
		if estimatedCost <= landlordAutoApproveLimit {
			return ApprovalRequirement{AutoApprove: true}
		}
		return ApprovalRequirement{ApprovedBy: "property_manager"}
	case domain.ResponsibilityTenant:
		return ApprovalRequirement{ApprovedBy: "tenant"}
	default:
		return ApprovalRequirement{ApprovedBy: "manual_review"}
	}
}
