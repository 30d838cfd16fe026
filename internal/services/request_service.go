// Package services – RequestService
//
// This file implements the RequestService, which drives a service request
// through its full lifecycle: tenant intake (with contract verification and
// the legal responsibility assessment), admin approval, contractor matching
// and invitation, the token-gated scheduling and invoice webhooks, and
// completion confirmation.
//
// Service-level errors (e.g., ErrTokenAlreadyUsed) are returned for
// predictable cases so handlers can map them to HTTP results consistently.
// Email failures are reported as outcomes, never as workflow aborts.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/observability"
	"github.com/umiddey/propertyflow-backend/internal/repo"
)

// maxPreferredSlots caps the appointment candidates a tenant may offer.
const maxPreferredSlots = 3

var knownRequestTypes = map[domain.RequestType]bool{
	domain.RequestTypePlumbing:   true,
	domain.RequestTypeElectrical: true,
	domain.RequestTypeHVAC:       true,
	domain.RequestTypeAppliance:  true,
	domain.RequestTypeGeneral:    true,
	domain.RequestTypeCleaning:   true,
	domain.RequestTypeSecurity:   true,
	domain.RequestTypeOther:      true,
}

var knownPriorities = map[domain.Priority]bool{
	domain.PriorityEmergency: true,
	domain.PriorityUrgent:    true,
	domain.PriorityRoutine:   true,
}

// ErrInvalidInput is returned for malformed intake payloads.
var ErrInvalidInput = errors.New("invalid request payload")

// newID returns a fresh UUIDv4 string for primary keys.
func newID() string { return uuid.NewString() }

// RequestService coordinates the contractor workflow across the matcher,
// the notifier, and the persistence layer.
type RequestService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Matcher scores and selects contractors at approval time.
	Matcher *MatchingService
	// Notifier mints tokens and sends workflow emails.
	Notifier *NotificationService

	// MaxMatchResults caps the candidate list considered per approval.
	MaxMatchResults int
	// ConfirmationLinkTTL invalidates tenant confirmation links after this
	// much time since the confirmation email went out.
	ConfirmationLinkTTL time.Duration
	// Now is the clock; override in tests.
	Now func() time.Time
}

// NewRequestService constructs a RequestService with the given collaborators.
func NewRequestService(db *gorm.DB, matcher *MatchingService, notifier *NotificationService, maxResults int, linkTTL time.Duration) *RequestService {
	return &RequestService{
		DB:                  db,
		Matcher:             matcher,
		Notifier:            notifier,
		MaxMatchResults:     maxResults,
		ConfirmationLinkTTL: linkTTL,
		Now:                 func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is the tenant intake payload plus the furnished-item facts
// the legal resolver decides on.
type CreateInput struct {
	TenantID        string
	PropertyID      string
	TenantName      string
	TenantEmail     string
	PropertyAddress string

	RequestType domain.RequestType
	Priority    domain.Priority
	Title       string
	Description string

	PreferredSlots  []time.Time
	AttachmentURLs  []string
	FurnishedItemID string

	// Legal facts about the affected item; zero value means "unknown item".
	Legal LegalInput

	CreatedBy string
}

// Create verifies the tenant's contract, runs the legal assessment, and
// persists a new submitted request. The responsibility verdict may bump a
// routine request to urgent when a landlord-owned essential item is broken.
func (s *RequestService) Create(ctx context.Context, in CreateInput) (*domain.ServiceRequest, error) {
	if strings.TrimSpace(in.Title) == "" || in.TenantID == "" || in.PropertyID == "" {
		return nil, ErrInvalidInput
	}
	if !knownRequestTypes[in.RequestType] {
		return nil, ErrInvalidInput
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityRoutine
	}
	if !knownPriorities[in.Priority] {
		return nil, ErrInvalidInput
	}
	if len(in.PreferredSlots) > maxPreferredSlots {
		return nil, ErrInvalidInput
	}

	if _, err := repo.FindActiveContract(ctx, s.DB, in.TenantID, in.PropertyID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNoActiveContract
		}
		return nil, err
	}

	in.Legal.IssueType = in.RequestType
	verdict := Resolve(in.Legal)

	priority := in.Priority
	if verdict.PriorityAdjustment == "urgent" && priority == domain.PriorityRoutine {
		priority = domain.PriorityUrgent
	}

	now := s.Now()
	sr := &domain.ServiceRequest{
		ID:                   newID(),
		TenantID:             in.TenantID,
		PropertyID:           in.PropertyID,
		TenantName:           in.TenantName,
		TenantEmail:          in.TenantEmail,
		PropertyAddress:      in.PropertyAddress,
		RequestType:          in.RequestType,
		Priority:             priority,
		Title:                strings.TrimSpace(in.Title),
		Description:          in.Description,
		AttachmentURLs:       in.AttachmentURLs,
		TenantPreferredSlots: in.PreferredSlots,
		Status:               domain.StatusSubmitted,
		ApprovalStatus:       domain.ApprovalPending,
		CompletionStatus:     domain.CompletionPending,
		FurnishedItemID:      in.FurnishedItemID,
		LegalResponsibility:  verdict.Responsibility,
		LegalReasoning:       verdict.Reasoning,
		CreatedBy:            in.CreatedBy,
		SubmittedAt:          &now,
	}
	if err := repo.CreateServiceRequest(ctx, s.DB, sr); err != nil {
		return nil, err
	}

	subject := "Review service request: " + sr.Title
	if verdict.RequiresManualReview {
		subject = "Manual legal review needed: " + sr.Title
	}
	s.recordTask(ctx, sr.ID, "approval_review", subject)

	return sr, nil
}

// ApproveInput is the admin approval decision plus the property location
// the matcher scores distance against.
type ApproveInput struct {
	Decision string // approved | rejected
	Notes    string
	Location PropertyLocation
}

// ApprovalResult reports what the approval did: the candidates considered,
// the contractors actually invited, and the per-email outcomes.
type ApprovalResult struct {
	Request  *domain.ServiceRequest `json:"request"`
	Strategy AssignmentStrategy     `json:"strategy,omitempty"`
	Matches  []ContractorMatch      `json:"matches,omitempty"`
	Invited  []ContractorMatch      `json:"invited,omitempty"`
	Outcomes []SendOutcome          `json:"email_outcomes,omitempty"`
	// Assigned is false when no contractor matched or no invitation could
	// be delivered; the request then stays visible in the admin queue.
	Assigned bool `json:"assigned"`
}

// Approve records the admin decision. Rejection cancels the request.
// Approval runs the matcher, invites the selected contractors, and moves
// the request to assigned once at least one invitation is delivered.
//
// A repeat approval is permitted only while no contractor has been
// assigned; it reuses the stored tokens so earlier links stay valid.
func (s *RequestService) Approve(ctx context.Context, id string, in ApproveInput) (*ApprovalResult, error) {
	sr, err := repo.GetServiceRequest(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	switch in.Decision {
	case string(domain.ApprovalApproved), string(domain.ApprovalRejected):
	default:
		return nil, ErrInvalidDecision
	}

	if sr.ApprovalStatus != domain.ApprovalPending {
		// A multiple-bid request may lack a contractor email even after a
		// contractor confirmed an appointment, so the confirmed timestamp
		// guards the retry as well.
		retriable := sr.ApprovalStatus == domain.ApprovalApproved &&
			in.Decision == string(domain.ApprovalApproved) &&
			sr.ContractorEmail == "" &&
			sr.AppointmentConfirmedAt == nil
		if !retriable {
			if sr.ContractorEmail != "" || sr.AppointmentConfirmedAt != nil {
				return nil, ErrAlreadyAssigned
			}
			return nil, ErrNotPendingApproval
		}
	}

	if in.Decision == string(domain.ApprovalRejected) {
		updates := map[string]any{
			"approval_status": domain.ApprovalRejected,
			"approval_notes":  in.Notes,
		}
		if sr.Status.CanTransitionTo(domain.StatusCancelled) {
			updates["status"] = domain.StatusCancelled
		}
		if err := repo.UpdateServiceRequest(ctx, s.DB, sr.ID, updates); err != nil {
			return nil, err
		}
		out, _ := repo.GetServiceRequest(ctx, s.DB, sr.ID)
		return &ApprovalResult{Request: out}, nil
	}

	if err := repo.UpdateServiceRequest(ctx, s.DB, sr.ID, map[string]any{
		"approval_status": domain.ApprovalApproved,
		"approval_notes":  in.Notes,
	}); err != nil {
		return nil, err
	}
	sr.ApprovalStatus = domain.ApprovalApproved

	matches, err := s.Matcher.FindBest(ctx, sr, in.Location, s.MaxMatchResults)
	if err != nil {
		return nil, err
	}
	strategy := StrategyForPriority(sr.Priority)
	result := &ApprovalResult{Request: sr, Strategy: strategy, Matches: matches}
	if len(matches) == 0 {
		log.Warn().Str("request_id", sr.ID).Msg("no eligible contractor matched; request stays in the queue")
		s.recordTask(ctx, sr.ID, "manual_assignment", "No contractor matched: "+sr.Title)
		return result, nil
	}

	invited := SelectByStrategy(matches, strategy)
	outcomes, err := s.Notifier.SendSchedulingInvitations(ctx, sr, invited)
	if err != nil {
		return nil, err
	}
	result.Invited = invited
	result.Outcomes = outcomes

	if !AnySent(outcomes) {
		log.Warn().Str("request_id", sr.ID).Msg("all scheduling invitations failed; request stays submitted")
		return result, nil
	}

	now := s.Now()
	updates := map[string]any{
		"status":                   domain.StatusAssigned,
		"assigned_at":              now,
		"contractor_email_sent_at": now,
	}
	// Single-contractor strategies fix the assignee now; multiple-bid
	// leaves it open until a contractor responds first.
	if strategy != StrategyMultipleBid && len(invited) == 1 {
		updates["contractor_email"] = invited[0].Contractor.Email
	}
	assigned, err := repo.MarkAssigned(ctx, s.DB, sr.ID, updates)
	if err != nil {
		return nil, err
	}
	if !assigned {
		// A contractor responded between the guard check and the write.
		return nil, ErrAlreadyAssigned
	}
	result.Assigned = true

	out, err := repo.GetServiceRequest(ctx, s.DB, sr.ID)
	if err != nil {
		return nil, err
	}
	result.Request = out
	return result, nil
}

// ScheduleInput is a contractor's response to the scheduling invitation.
type ScheduleInput struct {
	Action           string // accept | propose
	SelectedSlot     *time.Time
	ProposedDateTime *time.Time
	Notes            string
	// Email identifies the responding contractor on multiple-bid requests.
	Email string
}

// GetBySchedulingToken loads the request behind a scheduling link for the
// response form. A consumed link reports ErrTokenAlreadyUsed so the form
// can say "this job has already been scheduled".
func (s *RequestService) GetBySchedulingToken(ctx context.Context, token string) (*domain.ServiceRequest, error) {
	sr, err := repo.GetBySchedulingToken(ctx, s.DB, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if sr.AppointmentConfirmedAt != nil {
		return nil, ErrTokenAlreadyUsed
	}
	return sr, nil
}

// ScheduleRespond resolves a scheduling token. Accept must name one of the
// tenant's offered slots; propose must carry a datetime. The first response
// to land wins the job; later ones get ErrTokenAlreadyUsed.
func (s *RequestService) ScheduleRespond(ctx context.Context, token string, in ScheduleInput) (*domain.ServiceRequest, error) {
	sr, err := s.GetBySchedulingToken(ctx, token)
	if err != nil {
		return nil, err
	}

	var at time.Time
	switch in.Action {
	case "accept":
		if in.SelectedSlot == nil {
			return nil, ErrMissingSlot
		}
		if !slotOffered(sr.TenantPreferredSlots, *in.SelectedSlot) {
			return nil, ErrSlotNotOffered
		}
		at = in.SelectedSlot.UTC()
	case "propose":
		if in.ProposedDateTime == nil {
			return nil, ErrMissingProposal
		}
		at = in.ProposedDateTime.UTC()
	default:
		return nil, ErrInvalidAction
	}

	won, err := repo.ConfirmAppointment(ctx, s.DB, sr.ID, at, in.Action, in.Notes)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrTokenAlreadyUsed
	}

	if in.Email != "" && sr.ContractorEmail == "" {
		if err := repo.UpdateServiceRequest(ctx, s.DB, sr.ID, map[string]any{
			"contractor_email": in.Email,
		}); err != nil {
			return nil, err
		}
		sr.ContractorEmail = in.Email
	}
	s.bumpJobCount(ctx, sr.ContractorEmail)
	s.recordTask(ctx, sr.ID, "appointment", "Appointment confirmed: "+sr.Title)

	out, err := repo.GetServiceRequest(ctx, s.DB, sr.ID)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// slotOffered reports whether want matches one of the offered slots.
// Times are compared by instant, not by location.
func slotOffered(offered []time.Time, want time.Time) bool {
	for _, s := range offered {
		if s.Equal(want) {
			return true
		}
	}
	return false
}

// MarkComplete records that the work is done. Only an in-progress request
// can complete. By default the tenant is asked to confirm (silence past the
// window counts as confirmation via the sweep); with confirmed set, the
// admin vouches for the result themselves, completion moves straight to
// admin_confirmed, and invoice upload opens without a tenant email.
func (s *RequestService) MarkComplete(ctx context.Context, id, notes string, confirmed bool) (*domain.ServiceRequest, error) {
	sr, err := repo.GetServiceRequest(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if sr.Status != domain.StatusInProgress {
		return nil, ErrNotInProgress
	}

	now := s.Now()
	updates := map[string]any{
		"status":       domain.StatusCompleted,
		"completed_at": now,
	}
	if notes != "" {
		updates["completion_notes"] = notes
	}
	if confirmed {
		updates["completion_status"] = domain.CompletionAdminConfirmed
		updates["invoice_upload_enabled"] = true
	}
	if err := repo.UpdateServiceRequest(ctx, s.DB, sr.ID, updates); err != nil {
		return nil, err
	}
	sr, err = repo.GetServiceRequest(ctx, s.DB, sr.ID)
	if err != nil {
		return nil, err
	}

	if confirmed {
		s.sendInvoiceLink(ctx, sr)
		return repo.GetServiceRequest(ctx, s.DB, sr.ID)
	}
	if out, err := s.Notifier.SendConfirmationRequest(ctx, sr); err == nil && out.Sent {
		_ = repo.UpdateServiceRequest(ctx, s.DB, sr.ID, map[string]any{
			"confirmation_email_sent_at": s.Now(),
		})
	}
	return repo.GetServiceRequest(ctx, s.DB, sr.ID)
}

// MarkCompleteForTenant is the tenant-initiated variant: the tenant both
// reports and confirms completion in one step, so no confirmation email
// goes out and invoice upload opens immediately.
func (s *RequestService) MarkCompleteForTenant(ctx context.Context, id, tenantID, notes string) (*domain.ServiceRequest, error) {
	sr, err := repo.GetServiceRequestForTenant(ctx, s.DB, id, tenantID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if sr.Status != domain.StatusInProgress {
		return nil, ErrNotInProgress
	}

	now := s.Now()
	updates := map[string]any{
		"status":                 domain.StatusCompleted,
		"completed_at":           now,
		"completion_status":      domain.CompletionTenantConfirmed,
		"invoice_upload_enabled": true,
	}
	if notes != "" {
		updates["completion_notes"] = notes
	}
	if err := repo.UpdateServiceRequest(ctx, s.DB, sr.ID, updates); err != nil {
		return nil, err
	}
	sr, err = repo.GetServiceRequest(ctx, s.DB, sr.ID)
	if err != nil {
		return nil, err
	}
	s.sendInvoiceLink(ctx, sr)
	return repo.GetServiceRequest(ctx, s.DB, sr.ID)
}

// ConfirmInput is the tenant's answer to the confirmation email.
type ConfirmInput struct {
	Completed bool
	Notes     string
	// Rating optionally scores the contractor 1..5 on confirmation.
	Rating *float64
}

// ConfirmCompletion resolves a tenant confirmation token. Confirmation
// opens invoice upload and emails the contractor the upload link; a
// dispute reopens the request and notifies the contractor. Either way the
// token is spent.
func (s *RequestService) ConfirmCompletion(ctx context.Context, token string, in ConfirmInput) (*domain.ServiceRequest, error) {
	sr, err := repo.GetByConfirmationToken(ctx, s.DB, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if sr.ConfirmationEmailSentAt != nil && s.Now().After(sr.ConfirmationEmailSentAt.Add(s.ConfirmationLinkTTL)) {
		return nil, ErrTokenExpired
	}

	if in.Completed {
		extra := map[string]any{"invoice_upload_enabled": true}
		if in.Notes != "" {
			extra["completion_notes"] = in.Notes
		}
		ok, err := repo.SetCompletionStatus(ctx, s.DB, sr.ID, domain.CompletionTenantConfirmed, extra)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTokenAlreadyUsed
		}
		if in.Rating != nil {
			s.rateContractor(ctx, sr.ContractorEmail, *in.Rating)
		}
		sr, err = repo.GetServiceRequest(ctx, s.DB, sr.ID)
		if err != nil {
			return nil, err
		}
		s.sendInvoiceLink(ctx, sr)
		return repo.GetServiceRequest(ctx, s.DB, sr.ID)
	}

	// Dispute: reopen the request. This is the one sanctioned step back
	// in the lifecycle.
	extra := map[string]any{"status": domain.StatusInProgress}
	if in.Notes != "" {
		extra["completion_notes"] = in.Notes
	}
	ok, err := repo.SetCompletionStatus(ctx, s.DB, sr.ID, domain.CompletionTenantDisputed, extra)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenAlreadyUsed
	}
	if _, err := s.Notifier.SendDisputeNotice(ctx, sr, in.Notes); err != nil {
		log.Warn().Err(err).Str("request_id", sr.ID).Msg("dispute notice failed")
	}
	s.recordTask(ctx, sr.ID, "dispute", "Tenant disputed completion: "+sr.Title)
	return repo.GetServiceRequest(ctx, s.DB, sr.ID)
}

// autoApproveThreshold returns the invoice amount up to which payment is
// approved without review. Emergency work and plumbing carry the highest
// ceiling; routine and general maintenance the lowest.
func autoApproveThreshold(rt domain.RequestType, prio domain.Priority) float64 {
	switch {
	case prio == domain.PriorityEmergency || rt == domain.RequestTypePlumbing:
		return 500
	case rt == domain.RequestTypeGeneral || prio == domain.PriorityRoutine:
		return 100
	default:
		return 150
	}
}

// InvoiceResult reports the stored invoice decision.
type InvoiceResult struct {
	Request      *domain.ServiceRequest `json:"request"`
	Invoice      *domain.Invoice        `json:"invoice,omitempty"`
	AutoApproved bool                   `json:"auto_approved"`
}

// GetByInvoiceToken loads the request behind an invoice-upload link.
func (s *RequestService) GetByInvoiceToken(ctx context.Context, token string) (*domain.ServiceRequest, error) {
	sr, err := repo.GetByInvoiceToken(ctx, s.DB, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if sr.InvoiceSubmittedAt != nil {
		return nil, ErrTokenAlreadyUsed
	}
	return sr, nil
}

// SubmitInvoice resolves an invoice token: records the amount exactly once,
// decides auto-approval by the threshold table, books the invoice against
// the tenant's active contract, and frees the contractor's capacity slot.
// The request stays completed; closing it is an administrative step outside
// this workflow.
func (s *RequestService) SubmitInvoice(ctx context.Context, token string, amount float64, notes string) (*InvoiceResult, error) {
	sr, err := repo.GetByInvoiceToken(ctx, s.DB, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if !sr.InvoiceUploadEnabled {
		return nil, ErrUploadNotEnabled
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	ok, err := repo.MarkInvoiceSubmitted(ctx, s.DB, sr.ID, amount, s.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTokenAlreadyUsed
	}

	autoApproved := amount <= autoApproveThreshold(sr.RequestType, sr.Priority)
	observability.RecordInvoiceDecision(autoApproved)

	inv := &domain.Invoice{
		ID:               newID(),
		ServiceRequestID: sr.ID,
		ContractorEmail:  sr.ContractorEmail,
		Amount:           amount,
		Description:      notes,
		AutoApproved:     autoApproved,
		Status:           domain.InvoicePendingApproval,
	}
	if autoApproved {
		inv.Status = domain.InvoicePaid
	}
	if contract, err := repo.FindActiveContract(ctx, s.DB, sr.TenantID, sr.PropertyID); err == nil {
		inv.ContractID = contract.ID
	} else {
		log.Warn().Str("request_id", sr.ID).Msg("no active contract at invoicing time; invoice stored unlinked")
	}
	if err := repo.CreateInvoice(ctx, s.DB, inv); err != nil {
		return nil, err
	}

	s.dropJobCount(ctx, sr.ContractorEmail)
	if !autoApproved {
		s.recordTask(ctx, sr.ID, "invoice_review", "Invoice needs approval: "+sr.Title)
	}

	out, err := repo.GetServiceRequest(ctx, s.DB, sr.ID)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Request: out, Invoice: inv, AutoApproved: autoApproved}, nil
}

// Get returns a request by ID.
func (s *RequestService) Get(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	sr, err := repo.GetServiceRequest(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	return sr, err
}

// GetForTenant returns a request only if it belongs to the tenant.
func (s *RequestService) GetForTenant(ctx context.Context, id, tenantID string) (*domain.ServiceRequest, error) {
	sr, err := repo.GetServiceRequestForTenant(ctx, s.DB, id, tenantID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	return sr, err
}

// List returns one page of requests matching the filter plus the total.
func (s *RequestService) List(ctx context.Context, f repo.ListFilter, offset, limit int) ([]domain.ServiceRequest, int64, error) {
	total, err := repo.CountServiceRequests(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListServiceRequestsPage(ctx, s.DB, f, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Archive hides a request from listings without deleting its history.
func (s *RequestService) Archive(ctx context.Context, id string) error {
	err := repo.UpdateServiceRequest(ctx, s.DB, id, map[string]any{"is_archived": true})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrRequestNotFound
	}
	return err
}

// sendInvoiceLink emails the upload link and stamps invoice_link_sent.
// Failures degrade: the sweep and admin tooling can re-trigger.
func (s *RequestService) sendInvoiceLink(ctx context.Context, sr *domain.ServiceRequest) {
	out, err := s.Notifier.SendInvoiceInvitation(ctx, sr)
	if err != nil {
		log.Warn().Err(err).Str("request_id", sr.ID).Msg("invoice invitation failed")
		return
	}
	if out.Sent {
		_ = repo.UpdateServiceRequest(ctx, s.DB, sr.ID, map[string]any{"invoice_link_sent": true})
	}
}

// bumpJobCount increments the contractor's active-job counter, best effort.
func (s *RequestService) bumpJobCount(ctx context.Context, email string) {
	if email == "" {
		return
	}
	c, err := repo.FindContractorByEmail(ctx, s.DB, email)
	if err != nil {
		return
	}
	if ok, err := repo.IncrementJobCount(ctx, s.DB, c.ID); err == nil && !ok {
		log.Warn().Str("contractor_id", c.ID).Msg("job accepted at full capacity")
	}
}

// dropJobCount frees one capacity slot, best effort.
func (s *RequestService) dropJobCount(ctx context.Context, email string) {
	if email == "" {
		return
	}
	c, err := repo.FindContractorByEmail(ctx, s.DB, email)
	if err != nil {
		return
	}
	_ = repo.DecrementJobCount(ctx, s.DB, c.ID)
}

// rateContractor folds a 1..5 tenant rating into the running average,
// best effort.
func (s *RequestService) rateContractor(ctx context.Context, email string, rating float64) {
	if email == "" || rating < 1 || rating > 5 {
		return
	}
	c, err := repo.FindContractorByEmail(ctx, s.DB, email)
	if err != nil {
		return
	}
	_ = repo.RecordCompletionRating(ctx, s.DB, c.ID, rating)
}

// recordTask writes a best-effort work item for back-office follow-up.
func (s *RequestService) recordTask(ctx context.Context, requestID, kind, subject string) {
	if _, err := repo.CreateTask(ctx, s.DB, requestID, kind, subject, nil); err != nil {
		log.Warn().Err(err).Str("request_id", requestID).Msg("task record failed")
	}
}
