package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/mail"
	"github.com/umiddey/propertyflow-backend/internal/observability"
	"github.com/umiddey/propertyflow-backend/internal/repo"
	"github.com/umiddey/propertyflow-backend/internal/sysutil"
)

// Email kinds, used for outcomes and metrics labels.
const (
	EmailKindScheduling   = "scheduling"
	EmailKindInvoice      = "invoice"
	EmailKindConfirmation = "confirmation"
	EmailKindDispute      = "dispute"
)

// SendOutcome reports the result of one email attempt. Failed sends degrade
// the workflow (the admin can re-trigger) but never abort it.
type SendOutcome struct {
	Recipient string `json:"recipient"`
	Kind      string `json:"kind"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

// NotificationService mints workflow tokens and sends the emails that carry
// them. Tokens are minted at most once per request; re-sends reuse the
// stored token so earlier links stay valid.
type NotificationService struct {
	DB         *gorm.DB
	Mailer     mail.Mailer
	PublicBase string
	// ConfirmationWindow is quoted to tenants in the confirmation email.
	ConfirmationWindow time.Duration
}

// NewNotificationService wires the mailer and link configuration.
func NewNotificationService(db *gorm.DB, mailer mail.Mailer, publicBase string, window time.Duration) *NotificationService {
	return &NotificationService{DB: db, Mailer: mailer, PublicBase: publicBase, ConfirmationWindow: window}
}

// mintToken returns "<prefix>_" followed by 16 hex characters from a CSPRNG.
func mintToken(prefix string) (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("mint token: %w", err)
	}
	return prefix + "_" + hex.EncodeToString(b[:]), nil
}

// EnsureSchedulingTokens mints and persists the scheduling and invoice
// tokens if the request does not carry them yet. Idempotent: existing
// tokens are never rotated, so a re-approval resends the same links.
func (s *NotificationService) EnsureSchedulingTokens(ctx context.Context, sr *domain.ServiceRequest) error {
	if sr.SchedulingToken != "" && sr.InvoiceToken != "" {
		return nil
	}
	sched, err := mintToken("schedule")
	if err != nil {
		return err
	}
	inv, err := mintToken("invoice")
	if err != nil {
		return err
	}
	if sr.SchedulingToken == "" {
		sr.SchedulingToken = sched
	}
	if sr.InvoiceToken == "" {
		sr.InvoiceToken = inv
	}
	return repo.UpdateServiceRequest(ctx, s.DB, sr.ID, map[string]any{
		"contractor_response_token": sr.SchedulingToken,
		"invoice_upload_token":      sr.InvoiceToken,
	})
}

// EnsureConfirmationToken mints and persists the tenant confirmation token
// if absent. Idempotent for the same reason as the scheduling tokens.
func (s *NotificationService) EnsureConfirmationToken(ctx context.Context, sr *domain.ServiceRequest) error {
	if sr.ConfirmationToken != "" {
		return nil
	}
	tok, err := mintToken("confirm")
	if err != nil {
		return err
	}
	sr.ConfirmationToken = tok
	return repo.UpdateServiceRequest(ctx, s.DB, sr.ID, map[string]any{
		"tenant_confirmation_token": sr.ConfirmationToken,
	})
}

// SendSchedulingInvitations emails the scheduling link to every selected
// contractor. All selected contractors share the request's single response
// link; the first to confirm an appointment wins the job.
func (s *NotificationService) SendSchedulingInvitations(ctx context.Context, sr *domain.ServiceRequest, matches []ContractorMatch) ([]SendOutcome, error) {
	if err := s.EnsureSchedulingTokens(ctx, sr); err != nil {
		return nil, err
	}
	respondURL := s.PublicBase + "/api/v1/contractor/schedule/" + sr.SchedulingToken

	outcomes := make([]SendOutcome, 0, len(matches))
	for i := range matches {
		c := &matches[i].Contractor
		body, err := mail.SchedulingEmail(mail.SchedulingEmailData{
			ContractorName:  c.Company,
			RequestType:     string(sr.RequestType),
			Priority:        string(sr.Priority),
			Description:     sr.Description,
			PropertyAddress: sr.PropertyAddress,
			PreferredSlots:  sr.TenantPreferredSlots,
			RespondURL:      respondURL,
		})
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, s.deliver(ctx, EmailKindScheduling, c.Email, "New service request: "+sr.Title, body))
	}
	return outcomes, nil
}

// SendInvoiceInvitation emails the invoice-upload link to the assigned
// contractor once the work is complete.
func (s *NotificationService) SendInvoiceInvitation(ctx context.Context, sr *domain.ServiceRequest) (SendOutcome, error) {
	if err := s.EnsureSchedulingTokens(ctx, sr); err != nil {
		return SendOutcome{}, err
	}
	body, err := mail.InvoiceEmail(mail.InvoiceEmailData{
		ContractorName:  sr.ContractorEmail,
		RequestType:     string(sr.RequestType),
		PropertyAddress: sr.PropertyAddress,
		UploadURL:       s.PublicBase + "/api/v1/contractor/invoice/" + sr.InvoiceToken,
	})
	if err != nil {
		return SendOutcome{}, err
	}
	return s.deliver(ctx, EmailKindInvoice, sr.ContractorEmail, "Please submit your invoice: "+sr.Title, body), nil
}

// SendConfirmationRequest emails the tenant asking them to confirm or
// dispute the reported completion.
func (s *NotificationService) SendConfirmationRequest(ctx context.Context, sr *domain.ServiceRequest) (SendOutcome, error) {
	if err := s.EnsureConfirmationToken(ctx, sr); err != nil {
		return SendOutcome{}, err
	}
	base := s.PublicBase + "/api/v1/portal/confirm-completion?token=" + sr.ConfirmationToken
	body, err := mail.ConfirmationEmail(mail.ConfirmationEmailData{
		TenantName:     sysutil.FirstNonEmpty(sr.TenantName, sr.TenantEmail),
		ContractorName: sr.ContractorEmail,
		RequestType:    string(sr.RequestType),
		ConfirmURL:     base + "&completed=true",
		DisputeURL:     base + "&completed=false",
		WindowHours:    int(s.ConfirmationWindow.Hours()),
	})
	if err != nil {
		return SendOutcome{}, err
	}
	return s.deliver(ctx, EmailKindConfirmation, sr.TenantEmail, "Was the work completed? "+sr.Title, body), nil
}

// SendDisputeNotice tells the contractor the tenant reported the work as
// not done.
func (s *NotificationService) SendDisputeNotice(ctx context.Context, sr *domain.ServiceRequest, notes string) (SendOutcome, error) {
	body, err := mail.DisputeEmail(mail.DisputeEmailData{
		ContractorName:  sr.ContractorEmail,
		RequestType:     string(sr.RequestType),
		PropertyAddress: sr.PropertyAddress,
		Notes:           notes,
	})
	if err != nil {
		return SendOutcome{}, err
	}
	return s.deliver(ctx, EmailKindDispute, sr.ContractorEmail, "Completion disputed: "+sr.Title, body), nil
}

func (s *NotificationService) deliver(ctx context.Context, kind, to, subject, body string) SendOutcome {
	out := SendOutcome{Recipient: to, Kind: kind}
	if to == "" {
		out.Error = "no recipient address on file"
		observability.RecordEmail(kind, false)
		return out
	}
	if err := s.Mailer.Send(ctx, mail.Message{To: to, Subject: subject, Body: body}); err != nil {
		out.Error = err.Error()
		observability.RecordEmail(kind, false)
		log.Warn().Err(err).Str("kind", kind).Str("to", to).Msg("workflow email failed")
		return out
	}
	out.Sent = true
	observability.RecordEmail(kind, true)
	return out
}

// AnySent reports whether at least one outcome in the batch succeeded.
func AnySent(outcomes []SendOutcome) bool {
	for _, o := range outcomes {
		if o.Sent {
			return true
		}
	}
	return false
}
