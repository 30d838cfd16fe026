// Package services – CompletionService
//
// This file implements the background sweeps that drive completion
// confirmation forward without user action: sending (or re-sending)
// confirmation emails for freshly completed work, and auto-confirming
// completions the tenant never answered within the response window.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/umiddey/propertyflow-backend/internal/domain"
	"github.com/umiddey/propertyflow-backend/internal/observability"
	"github.com/umiddey/propertyflow-backend/internal/repo"
)

// CompletionService owns the confirmation sweeps. Both sweeps are
// idempotent: re-running them never double-sends or double-confirms.
type CompletionService struct {
	DB       *gorm.DB
	Notifier *NotificationService

	// AutoConfirmAfter is how long tenant silence counts as consent.
	AutoConfirmAfter time.Duration
	// EmailLookback bounds how far back the email sweep chases completed
	// requests; older rows are left for manual follow-up.
	EmailLookback time.Duration
	// Now is the clock; override in tests.
	Now func() time.Time
}

// NewCompletionService wires the sweeps with their timing windows.
func NewCompletionService(db *gorm.DB, notifier *NotificationService, autoConfirmAfter, emailLookback time.Duration) *CompletionService {
	return &CompletionService{
		DB:               db,
		Notifier:         notifier,
		AutoConfirmAfter: autoConfirmAfter,
		EmailLookback:    emailLookback,
		Now:              func() time.Time { return time.Now().UTC() },
	}
}

// SendPendingConfirmations emails tenants whose completed requests carry no
// confirmation email yet. Requests whose email failed earlier are picked up
// again because the sent timestamp is only written on success. Returns the
// number of emails delivered.
func (s *CompletionService) SendPendingConfirmations(ctx context.Context) (int, error) {
	since := s.Now().Add(-s.EmailLookback)
	rows, err := repo.ListCompletedAwaitingConfirmation(ctx, s.DB, since)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range rows {
		sr := rows[i]
		out, err := s.Notifier.SendConfirmationRequest(ctx, &sr)
		if err != nil {
			log.Error().Err(err).Str("request_id", sr.ID).Msg("confirmation request failed")
			continue
		}
		if !out.Sent {
			continue
		}
		if err := repo.UpdateServiceRequest(ctx, s.DB, sr.ID, map[string]any{
			"confirmation_email_sent_at": s.Now(),
		}); err != nil {
			log.Error().Err(err).Str("request_id", sr.ID).Msg("confirmation stamp failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// AutoConfirmSilent closes the confirmation loop for tenants who never
// answered: once the response window has elapsed the completion is treated
// as confirmed, invoice upload opens, and the contractor is invited to
// bill. Returns the number of requests auto-confirmed.
func (s *CompletionService) AutoConfirmSilent(ctx context.Context) (int, error) {
	deadline := s.Now().Add(-s.AutoConfirmAfter)
	rows, err := repo.ListConfirmationsOverdue(ctx, s.DB, deadline)
	if err != nil {
		return 0, err
	}

	confirmed := 0
	for i := range rows {
		sr := rows[i]
		ok, err := repo.SetCompletionStatus(ctx, s.DB, sr.ID, domain.CompletionAutoConfirmed, map[string]any{
			"invoice_upload_enabled": true,
		})
		if err != nil {
			log.Error().Err(err).Str("request_id", sr.ID).Msg("auto-confirm failed")
			continue
		}
		if !ok {
			// Raced with the tenant's own answer; theirs wins.
			continue
		}
		confirmed++
		observability.RecordAutoConfirmation()
		log.Info().Str("request_id", sr.ID).Msg("completion auto-confirmed after tenant silence")

		fresh, err := repo.GetServiceRequest(ctx, s.DB, sr.ID)
		if err != nil {
			continue
		}
		if out, err := s.Notifier.SendInvoiceInvitation(ctx, fresh); err == nil && out.Sent {
			_ = repo.UpdateServiceRequest(ctx, s.DB, sr.ID, map[string]any{"invoice_link_sent": true})
		}
	}
	return confirmed, nil
}

// RunSweep executes both sweeps once. Intended to be driven by a ticker.
func (s *CompletionService) RunSweep(ctx context.Context) {
	if n, err := s.SendPendingConfirmations(ctx); err != nil {
		log.Error().Err(err).Msg("confirmation email sweep failed")
	} else if n > 0 {
		log.Info().Int("sent", n).Msg("confirmation emails sent")
	}
	if n, err := s.AutoConfirmSilent(ctx); err != nil {
		log.Error().Err(err).Msg("auto-confirm sweep failed")
	} else if n > 0 {
		log.Info().Int("confirmed", n).Msg("completions auto-confirmed")
	}
}
