// Package services defines the business logic of the contractor workflow:
// request intake, legal responsibility analysis, contractor matching,
// scheduling/invoice token handling, and completion tracking. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Intake and approval errors.
var (
	// ErrRequestNotFound indicates that the service request does not exist or
	// is not accessible to the current caller.
	ErrRequestNotFound = errors.New("service request not found")

	// ErrNoActiveContract is returned at intake when the tenant holds no
	// active contract for the property.
	ErrNoActiveContract = errors.New("tenant has no active contract for this property")

	// ErrNotPendingApproval is returned when an approval decision is attempted
	// on a request that is no longer pending.
	ErrNotPendingApproval = errors.New("request is not pending approval")

	// ErrAlreadyAssigned is returned when approval is re-run on a request that
	// already has a contractor assigned.
	ErrAlreadyAssigned = errors.New("contractor already assigned")

	// ErrInvalidDecision is returned when the approval payload carries an
	// unknown decision value.
	ErrInvalidDecision = errors.New("approval decision must be approved or rejected")
)

// Token webhook errors.
var (
	// ErrTokenNotFound indicates that no request carries the presented token.
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenAlreadyUsed is returned when a single-use token has already been
	// resolved (appointment confirmed, invoice submitted, or completion
	// confirmed). Callers map it to a 410 Gone.
	ErrTokenAlreadyUsed = errors.New("token already used")

	// ErrTokenExpired is returned when a tenant confirmation link is past its
	// validity window.
	ErrTokenExpired = errors.New("token expired")

	// ErrMissingSlot is returned when an accept response does not name one of
	// the offered slots.
	ErrMissingSlot = errors.New("selected_slot is required for accept")

	// ErrSlotNotOffered is returned when an accept response names a slot that
	// was not among the tenant's preferred slots.
	ErrSlotNotOffered = errors.New("selected_slot is not one of the offered slots")

	// ErrMissingProposal is returned when a propose response carries no
	// proposed datetime.
	ErrMissingProposal = errors.New("proposed_datetime is required for propose")

	// ErrInvalidAction is returned when a scheduling response is neither
	// accept nor propose.
	ErrInvalidAction = errors.New("action must be accept or propose")
)

// Completion and invoicing errors.
var (
	// ErrNotInProgress is returned when completion is attempted on a request
	// that is not in progress.
	ErrNotInProgress = errors.New("request is not in progress")

	// ErrUploadNotEnabled is returned when an invoice is submitted before the
	// completion was confirmed.
	ErrUploadNotEnabled = errors.New("invoice upload is not enabled yet")

	// ErrInvalidAmount is returned for non-positive invoice amounts.
	ErrInvalidAmount = errors.New("invoice amount must be positive")

	// ErrFileTooLarge is returned when an upload exceeds the configured cap.
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")

	// ErrFileTypeNotAllowed is returned for uploads outside the MIME allowlist.
	ErrFileTypeNotAllowed = errors.New("file type is not allowed")
)
