// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package). These codes provide
// clients with a stable, machine-readable error taxonomy that supplements
// human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless noted.
//   - Generic codes (bad_request, not_found, conflict, ...) mirror common
//     HTTP status semantics to aid interoperability.
//   - Workflow-specific codes (token_used, token_expired, no_contract, ...)
//     are reserved for business outcomes that a status alone cannot convey;
//     the contractor and tenant link pages branch on them.

package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Workflow-specific:
	ErrCodeNoContract       = "no_active_contract"
	ErrCodeNotPending       = "not_pending_approval"
	ErrCodeAlreadyAssigned  = "already_assigned"
	ErrCodeTokenUsed        = "token_used"
	ErrCodeTokenExpired     = "token_expired"
	ErrCodeUploadDisabled   = "upload_not_enabled"
	ErrCodeFileTooLarge     = "file_too_large"
	ErrCodeFileType         = "file_type_not_allowed"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
