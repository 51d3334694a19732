package services

import (
	"errors"
	"fmt"
)

// Service-level errors. Upstream failures wrap both ErrUpstreamUnavailable and
// the cause, so either can be matched with errors.Is.
var (
	ErrUpstreamUnavailable    = errors.New("upstream unavailable")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrPolicyViolation        = errors.New("policy violation")
	ErrNotEligible            = errors.New("no eligible records")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	ErrMemberNotFound          = errors.New("member not found")
	ErrDocumentNotFound        = errors.New("document not found")
	ErrDeletionRequestNotFound = errors.New("deletion request not found")
	ErrInvalidDecision         = errors.New("decision must be Approved or Rejected")
	ErrInvalidInput            = errors.New("invalid input")
	ErrOrphanedFile            = errors.New("stored file deleted but document record remains")
	ErrDocumentMismatch        = errors.New("document does not match the stored record")
)

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, op, err)
}
