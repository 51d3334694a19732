package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/dossier/api/internal/errors"
	"github.com/stwalsh4118/dossier/api/internal/services"
)

// respondError maps a service error onto the HTTP error envelope.
func respondError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrors):
		apierrors.ValidationError(c, validationErrors)
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c, "Elevated privilege required")
	case errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrDocumentNotFound),
		errors.Is(err, services.ErrDeletionRequestNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrPolicyViolation),
		errors.Is(err, services.ErrNotEligible):
		apierrors.UnprocessableEntity(c, err.Error())
	case errors.Is(err, services.ErrInvalidStateTransition):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidDecision),
		errors.Is(err, services.ErrInvalidInput):
		apierrors.BadRequest(c, err.Error(), nil)
	case errors.Is(err, services.ErrDocumentMismatch):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrOrphanedFile):
		apierrors.ServiceUnavailable(c, "File deleted but the document record could not be removed", err)
	case errors.Is(err, services.ErrUpstreamUnavailable):
		apierrors.ServiceUnavailable(c, "Record store unavailable", err)
	default:
		apierrors.InternalServerError(c, "An unexpected error occurred", err)
	}
}

// bindError renders a request binding failure.
func bindError(c *gin.Context, err error, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, message, nil)
}
