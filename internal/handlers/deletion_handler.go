package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/dossier/api/internal/errors"
	"github.com/stwalsh4118/dossier/api/internal/middleware"
	"github.com/stwalsh4118/dossier/api/internal/models"
	"github.com/stwalsh4118/dossier/api/internal/services"
)

// DeletionHandler handles document deletion requests and document removal.
type DeletionHandler struct {
	service services.DeletionService
}

// NewDeletionHandler creates a new DeletionHandler instance.
func NewDeletionHandler(service services.DeletionService) *DeletionHandler {
	return &DeletionHandler{service: service}
}

// DecisionRequest is the body of an approver decision.
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=Approved Rejected"`
}

// DeletionRequestResponse wraps a single request.
type DeletionRequestResponse struct {
	Request *models.DeletionRequest `json:"request"`
}

// DeletionRequestListResponse lists requests, newest first.
type DeletionRequestListResponse struct {
	Requests []models.DeletionRequest `json:"requests"`
	Count    int                      `json:"count"`
}

// List handles GET /api/v1/deletion-requests.
func (h *DeletionHandler) List(c *gin.Context) {
	requests, err := h.service.ListRequests(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if requests == nil {
		requests = []models.DeletionRequest{}
	}

	c.JSON(http.StatusOK, DeletionRequestListResponse{Requests: requests, Count: len(requests)})
}

// Create handles POST /api/v1/deletion-requests.
func (h *DeletionHandler) Create(c *gin.Context) {
	var input models.DeletionRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	req, err := h.service.RequestDeletion(c.Request.Context(), middleware.GetActor(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, DeletionRequestResponse{Request: req})
}

// Decide handles POST /api/v1/deletion-requests/:id/decision.
func (h *DeletionHandler) Decide(c *gin.Context) {
	var body DecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	req, err := h.service.ProcessRequest(c.Request.Context(), middleware.GetActor(c),
		c.Param("id"), models.DeletionStatus(body.Decision))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DeletionRequestResponse{Request: req})
}

// Execute handles POST /api/v1/deletion-requests/:id/execute.
func (h *DeletionHandler) Execute(c *gin.Context) {
	if err := h.service.ExecuteRequest(c.Request.Context(), middleware.GetActor(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteDocument handles DELETE /api/v1/documents/:id.
func (h *DeletionHandler) DeleteDocument(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apierrors.BadRequest(c, "Document id must be a positive integer", nil)
		return
	}

	if err := h.service.DeleteDocument(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
