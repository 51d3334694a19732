package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/dossier/api/internal/dossier"
	apierrors "github.com/stwalsh4118/dossier/api/internal/errors"
	"github.com/stwalsh4118/dossier/api/internal/export"
	"github.com/stwalsh4118/dossier/api/internal/middleware"
	"github.com/stwalsh4118/dossier/api/internal/models"
	"github.com/stwalsh4118/dossier/api/internal/services"
)

// ExportFilename is the attachment name of the XLSX export.
const ExportFilename = "expedientes.xlsx"

// DossierHandler serves the reconciled member view and the lot-measured flag.
type DossierHandler struct {
	reconciler services.Reconciler
	survey     services.SurveyService
}

// NewDossierHandler creates a new DossierHandler instance.
func NewDossierHandler(reconciler services.Reconciler, survey services.SurveyService) *DossierHandler {
	return &DossierHandler{
		reconciler: reconciler,
		survey:     survey,
	}
}

// ListRequest represents the query parameters for listing dossiers.
type ListRequest struct {
	Search    string `form:"q" binding:"max=100"`
	Localidad string `form:"localidad" binding:"max=100"`
}

// ListResponse is the filtered view plus the freshness of its snapshot.
type ListResponse struct {
	Dossiers []models.MemberView      `json:"dossiers"`
	Count    int                      `json:"count"`
	Status   services.ReconcileStatus `json:"status"`
}

// DossierResponse wraps a single dossier.
type DossierResponse struct {
	Dossier models.MemberView `json:"dossier"`
}

// LocalidadesResponse lists the known localities.
type LocalidadesResponse struct {
	Localidades []string `json:"localidades"`
}

// SetLoteMedidoRequest is the body of the single-member update.
type SetLoteMedidoRequest struct {
	Value *bool `json:"value" binding:"required"`
}

// SetLoteMedidoBulkRequest is the body of the bulk update.
type SetLoteMedidoBulkRequest struct {
	Value     *bool    `json:"value" binding:"required"`
	MemberIDs []string `json:"member_ids" binding:"max=5000,dive,required"`
}

// ReconcileResponse reports a completed pass.
type ReconcileResponse struct {
	Members int                      `json:"members"`
	Status  services.ReconcileStatus `json:"status"`
}

// List handles GET /api/v1/dossiers.
func (h *DossierHandler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err, "Invalid query parameters")
		return
	}

	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}

	views := dossier.Filter(snapshot.Views, dossier.Query{Search: req.Search, Localidad: req.Localidad})

	c.JSON(http.StatusOK, ListResponse{
		Dossiers: views,
		Count:    len(views),
		Status:   h.reconciler.Status(),
	})
}

// Get handles GET /api/v1/dossiers/:id.
func (h *DossierHandler) Get(c *gin.Context) {
	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}

	view, _, found := snapshot.Find(c.Param("id"))
	if !found {
		apierrors.NotFound(c, "Member not found")
		return
	}

	c.JSON(http.StatusOK, DossierResponse{Dossier: view})
}

// Export handles GET /api/v1/dossiers/export. It accepts the List filters.
func (h *DossierHandler) Export(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err, "Invalid query parameters")
		return
	}

	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}

	views := dossier.Filter(snapshot.Views, dossier.Query{Search: req.Search, Localidad: req.Localidad})

	var buf bytes.Buffer
	if err := export.WriteDossiers(&buf, views); err != nil {
		apierrors.InternalServerError(c, "Failed to build export", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// Localidades handles GET /api/v1/localidades.
func (h *DossierHandler) Localidades(c *gin.Context) {
	snapshot, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, LocalidadesResponse{Localidades: snapshot.Localidades})
}

// Reconcile handles POST /api/v1/dossiers/reconcile.
func (h *DossierHandler) Reconcile(c *gin.Context) {
	if !middleware.GetActor(c).Authenticated() {
		apierrors.Forbidden(c, "Authentication required")
		return
	}

	snapshot, err := h.reconciler.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ReconcileResponse{
		Members: len(snapshot.Views),
		Status:  h.reconciler.Status(),
	})
}

// SetLoteMedido handles PATCH /api/v1/dossiers/:id/lote-medido.
func (h *DossierHandler) SetLoteMedido(c *gin.Context) {
	var req SetLoteMedidoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	view, err := h.survey.SetLoteMedido(c.Request.Context(), middleware.GetActor(c), c.Param("id"), *req.Value)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, DossierResponse{Dossier: *view})
}

// SetLoteMedidoBulk handles PATCH /api/v1/dossiers/lote-medido.
func (h *DossierHandler) SetLoteMedidoBulk(c *gin.Context) {
	var req SetLoteMedidoBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid request body")
		return
	}

	result, err := h.survey.SetLoteMedidoBulk(c.Request.Context(), middleware.GetActor(c), *req.Value, req.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// snapshot returns the published snapshot, running a first pass if needed.
// It writes the error response and returns false when none is available.
func (h *DossierHandler) snapshot(c *gin.Context) (*models.Snapshot, bool) {
	snapshot, err := h.reconciler.Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return snapshot, true
}
