package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/dossier/api/internal/errors"
	"github.com/stwalsh4118/dossier/api/internal/logger"
	"github.com/stwalsh4118/dossier/api/internal/middleware"
	"github.com/stwalsh4118/dossier/api/internal/models"
	"github.com/stwalsh4118/dossier/api/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context) (*models.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*models.Snapshot)
	return snap, args.Error(1)
}

func (m *MockReconciler) Snapshot() *models.Snapshot {
	snap, _ := m.Called().Get(0).(*models.Snapshot)
	return snap
}

func (m *MockReconciler) Current(ctx context.Context) (*models.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*models.Snapshot)
	return snap, args.Error(1)
}

func (m *MockReconciler) CompareAndSwap(old, next *models.Snapshot) bool {
	return m.Called(old, next).Bool(0)
}

func (m *MockReconciler) Status() services.ReconcileStatus {
	status, _ := m.Called().Get(0).(services.ReconcileStatus)
	return status
}

func (m *MockReconciler) Warm(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockSurveyService struct {
	mock.Mock
}

func (m *MockSurveyService) SetLoteMedido(ctx context.Context, actor models.Actor, memberID string, value bool) (*models.MemberView, error) {
	args := m.Called(ctx, actor, memberID, value)
	view, _ := args.Get(0).(*models.MemberView)
	return view, args.Error(1)
}

func (m *MockSurveyService) SetLoteMedidoBulk(ctx context.Context, actor models.Actor, value bool, memberIDs []string) (*services.BulkResult, error) {
	args := m.Called(ctx, actor, value, memberIDs)
	result, _ := args.Get(0).(*services.BulkResult)
	return result, args.Error(1)
}

type MockDeletionService struct {
	mock.Mock
}

func (m *MockDeletionService) RequestDeletion(ctx context.Context, actor models.Actor, input models.DeletionRequestInput) (*models.DeletionRequest, error) {
	args := m.Called(ctx, actor, input)
	req, _ := args.Get(0).(*models.DeletionRequest)
	return req, args.Error(1)
}

func (m *MockDeletionService) ListRequests(ctx context.Context, actor models.Actor) ([]models.DeletionRequest, error) {
	args := m.Called(ctx, actor)
	reqs, _ := args.Get(0).([]models.DeletionRequest)
	return reqs, args.Error(1)
}

func (m *MockDeletionService) ProcessRequest(ctx context.Context, actor models.Actor, requestID string, decision models.DeletionStatus) (*models.DeletionRequest, error) {
	args := m.Called(ctx, actor, requestID, decision)
	req, _ := args.Get(0).(*models.DeletionRequest)
	return req, args.Error(1)
}

func (m *MockDeletionService) DeleteDocument(ctx context.Context, actor models.Actor, documentID int64) error {
	return m.Called(ctx, actor, documentID).Error(0)
}

func (m *MockDeletionService) ExecuteRequest(ctx context.Context, actor models.Actor, requestID string) error {
	return m.Called(ctx, actor, requestID).Error(0)
}

type testServer struct {
	router     *gin.Engine
	db         *MockPinger
	reconciler *MockReconciler
	survey     *MockSurveyService
	deletions  *MockDeletionService
}

func newTestServer() *testServer {
	s := &testServer{
		db:         new(MockPinger),
		reconciler: new(MockReconciler),
		survey:     new(MockSurveyService),
		deletions:  new(MockDeletionService),
	}

	log := logger.Nop()
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Actor(), middleware.Logger(log), middleware.Recovery(log))

	RegisterRoutes(router,
		NewHealthHandler(s.db, s.reconciler, "test"),
		NewDossierHandler(s.reconciler, s.survey),
		NewDeletionHandler(s.deletions),
	)
	s.router = router
	return s
}

var (
	adminActor  = models.Actor{ID: "u-admin", Email: "admin@example.org", Roles: []string{models.RoleAdmin}}
	viewerActor = models.Actor{ID: "u-viewer", Roles: []string{"member"}}
)

func (s *testServer) do(method, path string, body interface{}, actor models.Actor) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor.ID != "" {
		req.Header.Set(middleware.ActorIDHeader, actor.ID)
		req.Header.Set(middleware.ActorEmailHeader, actor.Email)
		req.Header.Set(middleware.ActorRolesHeader, strings.Join(actor.Roles, ","))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorResponse {
	t.Helper()
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func strPtr(s string) *string { return &s }

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Localidades: []string{"Ate", "Comas"},
		Views: []models.MemberView{
			{
				Member:    models.Member{ID: "m1", DNI: "11111111", Nombres: "Ana", ApellidoPaterno: "Quispe", Localidad: "Ate", Mz: strPtr("B")},
				Documents: []models.ValidatedDocument{{ID: 1, Type: models.DocumentSitePlan, Link: "https://f/planos/1/p.pdf"}},
				Payment:   models.PaymentInfo{Status: models.PaymentUnpaid},
				Survey:    models.SurveyMeasured,
			},
			{
				Member:    models.Member{ID: "m2", DNI: "22222222", Nombres: "Luis", ApellidoPaterno: "Rojas", Localidad: "Comas"},
				Documents: []models.ValidatedDocument{},
				Payment:   models.PaymentInfo{Status: models.PaymentPaid, ReceiptNumber: strPtr("R-1")},
				Survey:    models.SurveyPending,
			},
		},
	}
}
