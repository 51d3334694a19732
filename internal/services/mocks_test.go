package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/dossier/api/internal/models"
)

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) FetchMembers(ctx context.Context) ([]models.Member, error) {
	args := m.Called(ctx)
	members, _ := args.Get(0).([]models.Member)
	return members, args.Error(1)
}

func (m *MockMemberRepository) FetchLocalidades(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	localidades, _ := args.Get(0).([]string)
	return localidades, args.Error(1)
}

func (m *MockMemberRepository) FindDocument(ctx context.Context, id int64) (*models.RawDocument, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*models.RawDocument)
	return doc, args.Error(1)
}

func (m *MockMemberRepository) UpdateSurvey(ctx context.Context, memberID string, measured bool) error {
	return m.Called(ctx, memberID, measured).Error(0)
}

func (m *MockMemberRepository) UpdateSurveyBulk(ctx context.Context, memberIDs []string, measured bool) error {
	return m.Called(ctx, memberIDs, measured).Error(0)
}

func (m *MockMemberRepository) DeleteDocument(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FetchTransactions(ctx context.Context) ([]models.Transaction, error) {
	args := m.Called(ctx)
	txs, _ := args.Get(0).([]models.Transaction)
	return txs, args.Error(1)
}

type MockDeletionRequestRepository struct {
	mock.Mock
}

func (m *MockDeletionRequestRepository) Create(ctx context.Context, input models.DeletionRequestInput) (*models.DeletionRequest, error) {
	args := m.Called(ctx, input)
	req, _ := args.Get(0).(*models.DeletionRequest)
	return req, args.Error(1)
}

func (m *MockDeletionRequestRepository) List(ctx context.Context) ([]models.DeletionRequest, error) {
	args := m.Called(ctx)
	reqs, _ := args.Get(0).([]models.DeletionRequest)
	return reqs, args.Error(1)
}

func (m *MockDeletionRequestRepository) FindByID(ctx context.Context, id string) (*models.DeletionRequest, error) {
	args := m.Called(ctx, id)
	req, _ := args.Get(0).(*models.DeletionRequest)
	return req, args.Error(1)
}

func (m *MockDeletionRequestRepository) SetStatus(ctx context.Context, id string, status models.DeletionStatus, approverID string, processedAt time.Time) error {
	return m.Called(ctx, id, status, approverID, processedAt).Error(0)
}

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Delete(ctx context.Context, bucket, path string) error {
	return m.Called(ctx, bucket, path).Error(0)
}

type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*models.Snapshot)
	return snap, args.Error(1)
}

func (m *MockSnapshotStore) Save(ctx context.Context, snapshot *models.Snapshot) error {
	return m.Called(ctx, snapshot).Error(0)
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

func (m *MockReconciler) Status() ReconcileStatus {
	status, _ := m.Called().Get(0).(ReconcileStatus)
	return status
}

func (m *MockReconciler) Warm(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

var (
	admin  = models.Actor{ID: "u-admin", Email: "admin@example.org", Roles: []string{models.RoleAdmin}}
	viewer = models.Actor{ID: "u-viewer", Email: "viewer@example.org", Roles: []string{"member"}}
)

// fixtureMembers covers a measured-by-document member, a pending member with
// an optional document only and a member with no flag at all.
func fixtureMembers() []models.Member {
	return []models.Member{
		{
			ID: "m-plan", DNI: "11111111", Nombres: "Ana", ApellidoPaterno: "Quispe", Localidad: "Ate",
			Survey: models.SurveyPending,
			Documents: []models.RawDocument{
				{ID: 1, MemberID: "m-plan", Type: models.DocumentSitePlan, Link: strPtr("https://files.example.org/planos/11111111/plano.pdf")},
			},
		},
		{
			ID: "m-ficha", DNI: "22222222", Nombres: "Luis", ApellidoPaterno: "Rojas", Localidad: "Comas",
			Survey: models.SurveyMeasured,
			Documents: []models.RawDocument{
				{ID: 2, MemberID: "m-ficha", Type: models.DocumentFormSheet, Link: strPtr("https://files.example.org/documents/22222222/ficha.pdf")},
			},
		},
		{
			ID: "m-bare", DNI: "33333333", Nombres: "Rosa", ApellidoPaterno: "Huamán", Localidad: "Ate",
			Survey: models.SurveyUnknown,
		},
	}
}

func fixtureTransactions() []models.Transaction {
	return []models.Transaction{
		{ID: 1, DNI: "22222222", ReceiptNumber: strPtr("R-100"), TransactionType: models.TransactionSale},
	}
}
