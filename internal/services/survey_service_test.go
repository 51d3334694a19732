package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/dossier/api/internal/logger"
	"github.com/stwalsh4118/dossier/api/internal/models"
	"github.com/stwalsh4118/dossier/api/internal/repository"
)

type surveyFixture struct {
	members    *MockMemberRepository
	txs        *MockTransactionRepository
	reconciler Reconciler
	service    SurveyService
	initial    *models.Snapshot
}

func newSurveyFixture(t *testing.T) *surveyFixture {
	t.Helper()

	members := new(MockMemberRepository)
	txs := new(MockTransactionRepository)
	expectFetch(members, txs)

	r := NewReconciler(members, txs, logger.Nop(), ReconcilerOptions{})
	initial, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	return &surveyFixture{
		members:    members,
		txs:        txs,
		reconciler: r,
		service:    NewSurveyService(members, r, nil, logger.Nop()),
		initial:    initial,
	}
}

func TestSetLoteMedido_PermissionDenied(t *testing.T) {
	f := newSurveyFixture(t)

	for _, actor := range []models.Actor{viewer, {}} {
		view, err := f.service.SetLoteMedido(context.Background(), actor, "m-bare", true)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Nil(t, view)
	}

	f.members.AssertNotCalled(t, "UpdateSurvey", mock.Anything, mock.Anything, mock.Anything)
	assert.Same(t, f.initial, f.reconciler.Snapshot())
}

func TestSetLoteMedido_RefusesUnsetWithRequiredDocument(t *testing.T) {
	f := newSurveyFixture(t)

	_, err := f.service.SetLoteMedido(context.Background(), admin, "m-plan", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPolicyViolation)
	assert.Contains(t, err.Error(), "required documents present")

	f.members.AssertNotCalled(t, "UpdateSurvey", mock.Anything, mock.Anything, mock.Anything)
	assert.Same(t, f.initial, f.reconciler.Snapshot())
}

func TestSetLoteMedido_UnsetWithoutRequiredDocument(t *testing.T) {
	f := newSurveyFixture(t)
	f.members.On("UpdateSurvey", mock.Anything, "m-ficha", false).Return(nil)

	view, err := f.service.SetLoteMedido(context.Background(), admin, "m-ficha", false)
	require.NoError(t, err)
	assert.Equal(t, models.SurveyPending, view.Survey)
	assert.Equal(t, models.SurveyPending, view.StoredSurvey)
	assert.Equal(t, models.SurveyPending, view.Member.Survey, "stored state agrees on the embedded profile")

	published, _, _ := f.reconciler.Snapshot().Find("m-ficha")
	assert.Equal(t, models.SurveyPending, published.Survey)

	original, _, _ := f.initial.Find("m-ficha")
	assert.Equal(t, models.SurveyMeasured, original.Survey, "previous snapshot is never edited in place")
}

func TestSetLoteMedido_SetMeasured(t *testing.T) {
	f := newSurveyFixture(t)
	f.members.On("UpdateSurvey", mock.Anything, "m-bare", true).Return(nil)

	view, err := f.service.SetLoteMedido(context.Background(), admin, "m-bare", true)
	require.NoError(t, err)
	assert.True(t, view.IsLoteMedido())
	assert.Equal(t, models.SurveyMeasured, view.StoredSurvey)
	assert.Equal(t, models.SurveyMeasured, view.Member.Survey)
	f.members.AssertExpectations(t)
}

func TestSetLoteMedido_RollsBackOnWriteFailure(t *testing.T) {
	f := newSurveyFixture(t)
	cause := errors.New("write timeout")
	f.members.On("UpdateSurvey", mock.Anything, "m-bare", true).Return(cause)

	_, err := f.service.SetLoteMedido(context.Background(), admin, "m-bare", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, cause)

	assert.Same(t, f.initial, f.reconciler.Snapshot())
	view, _, _ := f.reconciler.Snapshot().Find("m-bare")
	assert.Equal(t, models.SurveyUnknown, view.Survey)
}

func TestSetLoteMedido_MemberNotFound(t *testing.T) {
	f := newSurveyFixture(t)

	_, err := f.service.SetLoteMedido(context.Background(), admin, "nobody", true)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	f.members.On("UpdateSurvey", mock.Anything, "m-bare", true).Return(repository.ErrNotFound)
	_, err = f.service.SetLoteMedido(context.Background(), admin, "m-bare", true)
	assert.ErrorIs(t, err, ErrMemberNotFound)
	assert.Same(t, f.initial, f.reconciler.Snapshot())
}

func TestSetLoteMedidoBulk_UnsetSkipsRequiredDocuments(t *testing.T) {
	f := newSurveyFixture(t)
	f.members.On("UpdateSurveyBulk", mock.Anything, []string{"m-ficha", "m-bare"}, false).Return(nil)

	result, err := f.service.SetLoteMedidoBulk(context.Background(), admin, false,
		[]string{"m-plan", "m-ficha", "m-bare", "m-ficha", "ghost"})
	require.NoError(t, err)

	assert.Equal(t, &BulkResult{Requested: 4, Updated: 2, Skipped: 2}, result)
	f.members.AssertExpectations(t)
	f.members.AssertNumberOfCalls(t, "FetchMembers", 2)
	assert.NotSame(t, f.initial, f.reconciler.Snapshot(), "a full pass follows the write")
}

func TestSetLoteMedidoBulk_SetIncludesEveryone(t *testing.T) {
	f := newSurveyFixture(t)
	f.members.On("UpdateSurveyBulk", mock.Anything, []string{"m-plan", "m-ficha", "m-bare"}, true).Return(nil)

	result, err := f.service.SetLoteMedidoBulk(context.Background(), admin, true, []string{"m-plan", "m-ficha", "m-bare"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Updated)
	assert.Zero(t, result.Skipped)
}

func TestSetLoteMedidoBulk_NoEligibleMembers(t *testing.T) {
	f := newSurveyFixture(t)

	tests := []struct {
		name string
		ids  []string
	}{
		{name: "only required-document holders", ids: []string{"m-plan"}},
		{name: "empty candidate set", ids: nil},
		{name: "unknown ids", ids: []string{"ghost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.service.SetLoteMedidoBulk(context.Background(), admin, false, tt.ids)
			assert.ErrorIs(t, err, ErrNotEligible)
			assert.Nil(t, result)
		})
	}

	f.members.AssertNotCalled(t, "UpdateSurveyBulk", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetLoteMedidoBulk_PermissionDenied(t *testing.T) {
	f := newSurveyFixture(t)

	_, err := f.service.SetLoteMedidoBulk(context.Background(), viewer, true, []string{"m-bare"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	f.members.AssertNotCalled(t, "UpdateSurveyBulk", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetLoteMedidoBulk_WriteFailureLeavesViewUntouched(t *testing.T) {
	f := newSurveyFixture(t)
	f.members.On("UpdateSurveyBulk", mock.Anything, []string{"m-bare"}, true).Return(errors.New("deadlock"))

	_, err := f.service.SetLoteMedidoBulk(context.Background(), admin, true, []string{"m-bare"})
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Same(t, f.initial, f.reconciler.Snapshot())
	f.members.AssertNumberOfCalls(t, "FetchMembers", 1)
}

func TestSetLoteMedidoBulk_FollowUpPassFailure(t *testing.T) {
	members := new(MockMemberRepository)
	txs := new(MockTransactionRepository)
	members.On("FetchMembers", mock.Anything).Return(fixtureMembers(), nil).Once()
	members.On("FetchMembers", mock.Anything).Return(nil, errors.New("gone"))
	members.On("FetchLocalidades", mock.Anything).Return([]string{"Ate"}, nil)
	txs.On("FetchTransactions", mock.Anything).Return(fixtureTransactions(), nil)
	members.On("UpdateSurveyBulk", mock.Anything, []string{"m-bare"}, true).Return(nil)

	r := NewReconciler(members, txs, logger.Nop(), ReconcilerOptions{})
	initial, err := r.Reconcile(context.Background())
	require.NoError(t, err)

	service := NewSurveyService(members, r, nil, logger.Nop())

	result, err := service.SetLoteMedidoBulk(context.Background(), admin, true, []string{"m-bare"})
	require.NoError(t, err, "the write itself succeeded")
	assert.True(t, result.Stale)
	assert.Same(t, initial, r.Snapshot())
	assert.True(t, r.Status().Stale)
}
