package service

import (
	"context"
	"errors"
	"testing"

	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/repository"
	"promomarket/storefront-service/internal/app/storefront/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReconciler struct {
	mock.Mock
}

func (m *mockReconciler) SubmitReview(ctx context.Context, in entity.SubmitReviewInput) (*entity.ReviewResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReviewResult), args.Error(1)
}

func (m *mockReconciler) Resync(ctx context.Context, in entity.ResyncInput) (*entity.ResyncReport, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ResyncReport), args.Error(1)
}

var resyncIn = entity.ResyncInput{Kind: entity.ItemKindEvent, ProductID: "p1", OrderID: "o1", UserID: "u1"}

func newRunner() (*ResyncRunner, *mockReconciler, *mocks.MockLedgerRepository, *mocks.MockDriftStore) {
	reconciler := new(mockReconciler)
	ledger := new(mocks.MockLedgerRepository)
	drift := new(mocks.MockDriftStore)
	return NewResyncRunner(reconciler, ledger, drift), reconciler, ledger, drift
}

func TestRun_RepairedRunIsLoggedAndResolved(t *testing.T) {
	runner, reconciler, ledger, drift := newRunner()
	ctx := context.Background()

	reconciler.On("Resync", ctx, resyncIn).Return(&entity.ResyncReport{OrderSync: entity.CartSyncSynced, LinesUpdated: 1}, nil)
	ledger.On("Create", ctx, mock.MatchedBy(func(run *entity.ReconciliationRun) bool {
		return run.Source == entity.ResyncSourceSweep && run.Outcome == entity.ResyncOutcomeRepaired && run.ProductID == "p1"
	})).Return(nil)
	drift.On("Resolve", ctx, entity.DriftEntry{Kind: entity.ItemKindEvent, ProductID: "p1", OrderID: "o1", UserID: "u1"}).Return(nil)

	report, err := runner.Run(ctx, entity.ResyncSourceSweep, resyncIn)

	require.NoError(t, err)
	assert.True(t, report.Repaired())
	ledger.AssertExpectations(t)
	drift.AssertExpectations(t)
}

func TestRun_DefaultsKindToEvents(t *testing.T) {
	runner, reconciler, ledger, drift := newRunner()
	ctx := context.Background()
	in := resyncIn
	in.Kind = ""

	reconciler.On("Resync", ctx, resyncIn).Return(&entity.ResyncReport{OrderSync: entity.CartSyncAlreadyReviewed}, nil)
	ledger.On("Create", ctx, mock.Anything).Return(nil)
	drift.On("Resolve", ctx, mock.Anything).Return(nil)

	_, err := runner.Run(ctx, entity.ResyncSourceManual, in)

	require.NoError(t, err)
	reconciler.AssertExpectations(t)
}

func TestRun_InternalFailureKeepsDriftEntry(t *testing.T) {
	runner, reconciler, ledger, drift := newRunner()
	ctx := context.Background()

	reconciler.On("Resync", ctx, resyncIn).
		Return(&entity.ResyncReport{OrderSync: entity.CartSyncFailed}, internal("failed to update order", errors.New("timeout")))
	ledger.On("Create", ctx, mock.MatchedBy(func(run *entity.ReconciliationRun) bool {
		return run.Outcome == entity.ResyncOutcomeFailed && run.Error != ""
	})).Return(nil)

	_, err := runner.Run(ctx, entity.ResyncSourceEvent, resyncIn)

	assert.Equal(t, KindInternal, KindOf(err))
	drift.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestRun_UnrepairableEntryIsResolved(t *testing.T) {
	runner, reconciler, ledger, drift := newRunner()
	ctx := context.Background()

	reconciler.On("Resync", ctx, resyncIn).Return(nil, inconsistent("item has no reviews"))
	ledger.On("Create", ctx, mock.Anything).Return(nil)
	drift.On("Resolve", ctx, mock.Anything).Return(nil)

	_, err := runner.Run(ctx, entity.ResyncSourceSweep, resyncIn)

	assert.ErrorIs(t, err, ErrInconsistent)
	drift.AssertCalled(t, "Resolve", ctx, mock.Anything)
}

func TestRun_LedgerFailureDoesNotFailRun(t *testing.T) {
	runner, reconciler, ledger, drift := newRunner()
	ctx := context.Background()

	reconciler.On("Resync", ctx, resyncIn).Return(&entity.ResyncReport{OrderSync: entity.CartSyncSkipped}, nil)
	ledger.On("Create", ctx, mock.Anything).Return(errors.New("pg down"))
	drift.On("Resolve", ctx, mock.Anything).Return(errors.New("redis down"))

	report, err := runner.Run(ctx, entity.ResyncSourceManual, resyncIn)

	assert.NoError(t, err)
	assert.NotNil(t, report)
}

func TestGetRun(t *testing.T) {
	runner, _, ledger, _ := newRunner()
	ctx := context.Background()
	id := uuid.New()
	missing := uuid.New()

	ledger.On("GetByID", ctx, id).Return(&entity.ReconciliationRun{ID: id}, nil)
	ledger.On("GetByID", ctx, missing).Return(nil, repository.ErrRunNotFound)

	run, err := runner.GetRun(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)

	_, err = runner.GetRun(ctx, missing.String())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = runner.GetRun(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestListRuns(t *testing.T) {
	runner, _, ledger, _ := newRunner()
	ctx := context.Background()
	filter := repository.RunFilter{Source: entity.ResyncSourceSweep, Limit: 20}

	ledger.On("List", ctx, filter).Return([]entity.ReconciliationRun{{Source: entity.ResyncSourceSweep}}, nil)

	runs, err := runner.ListRuns(ctx, filter)

	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
