package service

import (
	"context"
	"errors"

	"promomarket/pkg/logger"
	"promomarket/pkg/metrics"
	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/infrastructure"
	"promomarket/storefront-service/internal/app/storefront/repository"

	"github.com/google/uuid"
)

// ResyncRunner - общая точка входа пересинхронизации для HTTP, Kafka consumer и cron.
// Каждый запуск попадает в журнал, а тройка снимается из drift store, когда чинить больше нечего.
type ResyncRunner struct {
	reconciler ReviewReconcilerInterface
	ledger     repository.LedgerRepository
	drift      infrastructure.DriftStore
}

func NewResyncRunner(reconciler ReviewReconcilerInterface, ledger repository.LedgerRepository, drift infrastructure.DriftStore) *ResyncRunner {
	return &ResyncRunner{
		reconciler: reconciler,
		ledger:     ledger,
		drift:      drift,
	}
}

func (r *ResyncRunner) Run(ctx context.Context, source entity.ResyncSource, in entity.ResyncInput) (*entity.ResyncReport, error) {
	if in.Kind == "" {
		in.Kind = entity.ItemKindEvent
	}

	report, err := r.reconciler.Resync(ctx, in)

	run := entity.NewReconciliationRun(source, in, report, err)
	metrics.ResyncRuns.WithLabelValues(string(source), string(run.Outcome)).Inc()

	if r.ledger != nil {
		if ledgerErr := r.ledger.Create(ctx, run); ledgerErr != nil {
			logger.Error().Err(ledgerErr).Str("run_id", run.ID.String()).Msg("Failed to write reconciliation run")
		}
	}

	if r.drift != nil && settled(report, err) {
		entry := entity.DriftEntry{Kind: in.Kind, ProductID: in.ProductID, OrderID: in.OrderID, UserID: in.UserID}
		if resolveErr := r.drift.Resolve(ctx, entry); resolveErr != nil {
			logger.Warn().Err(resolveErr).Str("drift_key", entry.Key()).Msg("Failed to resolve drift entry")
		}
	}

	logger.Info().
		Str("source", string(source)).
		Str("kind", string(in.Kind)).
		Str("product_id", in.ProductID).
		Str("order_id", in.OrderID).
		Str("outcome", string(run.Outcome)).
		Msg("Resync finished")

	return report, err
}

// settled - повтор пересинхронизации ничего не изменит
func settled(report *entity.ResyncReport, err error) bool {
	if err != nil {
		switch KindOf(err) {
		case KindNotFound, KindValidationFailed, KindInconsistent:
			return true
		default:
			return false
		}
	}
	return report != nil && report.OrderSync != entity.CartSyncFailed
}

func (r *ResyncRunner) ListRuns(ctx context.Context, filter repository.RunFilter) ([]entity.ReconciliationRun, error) {
	runs, err := r.ledger.List(ctx, filter)
	if err != nil {
		return nil, internal("failed to list reconciliation runs", err)
	}
	return runs, nil
}

func (r *ResyncRunner) GetRun(ctx context.Context, id string) (*entity.ReconciliationRun, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationFailed("invalid run id %q", id)
	}

	run, err := r.ledger.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return nil, notFound("reconciliation run %s not found", id)
		}
		return nil, internal("failed to get reconciliation run", err)
	}
	return run, nil
}
