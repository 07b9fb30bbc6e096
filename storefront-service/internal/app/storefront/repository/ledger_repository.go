package repository

import (
	"context"
	"errors"
	"fmt"

	"promomarket/pkg/metrics"
	"promomarket/storefront-service/internal/app/storefront/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	runsTable       = "reconciliation_runs"
	defaultRunLimit = 50
	maxRunLimit     = 500
)

// ledgerRepository реализует LedgerRepository для PostgreSQL через GORM
type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) timer(op metrics.DbOperation) *metrics.DbTimer {
	return metrics.NewDbTimer(metricsService, metrics.StorePostgres, op, runsTable)
}

// Create сохраняет запись журнала; ID назначается заранее, если не задан
func (r *ledgerRepository) Create(ctx context.Context, run *entity.ReconciliationRun) (err error) {
	timer := r.timer(metrics.DbOpInsert)
	defer func() { timer.Done(err) }()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	if err = r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create reconciliation run: %w", err)
	}

	return nil
}

func (r *ledgerRepository) GetByID(ctx context.Context, id uuid.UUID) (run *entity.ReconciliationRun, err error) {
	timer := r.timer(metrics.DbOpFind)
	defer func() { timer.Done(err) }()

	var found entity.ReconciliationRun
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&found)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get reconciliation run: %w", result.Error)
	}

	return &found, nil
}

// List возвращает последние записи журнала, новые первыми
func (r *ledgerRepository) List(ctx context.Context, filter RunFilter) (runs []entity.ReconciliationRun, err error) {
	timer := r.timer(metrics.DbOpFind)
	defer func() { timer.Done(err) }()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultRunLimit
	}
	if limit > maxRunLimit {
		limit = maxRunLimit
	}

	query := r.db.WithContext(ctx).Model(&entity.ReconciliationRun{})
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Outcome != "" {
		query = query.Where("outcome = ?", filter.Outcome)
	}

	runs = []entity.ReconciliationRun{}
	if err = query.Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list reconciliation runs: %w", err)
	}

	return runs, nil
}
