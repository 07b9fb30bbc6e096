package mocks

import (
	"context"
	"time"

	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockCatalogRepository мок для CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
	ItemKind entity.ItemKind
}

func (m *MockCatalogRepository) Kind() entity.ItemKind {
	return m.ItemKind
}

func (m *MockCatalogRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*entity.CatalogItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CatalogItem), args.Error(1)
}

func (m *MockCatalogRepository) SaveReviews(ctx context.Context, id primitive.ObjectID, reviews []entity.Review, ratings float64) error {
	args := m.Called(ctx, id, reviews, ratings)
	return args.Error(0)
}

func (m *MockCatalogRepository) FindSorted(ctx context.Context, sort repository.SortSpec, limit int64) ([]entity.CatalogItem, error) {
	args := m.Called(ctx, sort, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CatalogItem), args.Error(1)
}

func (m *MockCatalogRepository) FindTopOffers(ctx context.Context, limit int64) ([]entity.CatalogItem, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CatalogItem), args.Error(1)
}

func (m *MockCatalogRepository) FindRunning(ctx context.Context, now time.Time, limit int64) ([]entity.CatalogItem, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CatalogItem), args.Error(1)
}

func (m *MockCatalogRepository) FindLatest(ctx context.Context, query entity.LatestQuery) ([]entity.CatalogItem, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.CatalogItem), args.Get(1).(int64), args.Error(2)
}

func (m *MockCatalogRepository) FindSummaries(ctx context.Context, ids []primitive.ObjectID, withDescription bool) (map[primitive.ObjectID]entity.ProductSummary, error) {
	args := m.Called(ctx, ids, withDescription)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[primitive.ObjectID]entity.ProductSummary), args.Error(1)
}

// MockOrderRepository мок для OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindPage(ctx context.Context, filter entity.OrderFilter, skip, limit int64) ([]entity.Order, error) {
	args := m.Called(ctx, filter, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter entity.OrderFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) FindOwned(ctx context.Context, userID string, orderID primitive.ObjectID) (*entity.Order, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Order), args.Error(1)
}

func (m *MockOrderRepository) CountByStatus(ctx context.Context, userID string) ([]entity.StatusCount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.StatusCount), args.Error(1)
}

func (m *MockOrderRepository) SumTotalPrice(ctx context.Context, userID string) (*float64, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

func (m *MockOrderRepository) MarkReviewed(ctx context.Context, userID string, orderID, productID primitive.ObjectID) (*entity.CartSyncResult, error) {
	args := m.Called(ctx, userID, orderID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CartSyncResult), args.Error(1)
}

// MockLedgerRepository мок для LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Create(ctx context.Context, run *entity.ReconciliationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ReconciliationRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReconciliationRun), args.Error(1)
}

func (m *MockLedgerRepository) List(ctx context.Context, filter repository.RunFilter) ([]entity.ReconciliationRun, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReconciliationRun), args.Error(1)
}

// MockMessagePublisher мок для Kafka MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockDriftStore мок для DriftStore
type MockDriftStore struct {
	mock.Mock
}

func (m *MockDriftStore) Record(ctx context.Context, entry entity.DriftEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDriftStore) Pending(ctx context.Context, limit int64) ([]entity.DriftEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.DriftEntry), args.Error(1)
}

func (m *MockDriftStore) Resolve(ctx context.Context, entry entity.DriftEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDriftStore) Size(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
