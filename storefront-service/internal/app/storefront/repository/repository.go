package repository

import (
	"context"
	"errors"
	"time"

	"promomarket/storefront-service/internal/app/storefront/entity"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrItemNotFound  = errors.New("catalog item not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrRunNotFound   = errors.New("reconciliation run not found")
)

const metricsService = "storefront"

// CatalogRepository - операции над одной коллекцией каталога (products или events)
type CatalogRepository interface {
	Kind() entity.ItemKind

	// GetByID возвращает позицию вместе со встроенными отзывами
	GetByID(ctx context.Context, id primitive.ObjectID) (*entity.CatalogItem, error)

	// SaveReviews точечно перезаписывает reviews и ratings, не трогая остальные поля документа
	SaveReviews(ctx context.Context, id primitive.ObjectID, reviews []entity.Review, ratings float64) error

	// FindSorted - выборка по сортировке с лимитом (Recommended, MostPopular)
	FindSorted(ctx context.Context, sort SortSpec, limit int64) ([]entity.CatalogItem, error)

	// FindTopOffers - агрегация с вычисляемым discountPercentage
	FindTopOffers(ctx context.Context, limit int64) ([]entity.CatalogItem, error)

	// FindRunning - акции, идущие в момент now
	FindRunning(ctx context.Context, now time.Time, limit int64) ([]entity.CatalogItem, error)

	// FindLatest возвращает страницу новинок и общее число подходящих документов
	FindLatest(ctx context.Context, query entity.LatestQuery) ([]entity.CatalogItem, int64, error)

	// FindSummaries подставляет поля товаров в позиции заказа
	FindSummaries(ctx context.Context, ids []primitive.ObjectID, withDescription bool) (map[primitive.ObjectID]entity.ProductSummary, error)
}

// OrderRepository - чтение заказов и единственная мутация isReviewed
type OrderRepository interface {
	FindPage(ctx context.Context, filter entity.OrderFilter, skip, limit int64) ([]entity.Order, error)
	Count(ctx context.Context, filter entity.OrderFilter) (int64, error)

	// FindOwned ищет заказ с проверкой владельца в самом предикате
	FindOwned(ctx context.Context, userID string, orderID primitive.ObjectID) (*entity.Order, error)

	CountByStatus(ctx context.Context, userID string) ([]entity.StatusCount, error)

	// SumTotalPrice возвращает nil, если у пользователя нет заказов
	SumTotalPrice(ctx context.Context, userID string) (*float64, error)

	// MarkReviewed выставляет cart.$[elem].isReviewed для строк с данным товаром в заказе пользователя
	MarkReviewed(ctx context.Context, userID string, orderID, productID primitive.ObjectID) (*entity.CartSyncResult, error)
}

// LedgerRepository - журнал пересинхронизаций в PostgreSQL
type LedgerRepository interface {
	Create(ctx context.Context, run *entity.ReconciliationRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ReconciliationRun, error)
	List(ctx context.Context, filter RunFilter) ([]entity.ReconciliationRun, error)
}

// RunFilter - фильтр листинга журнала; пустые поля не фильтруют
type RunFilter struct {
	Source  entity.ResyncSource
	Outcome entity.ResyncOutcome
	Limit   int
}
