package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"promomarket/pkg/logger"
	"promomarket/pkg/metrics"
	"promomarket/storefront-service/internal/app/storefront/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

type orderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository создает репозиторий заказов.
// Индекс (user._id, createdAt) покрывает историю и статистику пользователя.
func NewOrderRepository(db *mongo.Database) OrderRepository {
	collection := db.Collection(ordersCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "user._id", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("user_created_at_idx"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn().Err(err).Str("collection", ordersCollection).Msg("Failed to create orders index")
	}

	return &orderRepository{collection: collection}
}

func (r *orderRepository) timer(op metrics.DbOperation) *metrics.DbTimer {
	return metrics.NewDbTimer(metricsService, metrics.StoreMongo, op, ordersCollection)
}

// FindPage возвращает страницу заказов, новые первыми
func (r *orderRepository) FindPage(ctx context.Context, filter entity.OrderFilter, skip, limit int64) (orders []entity.Order, err error) {
	timer := r.timer(metrics.DbOpFind)
	defer func() { timer.Done(err) }()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, orderFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders = []entity.Order{}
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) Count(ctx context.Context, filter entity.OrderFilter) (count int64, err error) {
	timer := r.timer(metrics.DbOpCount)
	defer func() { timer.Done(err) }()

	count, err = r.collection.CountDocuments(ctx, orderFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}

func (r *orderRepository) FindOwned(ctx context.Context, userID string, orderID primitive.ObjectID) (order *entity.Order, err error) {
	timer := r.timer(metrics.DbOpFind)
	defer func() { timer.Done(err) }()

	var found entity.Order
	if err = r.collection.FindOne(ctx, ownedOrderFilter(userID, orderID)).Decode(&found); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &found, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context, userID string) (counts []entity.StatusCount, err error) {
	timer := r.timer(metrics.DbOpAggregate)
	defer func() { timer.Done(err) }()

	cursor, err := r.collection.Aggregate(ctx, statusCountPipeline(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate orders by status: %w", err)
	}
	defer cursor.Close(ctx)

	counts = []entity.StatusCount{}
	if err = cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode status counts: %w", err)
	}

	return counts, nil
}

func (r *orderRepository) SumTotalPrice(ctx context.Context, userID string) (total *float64, err error) {
	timer := r.timer(metrics.DbOpAggregate)
	defer func() { timer.Done(err) }()

	cursor, err := r.collection.Aggregate(ctx, totalSpentPipeline(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate total spent: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode total spent: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return &rows[0].Total, nil
}

// MarkReviewed - единственная запись в заказ. Если обновление ничего не нашло,
// отдельный подсчет по (_id, user._id) отличает чужой или отсутствующий заказ от заказа без этого товара.
func (r *orderRepository) MarkReviewed(ctx context.Context, userID string, orderID, productID primitive.ObjectID) (result *entity.CartSyncResult, err error) {
	timer := r.timer(metrics.DbOpUpdate)
	defer func() { timer.Done(err) }()

	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: markReviewedArrayFilters(productID),
	})

	updated, err := r.collection.UpdateOne(ctx, markReviewedFilter(userID, orderID, productID), markReviewedUpdate(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to mark order line reviewed: %w", err)
	}

	exists := updated.MatchedCount > 0
	if !exists {
		count, countErr := r.collection.CountDocuments(ctx, ownedOrderFilter(userID, orderID))
		if countErr != nil {
			return nil, fmt.Errorf("failed to check order ownership: %w", countErr)
		}
		exists = count > 0
	}

	return &entity.CartSyncResult{
		Outcome:      classifyCartSync(updated.MatchedCount, updated.ModifiedCount, exists),
		LinesUpdated: updated.ModifiedCount,
	}, nil
}
