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

type catalogRepository struct {
	collection *mongo.Collection
	kind       entity.ItemKind
}

// NewCatalogRepository создает репозиторий для коллекции products или events.
// Индексы под сортировки витрины создаются при старте, ошибка создания только логируется.
func NewCatalogRepository(db *mongo.Database, kind entity.ItemKind) CatalogRepository {
	collection := db.Collection(string(kind))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ratings", Value: -1}, {Key: "sold_out", Value: -1}},
			Options: options.Index().SetName("ratings_sold_out_idx"),
		},
		{
			Keys:    bson.D{{Key: "sold_out", Value: -1}, {Key: "ratings", Value: -1}},
			Options: options.Index().SetName("sold_out_ratings_idx"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_at_idx"),
		},
	}
	if kind == entity.ItemKindEvent {
		indexes = append(indexes, mongo.IndexModel{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "start_Date", Value: 1}, {Key: "Finish_Date", Value: 1}},
			Options: options.Index().SetName("running_window_idx"),
		})
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warn().Err(err).Str("collection", string(kind)).Msg("Failed to create catalog indexes")
	}

	return &catalogRepository{
		collection: collection,
		kind:       kind,
	}
}

func (r *catalogRepository) Kind() entity.ItemKind {
	return r.kind
}

func (r *catalogRepository) timer(op metrics.DbOperation) *metrics.DbTimer {
	return metrics.NewDbTimer(metricsService, metrics.StoreMongo, op, string(r.kind))
}

// GetByID получает позицию каталога по ID
func (r *catalogRepository) GetByID(ctx context.Context, id primitive.ObjectID) (item *entity.CatalogItem, err error) {
	timer := r.timer(metrics.DbOpFind)
	defer func() { timer.Done(err) }()

	var found entity.CatalogItem
	if err = r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&found); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get %s item: %w", r.kind, err)
	}

	return &found, nil
}

// SaveReviews записывает только отзывы и рейтинг, валидация остальных полей документа не выполняется
func (r *catalogRepository) SaveReviews(ctx context.Context, id primitive.ObjectID, reviews []entity.Review, ratings float64) (err error) {
	timer := r.timer(metrics.DbOpUpdate)
	defer func() { timer.Done(err) }()

	if reviews == nil {
		reviews = []entity.Review{}
	}

	update := bson.M{
		"$set": bson.M{
			"reviews": reviews,
			"ratings": ratings,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to save reviews: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}

	return nil
}

func (r *catalogRepository) FindSorted(ctx context.Context, sort SortSpec, limit int64) (items []entity.CatalogItem, err error) {
	timer := r.timer(metrics.DbOpFind)
	defer func() { timer.Done(err) }()

	opts := options.Find().SetSort(sort.toBSON()).SetLimit(limit)

	return r.find(ctx, bson.M{}, opts)
}

func (r *catalogRepository) FindTopOffers(ctx context.Context, limit int64) (items []entity.CatalogItem, err error) {
	timer := r.timer(metrics.DbOpAggregate)
	defer func() { timer.Done(err) }()

	cursor, err := r.collection.Aggregate(ctx, topOffersPipeline(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top offers: %w", err)
	}
	defer cursor.Close(ctx)

	items = []entity.CatalogItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode top offers: %w", err)
	}

	return items, nil
}

// FindRunning возвращает акции в естественном порядке коллекции
func (r *catalogRepository) FindRunning(ctx context.Context, now time.Time, limit int64) (items []entity.CatalogItem, err error) {
	timer := r.timer(metrics.DbOpFind)
	defer func() { timer.Done(err) }()

	return r.find(ctx, runningFilter(now), options.Find().SetLimit(limit))
}

func (r *catalogRepository) FindLatest(ctx context.Context, query entity.LatestQuery) (items []entity.CatalogItem, total int64, err error) {
	filter := latestFilter(query)

	findTimer := r.timer(metrics.DbOpFind)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(query.Offset)).
		SetLimit(int64(query.Limit))
	items, err = r.find(ctx, filter, opts)
	findTimer.Done(err)
	if err != nil {
		return nil, 0, err
	}

	countTimer := r.timer(metrics.DbOpCount)
	total, err = r.collection.CountDocuments(ctx, filter)
	countTimer.Done(err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count latest items: %w", err)
	}

	return items, total, nil
}

// FindSummaries подгружает поля товаров одним запросом $in, как populate в mongoose
func (r *catalogRepository) FindSummaries(ctx context.Context, ids []primitive.ObjectID, withDescription bool) (summaries map[primitive.ObjectID]entity.ProductSummary, err error) {
	summaries = make(map[primitive.ObjectID]entity.ProductSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	timer := r.timer(metrics.DbOpFind)
	defer func() { timer.Done(err) }()

	opts := options.Find().SetProjection(summaryProjection(withDescription))
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find product summaries: %w", err)
	}
	defer cursor.Close(ctx)

	var found []entity.ProductSummary
	if err = cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("failed to decode product summaries: %w", err)
	}

	for _, s := range found {
		summaries[s.ID] = s
	}

	return summaries, nil
}

func (r *catalogRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]entity.CatalogItem, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s items: %w", r.kind, err)
	}
	defer cursor.Close(ctx)

	items := []entity.CatalogItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s items: %w", r.kind, err)
	}

	return items, nil
}
