package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"promomarket/pkg/logger"
	"promomarket/pkg/metrics"
	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/infrastructure"
	"promomarket/storefront-service/internal/app/storefront/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating = 1
	MaxRating = 5

	reviewedMessage = "Reviewed successfully!"
	ratingEpsilon   = 1e-9

	// Публикация идет в пути запроса и не должна задерживать ответ дольше этого
	publishTimeout = 2 * time.Second
)

// ReviewReconciler держит согласованными три документа: отзыв, рейтинг позиции и флаг строки заказа.
// Транзакции между документами нет: запись в каталог и запись в заказ независимы,
// сбой второй фиксируется в drift store и исправляется через Resync.
type ReviewReconciler struct {
	catalogs  map[entity.ItemKind]repository.CatalogRepository
	orders    repository.OrderRepository
	drift     infrastructure.DriftStore
	publisher infrastructure.MessagePublisher
	now       func() time.Time
}

// NewReviewReconciler создает реконсилятор. Коллекция каталога выбирается по Kind() репозитория.
func NewReviewReconciler(
	catalogs []repository.CatalogRepository,
	orders repository.OrderRepository,
	drift infrastructure.DriftStore,
	publisher infrastructure.MessagePublisher,
	now func() time.Time,
) *ReviewReconciler {
	byKind := make(map[entity.ItemKind]repository.CatalogRepository, len(catalogs))
	for _, c := range catalogs {
		byKind[c.Kind()] = c
	}
	if now == nil {
		now = time.Now
	}

	return &ReviewReconciler{
		catalogs:  byKind,
		orders:    orders,
		drift:     drift,
		publisher: publisher,
		now:       now,
	}
}

// SubmitReview создает или обновляет отзыв пользователя, пересчитывает рейтинг
// и отмечает строки заказа как оцененные.
func (s *ReviewReconciler) SubmitReview(ctx context.Context, in entity.SubmitReviewInput) (*entity.ReviewResult, error) {
	catalog, err := s.catalogFor(in.Kind)
	if err != nil {
		return nil, err
	}
	kind := catalog.Kind()

	if in.UserID == "" {
		return nil, validationFailed("user id is required")
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return nil, validationFailed("rating must be between %d and %d", MinRating, MaxRating)
	}
	productID, err := primitive.ObjectIDFromHex(in.ProductID)
	if err != nil {
		return nil, validationFailed("invalid product id %q", in.ProductID)
	}
	orderID, err := primitive.ObjectIDFromHex(in.OrderID)
	if err != nil {
		return nil, validationFailed("invalid order id %q", in.OrderID)
	}

	item, err := catalog.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, notFound("%s item %s not found", kind, in.ProductID)
		}
		return nil, internal("failed to load catalog item", err)
	}

	author := in.Author
	author.ID = in.UserID

	book := entity.NewReviewBook(item.Reviews)
	created := book.Upsert(entity.Review{
		User:      author,
		Rating:    in.Rating,
		Comment:   in.Comment,
		ProductID: in.ProductID,
	}, s.now())

	ratings, err := book.MeanRating()
	if err != nil {
		return nil, inconsistent("%s item %s has no reviews after upsert", kind, in.ProductID)
	}

	if err := catalog.SaveReviews(ctx, productID, book.Reviews(), ratings); err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, notFound("%s item %s not found", kind, in.ProductID)
		}
		return nil, internal("failed to save reviews", err)
	}

	action := "updated"
	if created {
		action = "created"
	}
	metrics.ReviewsSubmitted.WithLabelValues(string(kind), action).Inc()
	metrics.ReviewsRating.Observe(float64(in.Rating))

	// Запись в каталог уже состоялась; ошибка заказа не отменяет ответ
	outcome := s.syncOrder(ctx, entity.DriftEntry{
		Kind:      kind,
		ProductID: in.ProductID,
		OrderID:   in.OrderID,
		UserID:    in.UserID,
	}, orderID, productID)

	s.publishReviewEvent(ctx, entity.ReviewEvent{
		EventType: entity.EventTypeReviewSubmitted,
		Kind:      kind,
		ProductID: in.ProductID,
		OrderID:   in.OrderID,
		UserID:    in.UserID,
		Rating:    in.Rating,
		Ratings:   ratings,
		OrderSync: outcome,
		Timestamp: s.now(),
	})

	return &entity.ReviewResult{
		Message:     reviewedMessage,
		Created:     created,
		Ratings:     ratings,
		ReviewCount: book.Len(),
		OrderSync:   outcome,
	}, nil
}

// Resync восстанавливает инварианты по текущему состоянию документов. Повторный вызов ничего не меняет.
func (s *ReviewReconciler) Resync(ctx context.Context, in entity.ResyncInput) (*entity.ResyncReport, error) {
	catalog, err := s.catalogFor(in.Kind)
	if err != nil {
		return nil, err
	}
	kind := catalog.Kind()

	productID, err := primitive.ObjectIDFromHex(in.ProductID)
	if err != nil {
		return nil, validationFailed("invalid product id %q", in.ProductID)
	}
	orderID, err := primitive.ObjectIDFromHex(in.OrderID)
	if err != nil {
		return nil, validationFailed("invalid order id %q", in.OrderID)
	}

	item, err := catalog.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return nil, notFound("%s item %s not found", kind, in.ProductID)
		}
		return nil, internal("failed to load catalog item", err)
	}

	book := entity.NewReviewBook(item.Reviews)
	ratings, err := book.MeanRating()
	if err != nil {
		return nil, inconsistent("%s item %s has no reviews", kind, in.ProductID)
	}

	report := &entity.ResyncReport{
		Kind:              kind,
		ProductID:         in.ProductID,
		OrderID:           in.OrderID,
		UserID:            in.UserID,
		RatingsBefore:     item.Ratings,
		RatingsAfter:      ratings,
		ReviewCount:       book.Len(),
		DuplicatesRemoved: len(item.Reviews) - book.Len(),
		OrderSync:         entity.CartSyncSkipped,
	}

	if report.DuplicatesRemoved > 0 || math.Abs(item.Ratings-ratings) > ratingEpsilon {
		if err := catalog.SaveReviews(ctx, productID, book.Reviews(), ratings); err != nil {
			if errors.Is(err, repository.ErrItemNotFound) {
				return nil, notFound("%s item %s not found", kind, in.ProductID)
			}
			return nil, internal("failed to save reviews", err)
		}
		report.ItemRewritten = true
	}

	if in.UserID == "" {
		return report, nil
	}
	if _, ok := book.Get(in.UserID); !ok {
		return report, nil
	}

	result, err := s.orders.MarkReviewed(ctx, in.UserID, orderID, productID)
	if err != nil {
		report.OrderSync = entity.CartSyncFailed
		return report, internal("failed to update order", err)
	}
	report.OrderSync = result.Outcome
	report.LinesUpdated = result.LinesUpdated

	return report, nil
}

func (s *ReviewReconciler) catalogFor(kind entity.ItemKind) (repository.CatalogRepository, error) {
	if kind == "" {
		kind = entity.ItemKindEvent
	}
	catalog, ok := s.catalogs[kind]
	if !ok {
		return nil, validationFailed("unknown item kind %q", kind)
	}
	return catalog, nil
}

// syncOrder проставляет isReviewed; при ошибке тройка уходит в drift store
func (s *ReviewReconciler) syncOrder(ctx context.Context, entry entity.DriftEntry, orderID, productID primitive.ObjectID) entity.CartSyncOutcome {
	outcome := entity.CartSyncFailed

	result, err := s.orders.MarkReviewed(ctx, entry.UserID, orderID, productID)
	if err == nil {
		outcome = result.Outcome
	} else {
		logger.Error().
			Err(err).
			Str("kind", string(entry.Kind)).
			Str("product_id", entry.ProductID).
			Str("order_id", entry.OrderID).
			Str("user_id", entry.UserID).
			Msg("Order review flag update failed, recording drift")

		if recErr := s.drift.Record(ctx, entry); recErr != nil {
			logger.Error().Err(recErr).Str("drift_key", entry.Key()).Msg("Failed to record drift entry")
		}
	}

	metrics.OrderSyncOutcomes.WithLabelValues(string(outcome)).Inc()
	return outcome
}

// publishReviewEvent отправляет событие в Kafka; ошибки только логируются
func (s *ReviewReconciler) publishReviewEvent(ctx context.Context, event entity.ReviewEvent) {
	if s.publisher == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal review event")
		return
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := s.publisher.PublishMessage(publishCtx, event.ProductID, payload); err != nil {
		logger.Warn().Err(err).Str("product_id", event.ProductID).Msg("Failed to publish review event")
	}
}
