package service

import (
	"context"
	"errors"
	"math"
	"time"

	"promomarket/pkg/metrics"
	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderAnalytics считает историю, детали и статистику заказов пользователя на момент запроса
type OrderAnalytics struct {
	orders   repository.OrderRepository
	products repository.CatalogRepository
	now      func() time.Time
}

func NewOrderAnalytics(orders repository.OrderRepository, products repository.CatalogRepository, now func() time.Time) *OrderAnalytics {
	if now == nil {
		now = time.Now
	}
	return &OrderAnalytics{
		orders:   orders,
		products: products,
		now:      now,
	}
}

// GetHistory возвращает страницу заказов пользователя, новые первыми
func (s *OrderAnalytics) GetHistory(ctx context.Context, query entity.HistoryQuery) (*entity.OrderHistory, error) {
	defer metrics.ObserveAnalytics("order_history", time.Now())

	if query.UserID == "" {
		return nil, validationFailed("user id is required")
	}
	if query.Page < 1 {
		return nil, validationFailed("page must be at least 1")
	}
	if query.Limit < 1 || query.Limit > entity.MaxLimit {
		return nil, validationFailed("limit must be between 1 and %d", entity.MaxLimit)
	}
	if query.Range != nil && query.Range.From.After(query.Range.To) {
		return nil, validationFailed("startDate must not be after endDate")
	}

	filter := entity.OrderFilter{
		UserID: query.UserID,
		Status: query.Status,
		Range:  query.Range,
	}

	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return nil, internal("failed to count orders", err)
	}

	history := &entity.OrderHistory{
		Orders: []entity.OrderView{},
		Pagination: entity.Pagination{
			CurrentPage:   query.Page,
			TotalPages:    totalPages(total, query.Limit),
			TotalOrders:   total,
			OrdersPerPage: query.Limit,
		},
	}

	skip, ok := pageSkip(query.Page, query.Limit, total)
	if !ok {
		return history, nil
	}

	orders, err := s.orders.FindPage(ctx, filter, skip, int64(query.Limit))
	if err != nil {
		return nil, internal("failed to load orders", err)
	}

	summaries, err := s.products.FindSummaries(ctx, productIDs(orders), false)
	if err != nil {
		return nil, internal("failed to load product summaries", err)
	}

	for i := range orders {
		history.Orders = append(history.Orders, orderView(&orders[i], summaries))
	}

	return history, nil
}

// pageSkip возвращает skip для страницы; false, если страница целиком за последним заказом.
// Номер страницы приходит из запроса без верхней границы, поэтому произведение проверяется на переполнение.
func pageSkip(page, limit int, total int64) (int64, bool) {
	if page < 1 || limit < 1 {
		return 0, false
	}
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return 0, false
	}
	skip := int64(page-1) * int64(limit)
	if skip >= total {
		return 0, false
	}
	return skip, true
}

// GetDetails - один заказ с описаниями товаров. Чужой, отсутствующий и некорректный ID неразличимы.
func (s *OrderAnalytics) GetDetails(ctx context.Context, userID, orderID string) (*entity.OrderDetails, error) {
	defer metrics.ObserveAnalytics("order_details", time.Now())

	id, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, notFound("order %s not found", orderID)
	}

	order, err := s.orders.FindOwned(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, notFound("order %s not found", orderID)
		}
		return nil, internal("failed to load order", err)
	}

	summaries, err := s.products.FindSummaries(ctx, productIDs([]entity.Order{*order}), true)
	if err != nil {
		return nil, internal("failed to load product summaries", err)
	}

	return &entity.OrderDetails{Order: orderView(order, summaries)}, nil
}

// GetStats агрегирует заказы пользователя; у пользователя без заказов все значения нулевые
func (s *OrderAnalytics) GetStats(ctx context.Context, userID string) (*entity.OrderStats, error) {
	defer metrics.ObserveAnalytics("order_stats", time.Now())

	if userID == "" {
		return nil, validationFailed("user id is required")
	}

	total, err := s.orders.Count(ctx, entity.OrderFilter{UserID: userID})
	if err != nil {
		return nil, internal("failed to count orders", err)
	}

	counts, err := s.orders.CountByStatus(ctx, userID)
	if err != nil {
		return nil, internal("failed to group orders by status", err)
	}
	byStatus := make(map[string]int64, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}

	spent, err := s.orders.SumTotalPrice(ctx, userID)
	if err != nil {
		return nil, internal("failed to sum order totals", err)
	}
	totalSpent := 0.0
	if spent != nil {
		totalSpent = *spent
	}

	recent, err := s.countSince(ctx, userID, s.now().AddDate(0, -entity.RecentOrdersMonths, 0))
	if err != nil {
		return nil, internal("failed to count recent orders", err)
	}

	return &entity.OrderStats{
		TotalOrders:    total,
		OrdersByStatus: byStatus,
		TotalSpent:     totalSpent,
		RecentOrders:   recent,
	}, nil
}

// countSince считает заказы пользователя с createdAt >= since
func (s *OrderAnalytics) countSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	return s.orders.Count(ctx, entity.OrderFilter{UserID: userID, Since: &since})
}

func productIDs(orders []entity.Order) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{})
	ids := make([]primitive.ObjectID, 0)
	for _, o := range orders {
		for _, line := range o.Cart {
			if _, ok := seen[line.ProductID]; ok {
				continue
			}
			seen[line.ProductID] = struct{}{}
			ids = append(ids, line.ProductID)
		}
	}
	return ids
}

// orderView подставляет поля товара в строки заказа; удаленный товар оставляет строку без productDetails
func orderView(order *entity.Order, summaries map[primitive.ObjectID]entity.ProductSummary) entity.OrderView {
	lines := make([]entity.OrderLine, 0, len(order.Cart))
	for _, item := range order.Cart {
		line := entity.OrderLine{CartItem: item}
		if summary, ok := summaries[item.ProductID]; ok {
			summary := summary
			line.Product = &summary
		}
		lines = append(lines, line)
	}

	return entity.OrderView{
		ID:         order.ID.Hex(),
		User:       order.User,
		Cart:       lines,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		CreatedAt:  order.CreatedAt,
	}
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
