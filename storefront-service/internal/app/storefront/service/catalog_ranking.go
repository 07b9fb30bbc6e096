package service

import (
	"context"
	"time"

	"promomarket/pkg/metrics"
	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/repository"
)

// CatalogRanking собирает витринные подборки товаров и акций
type CatalogRanking struct {
	products repository.CatalogRepository
	events   repository.CatalogRepository
	now      func() time.Time
}

func NewCatalogRanking(products, events repository.CatalogRepository, now func() time.Time) *CatalogRanking {
	if now == nil {
		now = time.Now
	}
	return &CatalogRanking{
		products: products,
		events:   events,
		now:      now,
	}
}

// Recommended - сначала по рейтингу, затем по продажам
func (s *CatalogRanking) Recommended(ctx context.Context) ([]entity.CatalogItem, error) {
	defer metrics.ObserveAnalytics("recommended", time.Now())

	items, err := s.products.FindSorted(ctx, repository.SortByRating, entity.RankingLimit)
	if err != nil {
		return nil, internal("failed to load recommended products", err)
	}
	return items, nil
}

// TopOffers - товары с наибольшей скидкой; процент считается при чтении
func (s *CatalogRanking) TopOffers(ctx context.Context) ([]entity.CatalogItem, error) {
	defer metrics.ObserveAnalytics("top_offers", time.Now())

	items, err := s.products.FindTopOffers(ctx, entity.RankingLimit)
	if err != nil {
		return nil, internal("failed to load top offers", err)
	}
	return items, nil
}

// MostPopular - сначала по продажам, затем по рейтингу
func (s *CatalogRanking) MostPopular(ctx context.Context) ([]entity.CatalogItem, error) {
	defer metrics.ObserveAnalytics("most_popular", time.Now())

	items, err := s.products.FindSorted(ctx, repository.SortBySales, entity.RankingLimit)
	if err != nil {
		return nil, internal("failed to load popular products", err)
	}
	return items, nil
}

// FlashSale - акции, идущие прямо сейчас
func (s *CatalogRanking) FlashSale(ctx context.Context) ([]entity.CatalogItem, error) {
	defer metrics.ObserveAnalytics("flash_sale", time.Now())

	items, err := s.events.FindRunning(ctx, s.now(), entity.RankingLimit)
	if err != nil {
		return nil, internal("failed to load running events", err)
	}
	return items, nil
}

func (s *CatalogRanking) LatestItems(ctx context.Context, query entity.LatestQuery) (*entity.LatestItems, error) {
	defer metrics.ObserveAnalytics("latest_items", time.Now())

	if query.Offset < 0 {
		return nil, validationFailed("offset must not be negative")
	}
	if query.Limit < 1 || query.Limit > entity.MaxLimit {
		return nil, validationFailed("limit must be between 1 and %d", entity.MaxLimit)
	}

	items, total, err := s.products.FindLatest(ctx, query)
	if err != nil {
		return nil, internal("failed to load latest products", err)
	}

	return &entity.LatestItems{
		Items:       items,
		Total:       total,
		CurrentPage: query.Offset/query.Limit + 1,
		TotalPages:  totalPages(total, query.Limit),
	}, nil
}
