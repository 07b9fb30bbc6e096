package service

import (
	"context"

	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/repository"
)

type ReviewReconcilerInterface interface {
	SubmitReview(ctx context.Context, in entity.SubmitReviewInput) (*entity.ReviewResult, error)
	Resync(ctx context.Context, in entity.ResyncInput) (*entity.ResyncReport, error)
}

type OrderAnalyticsInterface interface {
	GetHistory(ctx context.Context, query entity.HistoryQuery) (*entity.OrderHistory, error)
	GetDetails(ctx context.Context, userID, orderID string) (*entity.OrderDetails, error)
	GetStats(ctx context.Context, userID string) (*entity.OrderStats, error)
}

type CatalogRankingInterface interface {
	Recommended(ctx context.Context) ([]entity.CatalogItem, error)
	TopOffers(ctx context.Context) ([]entity.CatalogItem, error)
	MostPopular(ctx context.Context) ([]entity.CatalogItem, error)
	FlashSale(ctx context.Context) ([]entity.CatalogItem, error)
	LatestItems(ctx context.Context, query entity.LatestQuery) (*entity.LatestItems, error)
}

type ResyncRunnerInterface interface {
	Run(ctx context.Context, source entity.ResyncSource, in entity.ResyncInput) (*entity.ResyncReport, error)
	ListRuns(ctx context.Context, filter repository.RunFilter) ([]entity.ReconciliationRun, error)
	GetRun(ctx context.Context, id string) (*entity.ReconciliationRun, error)
}
