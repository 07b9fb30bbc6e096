package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/repository"
	"promomarket/storefront-service/internal/app/storefront/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Моки сервисного слоя

type mockReconciler struct{ mock.Mock }

func (m *mockReconciler) SubmitReview(ctx context.Context, in entity.SubmitReviewInput) (*entity.ReviewResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReviewResult), args.Error(1)
}

func (m *mockReconciler) Resync(ctx context.Context, in entity.ResyncInput) (*entity.ResyncReport, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ResyncReport), args.Error(1)
}

type mockAnalytics struct{ mock.Mock }

func (m *mockAnalytics) GetHistory(ctx context.Context, query entity.HistoryQuery) (*entity.OrderHistory, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OrderHistory), args.Error(1)
}

func (m *mockAnalytics) GetDetails(ctx context.Context, userID, orderID string) (*entity.OrderDetails, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OrderDetails), args.Error(1)
}

func (m *mockAnalytics) GetStats(ctx context.Context, userID string) (*entity.OrderStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.OrderStats), args.Error(1)
}

type mockRanking struct{ mock.Mock }

func (m *mockRanking) list(name string, ctx context.Context) ([]entity.CatalogItem, error) {
	args := m.MethodCalled(name, ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CatalogItem), args.Error(1)
}

func (m *mockRanking) Recommended(ctx context.Context) ([]entity.CatalogItem, error) {
	return m.list("Recommended", ctx)
}

func (m *mockRanking) TopOffers(ctx context.Context) ([]entity.CatalogItem, error) {
	return m.list("TopOffers", ctx)
}

func (m *mockRanking) MostPopular(ctx context.Context) ([]entity.CatalogItem, error) {
	return m.list("MostPopular", ctx)
}

func (m *mockRanking) FlashSale(ctx context.Context) ([]entity.CatalogItem, error) {
	return m.list("FlashSale", ctx)
}

func (m *mockRanking) LatestItems(ctx context.Context, query entity.LatestQuery) (*entity.LatestItems, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LatestItems), args.Error(1)
}

type mockRunner struct{ mock.Mock }

func (m *mockRunner) Run(ctx context.Context, source entity.ResyncSource, in entity.ResyncInput) (*entity.ResyncReport, error) {
	args := m.Called(ctx, source, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ResyncReport), args.Error(1)
}

func (m *mockRunner) ListRuns(ctx context.Context, filter repository.RunFilter) ([]entity.ReconciliationRun, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReconciliationRun), args.Error(1)
}

func (m *mockRunner) GetRun(ctx context.Context, id string) (*entity.ReconciliationRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReconciliationRun), args.Error(1)
}

type testEnv struct {
	router     *gin.Engine
	reconciler *mockReconciler
	analytics  *mockAnalytics
	ranking    *mockRanking
	runner     *mockRunner
}

func newTestEnv() *testEnv {
	env := &testEnv{
		reconciler: new(mockReconciler),
		analytics:  new(mockAnalytics),
		ranking:    new(mockRanking),
		runner:     new(mockRunner),
	}
	h := NewStorefrontHandler(env.reconciler, env.analytics, env.ranking, env.runner)
	health := NewHealthCheckHandler(nil, nil)
	env.router = SetupRoutes(h, NewAuthMiddleware(testSecret), health, nil)
	return env
}

func (env *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

const (
	productHex = "64b7f0c2a1b2c3d4e5f60718"
	orderHex   = "64b7f0c2a1b2c3d4e5f60719"
)

// ==================== Review Tests ====================

func TestSubmitProductReview_Success(t *testing.T) {
	env := newTestEnv()

	env.reconciler.On("SubmitReview", mock.Anything, mock.MatchedBy(func(in entity.SubmitReviewInput) bool {
		return in.Kind == entity.ItemKindProduct &&
			in.UserID == "user-1" &&
			in.Author.ID == "user-1" &&
			in.Author.Name == "Alice" &&
			in.ProductID == productHex &&
			in.OrderID == orderHex &&
			in.Rating == 4 &&
			in.Comment == "good"
	})).Return(&entity.ReviewResult{
		Message:     "Reviewed successfully!",
		Created:     true,
		Ratings:     4,
		ReviewCount: 1,
		OrderSync:   entity.CartSyncSynced,
	}, nil)

	rec := env.do(http.MethodPut, "/api/v1/products/reviews", userToken(t), map[string]interface{}{
		"productId": productHex,
		"orderId":   orderHex,
		"rating":    4,
		"comment":   "good",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var result entity.ReviewResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Reviewed successfully!", result.Message)
	assert.Equal(t, entity.CartSyncSynced, result.OrderSync)
	env.reconciler.AssertExpectations(t)
}

func TestSubmitEventReview_UsesEventKind(t *testing.T) {
	env := newTestEnv()

	env.reconciler.On("SubmitReview", mock.Anything, mock.MatchedBy(func(in entity.SubmitReviewInput) bool {
		return in.Kind == entity.ItemKindEvent
	})).Return(&entity.ReviewResult{Message: "Reviewed successfully!", OrderSync: entity.CartSyncFailed}, nil)

	rec := env.do(http.MethodPut, "/api/v1/events/reviews", userToken(t), map[string]interface{}{
		"productId": productHex,
		"orderId":   orderHex,
		"rating":    5,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	env.reconciler.AssertExpectations(t)
}

func TestSubmitReview_RequiresToken(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPut, "/api/v1/products/reviews", "", map[string]interface{}{
		"productId": productHex,
		"orderId":   orderHex,
		"rating":    4,
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env.reconciler.AssertNotCalled(t, "SubmitReview", mock.Anything, mock.Anything)
}

func TestSubmitReview_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		body    map[string]interface{}
		message string
	}{
		{"Rating above range", map[string]interface{}{"productId": productHex, "orderId": orderHex, "rating": 6}, "Rating is max"},
		{"Rating missing", map[string]interface{}{"productId": productHex, "orderId": orderHex}, "Rating is required"},
		{"Malformed product id", map[string]interface{}{"productId": "xyz", "orderId": orderHex, "rating": 3}, "ProductID is len"},
		{"Missing order id", map[string]interface{}{"productId": productHex, "rating": 3}, "OrderID is required"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()

			rec := env.do(http.MethodPut, "/api/v1/products/reviews", userToken(t), tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			response := decodeError(t, rec)
			assert.Equal(t, "validation_failed", response["error"])
			assert.Equal(t, tc.message, response["message"])
			env.reconciler.AssertNotCalled(t, "SubmitReview", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitReview_InvalidJSON(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/reviews", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+userToken(t))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeError(t, rec)["message"])
}

func TestSubmitReview_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
		expectedKind   string
		expectedMsg    string
	}{
		{"Not found", &service.Error{Kind: service.KindNotFound, Message: "products item not found"}, http.StatusNotFound, "not_found", "products item not found"},
		{"Validation", &service.Error{Kind: service.KindValidationFailed, Message: "rating must be between 1 and 5"}, http.StatusBadRequest, "validation_failed", "rating must be between 1 and 5"},
		{"Inconsistent", &service.Error{Kind: service.KindInconsistent, Message: "item has no reviews"}, http.StatusConflict, "inconsistent", "item has no reviews"},
		{"Internal", &service.Error{Kind: service.KindInternal, Message: "failed to save reviews", Err: errors.New("mongo down")}, http.StatusInternalServerError, "internal", "Internal server error"},
		{"Unclassified", errors.New("boom"), http.StatusInternalServerError, "internal", "Internal server error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			env.reconciler.On("SubmitReview", mock.Anything, mock.Anything).Return(nil, tc.err)

			rec := env.do(http.MethodPut, "/api/v1/products/reviews", userToken(t), map[string]interface{}{
				"productId": productHex,
				"orderId":   orderHex,
				"rating":    3,
			})

			assert.Equal(t, tc.expectedStatus, rec.Code)
			response := decodeError(t, rec)
			assert.Equal(t, tc.expectedKind, response["error"])
			assert.Equal(t, tc.expectedMsg, response["message"])
			assert.NotContains(t, rec.Body.String(), "mongo down")
		})
	}
}

// ==================== Resync / Ledger Tests ====================

func TestResync_AdminOnly(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/v1/reviews/resync", userToken(t), map[string]interface{}{
		"productId": productHex,
		"orderId":   orderHex,
		"userId":    "user-1",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestResync_Success(t *testing.T) {
	env := newTestEnv()

	in := entity.ResyncInput{
		Kind:      entity.ItemKindProduct,
		ProductID: productHex,
		OrderID:   orderHex,
		UserID:    "user-1",
	}
	env.runner.On("Run", mock.Anything, entity.ResyncSourceManual, in).Return(&entity.ResyncReport{
		Kind:              entity.ItemKindProduct,
		ProductID:         productHex,
		DuplicatesRemoved: 1,
		ItemRewritten:     true,
		OrderSync:         entity.CartSyncAlreadyReviewed,
	}, nil)

	rec := env.do(http.MethodPost, "/api/v1/reviews/resync", adminToken(t), map[string]interface{}{
		"kind":      "products",
		"productId": productHex,
		"orderId":   orderHex,
		"userId":    "user-1",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var report entity.ResyncReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.DuplicatesRemoved)
	assert.True(t, report.ItemRewritten)
	env.runner.AssertExpectations(t)
}

func TestResync_InvalidKind(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/v1/reviews/resync", adminToken(t), map[string]interface{}{
		"kind":      "coupons",
		"productId": productHex,
		"orderId":   orderHex,
		"userId":    "user-1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Kind is oneof", decodeError(t, rec)["message"])
}

func TestListRuns_PassesFilters(t *testing.T) {
	env := newTestEnv()

	runs := []entity.ReconciliationRun{
		{ID: uuid.New(), Source: entity.ResyncSourceSweep, Outcome: entity.ResyncOutcomeRepaired},
	}
	env.runner.On("ListRuns", mock.Anything, repository.RunFilter{
		Source:  entity.ResyncSourceSweep,
		Outcome: entity.ResyncOutcomeRepaired,
		Limit:   20,
	}).Return(runs, nil)

	rec := env.do(http.MethodGet, "/api/v1/reconciliation/runs?source=sweep&outcome=repaired&limit=20", adminToken(t), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var response entity.RunListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Total)
	env.runner.AssertExpectations(t)
}

func TestGetRun_NotFound(t *testing.T) {
	env := newTestEnv()

	runID := uuid.New().String()
	env.runner.On("GetRun", mock.Anything, runID).
		Return(nil, &service.Error{Kind: service.KindNotFound, Message: "reconciliation run not found"})

	rec := env.do(http.MethodGet, "/api/v1/reconciliation/runs/"+runID, adminToken(t), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "reconciliation run not found", decodeError(t, rec)["message"])
}

// ==================== Order Analytics Tests ====================

func TestGetOrderHistory_Defaults(t *testing.T) {
	env := newTestEnv()

	env.analytics.On("GetHistory", mock.Anything, entity.HistoryQuery{
		UserID: "user-1",
		Page:   entity.DefaultPage,
		Limit:  entity.DefaultLimit,
	}).Return(&entity.OrderHistory{
		Orders:     []entity.OrderView{},
		Pagination: entity.Pagination{CurrentPage: 1, OrdersPerPage: 10},
	}, nil)

	rec := env.do(http.MethodGet, "/api/v1/orders/history?status=all", userToken(t), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env.analytics.AssertExpectations(t)
}

func TestGetOrderHistory_StatusAndDateRange(t *testing.T) {
	env := newTestEnv()

	env.analytics.On("GetHistory", mock.Anything, mock.MatchedBy(func(q entity.HistoryQuery) bool {
		if q.Status == nil || *q.Status != "Delivered" || q.Range == nil {
			return false
		}
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 1, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
		return q.Page == 2 && q.Limit == 5 && q.Range.From.Equal(from) && q.Range.To.Equal(to)
	})).Return(&entity.OrderHistory{Orders: []entity.OrderView{}}, nil)

	rec := env.do(http.MethodGet,
		"/api/v1/orders/history?page=2&limit=5&status=Delivered&startDate=2026-01-01&endDate=2026-01-31",
		userToken(t), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.analytics.AssertExpectations(t)
}

func TestGetOrderHistory_HalfRangeIgnored(t *testing.T) {
	env := newTestEnv()

	env.analytics.On("GetHistory", mock.Anything, mock.MatchedBy(func(q entity.HistoryQuery) bool {
		return q.Range == nil
	})).Return(&entity.OrderHistory{Orders: []entity.OrderView{}}, nil)

	rec := env.do(http.MethodGet, "/api/v1/orders/history?startDate=2026-01-01", userToken(t), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.analytics.AssertExpectations(t)
}

func TestGetOrderHistory_BadParams(t *testing.T) {
	testCases := []struct {
		name  string
		query string
	}{
		{"Non-numeric page", "?page=abc"},
		{"Non-numeric limit", "?limit=ten"},
		{"Bad start date", "?startDate=yesterday&endDate=2026-01-31"},
		{"Bad end date", "?startDate=2026-01-01&endDate=31.01.2026"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()

			rec := env.do(http.MethodGet, "/api/v1/orders/history"+tc.query, userToken(t), nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env.analytics.AssertNotCalled(t, "GetHistory", mock.Anything, mock.Anything)
		})
	}
}

func TestGetOrderDetails_NotFound(t *testing.T) {
	env := newTestEnv()

	env.analytics.On("GetDetails", mock.Anything, "user-1", orderHex).
		Return(nil, &service.Error{Kind: service.KindNotFound, Message: "order not found"})

	rec := env.do(http.MethodGet, "/api/v1/orders/"+orderHex, userToken(t), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order not found", decodeError(t, rec)["message"])
}

func TestGetOrderStats_Success(t *testing.T) {
	env := newTestEnv()

	env.analytics.On("GetStats", mock.Anything, "user-1").Return(&entity.OrderStats{
		TotalOrders:    3,
		OrdersByStatus: map[string]int64{"Delivered": 2, "Processing": 1},
		TotalSpent:     120.5,
		RecentOrders:   1,
	}, nil)

	rec := env.do(http.MethodGet, "/api/v1/orders/stats", userToken(t), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats entity.OrderStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, 120.5, stats.TotalSpent)
}

// ==================== Catalog Tests ====================

func TestCatalogRankings_ArePublic(t *testing.T) {
	testCases := []struct {
		method string
		path   string
		key    string
	}{
		{"Recommended", "/api/v1/catalog/recommended", "products"},
		{"TopOffers", "/api/v1/catalog/top-offers", "products"},
		{"MostPopular", "/api/v1/catalog/most-popular", "products"},
		{"FlashSale", "/api/v1/catalog/flash-sale", "events"},
	}

	for _, tc := range testCases {
		t.Run(tc.method, func(t *testing.T) {
			env := newTestEnv()
			env.ranking.On(tc.method, mock.Anything).Return([]entity.CatalogItem{{Name: "Phone"}}, nil)

			rec := env.do(http.MethodGet, tc.path, "", nil)

			require.Equal(t, http.StatusOK, rec.Code)
			var response map[string][]entity.CatalogItem
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Len(t, response[tc.key], 1)
			env.ranking.AssertExpectations(t)
		})
	}
}

func TestLatestItems_SentinelsMeanNoFilter(t *testing.T) {
	env := newTestEnv()

	env.ranking.On("LatestItems", mock.Anything, entity.LatestQuery{
		Offset: 0,
		Limit:  entity.DefaultLimit,
	}).Return(&entity.LatestItems{Items: []entity.CatalogItem{}, CurrentPage: 1}, nil)

	rec := env.do(http.MethodGet, "/api/v1/catalog/latest?store_id=0&category_id=0&type=all", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.ranking.AssertExpectations(t)
}

func TestLatestItems_Filters(t *testing.T) {
	env := newTestEnv()

	env.ranking.On("LatestItems", mock.Anything, mock.MatchedBy(func(q entity.LatestQuery) bool {
		return q.ShopID != nil && *q.ShopID == "shop-1" &&
			q.CategoryID == nil &&
			q.Type != nil && *q.Type == "phones" &&
			q.Offset == 20 && q.Limit == 10
	})).Return(&entity.LatestItems{Items: []entity.CatalogItem{}, Total: 25, CurrentPage: 3, TotalPages: 3}, nil)

	rec := env.do(http.MethodGet, "/api/v1/catalog/latest?store_id=shop-1&type=phones&offset=20", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var result entity.LatestItems
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 3, result.CurrentPage)
	env.ranking.AssertExpectations(t)
}

func TestLatestItems_ServiceValidation(t *testing.T) {
	env := newTestEnv()

	env.ranking.On("LatestItems", mock.Anything, mock.Anything).
		Return(nil, &service.Error{Kind: service.KindValidationFailed, Message: "limit must be between 1 and 100"})

	rec := env.do(http.MethodGet, "/api/v1/catalog/latest?limit=500", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "limit must be between 1 and 100", decodeError(t, rec)["message"])
}

// ==================== Infrastructure Routes ====================

func TestHealthAndLiveness(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/health/liveness", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", rec.Body.String())
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-03-03T10:00:00Z", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), got)

	got, err = parseDate("2026-03-03", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDate("2026-03-03", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 3, 23, 59, 59, 999999999, time.UTC), got)

	_, err = parseDate("03/03/2026", false)
	assert.Error(t, err)
}
