package entity

import "time"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// RankingLimit - размер всех витринных подборок
	RankingLimit = 10

	// RecentOrdersMonths - окно recentOrders в календарных месяцах
	RecentOrdersMonths = 6
)

// DateRange - включительный диапазон по createdAt
type DateRange struct {
	From time.Time
	To   time.Time
}

// HistoryQuery - параметры истории заказов. Nil в опциональных полях означает "без фильтра".
type HistoryQuery struct {
	UserID string
	Page   int
	Limit  int
	Status *string
	Range  *DateRange
}

// OrderFilter - предикат выборки заказов, который понимает репозиторий
type OrderFilter struct {
	UserID string
	Status *string
	Range  *DateRange
	Since  *time.Time
}

type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalOrders   int64 `json:"totalOrders"`
	OrdersPerPage int   `json:"ordersPerPage"`
}

// OrderLine - позиция заказа с подставленными на чтении полями товара
type OrderLine struct {
	CartItem
	Product *ProductSummary `json:"productDetails,omitempty"`
}

type OrderView struct {
	ID         string      `json:"_id"`
	User       OrderUser   `json:"user"`
	Cart       []OrderLine `json:"cart"`
	Status     OrderStatus `json:"status"`
	TotalPrice float64     `json:"totalPrice"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type OrderHistory struct {
	Orders     []OrderView `json:"orders"`
	Pagination Pagination  `json:"pagination"`
}

type OrderDetails struct {
	Order OrderView `json:"order"`
}

type OrderStats struct {
	TotalOrders    int64            `json:"totalOrders"`
	OrdersByStatus map[string]int64 `json:"ordersByStatus"`
	TotalSpent     float64          `json:"totalSpent"`
	RecentOrders   int64            `json:"recentOrders"`
}

// LatestQuery - фильтры ленты новинок; nil означает отсутствие фильтра
type LatestQuery struct {
	ShopID     *string
	CategoryID *string
	Type       *string
	Offset     int
	Limit      int
}

type LatestItems struct {
	Items       []CatalogItem `json:"products"`
	Total       int64         `json:"total"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
}

// SubmitReviewInput - вход реконсилятора; личность пользователя уже проверена транспортом
type SubmitReviewInput struct {
	Kind      ItemKind
	UserID    string
	Author    ReviewAuthor
	ProductID string
	OrderID   string
	Rating    int
	Comment   string
}

// ReviewResult - подтверждение записи отзыва с явным сигналом частичного сбоя по заказу
type ReviewResult struct {
	Message     string          `json:"message"`
	Created     bool            `json:"created"`
	Ratings     float64         `json:"ratings"`
	ReviewCount int             `json:"review_count"`
	OrderSync   CartSyncOutcome `json:"order_sync"`
}

type ResyncInput struct {
	Kind      ItemKind
	ProductID string
	OrderID   string
	UserID    string
}

// ResyncReport описывает, что было исправлено при пересинхронизации
type ResyncReport struct {
	Kind              ItemKind        `json:"kind"`
	ProductID         string          `json:"product_id"`
	OrderID           string          `json:"order_id"`
	UserID            string          `json:"user_id"`
	RatingsBefore     float64         `json:"ratings_before"`
	RatingsAfter      float64         `json:"ratings_after"`
	ReviewCount       int             `json:"review_count"`
	DuplicatesRemoved int             `json:"duplicates_removed"`
	ItemRewritten     bool            `json:"item_rewritten"`
	OrderSync         CartSyncOutcome `json:"order_sync"`
	LinesUpdated      int64           `json:"lines_updated"`
}

// Repaired - true, если пересинхронизация что-то изменила
func (r *ResyncReport) Repaired() bool {
	return r.ItemRewritten || r.LinesUpdated > 0
}
