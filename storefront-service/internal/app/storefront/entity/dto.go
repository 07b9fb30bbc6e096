package entity

// SubmitReviewRequest - тело PUT /events/reviews и /products/reviews.
// Автор отзыва берется из токена, а не из тела.
type SubmitReviewRequest struct {
	ProductID string `json:"productId" validate:"required,len=24,hexadecimal"`
	OrderID   string `json:"orderId" validate:"required,len=24,hexadecimal"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// ResyncRequest - ручной запуск пересинхронизации оператором
type ResyncRequest struct {
	Kind      ItemKind `json:"kind" validate:"omitempty,oneof=products events"`
	ProductID string   `json:"productId" validate:"required,len=24,hexadecimal"`
	OrderID   string   `json:"orderId" validate:"required,len=24,hexadecimal"`
	UserID    string   `json:"userId" validate:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type CatalogListResponse struct {
	Products []CatalogItem `json:"products"`
}

type EventListResponse struct {
	Events []CatalogItem `json:"events"`
}

type RunListResponse struct {
	Runs  []ReconciliationRun `json:"runs"`
	Total int                 `json:"total"`
}
