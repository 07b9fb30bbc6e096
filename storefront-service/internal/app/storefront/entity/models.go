package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemKind определяет коллекцию, в которой лежит позиция каталога
type ItemKind string

const (
	ItemKindProduct ItemKind = "products"
	ItemKindEvent   ItemKind = "events"
)

func (k ItemKind) Valid() bool {
	return k == ItemKindProduct || k == ItemKindEvent
}

// EventStatusRunning - статус акции, идущей прямо сейчас
const EventStatusRunning = "Running"

type Image struct {
	URL string `json:"url" bson:"url"`
	Key string `json:"key,omitempty" bson:"key,omitempty"`
}

// CatalogItem - товар или промо-акция (event) продавца
// Рейтинг хранится и пересчитывается при записи отзыва, discountPercentage всегда считается при чтении
type CatalogItem struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Description   string             `json:"description,omitempty" bson:"description,omitempty"`
	ShopID        string             `json:"shopId,omitempty" bson:"shopId,omitempty"`
	Category      string             `json:"category,omitempty" bson:"category,omitempty"`
	Type          string             `json:"type,omitempty" bson:"type,omitempty"`
	OriginalPrice *float64           `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	DiscountPrice *float64           `json:"discountPrice,omitempty" bson:"discountPrice,omitempty"`
	Stock         int                `json:"stock" bson:"stock"`
	SoldOut       int                `json:"sold_out" bson:"sold_out"`
	Images        []Image            `json:"images,omitempty" bson:"images,omitempty"`
	Ratings       float64            `json:"ratings" bson:"ratings"`
	Reviews       []Review           `json:"reviews" bson:"reviews"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`

	// Только для акций
	StartDate  *time.Time `json:"start_Date,omitempty" bson:"start_Date,omitempty"`
	FinishDate *time.Time `json:"Finish_Date,omitempty" bson:"Finish_Date,omitempty"`
	Status     string     `json:"status,omitempty" bson:"status,omitempty"`

	// Вычисляется агрегацией TopOffers, в документе не хранится
	DiscountPercentage *float64 `json:"discountPercentage,omitempty" bson:"discountPercentage,omitempty"`
}

// RunningAt сообщает, идёт ли акция в момент now
func (i *CatalogItem) RunningAt(now time.Time) bool {
	if i.StartDate == nil || i.FinishDate == nil || i.Status != EventStatusRunning {
		return false
	}
	return !now.Before(*i.StartDate) && !now.After(*i.FinishDate)
}

// ReviewAuthor - снимок пользователя на момент отзыва
type ReviewAuthor struct {
	ID     string `json:"_id" bson:"_id"`
	Name   string `json:"name,omitempty" bson:"name,omitempty"`
	Avatar string `json:"avatar,omitempty" bson:"avatar,omitempty"`
}

// Review встроен в CatalogItem, на пару (позиция, пользователь) допускается не более одного
type Review struct {
	User      ReviewAuthor `json:"user" bson:"user"`
	Rating    int          `json:"rating" bson:"rating"`
	Comment   string       `json:"comment" bson:"comment"`
	ProductID string       `json:"productId" bson:"productId"`
	CreatedAt time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// OrderStatus - состояние заказа в workflow оформления
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipping   OrderStatus = "Shipping"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusRefunded   OrderStatus = "Refund Success"
)

type OrderUser struct {
	ID    string `json:"_id" bson:"_id"`
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
}

// CartItem - позиция заказа; isReviewed единственное поле заказа, которое меняет витрина
type CartItem struct {
	ProductID  primitive.ObjectID `json:"product" bson:"product"`
	Name       string             `json:"name,omitempty" bson:"name,omitempty"`
	Quantity   int                `json:"quantity" bson:"quantity"`
	Price      float64            `json:"price" bson:"price"`
	IsReviewed bool               `json:"isReviewed" bson:"isReviewed"`
}

type Order struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	User       OrderUser          `json:"user" bson:"user"`
	Cart       []CartItem         `json:"cart" bson:"cart"`
	Status     OrderStatus        `json:"status" bson:"status"`
	TotalPrice float64            `json:"totalPrice" bson:"totalPrice"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// ProductSummary - поля товара, подставляемые в позиции заказа при чтении
type ProductSummary struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Name        string             `json:"name" bson:"name"`
	Images      []Image            `json:"images" bson:"images"`
	Price       *float64           `json:"price,omitempty" bson:"discountPrice,omitempty"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
}

// StatusCount - результат группировки заказов по статусу
type StatusCount struct {
	Status string `bson:"_id"`
	Count  int64  `bson:"count"`
}

// CartSyncOutcome - чем закончилась простановка isReviewed в заказе
type CartSyncOutcome string

const (
	CartSyncSynced          CartSyncOutcome = "synced"
	CartSyncAlreadyReviewed CartSyncOutcome = "already_reviewed"
	CartSyncNoMatchingLine  CartSyncOutcome = "no_matching_line"
	CartSyncOrderNotFound   CartSyncOutcome = "order_not_found"
	CartSyncFailed          CartSyncOutcome = "failed"

	// CartSyncSkipped - пересинхронизация не трогала заказ, так как отзыва пользователя нет
	CartSyncSkipped CartSyncOutcome = "skipped"
)

// CartSyncResult возвращается репозиторием заказов после точечного обновления cart.$[elem]
type CartSyncResult struct {
	Outcome      CartSyncOutcome `json:"outcome"`
	LinesUpdated int64           `json:"lines_updated"`
}
