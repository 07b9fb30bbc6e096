package repository

import (
	"time"

	"promomarket/storefront-service/internal/app/storefront/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// SortSpec - два ключа сортировки, оба по убыванию.
// Порядок ключей у подборок разный и должен сохраняться.
type SortSpec struct {
	Primary   string
	Secondary string
}

var (
	SortByRating = SortSpec{Primary: "ratings", Secondary: "sold_out"}
	SortBySales  = SortSpec{Primary: "sold_out", Secondary: "ratings"}
)

func (s SortSpec) toBSON() bson.D {
	return bson.D{
		{Key: s.Primary, Value: -1},
		{Key: s.Secondary, Value: -1},
	}
}

// orderFilter переводит OrderFilter в предикат MongoDB.
// Владелец всегда входит в предикат, поэтому чужой заказ не попадает ни в одну выборку.
func orderFilter(f entity.OrderFilter) bson.M {
	filter := bson.M{"user._id": f.UserID}

	if f.Status != nil {
		filter["status"] = *f.Status
	}

	created := bson.M{}
	if f.Range != nil {
		created["$gte"] = f.Range.From
		created["$lte"] = f.Range.To
	}
	if f.Since != nil {
		if from, ok := created["$gte"].(time.Time); !ok || f.Since.After(from) {
			created["$gte"] = *f.Since
		}
	}
	if len(created) > 0 {
		filter["createdAt"] = created
	}

	return filter
}

func ownedOrderFilter(userID string, orderID primitive.ObjectID) bson.M {
	return bson.M{"_id": orderID, "user._id": userID}
}

// markReviewedFilter дополнительно требует строку с товаром, чтобы MatchedCount
// различал "нет такой строки" и "строка уже отмечена"
func markReviewedFilter(userID string, orderID, productID primitive.ObjectID) bson.M {
	return bson.M{"_id": orderID, "user._id": userID, "cart.product": productID}
}

func markReviewedUpdate() bson.M {
	return bson.M{"$set": bson.M{"cart.$[elem].isReviewed": true}}
}

func markReviewedArrayFilters(productID primitive.ObjectID) []interface{} {
	return []interface{}{bson.M{"elem.product": productID}}
}

// classifyCartSync определяет исход точечного обновления заказа
func classifyCartSync(matched, modified int64, orderExists bool) entity.CartSyncOutcome {
	switch {
	case modified > 0:
		return entity.CartSyncSynced
	case matched > 0:
		return entity.CartSyncAlreadyReviewed
	case orderExists:
		return entity.CartSyncNoMatchingLine
	default:
		return entity.CartSyncOrderNotFound
	}
}

func statusCountPipeline(userID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user._id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
}

func totalSpentPipeline(userID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user._id": userID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$totalPrice"}}}},
	}
}

// topOffersPipeline отбирает товары с корректной парой цен и считает процент скидки при чтении
func topOffersPipeline(limit int64) mongo.Pipeline {
	discount := bson.M{
		"$multiply": bson.A{
			bson.M{"$divide": bson.A{
				bson.M{"$subtract": bson.A{"$originalPrice", "$discountPrice"}},
				"$originalPrice",
			}},
			100,
		},
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"originalPrice": bson.M{"$exists": true, "$ne": nil, "$gt": 0},
			"discountPrice": bson.M{"$exists": true, "$ne": nil},
			"$expr":         bson.M{"$lte": bson.A{"$discountPrice", "$originalPrice"}},
		}}},
		{{Key: "$addFields", Value: bson.M{"discountPercentage": discount}}},
		{{Key: "$sort", Value: bson.D{{Key: "discountPercentage", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

func runningFilter(now time.Time) bson.M {
	return bson.M{
		"start_Date":  bson.M{"$lte": now},
		"Finish_Date": bson.M{"$gte": now},
		"status":      entity.EventStatusRunning,
	}
}

func latestFilter(q entity.LatestQuery) bson.M {
	filter := bson.M{}
	if q.ShopID != nil {
		filter["shopId"] = *q.ShopID
	}
	if q.CategoryID != nil {
		filter["category"] = *q.CategoryID
	}
	if q.Type != nil {
		filter["type"] = *q.Type
	}
	return filter
}

func summaryProjection(withDescription bool) bson.M {
	projection := bson.M{"name": 1, "images": 1, "discountPrice": 1}
	if withDescription {
		projection["description"] = 1
	}
	return projection
}
