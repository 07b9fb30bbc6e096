package repository

import (
	"context"
	"testing"

	"promomarket/storefront-service/internal/app/storefront/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// Ответы mock-деплоймента отдаются строго по очереди, поэтому
// первым в каждом подтесте идет ответ на создание индексов в конструкторе.

func updateResponse(matched, modified int32) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: modified},
	)
}

func countResponse(ns string, count int32) bson.D {
	if count == 0 {
		return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: count}})
}

func TestCatalogRepository_SaveReviews(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	reviews := []entity.Review{{Rating: 4, Comment: "ok"}}

	mt.Run("unknown item", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewCatalogRepository(mt.DB, entity.ItemKindProduct)

		mt.AddMockResponses(updateResponse(0, 0))

		err := repo.SaveReviews(context.Background(), primitive.NewObjectID(), reviews, 4)

		assert.ErrorIs(mt, err, ErrItemNotFound)
	})

	mt.Run("matched item", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewCatalogRepository(mt.DB, entity.ItemKindEvent)

		mt.AddMockResponses(updateResponse(1, 1))

		err := repo.SaveReviews(context.Background(), primitive.NewObjectID(), reviews, 4)

		assert.NoError(mt, err)
	})

	mt.Run("same ratings rewritten", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewCatalogRepository(mt.DB, entity.ItemKindProduct)

		mt.AddMockResponses(updateResponse(1, 0))

		err := repo.SaveReviews(context.Background(), primitive.NewObjectID(), nil, 0)

		assert.NoError(mt, err)
	})
}

func TestOrderRepository_MarkReviewed(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	tests := []struct {
		name      string
		responses func(ns string) []bson.D
		want      entity.CartSyncOutcome
		lines     int64
	}{
		{
			name: "line updated",
			responses: func(string) []bson.D {
				return []bson.D{updateResponse(1, 1)}
			},
			want:  entity.CartSyncSynced,
			lines: 1,
		},
		{
			name: "line already reviewed",
			responses: func(string) []bson.D {
				return []bson.D{updateResponse(1, 0)}
			},
			want: entity.CartSyncAlreadyReviewed,
		},
		{
			name: "owned order without the product",
			responses: func(ns string) []bson.D {
				return []bson.D{updateResponse(0, 0), countResponse(ns, 1)}
			},
			want: entity.CartSyncNoMatchingLine,
		},
		{
			name: "missing or foreign order",
			responses: func(ns string) []bson.D {
				return []bson.D{updateResponse(0, 0), countResponse(ns, 0)}
			},
			want: entity.CartSyncOrderNotFound,
		},
	}

	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			mt.AddMockResponses(mtest.CreateSuccessResponse())
			repo := NewOrderRepository(mt.DB)

			ns := mt.DB.Name() + "." + ordersCollection
			mt.AddMockResponses(tt.responses(ns)...)

			result, err := repo.MarkReviewed(context.Background(), "u1", primitive.NewObjectID(), primitive.NewObjectID())

			require.NoError(mt, err)
			assert.Equal(mt, tt.want, result.Outcome)
			assert.Equal(mt, tt.lines, result.LinesUpdated)
		})
	}

	mt.Run("ownership count fails", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewOrderRepository(mt.DB)

		mt.AddMockResponses(updateResponse(0, 0), mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad pipeline",
			Name:    "BadValue",
		}))

		result, err := repo.MarkReviewed(context.Background(), "u1", primitive.NewObjectID(), primitive.NewObjectID())

		assert.Error(mt, err)
		assert.Nil(mt, result)
	})
}

func TestOrderRepository_SumTotalPrice(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no delivered orders", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewOrderRepository(mt.DB)

		ns := mt.DB.Name() + "." + ordersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		total, err := repo.SumTotalPrice(context.Background(), "u1")

		assert.NoError(mt, err)
		assert.Nil(mt, total)
	})

	mt.Run("delivered orders summed", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewOrderRepository(mt.DB)

		ns := mt.DB.Name() + "." + ordersCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: nil}, {Key: "total", Value: 129.5}},
		))

		total, err := repo.SumTotalPrice(context.Background(), "u1")

		require.NoError(mt, err)
		require.NotNil(mt, total)
		assert.Equal(mt, 129.5, *total)
	})
}
