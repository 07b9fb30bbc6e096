package infrastructure

import (
	"context"

	"promomarket/storefront-service/internal/app/storefront/entity"
)

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
// Используется для dependency injection и упрощения тестирования
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// DriftStore хранит тройки, для которых флаг isReviewed в заказе не удалось проставить
type DriftStore interface {
	Record(ctx context.Context, entry entity.DriftEntry) error
	Pending(ctx context.Context, limit int64) ([]entity.DriftEntry, error)
	Resolve(ctx context.Context, entry entity.DriftEntry) error
	Size(ctx context.Context) (int64, error)
}
