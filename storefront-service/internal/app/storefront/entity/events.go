package entity

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	EventTypeReviewSubmitted = "REVIEW_SUBMITTED"

	driftKeySeparator = ":"
)

// ReviewEvent публикуется в Kafka после записи отзыва
type ReviewEvent struct {
	EventType string          `json:"event_type"`
	Kind      ItemKind        `json:"kind"`
	ProductID string          `json:"product_id"`
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	Rating    int             `json:"rating"`
	Ratings   float64         `json:"ratings"`
	OrderSync CartSyncOutcome `json:"order_sync"`
	Timestamp time.Time       `json:"timestamp"`
}

// DriftEntry - тройка (позиция, заказ, пользователь), для которой флаг заказа не удалось проставить
type DriftEntry struct {
	Kind      ItemKind
	ProductID string
	OrderID   string
	UserID    string
}

// Key сериализует запись для хранения в Redis set. Поля экранируются,
// так как user_id из токена может сам содержать ':' (например "auth0:123").
func (d DriftEntry) Key() string {
	fields := []string{string(d.Kind), d.ProductID, d.OrderID, d.UserID}
	for i, f := range fields {
		fields[i] = url.QueryEscape(f)
	}
	return strings.Join(fields, driftKeySeparator)
}

// ParseDriftEntry разбирает значение, записанное Key
func ParseDriftEntry(raw string) (DriftEntry, error) {
	parts := strings.Split(raw, driftKeySeparator)
	if len(parts) != 4 {
		return DriftEntry{}, fmt.Errorf("malformed drift entry %q", raw)
	}
	for i, p := range parts {
		unescaped, err := url.QueryUnescape(p)
		if err != nil {
			return DriftEntry{}, fmt.Errorf("malformed drift entry %q: %w", raw, err)
		}
		parts[i] = unescaped
	}
	entry := DriftEntry{Kind: ItemKind(parts[0]), ProductID: parts[1], OrderID: parts[2], UserID: parts[3]}
	if !entry.Kind.Valid() || entry.ProductID == "" || entry.OrderID == "" || entry.UserID == "" {
		return DriftEntry{}, fmt.Errorf("malformed drift entry %q", raw)
	}
	return entry, nil
}

func (d DriftEntry) ResyncInput() ResyncInput {
	return ResyncInput{Kind: d.Kind, ProductID: d.ProductID, OrderID: d.OrderID, UserID: d.UserID}
}
