package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"promomarket/pkg/logger"
	"promomarket/pkg/metrics"
	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/service"

	"github.com/segmentio/kafka-go"
)

const metricsService = "storefront-worker"

// KafkaConsumer читает события из топика review_events и запускает пересинхронизацию
// для отзывов, у которых не удалось проставить флаг в заказе
type KafkaConsumer struct {
	reader   *kafka.Reader
	runner   service.ResyncRunnerInterface
	topic    string
	groupID  string
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	runner service.ResyncRunnerInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
		ErrorLogger:    logger.ErrorPrintf("kafka_consumer"),
	})

	return &KafkaConsumer{
		reader:   reader,
		runner:   runner,
		topic:    topic,
		groupID:  groupID,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("Starting Kafka consumer")
	go c.consume(ctx)
}

func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer")
	close(c.stopChan)
	<-c.doneChan
	if err := c.reader.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close Kafka reader")
	}
	logger.Info().Msg("Kafka consumer stopped")
}

func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// Таймаут чтения на пустом топике не ошибка
				if readCtx.Err() == context.DeadlineExceeded {
					continue
				}

				logger.Error().Err(err).Msg("Error fetching message")
				metrics.RecordKafkaError(metricsService, c.topic, "fetch")
				time.Sleep(time.Second)
				continue
			}

			start := time.Now()
			if err := c.processMessage(ctx, message); err != nil {
				// Offset не коммитим, но reader уже ушел вперед и в этой сессии сообщение не вернется.
				// Несинхронизированная пара остается в drift store, ее доберет cron sweeper.
				logger.Error().
					Err(err).
					Int64("offset", message.Offset).
					Int("partition", message.Partition).
					Msg("Error processing message")
				metrics.RecordKafkaError(metricsService, c.topic, "process")
				continue
			}
			metrics.RecordKafkaMessageConsumed(metricsService, c.topic, c.groupID, time.Since(start))

			if err := c.reader.CommitMessages(ctx, message); err != nil {
				logger.Error().Err(err).Msg("Error committing message")
				metrics.RecordKafkaError(metricsService, c.topic, "commit")
			}
		}
	}
}

// processMessage обрабатывает одно событие. Отзывы с успешно проставленным флагом
// только логируются; для order_sync=failed запускается Resync.
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ReviewEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal review event: %w", err)
	}

	if event.EventType != entity.EventTypeReviewSubmitted {
		logger.Debug().Str("event_type", event.EventType).Msg("Skipping unknown event type")
		return nil
	}

	logger.Debug().
		Str("product_id", event.ProductID).
		Str("order_id", event.OrderID).
		Str("order_sync", string(event.OrderSync)).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received review event")

	if event.OrderSync != entity.CartSyncFailed {
		return nil
	}

	_, err := c.runner.Run(ctx, entity.ResyncSourceEvent, entity.ResyncInput{
		Kind:      event.Kind,
		ProductID: event.ProductID,
		OrderID:   event.OrderID,
		UserID:    event.UserID,
	})
	if err != nil && service.KindOf(err) == service.KindInternal {
		return fmt.Errorf("failed to resync review: %w", err)
	}

	return nil
}

func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}
