package metrics

import (
	"time"
)

const (
	StoreMongo    = "mongodb"
	StorePostgres = "postgres"
)

type RedisOperation string

const (
	RedisOpSAdd     RedisOperation = "sadd"
	RedisOpSRem     RedisOperation = "srem"
	RedisOpSMembers RedisOperation = "smembers"
	RedisOpSCard    RedisOperation = "scard"
)

type RedisTimer struct {
	service   string
	operation RedisOperation
	start     time.Time
}

func NewRedisTimer(service string, op RedisOperation) *RedisTimer {
	return &RedisTimer{
		service:   service,
		operation: op,
		start:     time.Now(),
	}
}

func (rt *RedisTimer) ObserveDuration() {
	RedisOperationDuration.WithLabelValues(rt.service, string(rt.operation)).Observe(time.Since(rt.start).Seconds())
}

func RecordRedisError(service string, op RedisOperation) {
	RedisErrors.WithLabelValues(service, string(op)).Inc()
}

func RecordKafkaMessageProduced(service, topic string, duration time.Duration) {
	KafkaMessagesProduced.WithLabelValues(service, topic).Inc()
	KafkaProduceDuration.WithLabelValues(service, topic).Observe(duration.Seconds())
}

func RecordKafkaMessageConsumed(service, topic, group string, processingDuration time.Duration) {
	KafkaMessagesConsumed.WithLabelValues(service, topic, group).Inc()
	KafkaConsumeDuration.WithLabelValues(service, topic).Observe(processingDuration.Seconds())
}

func RecordKafkaError(service, topic, operation string) {
	KafkaErrors.WithLabelValues(service, topic, operation).Inc()
}

type KafkaProduceTimer struct {
	service string
	topic   string
	start   time.Time
}

func NewKafkaProduceTimer(service, topic string) *KafkaProduceTimer {
	return &KafkaProduceTimer{
		service: service,
		topic:   topic,
		start:   time.Now(),
	}
}

func (kt *KafkaProduceTimer) Success() {
	RecordKafkaMessageProduced(kt.service, kt.topic, time.Since(kt.start))
}

func (kt *KafkaProduceTimer) Error() {
	RecordKafkaError(kt.service, kt.topic, "produce")
}

type DbOperation string

const (
	DbOpFind      DbOperation = "find"
	DbOpAggregate DbOperation = "aggregate"
	DbOpCount     DbOperation = "count"
	DbOpUpdate    DbOperation = "update"
	DbOpInsert    DbOperation = "insert"
)

// DbTimer замеряет длительность одного запроса к коллекции или таблице
type DbTimer struct {
	service    string
	store      string
	operation  DbOperation
	collection string
	start      time.Time
}

func NewDbTimer(service, store string, op DbOperation, collection string) *DbTimer {
	return &DbTimer{
		service:    service,
		store:      store,
		operation:  op,
		collection: collection,
		start:      time.Now(),
	}
}

func (dt *DbTimer) ObserveDuration() {
	DbQueryDuration.WithLabelValues(dt.service, dt.store, string(dt.operation), dt.collection).Observe(time.Since(dt.start).Seconds())
}

// Done фиксирует длительность и, при ошибке, увеличивает счётчик ошибок
func (dt *DbTimer) Done(err error) {
	dt.ObserveDuration()
	if err != nil {
		DbErrors.WithLabelValues(dt.service, dt.store, string(dt.operation)).Inc()
	}
}

// ObserveAnalytics записывает длительность аналитического запроса
func ObserveAnalytics(query string, start time.Time) {
	AnalyticsQueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
