package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит настройки API и воркера витрины.
// Оба бинарника читают одну структуру и используют нужные им секции.
type Config struct {
	Server   ServerConfig
	Worker   WorkerConfig
	MongoDB  MongoDBConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Sweep    SweepConfig
}

type ServerConfig struct {
	Host            string        // Адрес хоста (по умолчанию 0.0.0.0)
	Port            string        // Порт API (по умолчанию 8084)
	ShutdownTimeout time.Duration // Время на graceful shutdown
}

// WorkerConfig - порт health/metrics сервера воркера
type WorkerConfig struct {
	HealthPort string
}

type MongoDBConfig struct {
	URI      string // URI подключения к MongoDB
	Database string // База с коллекциями products, events, orders
}

// DatabaseConfig - PostgreSQL для журнала пересинхронизаций
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - Redis для drift store
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers  []string // Список брокеров Kafka (формат: host:port, через запятую)
	Topic    string   // Топик событий REVIEW_SUBMITTED
	GroupID  string   // Группа потребителей воркера
	MinBytes int
	MaxBytes int
}

type JWTConfig struct {
	Secret string // Должен совпадать с секретом сервиса авторизации
}

type CORSConfig struct {
	AllowOrigins []string
}

type SweepConfig struct {
	Schedule  string // Cron выражение с секундами
	BatchSize int64  // Сколько drift записей обрабатывать за один прогон
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	batchSize := getEnvInt("SWEEP_BATCH_SIZE", 100)
	if batchSize <= 0 {
		return nil, fmt.Errorf("SWEEP_BATCH_SIZE must be positive, got %d", batchSize)
	}

	brokers := getEnvList("KAFKA_BROKERS", []string{"localhost:9092"})
	if len(brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}

	return &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8084"),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Worker: WorkerConfig{
			HealthPort: getEnv("WORKER_HEALTH_PORT", "8085"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "storefront"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "storefront_ledger"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 3),
		},
		Kafka: KafkaConfig{
			Brokers:  brokers,
			Topic:    getEnv("KAFKA_TOPIC", "review_events"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "storefront-worker-group"),
			MinBytes: getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes: getEnvInt("KAFKA_MAX_BYTES", 10e6),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnvList("CORS_ALLOW_ORIGINS", nil),
		},
		Sweep: SweepConfig{
			// По умолчанию каждые 5 минут
			Schedule:  getEnv("SWEEP_SCHEDULE", "0 */5 * * * *"),
			BatchSize: int64(batchSize),
		},
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *WorkerConfig) Address() string {
	return ":" + c.HealthPort
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration принимает формат time.ParseDuration ("30s", "1m")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList разбирает список через запятую, пустые элементы отбрасываются
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
