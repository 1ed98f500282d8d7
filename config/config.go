package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Broker kinds selectable via BROKER_KIND.
const (
	BrokerMemory   = "memory"
	BrokerRabbitMQ = "rabbitmq"
	BrokerPubSub   = "pubsub"
)

// Storage kinds selectable via STORAGE_KIND.
const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageGCS   = "gcs"
)

type Config struct {
	ServerPort int
	Database   DatabaseConfig
	Broker     BrokerConfig
	Storage    StorageConfig
	QR         QRConfig
	Winner     WinnerConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// BrokerConfig selects and configures the change-feed transport.
type BrokerConfig struct {
	Kind     string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// StorageConfig selects and configures where QR artifacts are kept.
type StorageConfig struct {
	Kind     string
	LocalDir string
	Minio    MinioConfig
	GCS      GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	ProjectID       string
	Bucket          string
	CredentialsFile string
}

// QRConfig configures the external QR rendering service.
type QRConfig struct {
	BaseURL string
	Size    string
	Timeout time.Duration
}

// WinnerConfig configures the periodic winner-selection job.
// The job is opt-in: it only runs when Enabled is set.
type WinnerConfig struct {
	Enabled  bool
	Interval time.Duration
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "pointsboard"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "pointsboard_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	brokerConfig := BrokerConfig{
		Kind: getEnv("BROKER_KIND", BrokerMemory),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 1),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
	}

	storageConfig := StorageConfig{
		Kind:     getEnv("STORAGE_KIND", StorageLocal),
		LocalDir: getEnv("STORAGE_LOCAL_DIR", "qr_codes"),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "qr-codes"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			Bucket:          getEnv("GCS_BUCKET", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}

	qrConfig := QRConfig{
		BaseURL: getEnv("QR_SERVICE_URL", "https://api.qrserver.com/v1/create-qr-code/"),
		Size:    getEnv("QR_SIZE", "150x150"),
		Timeout: getEnvDuration("QR_TIMEOUT", 10*time.Second),
	}

	winnerConfig := WinnerConfig{
		Enabled:  getEnvBool("WINNER_JOB_ENABLED", false),
		Interval: getEnvDuration("WINNER_JOB_INTERVAL", 10*time.Second),
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database:   dbConfig,
		Broker:     brokerConfig,
		Storage:    storageConfig,
		QR:         qrConfig,
		Winner:     winnerConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(valueStr)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
