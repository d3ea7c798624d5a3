package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// QdrantConfig holds settings for the Qdrant vector index.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// EmbeddingConfig holds settings for the embedding model endpoint.
// Model identifies the embedding space; index and query embeddings must come
// from the same model.
type EmbeddingConfig struct {
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// GenerativeConfig holds settings for the text-generation model endpoint.
type GenerativeConfig struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// ExtractorConfig holds settings for text extraction. When OCREndpoint is set
// the async OCR service is used; otherwise extraction runs in-process.
type ExtractorConfig struct {
	OCREndpoint  string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// PipelineConfig holds tunables for ingestion and retrieval.
type PipelineConfig struct {
	MaxCharsPerChunk int
	TopK             int
	MinScore         float64
	MaxAttempts      int
	RetryBackoff     time.Duration
	Workers          int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost    string
	Port       string
	Database   DatabaseConfig
	MinIO      MinIOConfig
	Qdrant     QdrantConfig
	Embedding  EmbeddingConfig
	Generative GenerativeConfig
	Extractor  ExtractorConfig
	Pipeline   PipelineConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", ""),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "warranty_chunks"),
			Timeout:    getEnvDuration("QDRANT_TIMEOUT", 15*time.Second),
		},
		Embedding: EmbeddingConfig{
			BaseURL:    getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"),
			Model:      getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", 768),
			Timeout:    getEnvDuration("EMBEDDING_TIMEOUT", 30*time.Second),
		},
		Generative: GenerativeConfig{
			BaseURL:     getEnv("GENERATIVE_BASE_URL", "http://localhost:11434"),
			Model:       getEnv("GENERATIVE_MODEL", "mistral"),
			MaxTokens:   getEnvInt("GENERATIVE_MAX_TOKENS", 512),
			Temperature: getEnvFloat("GENERATIVE_TEMPERATURE", 0.2),
			Timeout:     getEnvDuration("GENERATIVE_TIMEOUT", 120*time.Second),
		},
		Extractor: ExtractorConfig{
			OCREndpoint:  getEnv("OCR_ENDPOINT", ""),
			PollInterval: getEnvDuration("OCR_POLL_INTERVAL", 2*time.Second),
			PollTimeout:  getEnvDuration("OCR_POLL_TIMEOUT", 2*time.Minute),
		},
		Pipeline: PipelineConfig{
			MaxCharsPerChunk: getEnvInt("PIPELINE_MAX_CHARS_PER_CHUNK", 4096),
			TopK:             getEnvInt("PIPELINE_TOP_K", 1),
			MinScore:         getEnvFloat("PIPELINE_MIN_SCORE", 0),
			MaxAttempts:      getEnvInt("PIPELINE_MAX_ATTEMPTS", 3),
			RetryBackoff:     getEnvDuration("PIPELINE_RETRY_BACKOFF", 5*time.Second),
			Workers:          getEnvInt("PIPELINE_WORKERS", 2),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
