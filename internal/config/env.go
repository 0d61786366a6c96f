package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ContentDatabaseURL string
	CatalogDatabaseURL string
	RedisURL           string

	// Object storage (S3-compatible; an R2 account id implies a custom endpoint).
	StorageAccessKey string
	StorageSecretKey string
	StorageRegion    string
	StorageEndpoint  string
	BucketName       string

	AIAPIKey      string
	EmbedModel    string
	EmbedDim      int
	EmbedVersion  string
	EmbedProvider string

	ChunkSize    int
	ChunkOverlap int

	Env     string
	Port    string
	Workers int
}

// LoadConfig loads the environment variables and returns the config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		ContentDatabaseURL: getEnv("DATABASE_URL", ""),
		CatalogDatabaseURL: getEnv("CATALOG_DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		StorageAccessKey:   getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey:   getEnv("STORAGE_SECRET_KEY", ""),
		StorageRegion:      getEnv("STORAGE_REGION", "auto"),
		StorageEndpoint:    getEnv("STORAGE_ENDPOINT", ""),
		BucketName:         getEnv("BUCKET_NAME", "botforge-sources"),
		AIAPIKey:           getEnv("GEMINI_API_KEY", ""),
		EmbedModel:         getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:           getEnvInt("EMBED_DIM", 1536),
		EmbedVersion:       getEnv("EMBED_VERSION", "v1.0.0"),
		EmbedProvider:      getEnv("EMBED_PROVIDER", "gemini"),
		ChunkSize:          getEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap:       getEnvInt("CHUNK_OVERLAP", 100),
		Env:                getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		Workers:            getEnvInt("WORKERS", 2),
	}

	if cfg.ContentDatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	if cfg.CatalogDatabaseURL == "" {
		log.Fatal("CATALOG_DATABASE_URL not set")
	}

	return cfg
}

// StorageProvider reports which backend the storage credentials target. A
// custom endpoint means R2; otherwise plain S3.
func (c *Config) StorageProvider() string {
	if c.StorageEndpoint != "" {
		return "r2"
	}
	return "s3"
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
