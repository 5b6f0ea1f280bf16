package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int
	DBMinConns int

	EmbedderURL     string
	EmbeddingModel  string
	EmbedderTimeout time.Duration

	WebSearchURL     string
	WebSearchTimeout time.Duration
	WebSearchRPS     float64

	RerankerURL     string
	RerankerModel   string
	RerankerTimeout time.Duration

	// OverridesPath points at the optional YAML file with pipeline tuning
	// overrides; empty disables file-based overrides and hot reload.
	OverridesPath string

	CacheSize int
	CacheTTL  time.Duration

	AuthorityRefreshInterval time.Duration

	OTelEnabled bool
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),

		DBHost:     getEnv("DB_HOST", "planner-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "planner_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "planner_password"),
		DBName:     getEnv("DB_NAME", "planner_db"),
		DBMaxConns: getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns: getEnvInt("DB_MIN_CONNS", 2),

		EmbedderURL:     getEnv("EMBEDDER_URL", "http://embedder:11434"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "embeddinggemma"),
		EmbedderTimeout: getEnvDuration("EMBEDDER_TIMEOUT", 10*time.Second),

		WebSearchURL:     getEnv("WEB_SEARCH_URL", "http://websearch:8080"),
		WebSearchTimeout: getEnvDuration("WEB_SEARCH_TIMEOUT", 5*time.Second),
		WebSearchRPS:     getEnvFloat64("WEB_SEARCH_RPS", 5),

		RerankerURL:     getEnv("RERANKER_URL", "http://reranker:8001"),
		RerankerModel:   getEnv("RERANKER_MODEL", "bge-reranker-v2-m3"),
		RerankerTimeout: getEnvDuration("RERANKER_TIMEOUT", 10*time.Second),

		OverridesPath: getEnv("PIPELINE_OVERRIDES_PATH", ""),

		CacheSize: getEnvInt("RESPONSE_CACHE_SIZE", 256),
		CacheTTL:  getEnvDuration("RESPONSE_CACHE_TTL", 30*time.Second),

		AuthorityRefreshInterval: getEnvDuration("AUTHORITY_REFRESH_INTERVAL", 5*time.Minute),

		OTelEnabled: getEnvBool("OTEL_ENABLED", false),
	}
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
