package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Funnel   FunnelConfig
	Session  SessionConfig
	Credits  CreditsConfig
	Payment  PaymentConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	DocumentTopic      string
}

type DatabaseConfig struct {
	Connection      string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
}

type APIKeys struct {
	GoogleGemini      string
	RapidAPI          string
	AliExpressAppKey  string
	AliExpressSecret  string
	AliExpressToken   string
	AliExpressURL     string
	CJDropshipping    string
	CJDropshippingURL string
	SerpApi           string
	MidtransServerKey string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	EmbeddingModel    string
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "gemini" or "ollama"
	LLMModel          string
	VisionModel       string
}

type FunnelConfig struct {
	Providers     []string // aliexpress, openservice-aliexpress, cj, serpapi
	PageSize      int
	ShipTo        string
	SortBy        string
	SourceTimeout time.Duration
	MaxRetries    int
	CacheBackend  string // "memory", "redis" or "none"
	CacheTTL      time.Duration
	VisionEnabled bool
}

type SessionConfig struct {
	ReapInterval time.Duration
	MaxAge       time.Duration
}

type CreditsConfig struct {
	SearchCost int
	Free       int
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

type PaymentConfig struct {
	IsProduction bool
	FinishURL    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			DocumentTopic:      getEnv("INDEX_DOCUMENT_TOPIC_NAME", "INDEX_DOCUMENT"),
		},
		Database: DatabaseConfig{
			Connection:      getEnv("DB_CONNECTION_STRING", ""),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogSQL:          getEnvAsBool("DB_LOG_SQL", false),
		},
		Keys: APIKeys{
			GoogleGemini:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			RapidAPI:          getEnv("RAPIDAPI_KEY", ""),
			AliExpressAppKey:  getEnv("ALIEXPRESS_APP_KEY", ""),
			AliExpressSecret:  getEnv("ALIEXPRESS_APP_SECRET", ""),
			AliExpressToken:   getEnv("ALIEXPRESS_ACCESS_TOKEN", ""),
			AliExpressURL:     getEnv("ALIEXPRESS_API_URL", ""),
			CJDropshipping:    getEnv("CJ_DROPSHIPPING_API_KEY", ""),
			CJDropshippingURL: getEnv("CJ_DROPSHIPPING_API_URL", "https://api.cjdropshipping.com"),
			SerpApi:           getEnv("SERPAPI_KEY", ""),
			MidtransServerKey: getEnv("MIDTRANS_SERVER_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-004"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:          getEnv("LLM_MODEL", "gemini-2.5-flash"),
			VisionModel:       getEnv("VISION_MODEL", "gemini-2.5-flash"),
		},
		Funnel: FunnelConfig{
			Providers:     getEnvAsList("DROPSHIPPING_API_PROVIDER", []string{"aliexpress"}),
			PageSize:      getEnvAsInt("DROPSHIPPING_PAGE_SIZE", 50),
			ShipTo:        getEnv("DROPSHIPPING_SHIP_TO", "US"),
			SortBy:        getEnv("DROPSHIPPING_SORT_BY", "ORDERS_DESC"),
			SourceTimeout: getEnvAsDuration("DROPSHIPPING_SOURCE_TIMEOUT", 15*time.Second),
			MaxRetries:    getEnvAsInt("DROPSHIPPING_MAX_RETRIES", 3),
			CacheBackend:  getEnv("DROPSHIPPING_CACHE", "memory"),
			CacheTTL:      getEnvAsDuration("DROPSHIPPING_CACHE_TTL", 10*time.Minute),
			VisionEnabled: getEnvAsBool("VISION_CHECK_ENABLED", true),
		},
		Session: SessionConfig{
			ReapInterval: getEnvAsDuration("SESSION_REAP_INTERVAL", 30*time.Second),
			MaxAge:       getEnvAsDuration("SESSION_MAX_AGE", 30*time.Minute),
		},
		Credits: CreditsConfig{
			SearchCost: getEnvAsInt("CREDITS_SEARCH_COST", 1),
			Free:       getEnvAsInt("CREDITS_FREE", 3),
		},
		Payment: PaymentConfig{
			IsProduction: getEnvAsBool("MIDTRANS_IS_PRODUCTION", false),
			FinishURL:    getEnv("PAYMENT_FINISH_URL", "http://localhost:5173/orders?payment=success"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "desirefinder-backend"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value, e.g. "aliexpress,cj".
func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
