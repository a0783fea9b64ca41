package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	ServiceName string
	HTTPPort    string
	APIBasePath string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret             string
	AccessTokenTTL        time.Duration
	RefreshTokenTTL       time.Duration
	BlacklistMinRetention time.Duration

	RefreshTokenKeyPrefix string
	BlacklistKeyPrefix    string
	CacheKeyPrefix        string
	ResponseCacheTTL      time.Duration
	ProviderCacheTTL      time.Duration

	// PublicPaths lists exact request paths the authentication gate lets
	// through without a bearer token.
	PublicPaths []string

	ProviderBaseURL  string
	ProviderSecretID string
	ProviderSecret   string

	BankDefaultUsername       string
	BankDefaultPassword       string
	EmploymentDefaultDocument string
	EmploymentDefaultEmail    string
	EmploymentDefaultPassword string
	FiscalDefaultRFC          string
	FiscalDefaultPassword     string

	RateLimitRPM      int
	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	basePath := getEnv("API_BASE_PATH", "/api/v1")

	cfg := Config{
		Environment: getEnv("APP_ENV", "development"),
		ServiceName: getEnv("SERVICE_NAME", "bancora-api"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		APIBasePath: basePath,

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		JWTSecret:             os.Getenv("JWT_SECRET_KEY"),
		AccessTokenTTL:        getDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL:       getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		BlacklistMinRetention: getDuration("BLACKLIST_MIN_RETENTION", time.Hour),

		RefreshTokenKeyPrefix: getEnv("REDIS_REFRESH_TOKEN_KEY_PREFIX", "refresh_tokens:"),
		BlacklistKeyPrefix:    getEnv("REDIS_BLACKLIST_KEY_PREFIX", "blacklist:"),
		CacheKeyPrefix:        getEnv("REDIS_CACHE_KEY_PREFIX", "cache:"),
		ResponseCacheTTL:      getDuration("RESPONSE_CACHE_TTL", 5*time.Minute),
		ProviderCacheTTL:      getDuration("PROVIDER_CACHE_TTL", 5*time.Minute),

		PublicPaths: getList("PUBLIC_PATHS", []string{
			"/",
			basePath + "/auth/login",
			basePath + "/auth/register",
			basePath + "/auth/refresh",
			basePath + "/auth/logout",
		}),

		ProviderBaseURL:  getEnv("PROVIDER_API_URL", "https://sandbox.belvo.com"),
		ProviderSecretID: os.Getenv("PROVIDER_SECRET_ID"),
		ProviderSecret:   os.Getenv("PROVIDER_SECRET_PASSWORD"),

		BankDefaultUsername:       getEnv("BANK_DEFAULT_USERNAME", "user123"),
		BankDefaultPassword:       getEnv("BANK_DEFAULT_PASSWORD", "pass123"),
		EmploymentDefaultDocument: getEnv("EMPLOYMENT_DEFAULT_DOCUMENT", "BLPM951331IONVGR54"),
		EmploymentDefaultEmail:    getEnv("EMPLOYMENT_DEFAULT_EMAIL", "default@example.com"),
		EmploymentDefaultPassword: getEnv("EMPLOYMENT_DEFAULT_PASSWORD", "pass123"),
		FiscalDefaultRFC:          getEnv("FISCAL_DEFAULT_RFC", "XAXX010101000"),
		FiscalDefaultPassword:     getEnv("FISCAL_DEFAULT_PASSWORD", "pass123"),

		RateLimitRPM:      getInt("RATE_LIMIT_RPM", 600),
		TelemetryEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.BlacklistMinRetention <= 0 {
		cfg.BlacklistMinRetention = time.Hour
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
