package config

import (
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	HTTPPort        string
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSchema   string

	MigrationsPath string

	// JWTSecret signs session tokens; injected at startup, never read
	// again from the environment after Load.
	JWTSecret     string
	TokenTTL      time.Duration
	BCryptCost    int

	GatewayBaseURL string
	GatewayAPIKey  string
	WebhookSecret  string
	SuccessURL     string
	CancelURL      string

	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		AllowedOrigins:  []string{getEnv("ALLOWED_ORIGIN", "*")},
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DBHost:     getEnv("TERRA_DB_HOST", "localhost"),
		DBPort:     getEnv("TERRA_DB_PORT", "5432"),
		DBUser:     getEnv("TERRA_DB_USERNAME", "postgres"),
		DBPassword: getEnv("TERRA_DB_PASSWORD", "postgres"),
		DBName:     getEnv("TERRA_DB_DATABASE", "terra"),
		DBSchema:   getEnv("TERRA_DB_SCHEMA", "public"),

		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		JWTSecret:  getEnv("JWT_SECRET", "change_this_secret"),
		TokenTTL:   getDuration("TOKEN_TTL", 7*24*time.Hour),
		BCryptCost: 10,

		GatewayBaseURL: getEnv("GATEWAY_BASE_URL", "https://pay.example.com"),
		GatewayAPIKey:  getEnv("GATEWAY_API_KEY", ""),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
		SuccessURL:     getEnv("SUCCESS_URL", "https://example.com/success"),
		CancelURL:      getEnv("CANCEL_URL", "https://example.com/cancel"),

		ReconcileInterval: getDuration("RECONCILE_INTERVAL", time.Minute),
		ReconcileAfter:    getDuration("RECONCILE_AFTER", 15*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
