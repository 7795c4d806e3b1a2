// Package config loads runtime settings from the environment. A .env file in
// the working directory is read first when present; real environment
// variables always win.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Env        string
	Port       string
	LogLevel   slog.Level
	CORSOrigin string

	DB DBConfig

	RedisURL    string
	CheckoutTTL time.Duration

	AMQPURL string

	StripeSecretKey string
	Currency        string

	JWTSecret string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// Load reads the configuration, falling back to local-development defaults.
func Load() Config {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	return Config{
		Env:        getEnv("APP_ENV", "development"),
		Port:       getEnv("PORT", "8080"),
		LogLevel:   parseLevel(getEnv("LOG_LEVEL", "info")),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),

		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "basa"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
		},

		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CheckoutTTL: getEnvDuration("CHECKOUT_TTL", 24*time.Hour),

		AMQPURL: getEnv("AMQP_URL", ""),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		Currency:        strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),

		JWTSecret: getEnv("JWT_SECRET", ""),

		ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// IsProduction reports whether the server runs with APP_ENV=production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
