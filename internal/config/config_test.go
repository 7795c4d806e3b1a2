package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CHECKOUT_TTL", "")
	t.Setenv("PAYMENT_CURRENCY", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.CheckoutTTL)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, int32(20), cfg.DB.MaxConns)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CHECKOUT_TTL", "45m")
	t.Setenv("PAYMENT_CURRENCY", "CAD")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_MAX_CONNS", "5")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 45*time.Minute, cfg.CheckoutTTL)
	assert.Equal(t, "cad", cfg.Currency)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, int32(5), cfg.DB.MaxConns)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("CHECKOUT_TTL", "soon")
	t.Setenv("DB_MAX_CONNS", "many")
	t.Setenv("LOG_LEVEL", "chatty")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.CheckoutTTL)
	assert.Equal(t, int32(20), cfg.DB.MaxConns)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}
