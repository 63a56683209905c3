package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "25", cfg.Business.CODFee.String())
	assert.Equal(t, "500", cfg.Business.FreeShippingThreshold.String())
	assert.Equal(t, "50", cfg.Business.ShippingFee.String())
	assert.Equal(t, 7, cfg.Business.DeliveryLeadDays)
	assert.Equal(t, 10*time.Second, cfg.Business.CheckoutLockTTL)
	assert.Equal(t, 24*time.Hour, cfg.Business.IdempotencyTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com")
	t.Setenv("COD_FEE", "30.50")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "not-a-number")
	t.Setenv("DELIVERY_LEAD_DAYS", "3")
	t.Setenv("TRACE_SAMPLE_RATIO", "0.25")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"https://shop.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "30.5", cfg.Business.CODFee.String())
	assert.Equal(t, "500", cfg.Business.FreeShippingThreshold.String(), "invalid amounts fall back to the default")
	assert.Equal(t, 3, cfg.Business.DeliveryLeadDays)
	assert.Equal(t, 0.25, cfg.Observ.SampleRatio)
}
