package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_JWT_SECRET", "s3cret")

	path := writeConfig(t, `
database:
  host: "${TEST_DB_HOST}"
  name: cafebooking
  max_conns: 8
kafka:
  brokers: ["kafka:9092"]
booking:
  timezone: Europe/Moscow
auth:
  jwt_secret: "${TEST_JWT_SECRET}"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "Europe/Moscow", cfg.Booking.Timezone)

	// omitted keys keep their defaults
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5, cfg.Booking.TxMaxRetries)
	assert.Equal(t, "booking-events", cfg.Kafka.BookingEventsTopic)
	assert.Equal(t, DriverKafka, cfg.Notifications.Driver)
	assert.Equal(t, 5*time.Second, cfg.Notifications.PublishTimeout())
	assert.Equal(t, 30*time.Second, cfg.Booking.AvailabilityTTL())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := writeConfig(t, "database: [")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Database.Host = "localhost"
		cfg.Database.Name = "cafebooking"
		cfg.Kafka.Brokers = []string{"localhost:9092"}
		return cfg
	}

	testCases := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{"valid", func(cfg *Config) {}, ""},
		{"missing database host", func(cfg *Config) { cfg.Database.Host = "" }, "database host/name"},
		{"kafka without brokers", func(cfg *Config) { cfg.Kafka.Brokers = nil }, "kafka.brokers"},
		{"rabbitmq without url", func(cfg *Config) {
			cfg.Notifications.Driver = DriverRabbitMQ
			cfg.RabbitMQ.URL = ""
		}, "rabbitmq.url"},
		{"notifications disabled", func(cfg *Config) {
			cfg.Notifications.Driver = DriverNone
			cfg.Kafka.Brokers = nil
		}, ""},
		{"unknown driver", func(cfg *Config) { cfg.Notifications.Driver = "carrier-pigeon" }, "unknown notification driver"},
		{"no retries", func(cfg *Config) { cfg.Booking.TxMaxRetries = 0 }, "tx_max_retries"},
		{"bad timezone", func(cfg *Config) { cfg.Booking.Timezone = "Mars/Olympus" }, "booking.timezone"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "pw", Name: "cafe", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=cafe sslmode=disable", d.DSN())

	d.MaxConns = 10
	assert.Contains(t, d.DSN(), "pool_max_conns=10")
}
