// Package config loads environment-backed configuration through viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// KafkaConfig holds the Kafka connection settings.
type KafkaConfig struct {
	Brokers      []string
	BookingTopic string `validate:"required"`
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int `validate:"gte=0"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Load loads an optional .env file into the process environment and returns a
// viper instance that resolves keys from the environment.
func Load() (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "production")
	v.SetDefault("KAFKA_BOOKING_TOPIC", "ride.booking.events")
	v.SetDefault("REDIS_DB", 0)

	return v, nil
}

// GetAppEnv returns the application environment name.
func GetAppEnv(v *viper.Viper) string {
	return v.GetString("APP_ENV")
}

// GetServicePort returns the listen address stored under key, defaulting to :8080.
func GetServicePort(v *viper.Viper, key string) string {
	port := strings.TrimSpace(v.GetString(key))
	if port == "" {
		return ":8080"
	}
	if !strings.Contains(port, ":") {
		port = ":" + port
	}
	return port
}

// GetList splits a comma separated value into trimmed, non-empty items.
func GetList(v *viper.Viper, key string) []string {
	raw := v.GetString(key)
	if raw == "" {
		return nil
	}

	items := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// LoadKafkaConfig reads the Kafka settings.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	return KafkaConfig{
		Brokers:      GetList(v, "KAFKA_BROKERS"),
		BookingTopic: v.GetString("KAFKA_BOOKING_TOPIC"),
	}
}

// LoadRedisConfig reads the Redis settings.
func LoadRedisConfig(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Addr:     v.GetString("REDIS_ADDR"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}
