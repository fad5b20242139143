package config

import (
	"fmt"
	"time"

	"github.com/Kilat-Pet-Delivery/service-ride-booking/pkg/config"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ProviderMapbox = "mapbox"
	ProviderGoogle = "google"
)

// MapConfig holds the browser map settings.
type MapConfig struct {
	AccessToken string
	Style       string  `validate:"required"`
	CenterLon   float64 `validate:"gte=-180,lte=180"`
	CenterLat   float64 `validate:"gte=-90,lte=90"`
	Zoom        float64 `validate:"gte=0,lte=22"`
	FocusZoom   float64 `validate:"gte=0,lte=22"`
}

// ProviderConfig selects and configures the geocoding and directions backend.
type ProviderConfig struct {
	Name          string        `validate:"oneof=mapbox google"`
	MapboxBaseURL string        `validate:"omitempty,url"`
	GoogleAPIKey  string        `validate:"required_if=Name google"`
	Timeout       time.Duration `validate:"gt=0"`
	RatePerSecond float64       `validate:"gte=0"`
}

// ServiceConfig holds all configuration for the ride booking service.
type ServiceConfig struct {
	Port        string `validate:"required"`
	AppEnv      string `validate:"required"`
	Map         MapConfig
	Provider    ProviderConfig
	Redis       config.RedisConfig
	Kafka       config.KafkaConfig
	CacheTTL    time.Duration `validate:"gte=0"`
	SessionIdle time.Duration `validate:"gt=0"`
	CORSOrigins []string
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load()
	if err != nil {
		return nil, err
	}
	setDefaults(v)

	cfg := &ServiceConfig{
		Port:   config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv: config.GetAppEnv(v),
		Map: MapConfig{
			AccessToken: v.GetString("MAPBOX_ACCESS_TOKEN"),
			Style:       v.GetString("MAP_STYLE"),
			CenterLon:   v.GetFloat64("MAP_CENTER_LON"),
			CenterLat:   v.GetFloat64("MAP_CENTER_LAT"),
			Zoom:        v.GetFloat64("MAP_ZOOM"),
			FocusZoom:   v.GetFloat64("MAP_FOCUS_ZOOM"),
		},
		Provider: ProviderConfig{
			Name:          v.GetString("MAP_PROVIDER"),
			MapboxBaseURL: v.GetString("MAPBOX_BASE_URL"),
			GoogleAPIKey:  v.GetString("GOOGLE_MAPS_API_KEY"),
			Timeout:       v.GetDuration("PROVIDER_TIMEOUT"),
			RatePerSecond: v.GetFloat64("PROVIDER_RATE_PER_SECOND"),
		},
		Redis:       config.LoadRedisConfig(v),
		Kafka:       config.LoadKafkaConfig(v),
		CacheTTL:    v.GetDuration("CACHE_TTL"),
		SessionIdle: v.GetDuration("SESSION_IDLE_TIMEOUT"),
		CORSOrigins: config.GetList(v, "CORS_ALLOWED_ORIGINS"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MAP_STYLE", "mapbox://styles/mapbox/dark-v11")
	v.SetDefault("MAP_CENTER_LON", -66.065437)
	v.SetDefault("MAP_CENTER_LAT", 18.423933)
	v.SetDefault("MAP_ZOOM", 10)
	v.SetDefault("MAP_FOCUS_ZOOM", 12)
	v.SetDefault("MAP_PROVIDER", ProviderMapbox)
	v.SetDefault("MAPBOX_BASE_URL", "https://api.mapbox.com")
	v.SetDefault("PROVIDER_TIMEOUT", "10s")
	v.SetDefault("PROVIDER_RATE_PER_SECOND", 10)
	v.SetDefault("CACHE_TTL", "24h")
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
}
