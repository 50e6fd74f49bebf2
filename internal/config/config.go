package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	LogLevel               string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventSubjectPrefix     string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxMB            int
	DashboardCacheTTL      time.Duration
	AnnouncementCacheTTL   time.Duration
	TurnInRateLimit        int
	TurnInRateWindow       time.Duration
	AllowedOrigins         string
	MetricsToken           string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CAPSTONE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Capstone Portal API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("events.subject_prefix", "capstone")
	v.SetDefault("cloudinary.folder", "capstone/submissions")
	v.SetDefault("upload.max_mb", 25)
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("announcements.cache_ttl", "2m")
	v.SetDefault("turnin.rate_limit", 10)
	v.SetDefault("turnin.rate_window", "1m")
	v.SetDefault("cors.allowed_origins", "*")

	dashboardTTL, err := parseDuration(v, "dashboard.cache_ttl", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}
	announcementTTL, err := parseDuration(v, "announcements.cache_ttl", 2*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid announcement cache ttl: %w", err)
	}
	rateWindow, err := parseDuration(v, "turnin.rate_window", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid turn-in rate window: %w", err)
	}

	uploadMB := v.GetInt("upload.max_mb")
	if uploadMB <= 0 {
		uploadMB = 25
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventSubjectPrefix:     v.GetString("events.subject_prefix"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxMB:            uploadMB,
		DashboardCacheTTL:      dashboardTTL,
		AnnouncementCacheTTL:   announcementTTL,
		TurnInRateLimit:        v.GetInt("turnin.rate_limit"),
		TurnInRateWindow:       rateWindow,
		AllowedOrigins:         v.GetString("cors.allowed_origins"),
		MetricsToken:           v.GetString("metrics.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}
	if cfg.TurnInRateLimit <= 0 {
		cfg.TurnInRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
