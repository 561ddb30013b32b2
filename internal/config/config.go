// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
)

// Dataset sources other than a file path.
const (
	SourceEmbedded = "embedded"
	SourceSQLite   = "sqlite"
)

// Config holds every runtime setting. Zero values are never used directly;
// Load and Default fill them in.
type Config struct {
	Port             string        `json:"port" validate:"required,numeric"`
	GinMode          string        `json:"gin_mode" validate:"oneof=debug release test"`
	LogLevel         string        `json:"log_level" validate:"oneof=debug info warn error"`
	DatasetSource    string        `json:"dataset_source" validate:"required"`
	DataDir          string        `json:"data_dir" validate:"required"`
	RedisAddr        string        `json:"redis_addr,omitempty" validate:"omitempty,hostname_port"`
	RedisPassword    string        `json:"-"`
	RedisDB          int           `json:"redis_db" validate:"gte=0,lte=15"`
	CacheTTL         time.Duration `json:"cache_ttl" validate:"gt=0"`
	RequestTimeout   time.Duration `json:"request_timeout" validate:"gt=0"`
	RateLimitPerMin  int           `json:"rate_limit_per_min" validate:"gte=0"`
	AllowedOrigins   []string      `json:"allowed_origins" validate:"dive,required,url"`
	PriorityHighAt   float64       `json:"priority_high_at" validate:"gte=0,lte=100,gtefield=PriorityMediumAt"`
	PriorityMediumAt float64       `json:"priority_medium_at" validate:"gte=0,lte=100"`
	EnableHSTS       bool          `json:"enable_hsts"`
}

// Default returns the settings used when no environment overrides exist.
func Default() *Config {
	policy := survey.DefaultPriorityPolicy()
	return &Config{
		Port:             "8080",
		GinMode:          "release",
		LogLevel:         "info",
		DatasetSource:    SourceEmbedded,
		DataDir:          "./data",
		CacheTTL:         15 * time.Minute,
		RequestTimeout:   30 * time.Second,
		RateLimitPerMin:  60,
		AllowedOrigins:   []string{"http://localhost:8080"},
		PriorityHighAt:   policy.HighAt,
		PriorityMediumAt: policy.MediumAt,
	}
}

// Load reads the environment on top of Default and validates the result.
func Load() (*Config, error) {
	cfg := Default()
	var errs []error

	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.GinMode = getEnvOrDefault("GIN_MODE", cfg.GinMode)
	cfg.LogLevel = strings.ToLower(getEnvOrDefault("LOG_LEVEL", cfg.LogLevel))
	cfg.DatasetSource = getEnvOrDefault("DATASET_SOURCE", cfg.DatasetSource)
	cfg.DataDir = getEnvOrDefault("DATA_DIR", cfg.DataDir)
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB, &errs)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", cfg.CacheTTL, &errs)
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout, &errs)
	cfg.RateLimitPerMin = getEnvInt("RATE_LIMIT_PER_MIN", cfg.RateLimitPerMin, &errs)
	cfg.PriorityHighAt = getEnvFloat("PRIORITY_HIGH_AT", cfg.PriorityHighAt, &errs)
	cfg.PriorityMediumAt = getEnvFloat("PRIORITY_MEDIUM_AT", cfg.PriorityMediumAt, &errs)
	cfg.EnableHSTS = os.Getenv("ENABLE_HSTS") == "true"

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// Policy returns the priority policy built from the configured thresholds.
func (c *Config) Policy() survey.PriorityPolicy {
	return survey.PriorityPolicy{
		Category: survey.TooBig,
		HighAt:   c.PriorityHighAt,
		MediumAt: c.PriorityMediumAt,
	}
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config error: %s must be an integer, got %q", key, value))
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64, errs *[]error) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config error: %s must be a number, got %q", key, value))
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("config error: %s must be a duration, got %q", key, value))
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
