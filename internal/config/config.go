// Package config loads settings from an optional .env file, an optional
// YAML file and the environment. Environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvStoreURL = "LEADBASE_STORE_URL"
	EnvStoreKey = "LEADBASE_STORE_KEY"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type StoreConfig struct {
	Driver    string
	URL       string
	AccessKey string
}

type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	Recipients []string
}

// Enabled reports whether summary mails can be sent.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && len(s.Recipients) > 0
}

type Config struct {
	Store StoreConfig

	Port           int
	AllowedOrigins []string

	RedisURL string
	StatsTTL time.Duration

	AMQPURL string
	SMTP    SMTPConfig

	WebhookURL   string
	WebhookToken string

	UploadMaxBytes   int64
	UploadsPerMinute int

	HistoryRetention time.Duration
	SearchDebounce   time.Duration
	LogLevel         string
}

// ConfigError lists the settings that must be provided before the store
// can be reached.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing configuration: %s", strings.Join(e.Missing, ", "))
}

type rawConfig struct {
	Store struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
		Key    string `yaml:"key"`
	} `yaml:"store"`
	HTTP struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Redis struct {
		URL      string `yaml:"url"`
		StatsTTL string `yaml:"stats_ttl"`
	} `yaml:"redis"`
	AMQP struct {
		URL string `yaml:"url"`
	} `yaml:"amqp"`
	SMTP struct {
		Host       string   `yaml:"host"`
		Port       int      `yaml:"port"`
		User       string   `yaml:"user"`
		Password   string   `yaml:"password"`
		From       string   `yaml:"from"`
		Recipients []string `yaml:"recipients"`
	} `yaml:"smtp"`
	Notify struct {
		WebhookURL   string `yaml:"webhook_url"`
		WebhookToken string `yaml:"webhook_token"`
	} `yaml:"notify"`
	Uploads struct {
		MaxBytes  int64 `yaml:"max_bytes"`
		PerMinute int   `yaml:"per_minute"`
	} `yaml:"uploads"`
	History struct {
		Retention string `yaml:"retention"`
	} `yaml:"history"`
	Search struct {
		Debounce string `yaml:"debounce"`
	} `yaml:"search"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load never fails on missing store credentials: it returns the config
// together with a *ConfigError so callers can degrade instead of exiting.
// Other errors (unreadable or malformed YAML) are returned alone.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var raw rawConfig
	if path := os.Getenv("LEADBASE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	}

	cfg := &Config{
		Store: StoreConfig{
			Driver:    strings.ToLower(firstNonEmpty(os.Getenv("LEADBASE_STORE_DRIVER"), raw.Store.Driver, DriverPostgres)),
			URL:       firstNonEmpty(os.Getenv(EnvStoreURL), raw.Store.URL),
			AccessKey: firstNonEmpty(os.Getenv(EnvStoreKey), raw.Store.Key),
		},
		Port:           envOrDefaultInt("PORT", firstPositive(raw.HTTP.Port, 8080)),
		AllowedOrigins: envOrDefaultList("CORS_ALLOWED_ORIGINS", firstList(raw.HTTP.AllowedOrigins, []string{"*"})),
		RedisURL:       firstNonEmpty(os.Getenv("REDIS_URL"), raw.Redis.URL),
		StatsTTL:       envOrDefaultDuration("STATS_CACHE_TTL", parseDuration(raw.Redis.StatsTTL, 30*time.Second)),
		AMQPURL:        firstNonEmpty(os.Getenv("AMQP_URL"), raw.AMQP.URL),
		SMTP: SMTPConfig{
			Host:       firstNonEmpty(os.Getenv("SMTP_HOST"), raw.SMTP.Host),
			Port:       envOrDefaultInt("SMTP_PORT", firstPositive(raw.SMTP.Port, 587)),
			User:       firstNonEmpty(os.Getenv("SMTP_USER"), raw.SMTP.User),
			Password:   firstNonEmpty(os.Getenv("SMTP_PASSWORD"), raw.SMTP.Password),
			From:       firstNonEmpty(os.Getenv("SMTP_FROM"), raw.SMTP.From, "leadbase@localhost"),
			Recipients: envOrDefaultList("SUMMARY_RECIPIENTS", raw.SMTP.Recipients),
		},
		WebhookURL:       firstNonEmpty(os.Getenv("SUMMARY_WEBHOOK_URL"), raw.Notify.WebhookURL),
		WebhookToken:     firstNonEmpty(os.Getenv("SUMMARY_WEBHOOK_TOKEN"), raw.Notify.WebhookToken),
		UploadMaxBytes:   int64(envOrDefaultInt("UPLOAD_MAX_BYTES", int(firstPositive64(raw.Uploads.MaxBytes, 50<<20)))),
		UploadsPerMinute: envOrDefaultInt("UPLOADS_PER_MINUTE", firstPositive(raw.Uploads.PerMinute, 10)),
		HistoryRetention: envOrDefaultDuration("HISTORY_RETENTION", parseDuration(raw.History.Retention, 90*24*time.Hour)),
		SearchDebounce:   envOrDefaultDuration("SEARCH_DEBOUNCE", parseDuration(raw.Search.Debounce, 300*time.Millisecond)),
		LogLevel:         strings.ToLower(firstNonEmpty(os.Getenv("LOG_LEVEL"), raw.Log.Level, "info")),
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports missing store credentials as a *ConfigError.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	var missing []string
	if strings.TrimSpace(c.Store.URL) == "" {
		missing = append(missing, EnvStoreURL)
	}
	if strings.TrimSpace(c.Store.AccessKey) == "" {
		missing = append(missing, EnvStoreKey)
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	return parseDuration(os.Getenv(key), fallback)
}

func envOrDefaultList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstPositive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func firstPositive64(v, fallback int64) int64 {
	if v > 0 {
		return v
	}
	return fallback
}

func firstList(v, fallback []string) []string {
	if len(v) > 0 {
		return v
	}
	return fallback
}
