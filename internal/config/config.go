package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Log      LogConfig
	Auth     AuthConfig
	Artifact ArtifactConfig
	Render   RenderConfig
	Lock     LockConfig
	Notify   NotifyConfig
	Sweep    SweepConfig
	Quote    QuoteConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig selects log level and output format.
type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig holds secrets. InternalAPIKey protects /api/internal routes;
// SecretKey is the fernet key for payer tax identifiers.
type AuthConfig struct {
	InternalAPIKey string
	SecretKey      string
}

// ArtifactConfig selects where rendered documents are stored.
type ArtifactConfig struct {
	Backend         string // file or gcs
	Dir             string
	BaseURL         string
	GCSBucket       string
	GCSPrefix       string
	CredentialsJSON string
}

// RenderConfig holds renderer settings.
type RenderConfig struct {
	Format  string // pdf or html
	Timeout time.Duration
	Retries uint64
}

// LockConfig selects the per-user lock backend.
type LockConfig struct {
	Backend       string // local or redis
	RedisAddr     string
	RedisPassword string
	TTL           time.Duration
}

// NotifyConfig selects the notification channel.
type NotifyConfig struct {
	Backend       string // log or mailgun
	MailgunDomain string
	MailgunAPIKey string
	MailgunAPIURL string // empty uses the US region
	SenderName    string
	SenderEmail   string
}

// SweepConfig controls the scheduled monthly sweep.
type SweepConfig struct {
	Enabled     bool
	Schedule    string // cron spec
	Concurrency int
}

// QuoteConfig controls spot-price lookups.
type QuoteConfig struct {
	CacheTTL      time.Duration
	RatePerSecond int
	EquitySuffix  string
	CryptoSuffix  string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/capital_gains.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			InternalAPIKey: os.Getenv("INTERNAL_API_KEY"),
			SecretKey:      os.Getenv("SECRET_KEY"),
		},
		Artifact: ArtifactConfig{
			Backend:         getEnv("ARTIFACT_BACKEND", "file"),
			Dir:             getEnv("ARTIFACT_DIR", "./data/artifacts"),
			BaseURL:         getEnv("ARTIFACT_BASE_URL", ""),
			GCSBucket:       os.Getenv("GCS_BUCKET"),
			GCSPrefix:       os.Getenv("GCS_PREFIX"),
			CredentialsJSON: os.Getenv("GCS_CREDENTIALS_JSON"),
		},
		Lock: LockConfig{
			Backend:       getEnv("LOCK_BACKEND", "local"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
		},
		Notify: NotifyConfig{
			Backend:       getEnv("NOTIFY_BACKEND", "log"),
			MailgunDomain: os.Getenv("MAILGUN_DOMAIN"),
			MailgunAPIKey: os.Getenv("MAILGUN_API_KEY"),
			MailgunAPIURL: os.Getenv("MAILGUN_API_URL"),
			SenderName:    getEnv("MAILGUN_SENDER_NAME", "Capital Gains"),
			SenderEmail:   os.Getenv("MAILGUN_SENDER"),
		},
		Sweep: SweepConfig{
			Enabled:  getEnvBool("SWEEP_ENABLED", true),
			Schedule: getEnv("SWEEP_SCHEDULE", "0 6 1 * *"),
		},
		Quote: QuoteConfig{
			EquitySuffix: getEnv("QUOTE_EQUITY_SUFFIX", ".SA"),
			CryptoSuffix: getEnv("QUOTE_CRYPTO_SUFFIX", "-BRL"),
		},
	}

	var err error
	if config.Render.Format = getEnv("RENDER_FORMAT", "pdf"); config.Render.Format != "pdf" && config.Render.Format != "html" {
		return nil, fmt.Errorf("RENDER_FORMAT must be pdf or html, got %q", config.Render.Format)
	}
	if config.Render.Timeout, err = getEnvDuration("RENDER_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	retries, err := getEnvInt("RENDER_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	if retries < 0 {
		return nil, fmt.Errorf("RENDER_RETRIES must not be negative")
	}
	config.Render.Retries = uint64(retries)

	if config.Lock.TTL, err = getEnvDuration("LOCK_TTL", 2*time.Minute); err != nil {
		return nil, err
	}
	if config.Lock.TTL < time.Second {
		return nil, fmt.Errorf("LOCK_TTL must be at least 1s, got %s", config.Lock.TTL)
	}
	if config.Sweep.Concurrency, err = getEnvInt("SWEEP_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if config.Sweep.Concurrency < 1 {
		config.Sweep.Concurrency = 1
	}
	if config.Quote.CacheTTL, err = getEnvDuration("QUOTE_CACHE_TTL", 3*time.Minute); err != nil {
		return nil, err
	}
	if config.Quote.RatePerSecond, err = getEnvInt("QUOTE_RATE_PER_SECOND", 5); err != nil {
		return nil, err
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	if config.Artifact.BaseURL == "" {
		config.Artifact.BaseURL = fmt.Sprintf("http://%s/artifacts", config.Server.Addr)
	}

	switch config.Artifact.Backend {
	case "file":
	case "gcs":
		if config.Artifact.GCSBucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET is required when ARTIFACT_BACKEND is gcs")
		}
	default:
		return nil, fmt.Errorf("ARTIFACT_BACKEND must be file or gcs, got %q", config.Artifact.Backend)
	}

	if config.Notify.Backend == "mailgun" &&
		(config.Notify.MailgunDomain == "" || config.Notify.MailgunAPIKey == "" || config.Notify.SenderEmail == "") {
		return nil, fmt.Errorf("MAILGUN_DOMAIN, MAILGUN_API_KEY and MAILGUN_SENDER are required when NOTIFY_BACKEND is mailgun")
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
