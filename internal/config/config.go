package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the portal.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Session   SessionConfig
	SMTP      SMTPConfig
	AI        AIConfig
	Webhook   WebhookConfig
	Portal    PortalConfig
	Broadcast BroadcastConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SessionConfig defines cookie session parameters.
type SessionConfig struct {
	Secret        string
	TTLHours      int
	CookieName    string
	CookieSecure  bool
	BcryptCost    int
	OTPTTLMinutes int
	OTPPurgeSpec  string
	AdminEmail    string
}

// SMTPConfig holds outbound mail relay settings. Empty user or password
// disables sending; affected flows log and continue.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// AIConfig holds settings for the reply-draft API client.
type AIConfig struct {
	APIKey         string
	Model          string
	Endpoint       string
	TimeoutSeconds int
}

// WebhookConfig holds the outbound automation callback settings.
type WebhookConfig struct {
	URL            string
	TimeoutSeconds int
}

// PortalConfig covers portal content behavior.
type PortalConfig struct {
	UploadDir         string
	MaxAttachmentSize int64
}

// BroadcastConfig throttles bulk newsletter sends.
type BroadcastConfig struct {
	BatchSize       int
	BatchDelayMilli int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			Secret:        getEnv("SECRET_KEY", "dev-secret"),
			TTLHours:      getEnvAsInt("SESSION_TTL_HOURS", 168),
			CookieName:    getEnv("SESSION_COOKIE_NAME", "portal_session"),
			CookieSecure:  getEnvAsBool("SESSION_COOKIE_SECURE", false),
			BcryptCost:    getEnvAsInt("AUTH_BCRYPT_COST", 12),
			OTPTTLMinutes: getEnvAsInt("OTP_TTL_MINUTES", 10),
			OTPPurgeSpec:  getEnv("OTP_PURGE_CRON", "@hourly"),
			AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_SERVER", "smtp.gmail.com"),
			Port:     smtpPort,
			User:     os.Getenv("SENDER_EMAIL"),
			Password: os.Getenv("EMAIL_PASSWORD"),
			From:     getEnv("SENDER_EMAIL", ""),
		},
		AI: AIConfig{
			APIKey:         os.Getenv("AI_API_KEY"),
			Model:          getEnv("AI_MODEL", "gemini-1.5-flash"),
			Endpoint:       getEnv("AI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta/models"),
			TimeoutSeconds: getEnvAsInt("AI_TIMEOUT_SECONDS", 20),
		},
		Webhook: WebhookConfig{
			URL:            os.Getenv("WEBHOOK_URL"),
			TimeoutSeconds: getEnvAsInt("WEBHOOK_TIMEOUT_SECONDS", 5),
		},
		Portal: PortalConfig{
			UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
			MaxAttachmentSize: int64(getEnvAsInt("MAX_ATTACHMENT_BYTES", 5*1024*1024)),
		},
		Broadcast: BroadcastConfig{
			BatchSize:       getEnvAsInt("BROADCAST_BATCH_SIZE", 25),
			BatchDelayMilli: getEnvAsInt("BROADCAST_BATCH_DELAY_MS", 2000),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns the lifetime of login sessions.
func (s SessionConfig) SessionTTL() time.Duration {
	if s.TTLHours <= 0 {
		return 168 * time.Hour
	}
	return time.Duration(s.TTLHours) * time.Hour
}

// OTPTTL returns the validity window for emailed codes.
func (s SessionConfig) OTPTTL() time.Duration {
	if s.OTPTTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(s.OTPTTLMinutes) * time.Minute
}

// Enabled reports whether the relay has credentials configured.
func (s SMTPConfig) Enabled() bool {
	return s.User != "" && s.Password != ""
}

// BatchDelay returns the sleep between broadcast batches.
func (b BroadcastConfig) BatchDelay() time.Duration {
	if b.BatchDelayMilli <= 0 {
		return 0
	}
	return time.Duration(b.BatchDelayMilli) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
