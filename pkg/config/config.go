package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	MailProviderConsole  = "console"
	MailProviderSendgrid = "sendgrid"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Identity      IdentityConfig
	Admissions    AdmissionsConfig
	Mail          MailConfig
	Notifications NotificationsConfig
	Tracing       TracingConfig
	RateLimit     RateLimitConfig
	Colleges      CollegesConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	// AutoMigrate applies pending migrations when the API starts.
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// IdentityConfig tunes the built-in identity provider.
type IdentityConfig struct {
	DefaultStudentPassword string
	SingleSession          bool
	MinPasswordLength      int
}

// AdmissionsConfig controls where applicant documents are stored and how they are linked.
type AdmissionsConfig struct {
	Bucket           string
	StorageDir       string
	PublicBaseURL    string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// MailConfig selects the outbound email transport.
type MailConfig struct {
	Provider       string
	SendgridAPIKey string
	FromName       string
	FromEmail      string
	AppName        string
}

// NotificationsConfig sizes the notification worker pool.
type NotificationsConfig struct {
	Enabled           bool
	WorkerConcurrency int
	WorkerRetries     int
	RetryDelay        time.Duration
}

// TracingConfig enables OTLP trace export.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

// RateLimitConfig bounds public, unauthenticated endpoints.
type RateLimitConfig struct {
	SignInPerMinute    int
	SubmissionsPerHour int
}

// CollegesConfig governs the public college directory cache.
type CollegesConfig struct {
	CacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	minPassword := v.GetInt("MIN_PASSWORD_LENGTH")
	if minPassword <= 0 {
		minPassword = 6
	}
	cfg.Identity = IdentityConfig{
		DefaultStudentPassword: v.GetString("DEFAULT_STUDENT_PASSWORD"),
		SingleSession:          v.GetBool("SINGLE_SESSION"),
		MinPasswordLength:      minPassword,
	}

	maxDocumentSize := v.GetInt64("ADMISSIONS_MAX_FILE_SIZE")
	if maxDocumentSize <= 0 {
		maxDocumentSize = 5 * 1024 * 1024
	}
	cfg.Admissions = AdmissionsConfig{
		Bucket:           v.GetString("ADMISSIONS_BUCKET"),
		StorageDir:       v.GetString("ADMISSIONS_STORAGE_DIR"),
		PublicBaseURL:    strings.TrimRight(v.GetString("ADMISSIONS_PUBLIC_BASE_URL"), "/"),
		SignedURLSecret:  v.GetString("ADMISSIONS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("ADMISSIONS_SIGNED_URL_TTL"), 365*24*time.Hour),
		MaxFileSizeBytes: maxDocumentSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("ADMISSIONS_ALLOWED_MIME_TYPES")),
	}

	cfg.Mail = MailConfig{
		Provider:       strings.ToLower(v.GetString("MAIL_PROVIDER")),
		SendgridAPIKey: v.GetString("SENDGRID_API_KEY"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
		FromEmail:      v.GetString("MAIL_FROM_EMAIL"),
		AppName:        v.GetString("APP_NAME"),
	}

	cfg.Notifications = NotificationsConfig{
		Enabled:           v.GetBool("ENABLE_NOTIFICATIONS"),
		WorkerConcurrency: v.GetInt("NOTIFICATIONS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("NOTIFICATIONS_WORKER_RETRIES"),
		RetryDelay:        parseDuration(v.GetString("NOTIFICATIONS_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Tracing = TracingConfig{
		Enabled:     v.GetBool("ENABLE_TRACING"),
		Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName: v.GetString("OTEL_SERVICE_NAME"),
	}

	cfg.RateLimit = RateLimitConfig{
		SignInPerMinute:    v.GetInt("RATE_LIMIT_SIGNIN_PER_MINUTE"),
		SubmissionsPerHour: v.GetInt("RATE_LIMIT_SUBMISSIONS_PER_HOUR"),
	}

	cfg.Colleges = CollegesConfig{
		CacheTTL: parseDuration(v.GetString("COLLEGES_CACHE_TTL"), 10*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "college_admin")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "college-admin-api")
	v.SetDefault("JWT_EXPIRATION", "1h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DEFAULT_STUDENT_PASSWORD", "Welcome@123")
	v.SetDefault("SINGLE_SESSION", false)
	v.SetDefault("MIN_PASSWORD_LENGTH", 6)

	v.SetDefault("ADMISSIONS_BUCKET", "admissions")
	v.SetDefault("ADMISSIONS_STORAGE_DIR", "./uploads")
	v.SetDefault("ADMISSIONS_PUBLIC_BASE_URL", "http://localhost:8080/api/v1")
	v.SetDefault("ADMISSIONS_SIGNED_URL_SECRET", "dev_admissions_secret")
	v.SetDefault("ADMISSIONS_SIGNED_URL_TTL", "8760h")
	v.SetDefault("ADMISSIONS_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("ADMISSIONS_ALLOWED_MIME_TYPES", "application/pdf,image/jpeg,image/png,image/webp")

	v.SetDefault("MAIL_PROVIDER", MailProviderConsole)
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "Admissions Office")
	v.SetDefault("MAIL_FROM_EMAIL", "no-reply@college.local")
	v.SetDefault("APP_NAME", "College Admin")

	v.SetDefault("ENABLE_NOTIFICATIONS", true)
	v.SetDefault("NOTIFICATIONS_WORKER_CONCURRENCY", 2)
	v.SetDefault("NOTIFICATIONS_WORKER_RETRIES", 3)
	v.SetDefault("NOTIFICATIONS_RETRY_DELAY", "5s")

	v.SetDefault("ENABLE_TRACING", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_SERVICE_NAME", "college-admin-api")

	v.SetDefault("RATE_LIMIT_SIGNIN_PER_MINUTE", 10)
	v.SetDefault("RATE_LIMIT_SUBMISSIONS_PER_HOUR", 20)

	v.SetDefault("COLLEGES_CACHE_TTL", "10m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
