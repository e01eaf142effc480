package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL      string
	DBMaxConns int

	JWTSecret            string
	JWTAccessTTLMinutes  int
	ResetTokenTTLMinutes int
	AllowAdminSignup     bool

	AdminEmail     string
	AdminPassword  string
	AdminName      string
	AdminTelephone string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimit              int
	RateLimitWindowSeconds int
	CORSOrigins            []string
	MaxBodyBytes           int64

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	PublicBaseURL string

	ReminderSchedule       string
	ReminderTimezone       string
	ReminderConcurrency    int
	NotifierTimeoutSeconds int

	OTLPEndpoint     string
	WorkerHealthPort int
}

// Load reads configuration from the environment. A .env file in the working
// directory is honoured when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnvInt("PORT", 8080),

		DBURL:      getEnv("DATABASE_URL", buildDBURL()),
		DBMaxConns: getEnvInt("DB_MAX_CONNS", 5),

		JWTSecret:            getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTAccessTTLMinutes:  getEnvInt("JWT_ACCESS_TTL_MINUTES", 60*24*30),
		ResetTokenTTLMinutes: getEnvInt("RESET_TOKEN_TTL_MINUTES", 10),
		AllowAdminSignup:     getEnvBool("ALLOW_ADMIN_SIGNUP", false),

		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		AdminName:      getEnv("ADMIN_NAME", "Admin"),
		AdminTelephone: getEnv("ADMIN_TELEPHONE", "0000000000"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimit:              getEnvInt("RATE_LIMIT", 100),
		RateLimitWindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 600),
		CORSOrigins:            getEnvList("CORS_ORIGINS", []string{"*"}),
		MaxBodyBytes:           int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@rentalhub.local"),

		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),

		ReminderSchedule:       getEnv("REMINDER_SCHEDULE", "0 * * * *"),
		ReminderTimezone:       getEnv("REMINDER_TIMEZONE", "UTC"),
		ReminderConcurrency:    getEnvInt("REMINDER_CONCURRENCY", 1),
		NotifierTimeoutSeconds: getEnvInt("NOTIFIER_TIMEOUT_SECONDS", 10),

		OTLPEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		WorkerHealthPort: getEnvInt("WORKER_HEALTH_PORT", 8081),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetTokenTTLMinutes) * time.Minute
}

func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c Config) NotifierTimeout() time.Duration {
	return time.Duration(c.NotifierTimeoutSeconds) * time.Second
}

// ReminderLocation resolves the timezone used to compute the "tomorrow" window.
func (c Config) ReminderLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid REMINDER_TIMEZONE %q: %w", c.ReminderTimezone, err)
	}
	return loc, nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "rentalhub")
	pass := getEnv("DB_PASSWORD", "rentalhub")
	name := getEnv("DB_NAME", "rentalhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, d)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config: invalid integer, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return num
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config: invalid boolean, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
