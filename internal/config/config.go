package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// value used when JWT_SECRET is not set. Fine for local dev, never for prod.
const devFallbackJWTSecret = "dev_only_change_me"

type Config struct {
	Env  string
	Port int

	DBURL               string
	AllowStartWithoutDB bool

	ClientOrigins []string

	JWTSecret         string
	JWTSecretFallback bool // true when the dev-only default is in use
	SessionTTL        time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NewsAPIKey     string
	NewsAPIBaseURL string
	NewsCacheTTL   time.Duration

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	OTLPEndpoint   string
	TracingEnabled bool
}

func Load() Config {
	// best-effort .env for local dev; real deployments set the env directly
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 3001)

	secret := os.Getenv("JWT_SECRET")
	fallback := secret == ""

	if fallback {
		secret = devFallbackJWTSecret
	}

	origins := strings.Split(getEnv("CLIENT_ORIGIN", "http://localhost:5173"), ",")

	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return Config{
		Env:                 env,
		Port:                port,
		DBURL:               buildDBURL(),
		AllowStartWithoutDB: getEnv("ALLOW_START_WITHOUT_DB", "") == "true",
		ClientOrigins:       origins,
		JWTSecret:           secret,
		JWTSecretFallback:   fallback,
		SessionTTL:          time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		NewsAPIKey:          getEnv("NEWS_API_KEY", ""),
		NewsAPIBaseURL:      getEnv("NEWS_API_BASE_URL", "https://newsapi.org/v2"),
		NewsCacheTTL:        time.Duration(getEnvInt("NEWS_CACHE_TTL_SECONDS", 300)) * time.Second,
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUser:            getEnv("EMAIL_USER", ""),
		SMTPPass:            getEnv("EMAIL_PASS", ""),
		MailFrom:            getEnv("MAIL_FROM", "no-reply@newzify.local"),
		OTLPEndpoint:        getEnv("OTLP_ENDPOINT", ""),
		TracingEnabled:      getEnv("TRACING_ENABLED", "") == "true",
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "newzify")
	pass := getEnv("DB_PASSWORD", "newzify")
	name := getEnv("DB_NAME", "newzify")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}
