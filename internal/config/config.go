package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort     string
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	JWTSecret      string
	AppBaseURL     string
	SwaggerHost    string
	SMTPAddr       string
	SMTPFrom       string
	MagicLinkTTL   time.Duration
	MagicLinkWait  time.Duration
	PairCodeTTL    time.Duration
	RequestTimeout time.Duration
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		MySQLDSN:       getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/couplerecipe?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisPass:      os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      getEnv("JWT_SECRET", "change-me"),
		AppBaseURL:     os.Getenv("APP_BASE_URL"),
		SwaggerHost:    os.Getenv("SWAGGER_HOST"),
		SMTPAddr:       os.Getenv("SMTP_ADDR"),
		SMTPFrom:       getEnv("SMTP_FROM", "no-reply@couplerecipe.local"),
		MagicLinkTTL:   getEnvDuration("MAGIC_LINK_TTL", 15*time.Minute),
		MagicLinkWait:  getEnvDuration("MAGIC_LINK_WAIT", 21*time.Second),
		PairCodeTTL:    getEnvDuration("PAIR_CODE_TTL", 15*time.Minute),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 8*time.Second),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
