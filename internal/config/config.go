package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Env         string
	LogLevel    string
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	TokenTTL    time.Duration

	// TTL блокировок звонков в Redis
	CallLockTTL time.Duration

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
	S3Folder    string

	AllowedOrigins []string
}

// Load читает .env.local, затем .env, затем окружение
func Load() Config {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Info().Msg(".env not found, using environment variables")
		}
	}

	return Config{
		Env:         getenv("APP_ENV", "production"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Port:        getenv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getenv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenTTL:    duration("TOKEN_TTL", 24*time.Hour),
		CallLockTTL: duration("CALL_LOCK_TTL", 10*time.Second),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    os.Getenv("S3_REGION"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
		S3Folder:    getenv("S3_FOLDER", "chat"),

		AllowedOrigins: list("ALLOWED_ORIGINS"),
	}
}

func (c Config) Development() bool {
	return c.Env == "development"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// duration понимает и "30s", и просто число секунд
func duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
	return def
}

func list(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
