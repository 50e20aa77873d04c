package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort      string
	DatabaseURL   string
	DBPoolSize    int
	RedisURL      string
	RedisPoolSize int
	CacheTTL      int // seconds
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaGroupID  string
	JWTSecret     string
	SessionCookie string
}

// Load reads configuration from the environment. DATABASE_URL and the Kafka
// brokers are optional: without them the server falls back to the in-memory
// store and disables the event stream.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBPoolSize:    getIntEnv("DB_POOL_SIZE", 25),
		RedisURL:      os.Getenv("REDIS_URL"),
		RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 50),
		CacheTTL:      getIntEnv("CACHE_TTL_SEC", 60),
		KafkaBrokers:  getSliceEnv("KAFKA_BROKERS"),
		KafkaTopic:    getEnv("KAFKA_TODO_TOPIC", "todo-events"),
		KafkaGroupID:  getEnv("KAFKA_GROUP_ID", "todo-audit"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionCookie: getEnv("SESSION_COOKIE", "session_token"),
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if cfg.DBPoolSize < 1 {
		return nil, errors.New("DB_POOL_SIZE must be positive")
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getSliceEnv(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
