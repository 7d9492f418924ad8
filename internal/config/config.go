package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port               int
	DBDSN              string
	RedisURL           string
	BaseURL            string // used for returning absolute short URLs
	CodeLength         int
	DefaultExpiryDays  int
	CacheDefaultTTL    time.Duration // cache lifetime for mappings without expiry
	CacheTimeout       time.Duration // per-call bound on fast-store round-trips
	RateLimitPerMinute int
	FlushInterval      time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func Load() Config {
	return Config{
		Port:               getint("PORT", 8080),
		DBDSN:              getenv("DB_DSN", "file:shortly.db?_foreign_keys=on"),
		RedisURL:           getenv("REDIS_URL", "redis://localhost:6379/0"),
		BaseURL:            getenv("BASE_URL", ""),
		CodeLength:         getint("CODE_LENGTH", 7),
		DefaultExpiryDays:  getint("DEFAULT_EXPIRY_DAYS", 30),
		CacheDefaultTTL:    time.Duration(getint("CACHE_DEFAULT_TTL_SECONDS", 86400)) * time.Second,
		CacheTimeout:       time.Duration(getint("CACHE_TIMEOUT_MS", 150)) * time.Millisecond,
		RateLimitPerMinute: getint("RATE_LIMIT_PER_MINUTE", 60),
		FlushInterval:      time.Duration(getint("FLUSH_INTERVAL_SECONDS", 10)) * time.Second,
	}
}
