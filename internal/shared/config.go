package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv        string
	LogLevel      string
	HTTPAddr      string
	MetricsAddr   string
	HTTPTimeout   time.Duration
	MySQLDSN      string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	CacheTTL      time.Duration
	LockTTL       time.Duration
	LockWait      time.Duration
	StorageURL    string
	StorageKey    string
	StorageBucket string
	StorageRPS    int
	JWTSecret     string
	RepairWorkers int
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-numeric setting")
		}
		return def
	}
	seconds := func(k string, def int) time.Duration {
		return time.Duration(atoi(k, def)) * time.Second
	}

	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		LogLevel:      env("LOG_LEVEL", "info"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
		HTTPTimeout:   seconds("HTTP_TIMEOUT_SECONDS", 15),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/inmobiliaria?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		CacheTTL:      seconds("CACHE_TTL_SECONDS", 300),
		LockTTL:       seconds("LOCK_TTL_SECONDS", 20),
		LockWait:      time.Duration(atoi("LOCK_WAIT_MS", 3000)) * time.Millisecond,
		StorageURL:    env("STORAGE_URL", "http://localhost:54321"),
		StorageKey:    env("STORAGE_KEY", ""),
		StorageBucket: env("STORAGE_BUCKET", "properties"),
		StorageRPS:    atoi("STORAGE_RPS", 10),
		JWTSecret:     env("JWT_SECRET", ""),
		RepairWorkers: atoi("REPAIR_WORKERS", 4),
	}
	// a lock must outlive the longest request that can hold it
	if c.LockTTL <= c.HTTPTimeout {
		raised := c.HTTPTimeout + 5*time.Second
		log.Warn().Dur("lock_ttl", c.LockTTL).Dur("http_timeout", c.HTTPTimeout).Dur("raised_to", raised).
			Msg("LOCK_TTL_SECONDS must exceed HTTP_TIMEOUT_SECONDS")
		c.LockTTL = raised
	}
	if c.StorageKey == "" {
		log.Warn().Msg("STORAGE_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
