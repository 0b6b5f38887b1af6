package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

type Config struct {
	HTTPAddr string

	StoreDriver string
	PostgresDSN string
	SQLitePath  string

	RedisAddr          string
	RedisKeyPrefix     string
	RedisQueueKey      string
	RedisProcessingKey string

	Workers           int
	WorkerMetricsAddr string

	LedgerAdmin        string
	InstantiateOnStart bool

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		StoreDriver:        strings.ToLower(envOr("STORE_DRIVER", DriverMemory)),
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		SQLitePath:         envOr("SQLITE_PATH", "data/ledger.db"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisKeyPrefix:     envOr("REDIS_KEY_PREFIX", "ledger"),
		RedisQueueKey:      envOr("REDIS_QUEUE_KEY", "ledger:commands:queue"),
		RedisProcessingKey: envOr("REDIS_PROCESSING_KEY", "ledger:commands:processing"),
		Workers:            envIntOr("WORKERS", 1),
		WorkerMetricsAddr:  envOr("WORKER_METRICS_ADDR", ":9091"),
		LedgerAdmin:        envOr("LEDGER_ADMIN", "admin"),
		InstantiateOnStart: envBoolOr("INSTANTIATE_ON_START", true),
		LogLevel:           envOr("LOG_LEVEL", "info"),
		LogFormat:          envOr("LOG_FORMAT", "text"),
	}

	switch cfg.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if cfg.PostgresDSN == "" {
			return cfg, missing("POSTGRES_DSN")
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return cfg, missing("SQLITE_PATH")
		}
	case DriverRedis:
		if cfg.RedisAddr == "" {
			return cfg, missing("REDIS_ADDR")
		}
	default:
		return cfg, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}

// AsyncEnabled reports whether the queued command path can run: it needs
// postgres for command records and redis for the queue.
func (c Config) AsyncEnabled() bool {
	return c.PostgresDSN != "" && c.RedisAddr != ""
}

// MustEnv returns key's value or an error naming the missing variable.
func MustEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", missing(key)
	}
	return v, nil
}

func missing(key string) error {
	return fmt.Errorf("missing env: %s", key)
}

func envOr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envBoolOr(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

var dsnPassword = regexp.MustCompile(`://([^:/?#]+):([^@/]+)@`)

// RedactDSN masks the password in a postgres URL: user:pass@ -> user:****@.
func RedactDSN(dsn string) string {
	return dsnPassword.ReplaceAllString(dsn, `://$1:****@`)
}
