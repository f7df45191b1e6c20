package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	DataDir     string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Draft     DraftConfig
	Export    ExportConfig
	Scheduler SchedulerConfig
}

// DraftConfig selects where the recoverable editor draft is kept.
type DraftConfig struct {
	Backend   string
	Path      string
	RedisAddr string
	RedisDB   int
	RedisKey  string
	Compress  bool
	Debounce  time.Duration
}

type ExportConfig struct {
	Dir string
}

type SchedulerConfig struct {
	Enabled     bool
	RunInterval time.Duration
	BatchSize   int
	// LockRedisAddr enables a redis job lock so only one instance runs each
	// job per tick. Empty runs without a lock.
	LockRedisAddr string
}

const (
	DraftBackendFile     = "file"
	DraftBackendRedis    = "redis"
	DraftBackendDatabase = "database"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewInvoicingConfigHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	dataDir := getenv("FLOWDESK_DATA_DIR", defaultDataDir())

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "flowdesk"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", "127.0.0.1:1421"),
		DataDir:           dataDir,
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "flowdesk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", filepath.Join(dataDir, "flowdesk.db")),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 4),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		Draft: DraftConfig{
			Backend:   normalizeDraftBackend(getenv("DRAFT_BACKEND", DraftBackendFile)),
			Path:      getenv("DRAFT_PATH", filepath.Join(dataDir, "invoice-draft.json")),
			RedisAddr: getenv("DRAFT_REDIS_ADDR", "localhost:6379"),
			RedisDB:   getenvInt("DRAFT_REDIS_DB", 0),
			RedisKey:  getenv("DRAFT_REDIS_KEY", "flowdesk:invoice-draft"),
			Compress:  getenvBool("DRAFT_COMPRESS", false),
			Debounce:  getenvDuration("DRAFT_AUTOSAVE_DEBOUNCE", time.Second),
		},
		Export: ExportConfig{
			Dir: getenv("PDF_EXPORT_DIR", filepath.Join(dataDir, "pdfs")),
		},
		Scheduler: SchedulerConfig{
			Enabled:       getenvBool("SCHEDULER_ENABLED", true),
			RunInterval:   getenvDuration("SCHEDULER_RUN_INTERVAL", time.Hour),
			BatchSize:     getenvInt("SCHEDULER_BATCH_SIZE", 100),
			LockRedisAddr: strings.TrimSpace(getenv("SCHEDULER_LOCK_REDIS_ADDR", "")),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func normalizeDraftBackend(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case DraftBackendRedis, DraftBackendDatabase:
		return value
	default:
		return DraftBackendFile
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "flowdesk")
	}
	return ".flowdesk"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
