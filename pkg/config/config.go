package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Store    StoreConfig
	Render   RenderConfig
	Jobs     JobsConfig
	Archive  ArchiveConfig
	Sort     SortConfig
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
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StoreConfig selects and tunes the ticket/plan key-value store (spec.md §6).
type StoreConfig struct {
	Backend string // "memory" or "redis"
	PlanTTL time.Duration
}

// RenderConfig configures the out-of-scope PDF/CSV export collaborators
// (spec.md §1 lists PDF ticket rendering as an external collaborator).
type RenderConfig struct {
	ExportDir       string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// JobsConfig tunes the background re-sort queue worker pool.
type JobsConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
}

// ArchiveConfig controls the optional Postgres-backed plan archive
// (spec.md §8's "plan archive" supplement; disabled by default since the
// core engine only requires the KV store).
type ArchiveConfig struct {
	Enabled bool
}

// SortConfig holds the SORT_DEFAULT_* limit settings. They are loaded but not
// applied to requests: a request that omits a limit runs with 0 (no limit).
type SortConfig struct {
	DefaultMaxSerenadesPerClass              int
	DefaultMaxNonSerenadesPerSerenadingClass int
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

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
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Store = StoreConfig{
		Backend: v.GetString("STORE_BACKEND"),
		PlanTTL: parseDuration(v.GetString("STORE_PLAN_TTL"), 24*time.Hour),
	}

	cfg.Render = RenderConfig{
		ExportDir:       v.GetString("EXPORT_DIR"),
		SignedURLSecret: v.GetString("EXPORT_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORT_SIGNED_URL_TTL"), 24*time.Hour),
	}

	cfg.Jobs = JobsConfig{
		WorkerConcurrency: v.GetInt("JOBS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("JOBS_WORKER_RETRIES"),
	}

	cfg.Archive = ArchiveConfig{
		Enabled: v.GetBool("ENABLE_PLAN_ARCHIVE"),
	}

	cfg.Sort = SortConfig{
		DefaultMaxSerenadesPerClass:              v.GetInt("SORT_DEFAULT_MAX_SERENADES_PER_CLASS"),
		DefaultMaxNonSerenadesPerSerenadingClass: v.GetInt("SORT_DEFAULT_MAX_NON_SERENADES_PER_SERENADING_CLASS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "ticket_sorter")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORE_BACKEND", "memory")
	v.SetDefault("STORE_PLAN_TTL", "24h")

	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_SIGNED_URL_SECRET", "dev_export_secret")
	v.SetDefault("EXPORT_SIGNED_URL_TTL", "24h")

	v.SetDefault("JOBS_WORKER_CONCURRENCY", 2)
	v.SetDefault("JOBS_WORKER_RETRIES", 3)

	v.SetDefault("ENABLE_PLAN_ARCHIVE", false)

	v.SetDefault("SORT_DEFAULT_MAX_SERENADES_PER_CLASS", 0)
	v.SetDefault("SORT_DEFAULT_MAX_NON_SERENADES_PER_SERENADING_CLASS", 0)
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
