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

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Quarantine QuarantineConfig
	Pipeline   PipelineConfig
	Merge      MergeConfig
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

// QuarantineConfig names the externally owned warehouse tables and tunes the
// table-scoped counts cache. Table names are injected here rather than
// compiled in so tests can point the service at fixtures.
type QuarantineConfig struct {
	QuarantineTable string
	CleanTable      string
	AuditTable      string
	CacheEnabled    bool
	CountsCacheTTL  time.Duration
}

// PipelineConfig locates the job-triggering backend.
type PipelineConfig struct {
	JobsURL string
	Token   string
	JobName string
	Timeout time.Duration
}

// MergeConfig tunes the background merge queue.
type MergeConfig struct {
	Workers    int
	BufferSize int
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

	cfg.Quarantine = QuarantineConfig{
		QuarantineTable: v.GetString("QUARANTINE_TABLE"),
		CleanTable:      v.GetString("CLEAN_TABLE"),
		AuditTable:      v.GetString("AUDIT_TABLE"),
		CacheEnabled:    v.GetBool("ENABLE_COUNTS_CACHE"),
		CountsCacheTTL:  parseDuration(v.GetString("COUNTS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Pipeline = PipelineConfig{
		JobsURL: v.GetString("PIPELINE_JOBS_URL"),
		Token:   v.GetString("PIPELINE_TOKEN"),
		JobName: v.GetString("PIPELINE_JOB_NAME"),
		Timeout: parseDuration(v.GetString("PIPELINE_TIMEOUT"), 30*time.Second),
	}

	cfg.Merge = MergeConfig{
		Workers:    v.GetInt("MERGE_WORKERS"),
		BufferSize: v.GetInt("MERGE_BUFFER_SIZE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/quarantine")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "loan_warehouse")
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

	v.SetDefault("QUARANTINE_TABLE", "quarantine_bad_txs")
	v.SetDefault("CLEAN_TABLE", "cleaned_new_txs")
	v.SetDefault("AUDIT_TABLE", "audit_trail")
	v.SetDefault("ENABLE_COUNTS_CACHE", false)
	v.SetDefault("COUNTS_CACHE_TTL", "5m")

	v.SetDefault("PIPELINE_JOBS_URL", "http://localhost:8090")
	v.SetDefault("PIPELINE_TOKEN", "")
	v.SetDefault("PIPELINE_JOB_NAME", "dlt_loan_quality_pipeline")
	v.SetDefault("PIPELINE_TIMEOUT", "30s")

	v.SetDefault("MERGE_WORKERS", 1)
	v.SetDefault("MERGE_BUFFER_SIZE", 16)
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
