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

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Revision  RevisionConfig
	Reminders RemindersConfig
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

// RevisionConfig tunes cache behaviour around revision queries. The
// forgetting-curve interval table itself is compiled in.
type RevisionConfig struct {
	CacheEnabled    bool
	SummaryCacheTTL time.Duration
	TaskCacheTTL    time.Duration
}

// RemindersConfig sizes the in-process reminder dispatch queue and the clock
// polling the configured reminder time.
type RemindersConfig struct {
	Enabled           bool
	PollInterval      time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	RetryDelay        time.Duration
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

	cfg.Revision = RevisionConfig{
		CacheEnabled:    v.GetBool("REVISION_CACHE_ENABLED"),
		SummaryCacheTTL: parseDuration(v.GetString("REVISION_SUMMARY_CACHE_TTL"), 5*time.Minute),
		TaskCacheTTL:    parseDuration(v.GetString("REVISION_TASK_CACHE_TTL"), time.Minute),
	}

	cfg.Reminders = RemindersConfig{
		Enabled:           v.GetBool("REMINDERS_ENABLED"),
		PollInterval:      parseDuration(v.GetString("REMINDERS_POLL_INTERVAL"), time.Minute),
		WorkerConcurrency: v.GetInt("REMINDERS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REMINDERS_WORKER_RETRIES"),
		RetryDelay:        parseDuration(v.GetString("REMINDERS_RETRY_DELAY"), 30*time.Second),
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
	v.SetDefault("DB_NAME", "mnemo")
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

	v.SetDefault("REVISION_CACHE_ENABLED", false)
	v.SetDefault("REVISION_SUMMARY_CACHE_TTL", "5m")
	v.SetDefault("REVISION_TASK_CACHE_TTL", "1m")

	v.SetDefault("REMINDERS_ENABLED", false)
	v.SetDefault("REMINDERS_POLL_INTERVAL", "1m")
	v.SetDefault("REMINDERS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REMINDERS_WORKER_RETRIES", 3)
	v.SetDefault("REMINDERS_RETRY_DELAY", "30s")
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
