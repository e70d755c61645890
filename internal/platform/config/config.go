package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	AI       AIConfig
	Log      LogConfig
	Engine   EngineConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects PostgreSQL persistence. An empty URL keeps all
// state in memory.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	Migrate      bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// ResultTTL bounds how long a cached ComparisonResult is served.
	ResultTTL time.Duration
}

// KafkaConfig enables the activity-stream sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers       []string
	ActivityTopic string
	RelayInterval time.Duration
}

// AIConfig enables the AI-analysis collaborator when APIKey is set.
type AIConfig struct {
	APIKey           string
	Model            string
	Timeout          time.Duration
	FailureThreshold int
	Cooldown         time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type EngineConfig struct {
	// ThresholdsFile names an optional YAML override of engine thresholds.
	ThresholdsFile string
	// CaseFanoutLimit bounds concurrent classifications per Case.
	CaseFanoutLimit int
}

// FromEnv builds the configuration from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []string
	dur := func(key string, def time.Duration) time.Duration {
		v, err := durationEnv(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	num := func(key string, def int) int {
		v, err := intEnv(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := Config{
		Server: Server{
			Addr:            stringEnv("BGV_ADDR", ":8080"),
			AllowedOrigins:  listEnv("BGV_ALLOWED_ORIGINS"),
			ReadTimeout:     dur("BGV_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    dur("BGV_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: dur("BGV_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: num("DATABASE_MAX_OPEN_CONNS", 20),
			Migrate:      os.Getenv("DATABASE_MIGRATE") == "true",
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     num("REDIS_POOL_SIZE", 10),
			MinIdleConns: num("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  dur("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  dur("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: dur("REDIS_WRITE_TIMEOUT", 3*time.Second),
			ResultTTL:    dur("REDIS_RESULT_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:       listEnv("KAFKA_BROKERS"),
			ActivityTopic: stringEnv("KAFKA_ACTIVITY_TOPIC", "bgv.activity"),
			RelayInterval: dur("OUTBOX_RELAY_INTERVAL", 2*time.Second),
		},
		AI: AIConfig{
			APIKey:           os.Getenv("OPENAI_API_KEY"),
			Model:            os.Getenv("OPENAI_MODEL"),
			Timeout:          dur("AI_TIMEOUT", 5*time.Second),
			FailureThreshold: num("AI_BREAKER_FAILURES", 5),
			Cooldown:         dur("AI_BREAKER_COOLDOWN", 30*time.Second),
		},
		Log: LogConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
		Engine: EngineConfig{
			ThresholdsFile:  os.Getenv("ENGINE_CONFIG"),
			CaseFanoutLimit: num("CASE_FANOUT_LIMIT", 8),
		},
	}
	if cfg.Engine.CaseFanoutLimit < 1 {
		errs = append(errs, "CASE_FANOUT_LIMIT must be at least 1")
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func listEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
