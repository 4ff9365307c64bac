package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Queue    QueueConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string        `validate:"required,numeric"`
	ReadTimeout  time.Duration `validate:"gt=0"`
	WriteTimeout time.Duration `validate:"gt=0"`
}

type DatabaseConfig struct {
	URL            string `validate:"omitempty,url"`
	MaxConnections int32  `validate:"gte=1"`
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

type RedisConfig struct {
	URL                string `validate:"omitempty,url"`
	HistoryConcurrency int    `validate:"gte=1"`
}

type QueueConfig struct {
	PairInterval    time.Duration `validate:"gt=0"`
	CleanupInterval time.Duration `validate:"gt=0"`
	SearchTimeout   time.Duration `validate:"gt=0"`
	SessionMaxAge   time.Duration `validate:"gt=0"`
	StatsInterval   time.Duration `validate:"gte=0"`
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=text json"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the configuration from the environment. Interval and timeout
// settings of the queue are given in seconds.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")

	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_idle_time", "30m")
	v.SetDefault("database.max_lifetime", "1h")

	v.SetDefault("redis.history_concurrency", 2)

	v.SetDefault("queue.pair_interval", 1.0)
	v.SetDefault("queue.cleanup_interval", 300)
	v.SetDefault("queue.timeout_seconds", 120)
	v.SetDefault("queue.session_max_age", 3600)
	v.SetDefault("queue.stats_interval", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.read_timeout", "READ_TIMEOUT")
	v.BindEnv("server.write_timeout", "WRITE_TIMEOUT")

	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.max_connections", "DB_MAX_CONNECTIONS")
	v.BindEnv("database.max_idle_time", "DB_MAX_IDLE_TIME")
	v.BindEnv("database.max_lifetime", "DB_MAX_LIFETIME")

	v.BindEnv("redis.url", "REDIS_URL")
	v.BindEnv("redis.history_concurrency", "HISTORY_CONCURRENCY")

	v.BindEnv("queue.pair_interval", "PAIR_INTERVAL")
	v.BindEnv("queue.cleanup_interval", "CLEANUP_INTERVAL")
	v.BindEnv("queue.timeout_seconds", "TIMEOUT_SECONDS")
	v.BindEnv("queue.session_max_age", "SESSION_MAX_AGE")
	v.BindEnv("queue.stats_interval", "STATS_INTERVAL")

	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")

	c := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Database: DatabaseConfig{
			URL:            v.GetString("database.url"),
			MaxConnections: v.GetInt32("database.max_connections"),
			MaxIdleTime:    v.GetDuration("database.max_idle_time"),
			MaxLifetime:    v.GetDuration("database.max_lifetime"),
		},
		Redis: RedisConfig{
			URL:                v.GetString("redis.url"),
			HistoryConcurrency: v.GetInt("redis.history_concurrency"),
		},
		Queue: QueueConfig{
			PairInterval:    seconds(v.GetFloat64("queue.pair_interval")),
			CleanupInterval: seconds(float64(v.GetInt("queue.cleanup_interval"))),
			SearchTimeout:   seconds(float64(v.GetInt("queue.timeout_seconds"))),
			SessionMaxAge:   seconds(float64(v.GetInt("queue.session_max_age"))),
			StatsInterval:   seconds(float64(v.GetInt("queue.stats_interval"))),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
