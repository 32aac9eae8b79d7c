package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/hitoshi/threadview/internal/ranking"
)

// Config はアプリケーション全体の設定を保持する。
// 起動時に1回読み込み、イミュータブルとして扱う。
//
// 値はCONFIG_PATHで指定したYAMLファイル（任意）から読み込み、環境変数で上書きする。
type Config struct {
	// Database
	DatabaseURL       string        `yaml:"database_url" env:"DATABASE_URL" env-required:"true"`
	DBMaxOpenConns    int           `yaml:"db_max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DBMaxIdleConns    int           `yaml:"db_max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	DBConnMaxLifetime time.Duration `yaml:"db_conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`

	// Server
	ServerPort      string        `yaml:"server_port" env:"SERVER_PORT" env-default:"8080"`
	MetricsPort     string        `yaml:"metrics_port" env:"METRICS_PORT" env-default:"9090"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`

	// Logging
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// Query
	PageDefaultLimit int64         `yaml:"page_default_limit" env:"PAGE_DEFAULT_LIMIT" env-default:"10"`
	PageMaxLimit     int64         `yaml:"page_max_limit" env:"PAGE_MAX_LIMIT" env-default:"300"`
	QueryTimeout     time.Duration `yaml:"query_timeout" env:"QUERY_TIMEOUT" env-default:"5s"`

	// Ranking
	HotRankGravity     float64 `yaml:"hot_rank_gravity" env:"HOT_RANK_GRAVITY" env-default:"1.8"`
	HotRankOffsetHours float64 `yaml:"hot_rank_offset_hours" env:"HOT_RANK_OFFSET_HOURS" env-default:"2"`

	// Rate Limit
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"600"`

	// CORS
	CORSAllowedOrigin string `yaml:"cors_allowed_origin" env:"CORS_ALLOWED_ORIGIN" env-default:"http://localhost:3000"`

	// Tracing（空ならトレースをエクスポートしない）
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load は設定を読み込む。
// 必須項目が未設定、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		// ReadConfigはファイルを読んだ後に環境変数で上書きする
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Decay は設定値から減衰ランキングを組み立てる。
func (c *Config) Decay() ranking.Decay {
	return ranking.Decay{Gravity: c.HotRankGravity, OffsetHours: c.HotRankOffsetHours}
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.PageDefaultLimit <= 0 {
		return fmt.Errorf("PAGE_DEFAULT_LIMIT must be > 0, got %d", c.PageDefaultLimit)
	}
	if c.PageMaxLimit <= 0 {
		return fmt.Errorf("PAGE_MAX_LIMIT must be > 0, got %d", c.PageMaxLimit)
	}
	if c.PageDefaultLimit > c.PageMaxLimit {
		return fmt.Errorf("PAGE_DEFAULT_LIMIT (%d) must be <= PAGE_MAX_LIMIT (%d)", c.PageDefaultLimit, c.PageMaxLimit)
	}
	if err := c.Decay().Validate(); err != nil {
		return err
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("QUERY_TIMEOUT must not be negative, got %s", c.QueryTimeout)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be > 0, got %d", c.RateLimitPerMinute)
	}
	return nil
}
