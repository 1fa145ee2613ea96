package config

import "time"

// History backends understood by the app wiring.
const (
	HistoryBackendSQLite = "sqlite"
	HistoryBackendRedis  = "redis"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	DatabasePath   string        `mapstructure:"database_path" yaml:"database_path"`
	HistoryBackend string        `mapstructure:"history_backend" yaml:"history_backend"`
	HistoryLimit   int           `mapstructure:"history_limit" yaml:"history_limit"`
	StoreTimeout   time.Duration `mapstructure:"store_timeout" yaml:"store_timeout"`

	RedisAddr      string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPrefix    string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
	RedisRetention int    `mapstructure:"redis_retention" yaml:"redis_retention"`

	AdminSecret string `mapstructure:"admin_secret" yaml:"admin_secret"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`
	JWTRequired bool          `mapstructure:"jwt_required" yaml:"jwt_required"`

	MaxMessageBytes    int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int   `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,

		LogLevel:  "info",
		LogFormat: "console",

		DatabasePath:   "termchat.db",
		HistoryBackend: HistoryBackendSQLite,
		HistoryLimit:   50,
		StoreTimeout:   2 * time.Second,

		RedisAddr:      "localhost:6379",
		RedisPrefix:    "termchat:",
		RedisRetention: 1000,

		JWTSecret:   "change-me",
		JWTIssuer:   "termchat",
		JWTAudience: "termchat",
		JWTTTL:      24 * time.Hour,
		JWTRequired: true,

		MaxMessageBytes:    64 << 10,
		RateLimitPerMinute: 120,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Booleans are not merged since their zero value is meaningful.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.HistoryBackend != "" {
		c.HistoryBackend = other.HistoryBackend
	}
	if other.HistoryLimit != 0 {
		c.HistoryLimit = other.HistoryLimit
	}
	if other.StoreTimeout != 0 {
		c.StoreTimeout = other.StoreTimeout
	}
	if other.RedisAddr != "" {
		c.RedisAddr = other.RedisAddr
	}
	if other.RedisPrefix != "" {
		c.RedisPrefix = other.RedisPrefix
	}
	if other.RedisRetention != 0 {
		c.RedisRetention = other.RedisRetention
	}
	if other.AdminSecret != "" {
		c.AdminSecret = other.AdminSecret
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.JWTTTL != 0 {
		c.JWTTTL = other.JWTTTL
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
}
