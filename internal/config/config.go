package config

import (
	"fmt"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
	MinIO      MinIOConfig
	JWT        JWTConfig
	PayHere    PayHereConfig
	Plans      PlansConfig
	RateLimit  RateLimitConfig
	Worker     WorkerConfig
	Log        LogConfig
	Sentry     SentryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// DSN returns the PostgreSQL connection string
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// Addr returns the ClickHouse native protocol address
func (c ClickHouseConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MinIOConfig holds MinIO artifact storage configuration
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpiryHours int           `mapstructure:"expiry_hours"`
	Expiry      time.Duration `mapstructure:"-"`
	Issuer      string        `mapstructure:"issuer"`
}

// PayHereConfig holds payment gateway configuration
type PayHereConfig struct {
	MerchantID     string `mapstructure:"merchant_id"`
	MerchantSecret string `mapstructure:"merchant_secret"`
	AppID          string `mapstructure:"app_id"`
	AppSecret      string `mapstructure:"app_secret"`
	Sandbox        bool   `mapstructure:"sandbox"`
	ReturnURL      string `mapstructure:"return_url"`
	CancelURL      string `mapstructure:"cancel_url"`
	NotifyURL      string `mapstructure:"notify_url"`
}

// CheckoutURL returns the gateway checkout endpoint for the configured mode
func (c PayHereConfig) CheckoutURL() string {
	if c.Sandbox {
		return "https://sandbox.payhere.lk/pay/checkout"
	}
	return "https://www.payhere.lk/pay/checkout"
}

// PlanConfig holds the pricing and limits of one plan tier
type PlanConfig struct {
	MonthlyPrice string `mapstructure:"monthly_price"`
	Currency     string `mapstructure:"currency"`
	Recurrence   string `mapstructure:"recurrence"`
	Duration     string `mapstructure:"duration"`
	TokenBudget  int64  `mapstructure:"token_budget"`
	MaxProjects  int    `mapstructure:"max_projects"`
}

// PlansConfig maps plan tier names to their pricing and limits. It is the
// plan table injected into the orchestrators rather than baked into entities.
type PlansConfig map[string]PlanConfig

// Get returns the plan configuration for a tier, if known.
func (p PlansConfig) Get(tier string) (PlanConfig, bool) {
	plan, ok := p[tier]
	return plan, ok
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SentryConfig holds Sentry error reporting configuration
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	Release     string  `mapstructure:"release"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// IsDevelopment returns true if running in development mode
func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}
