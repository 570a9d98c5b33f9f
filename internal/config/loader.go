package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/appforge")

	// Ignore error if config file not found
	_ = v.ReadInConfig()

	var cfg Config

	// Server
	cfg.Server.Host = v.GetString("server_host")
	cfg.Server.Port = v.GetInt("server_port")
	cfg.Server.Env = v.GetString("server_env")

	// PostgreSQL
	cfg.Postgres.Host = v.GetString("postgres_host")
	cfg.Postgres.Port = v.GetInt("postgres_port")
	cfg.Postgres.User = v.GetString("postgres_user")
	cfg.Postgres.Password = v.GetString("postgres_password")
	cfg.Postgres.Database = v.GetString("postgres_db")
	cfg.Postgres.SSLMode = v.GetString("postgres_ssl_mode")
	cfg.Postgres.MaxConns = int32(v.GetInt("postgres_max_conns"))
	cfg.Postgres.MinConns = int32(v.GetInt("postgres_min_conns"))

	// ClickHouse
	cfg.ClickHouse.Host = v.GetString("clickhouse_host")
	cfg.ClickHouse.Port = v.GetInt("clickhouse_port")
	cfg.ClickHouse.User = v.GetString("clickhouse_user")
	cfg.ClickHouse.Password = v.GetString("clickhouse_password")
	cfg.ClickHouse.Database = v.GetString("clickhouse_db")

	// Redis
	cfg.Redis.Host = v.GetString("redis_host")
	cfg.Redis.Port = v.GetInt("redis_port")
	cfg.Redis.Password = v.GetString("redis_password")
	cfg.Redis.DB = v.GetInt("redis_db")

	// MinIO
	cfg.MinIO.Endpoint = v.GetString("minio_endpoint")
	cfg.MinIO.AccessKey = v.GetString("minio_access_key")
	cfg.MinIO.SecretKey = v.GetString("minio_secret_key")
	cfg.MinIO.UseSSL = v.GetBool("minio_use_ssl")
	cfg.MinIO.Bucket = v.GetString("minio_bucket")

	// JWT
	cfg.JWT.Secret = v.GetString("jwt_secret")
	cfg.JWT.ExpiryHours = v.GetInt("jwt_expiry_hours")
	cfg.JWT.Expiry = time.Duration(cfg.JWT.ExpiryHours) * time.Hour
	cfg.JWT.Issuer = v.GetString("jwt_issuer")

	// PayHere
	cfg.PayHere.MerchantID = v.GetString("payhere_merchant_id")
	cfg.PayHere.MerchantSecret = v.GetString("payhere_merchant_secret")
	cfg.PayHere.AppID = v.GetString("payhere_app_id")
	cfg.PayHere.AppSecret = v.GetString("payhere_app_secret")
	cfg.PayHere.Sandbox = v.GetBool("payhere_sandbox")
	cfg.PayHere.ReturnURL = v.GetString("payhere_return_url")
	cfg.PayHere.CancelURL = v.GetString("payhere_cancel_url")
	cfg.PayHere.NotifyURL = v.GetString("payhere_notify_url")

	// Plans
	cfg.Plans = defaultPlans()
	if v.IsSet("plans") {
		if err := v.UnmarshalKey("plans", &cfg.Plans); err != nil {
			return nil, fmt.Errorf("invalid plans config: %w", err)
		}
	}

	// Rate limiting
	cfg.RateLimit.Enabled = v.GetBool("rate_limit_enabled")
	cfg.RateLimit.RequestsPerMinute = v.GetInt("rate_limit_requests_per_minute")

	// Worker
	cfg.Worker.Concurrency = v.GetInt("worker_concurrency")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	// Sentry
	cfg.Sentry.Enabled = v.GetBool("sentry_enabled")
	cfg.Sentry.DSN = v.GetString("sentry_dsn")
	cfg.Sentry.Environment = v.GetString("sentry_environment")
	cfg.Sentry.Release = v.GetString("sentry_release")
	cfg.Sentry.SampleRate = v.GetFloat64("sentry_sample_rate")

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_env", "development")

	// PostgreSQL defaults
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "appforge")
	v.SetDefault("postgres_password", "appforge")
	v.SetDefault("postgres_db", "appforge")
	v.SetDefault("postgres_ssl_mode", "disable")
	v.SetDefault("postgres_max_conns", 25)
	v.SetDefault("postgres_min_conns", 5)

	// ClickHouse defaults
	v.SetDefault("clickhouse_host", "localhost")
	v.SetDefault("clickhouse_port", 9000)
	v.SetDefault("clickhouse_user", "appforge")
	v.SetDefault("clickhouse_password", "appforge")
	v.SetDefault("clickhouse_db", "appforge")

	// Redis defaults
	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	// MinIO defaults
	v.SetDefault("minio_endpoint", "localhost:9002")
	v.SetDefault("minio_access_key", "appforge")
	v.SetDefault("minio_secret_key", "appforge123")
	v.SetDefault("minio_use_ssl", false)
	v.SetDefault("minio_bucket", "appforge-artifacts")

	// JWT defaults
	v.SetDefault("jwt_secret", "change-me-in-production")
	v.SetDefault("jwt_expiry_hours", 24)
	v.SetDefault("jwt_issuer", "appforge")

	// PayHere defaults
	v.SetDefault("payhere_sandbox", true)

	// Rate limiting defaults
	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_requests_per_minute", 120)

	// Worker defaults
	v.SetDefault("worker_concurrency", 10)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Sentry defaults
	v.SetDefault("sentry_enabled", false)
	v.SetDefault("sentry_sample_rate", 1.0)
}

// defaultPlans is the built-in plan table; deployments override it via the
// "plans" config key.
func defaultPlans() PlansConfig {
	return PlansConfig{
		"free": {
			MonthlyPrice: "0.00",
			Currency:     "USD",
			Recurrence:   "1 Month",
			Duration:     "Forever",
			TokenBudget:  100_000,
			MaxProjects:  1,
		},
		"starter": {
			MonthlyPrice: "9.00",
			Currency:     "USD",
			Recurrence:   "1 Month",
			Duration:     "Forever",
			TokenBudget:  500_000,
			MaxProjects:  3,
		},
		"pro": {
			MonthlyPrice: "29.00",
			Currency:     "USD",
			Recurrence:   "1 Month",
			Duration:     "Forever",
			TokenBudget:  2_000_000,
			MaxProjects:  10,
		},
		"scale": {
			MonthlyPrice: "99.00",
			Currency:     "USD",
			Recurrence:   "1 Month",
			Duration:     "Forever",
			TokenBudget:  10_000_000,
			MaxProjects:  50,
		},
	}
}

func validate(cfg *Config) error {
	if cfg.JWT.Secret == "change-me-in-production" && cfg.IsProduction() {
		return fmt.Errorf("JWT secret must be changed in production")
	}
	if cfg.IsProduction() && cfg.PayHere.MerchantSecret == "" {
		return fmt.Errorf("PayHere merchant secret is required in production")
	}
	return nil
}
