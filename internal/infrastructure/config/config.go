package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Checkout  CheckoutConfig
	Ledger    LedgerConfig
	Gateway   GatewayConfig
	Webhook   WebhookConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	TrustedProxies    []string
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// CheckoutConfig holds checkout pricing settings
type CheckoutConfig struct {
	TaxRate      float64 // applied to the items subtotal
	FlatShipping float64 // flat shipping charge per order
	FreeShipOver float64 // order subtotal above which shipping is free (0 = never)
	Currency     string
}

// LedgerConfig holds seller settlement settings
type LedgerConfig struct {
	FeeRate           float64       // platform commission fraction, e.g. 0.10
	ProcessingFeeRate float64       // payment processing fraction, e.g. 0.02
	ClearingPeriod    time.Duration // how long funds stay PENDING before clearing
}

// GatewayConfig holds payment provider settings
type GatewayConfig struct {
	Provider string // provider name recorded on payments
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// WebhookConfig holds webhook verification settings
type WebhookConfig struct {
	Secret    string        // shared HMAC secret for signature verification
	Tolerance time.Duration // max signature timestamp skew
	DedupTTL  time.Duration // redis fast-path dedup retention
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MARKET_ prefix (e.g., MARKET_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
		},
		Checkout: CheckoutConfig{
			TaxRate:      v.GetFloat64("checkout.tax_rate"),
			FlatShipping: v.GetFloat64("checkout.flat_shipping"),
			FreeShipOver: v.GetFloat64("checkout.free_ship_over"),
			Currency:     v.GetString("checkout.currency"),
		},
		Ledger: LedgerConfig{
			FeeRate:           v.GetFloat64("ledger.fee_rate"),
			ProcessingFeeRate: v.GetFloat64("ledger.processing_fee_rate"),
			ClearingPeriod:    v.GetDuration("ledger.clearing_period"),
		},
		Gateway: GatewayConfig{
			Provider: v.GetString("gateway.provider"),
			BaseURL:  v.GetString("gateway.base_url"),
			APIKey:   v.GetString("gateway.api_key"),
			Timeout:  v.GetDuration("gateway.timeout"),
		},
		Webhook: WebhookConfig{
			Secret:    v.GetString("webhook.secret"),
			Tolerance: v.GetDuration("webhook.tolerance"),
			DedupTTL:  v.GetDuration("webhook.dedup_ttl"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "marketplace-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "marketplace"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB; webhook and checkout bodies are small
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.Checkout.Currency == "" {
		cfg.Checkout.Currency = "USD"
	}
	if cfg.Checkout.FlatShipping == 0 {
		cfg.Checkout.FlatShipping = 5.00
	}
	if cfg.Ledger.FeeRate == 0 {
		cfg.Ledger.FeeRate = 0.10
	}
	if cfg.Ledger.ProcessingFeeRate == 0 {
		cfg.Ledger.ProcessingFeeRate = 0.02
	}
	if cfg.Ledger.ClearingPeriod == 0 {
		cfg.Ledger.ClearingPeriod = 7 * 24 * time.Hour
	}
	if cfg.Gateway.Provider == "" {
		cfg.Gateway.Provider = "acme"
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = "https://api.payments.example.com"
	}
	if cfg.Gateway.Timeout == 0 {
		cfg.Gateway.Timeout = 10 * time.Second
	}
	if cfg.Webhook.Tolerance == 0 {
		cfg.Webhook.Tolerance = 5 * time.Minute
	}
	if cfg.Webhook.DedupTTL == 0 {
		cfg.Webhook.DedupTTL = 24 * time.Hour
	}

	// Telemetry defaults
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0 // 100% in development
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "marketplace-backend"
	}
	// Note: Insecure defaults to false for safety (TLS enabled by default)
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Checkout.TaxRate < 0 || c.Checkout.TaxRate >= 1 {
		return fmt.Errorf("checkout.tax_rate must be in [0, 1), got %f", c.Checkout.TaxRate)
	}
	if c.Ledger.FeeRate < 0 || c.Ledger.FeeRate > 1 {
		return fmt.Errorf("ledger.fee_rate must be in [0, 1], got %f", c.Ledger.FeeRate)
	}
	if c.Ledger.ProcessingFeeRate < 0 || c.Ledger.ProcessingFeeRate > 1 {
		return fmt.Errorf("ledger.processing_fee_rate must be in [0, 1], got %f", c.Ledger.ProcessingFeeRate)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Gateway.APIKey == "" {
			return fmt.Errorf("gateway.api_key is required in production")
		}
		if c.Webhook.Secret == "" {
			return fmt.Errorf("webhook.secret is required in production")
		}
		if len(c.Webhook.Secret) < 32 {
			return fmt.Errorf("webhook.secret must be at least 32 characters in production")
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
