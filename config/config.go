// Package config handles loading and validation of application configuration
// from environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment represents the application's running environment (development or production).
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"

	minJWTLength = 32
)

// ListBackend selects the ListStore implementation.
type ListBackend string

const (
	BackendSharePoint ListBackend = "sharepoint"
	BackendSupabase   ListBackend = "supabase"
	BackendPostgres   ListBackend = "postgres"
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Environment    Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Port           string      `mapstructure:"PORT" yaml:"port"`
	AllowedOrigins []string    `mapstructure:"ALLOWED_ORIGINS" yaml:"allowed_origins"`
	Version        string      `mapstructure:"VERSION" yaml:"version"`
	// HostJWTSecret verifies identity tokens issued by the hosting page.
	// Empty disables token identity.
	HostJWTSecret string `mapstructure:"HOST_JWT_SECRET" yaml:"host_jwt_secret"`
	// TrustedProxies is a list of CIDR ranges or IPs of trusted reverse proxies.
	// If empty, X-Forwarded-For headers are ignored entirely.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES" yaml:"trusted_proxies"`
}

// ListConfig describes the target list.
type ListConfig struct {
	Backend ListBackend `mapstructure:"BACKEND" yaml:"backend"`
	Name    string      `mapstructure:"NAME" yaml:"name"`
	// CandidatesFile overrides the built-in field name candidates.
	CandidatesFile string `mapstructure:"CANDIDATES_FILE" yaml:"candidates_file"`
}

// SharePointConfig holds the SharePoint site the list lives in.
type SharePointConfig struct {
	SiteURL     string        `mapstructure:"SITE_URL" yaml:"site_url"`
	AccessToken string        `mapstructure:"ACCESS_TOKEN" yaml:"access_token"`
	Timeout     time.Duration `mapstructure:"TIMEOUT" yaml:"timeout"`
}

// SupabaseConfig holds the Supabase project used as list backend.
type SupabaseConfig struct {
	URL    string `mapstructure:"URL" yaml:"url"`
	Key    string `mapstructure:"KEY" yaml:"key"`
	Schema string `mapstructure:"SCHEMA" yaml:"schema"`
}

// DatabaseConfig holds PostgreSQL database connection details.
type DatabaseConfig struct {
	Host          string `mapstructure:"HOST" yaml:"host"`
	Port          int    `mapstructure:"PORT" yaml:"port"`
	User          string `mapstructure:"USER" yaml:"user"`
	Password      string `mapstructure:"PASSWORD" yaml:"password"`
	Name          string `mapstructure:"NAME" yaml:"name"`
	Schema        string `mapstructure:"SCHEMA" yaml:"schema"`
	SSLMode       string `mapstructure:"SSL_MODE" yaml:"ssl_mode"`
	MaxOpenConns  int    `mapstructure:"MAX_OPEN_CONNS" yaml:"max_open_conns"`
	MaxIdleConns  int    `mapstructure:"MAX_IDLE_CONNS" yaml:"max_idle_conns"`
	ConnMaxLife   string `mapstructure:"CONN_MAX_LIFE" yaml:"conn_max_life"`
	RunMigrations bool   `mapstructure:"RUN_MIGRATIONS" yaml:"run_migrations"`
}

// URL returns a postgres:// connection URL suitable for golang-migrate and other
// URL-based database tools.
func (c *DatabaseConfig) URL() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

// RedisConfig holds Redis connection details. An empty address disables
// Redis and with it submission rate limiting.
type RedisConfig struct {
	Address      string `mapstructure:"ADDRESS" yaml:"address"`
	Password     string `mapstructure:"PASSWORD" yaml:"password"`
	DB           int    `mapstructure:"DB" yaml:"db"`
	UseTLS       bool   `mapstructure:"USE_TLS" yaml:"use_tls"`
	PoolSize     int    `mapstructure:"POOL_SIZE" yaml:"pool_size"`
	MinIdleConns int    `mapstructure:"MIN_IDLE_CONNS" yaml:"min_idle_conns"`
}

// EmailConfig holds configuration for confirmation emails.
type EmailConfig struct {
	FromAddress  string `mapstructure:"FROM_ADDRESS" yaml:"from_address"`
	FromName     string `mapstructure:"FROM_NAME" yaml:"from_name"`
	ResendAPIKey string `mapstructure:"RESEND_API_KEY" yaml:"resend_api_key"`
}

// SlackConfig holds the incoming webhook used for team alerts.
type SlackConfig struct {
	WebhookURL string `mapstructure:"WEBHOOK_URL" yaml:"webhook_url"`
	Channel    string `mapstructure:"CHANNEL" yaml:"channel"`
}

// RateLimitConfig holds configuration for submission rate limiting.
type RateLimitConfig struct {
	// Maximum submissions per client within one window
	SubmissionsPerWindow int `mapstructure:"SUBMISSIONS_PER_WINDOW" yaml:"submissions_per_window"`
	// Window duration in seconds for rate limiting
	WindowSeconds int `mapstructure:"WINDOW_SECONDS" yaml:"window_seconds"`
}

// FormConfig controls form sessions.
type FormConfig struct {
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL" yaml:"session_ttl"`
	ServiceCategories []string      `mapstructure:"SERVICE_CATEGORIES" yaml:"service_categories"`
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN              string  `mapstructure:"DSN" yaml:"dsn"`
	TracesSampleRate float64 `mapstructure:"TRACES_SAMPLE_RATE" yaml:"traces_sample_rate"`
}

// Config aggregates all application configuration sections.
type Config struct {
	Server     ServerConfig     `mapstructure:"SERVER" yaml:"server"`
	List       ListConfig       `mapstructure:"LIST" yaml:"list"`
	SharePoint SharePointConfig `mapstructure:"SHAREPOINT" yaml:"sharepoint"`
	Supabase   SupabaseConfig   `mapstructure:"SUPABASE" yaml:"supabase"`
	Database   DatabaseConfig   `mapstructure:"DATABASE" yaml:"database"`
	Redis      RedisConfig      `mapstructure:"REDIS" yaml:"redis"`
	Email      EmailConfig      `mapstructure:"EMAIL" yaml:"email"`
	Slack      SlackConfig      `mapstructure:"SLACK" yaml:"slack"`
	RateLimit  RateLimitConfig  `mapstructure:"RATE_LIMIT" yaml:"rate_limit"`
	Form       FormConfig       `mapstructure:"FORM" yaml:"form"`
	Sentry     SentryConfig     `mapstructure:"SENTRY" yaml:"sentry"`
}

// IsDevelopment returns true if the application is running in development environment.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == EnvDevelopment
}

// IsProduction returns true if the application is running in production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Address != ""
}

// bindEnvVars binds multiple environment variables to config keys.
// Format: []{configKey, envVar}
func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

// loadDotEnv reads .env from the working directory when present. Variables
// already set in the environment win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.GetLogger().Warnw("Failed to load .env file", "error", err)
	}
}

// LoadConfig loads configuration from environment variables using Viper,
// sets default values, binds environment variables to config struct fields,
// unmarshals the configuration, and validates it.
func LoadConfig() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	log := logger.GetLogger()

	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER.VERSION", "dev")
	v.SetDefault("SERVER.TRUSTED_PROXIES", []string{})
	v.SetDefault("LIST.BACKEND", BackendSharePoint)
	v.SetDefault("LIST.NAME", "cloudlist")
	v.SetDefault("SHAREPOINT.TIMEOUT", "30s")
	v.SetDefault("SUPABASE.SCHEMA", "public")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "")
	v.SetDefault("DATABASE.NAME", "feedback")
	v.SetDefault("DATABASE.SCHEMA", "public")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.MAX_OPEN_CONNS", 5)
	v.SetDefault("DATABASE.MAX_IDLE_CONNS", 2)
	v.SetDefault("DATABASE.CONN_MAX_LIFE", "1h")
	v.SetDefault("DATABASE.RUN_MIGRATIONS", true)
	v.SetDefault("REDIS.ADDRESS", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.USE_TLS", false)
	v.SetDefault("REDIS.POOL_SIZE", 3)
	v.SetDefault("REDIS.MIN_IDLE_CONNS", 1)
	v.SetDefault("EMAIL.FROM_NAME", "Customer Feedback")
	v.SetDefault("RATE_LIMIT.SUBMISSIONS_PER_WINDOW", 10)
	v.SetDefault("RATE_LIMIT.WINDOW_SECONDS", 60)
	v.SetDefault("FORM.SESSION_TTL", "30m")
	v.SetDefault("FORM.SERVICE_CATEGORIES", []string{"Web Hosting", "Network Security", "Cloud Storage", "Other"})
	v.SetDefault("SENTRY.TRACES_SAMPLE_RATE", 0.0)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envBindings := [][2]string{
		// Server config
		{"SERVER.ENVIRONMENT", "ENVIRONMENT"},
		{"SERVER.PORT", "PORT"},
		{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
		{"SERVER.VERSION", "VERSION"},
		{"SERVER.HOST_JWT_SECRET", "HOST_JWT_SECRET"},
		{"SERVER.TRUSTED_PROXIES", "TRUSTED_PROXIES"},
		// List config
		{"LIST.BACKEND", "LIST_BACKEND"},
		{"LIST.NAME", "LIST_NAME"},
		{"LIST.CANDIDATES_FILE", "LIST_CANDIDATES_FILE"},
		// SharePoint config
		{"SHAREPOINT.SITE_URL", "SHAREPOINT_SITE_URL"},
		{"SHAREPOINT.ACCESS_TOKEN", "SHAREPOINT_ACCESS_TOKEN"},
		{"SHAREPOINT.TIMEOUT", "SHAREPOINT_TIMEOUT"},
		// Supabase config
		{"SUPABASE.URL", "SUPABASE_URL"},
		{"SUPABASE.KEY", "SUPABASE_SERVICE_KEY"},
		{"SUPABASE.SCHEMA", "SUPABASE_SCHEMA"},
		// Database config
		{"DATABASE.HOST", "DB_HOST"},
		{"DATABASE.PORT", "DB_PORT"},
		{"DATABASE.USER", "DB_USER"},
		{"DATABASE.PASSWORD", "DB_PASSWORD"},
		{"DATABASE.NAME", "DB_NAME"},
		{"DATABASE.SCHEMA", "DB_SCHEMA"},
		{"DATABASE.SSL_MODE", "DB_SSL_MODE"},
		{"DATABASE.RUN_MIGRATIONS", "DB_RUN_MIGRATIONS"},
		// Redis config
		{"REDIS.ADDRESS", "REDIS_ADDRESS"},
		{"REDIS.PASSWORD", "REDIS_PASSWORD"},
		{"REDIS.DB", "REDIS_DB"},
		{"REDIS.USE_TLS", "REDIS_USE_TLS"},
		// Email config
		{"EMAIL.FROM_ADDRESS", "EMAIL_FROM_ADDRESS"},
		{"EMAIL.FROM_NAME", "EMAIL_FROM_NAME"},
		{"EMAIL.RESEND_API_KEY", "RESEND_API_KEY"},
		// Slack config
		{"SLACK.WEBHOOK_URL", "SLACK_WEBHOOK_URL"},
		{"SLACK.CHANNEL", "SLACK_CHANNEL"},
		// Rate limit config
		{"RATE_LIMIT.SUBMISSIONS_PER_WINDOW", "RATE_LIMIT_SUBMISSIONS_PER_WINDOW"},
		{"RATE_LIMIT.WINDOW_SECONDS", "RATE_LIMIT_WINDOW_SECONDS"},
		// Form config
		{"FORM.SESSION_TTL", "FORM_SESSION_TTL"},
		{"FORM.SERVICE_CATEGORIES", "FORM_SERVICE_CATEGORIES"},
		// Sentry config
		{"SENTRY.DSN", "SENTRY_DSN"},
		{"SENTRY.TRACES_SAMPLE_RATE", "SENTRY_TRACES_SAMPLE_RATE"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	log.Infow("Configuration loaded",
		"environment", v.GetString("SERVER.ENVIRONMENT"),
		"server_port", v.GetString("SERVER.PORT"),
		"list_backend", v.GetString("LIST.BACKEND"),
		"list_name", v.GetString("LIST.NAME"),
		"allowed_origins", v.GetStringSlice("SERVER.ALLOWED_ORIGINS"),
		"redis_enabled", v.GetString("REDIS.ADDRESS") != "",
	)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Info("Configuration validated successfully")
	return &cfg, nil
}

// validateConfig checks if the loaded configuration values are valid.
func validateConfig(cfg *Config) error {
	log := logger.GetLogger()

	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.Server.HostJWTSecret != "" && len(cfg.Server.HostJWTSecret) < minJWTLength {
		return fmt.Errorf("host JWT secret must be at least %d characters long", minJWTLength)
	}
	if !containsWildcard(cfg.Server.AllowedOrigins) {
		for _, origin := range cfg.Server.AllowedOrigins {
			if _, err := url.ParseRequestURI(origin); err != nil {
				return fmt.Errorf("invalid allowed origin '%s': %w", origin, err)
			}
		}
	}

	if err := validateListConfig(cfg); err != nil {
		return err
	}

	if cfg.Email.ResendAPIKey != "" && cfg.Email.FromAddress == "" {
		return fmt.Errorf("email from address is required when a resend API key is set")
	}
	if cfg.Slack.WebhookURL != "" {
		if _, err := url.ParseRequestURI(cfg.Slack.WebhookURL); err != nil {
			return fmt.Errorf("invalid slack webhook URL: %w", err)
		}
	}

	if cfg.Redis.Address == "" {
		log.Warn("Redis address is not set, submission rate limiting is disabled")
	} else if cfg.Redis.Password == "" && cfg.Redis.UseTLS {
		log.Warn("Redis password is not set, but TLS is enabled. Ensure this is correct for your Redis provider.")
	}

	if cfg.RateLimit.SubmissionsPerWindow <= 0 {
		return fmt.Errorf("rate limit submissions per window must be positive")
	}
	if cfg.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rate limit window seconds must be positive")
	}

	if cfg.Form.SessionTTL <= 0 {
		return fmt.Errorf("form session TTL must be positive")
	}
	if len(cfg.Form.ServiceCategories) == 0 {
		return fmt.Errorf("at least one service category is required")
	}
	for i, c := range cfg.Form.ServiceCategories {
		cfg.Form.ServiceCategories[i] = strings.TrimSpace(c)
		if cfg.Form.ServiceCategories[i] == "" {
			return fmt.Errorf("service categories must not be blank")
		}
	}

	if cfg.Sentry.TracesSampleRate < 0 || cfg.Sentry.TracesSampleRate > 1 {
		return fmt.Errorf("sentry traces sample rate must be between 0 and 1")
	}

	return nil
}

// validateListConfig checks the target list and its backend settings.
func validateListConfig(cfg *Config) error {
	if strings.TrimSpace(cfg.List.Name) == "" {
		return fmt.Errorf("list name is required")
	}

	switch cfg.List.Backend {
	case BackendSharePoint:
		if cfg.SharePoint.SiteURL == "" {
			return fmt.Errorf("sharepoint site URL is required")
		}
		if _, err := url.ParseRequestURI(cfg.SharePoint.SiteURL); err != nil {
			return fmt.Errorf("invalid sharepoint site URL: %w", err)
		}
		if cfg.SharePoint.AccessToken == "" {
			logger.GetLogger().Warn("SharePoint access token is not set, requests will be anonymous")
		}
	case BackendSupabase:
		if cfg.Supabase.URL == "" {
			return fmt.Errorf("supabase URL is required")
		}
		if cfg.Supabase.Key == "" {
			return fmt.Errorf("supabase service key is required")
		}
	case BackendPostgres:
		if cfg.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if cfg.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if cfg.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
		if cfg.Database.Password == "" {
			logger.GetLogger().Warn("Database password is not set. Ensure this is intended (e.g., using trusted auth).")
		}
	default:
		return fmt.Errorf("unknown list backend %q (want sharepoint, supabase or postgres)", cfg.List.Backend)
	}
	return nil
}

// containsWildcard checks if the list of allowed origins contains the wildcard "*".
func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
