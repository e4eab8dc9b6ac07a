package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

const defaultSigningKey = "defaultsecretkey"

// DBConfig holds database configuration
type DBConfig struct {
	Driver          string        `envconfig:"DB_DRIVER" default:"postgres"`
	Host            string        `envconfig:"DB_HOST" default:"localhost"`
	Port            string        `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" default:"postgres"`
	Password        string        `envconfig:"DB_PASSWORD" default:"password"`
	DBName          string        `envconfig:"DB_NAME" default:"orders"`
	SSLMode         string        `envconfig:"DB_SSL_MODE" default:"disable"`
	Path            string        `envconfig:"DB_PATH" default:"orders.db"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"100"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	LogLevelName    string        `envconfig:"DB_LOG_LEVEL" default:"warn"`
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LogLevel maps DB_LOG_LEVEL onto gorm's logger levels
func (c *DBConfig) LogLevel() logger.LogLevel {
	switch c.LogLevelName {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string `envconfig:"SERVER_PORT" default:"8080"`
	Env  string `envconfig:"APP_ENV" default:"development"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string `envconfig:"JWT_SIGNING_KEY" default:"defaultsecretkey"`
	ExpirationHours int    `envconfig:"JWT_EXPIRATION_HOURS" default:"24"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string `envconfig:"METRICS_PREFIX" default:"orders"`
}

// EmailConfig holds the transactional email provider settings.
// An empty APIKey switches the service to the log-only sender.
type EmailConfig struct {
	APIKey      string `envconfig:"SENDGRID_API_KEY"`
	FromEmail   string `envconfig:"SENDGRID_FROM_EMAIL" default:"no-reply@orders.local"`
	FromName    string `envconfig:"SENDGRID_FROM_NAME" default:"Ventas"`
	MaxAttempts int    `envconfig:"EMAIL_MAX_ATTEMPTS" default:"1"`
}

// AdminConfig holds the bootstrap administrator account
type AdminConfig struct {
	Name     string `envconfig:"ADMIN_NAME" default:"Administrador"`
	Email    string `envconfig:"ADMIN_EMAIL"`
	Password string `envconfig:"ADMIN_PASSWORD"`
}

// OrderConfig holds business rules for orders and invoices
type OrderConfig struct {
	TaxRate           float64 `envconfig:"TAX_RATE" default:"0.19"`
	StrictTransitions bool    `envconfig:"ORDER_STRICT_TRANSITIONS" default:"false"`
}

// RateLimitConfig holds request limits for public endpoints
type RateLimitConfig struct {
	LoginPerMinute int `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
}

// Config holds all configuration
type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"order-service"`
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Email       EmailConfig
	Admin       AdminConfig
	Order       OrderConfig
	RateLimit   RateLimitConfig
}

// Load loads configuration from a .env file (when present) and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that are unsafe or inconsistent
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWT.SigningKey == "" || c.JWT.SigningKey == defaultSigningKey) {
		return errors.New("JWT_SIGNING_KEY must be set in production")
	}
	if c.JWT.ExpirationHours <= 0 {
		return errors.New("JWT_EXPIRATION_HOURS must be positive")
	}
	if c.DB.Driver != "postgres" && c.DB.Driver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.Order.TaxRate < 0 {
		return errors.New("TAX_RATE must not be negative")
	}
	if c.Email.MaxAttempts < 1 {
		c.Email.MaxAttempts = 1
	}
	return nil
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// LogFields returns the configuration as zap fields, without secrets
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_driver", c.DB.Driver),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.Bool("email_enabled", c.Email.APIKey != ""),
		zap.Float64("tax_rate", c.Order.TaxRate),
		zap.Bool("strict_transitions", c.Order.StrictTransitions),
	}
}
