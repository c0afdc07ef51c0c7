package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Admin         AdminConfig         `mapstructure:"admin"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" envconfig:"HTTP_PORT" default:"8080"`
	BaseURL           string        `mapstructure:"base_url" envconfig:"HTTP_BASE_URL"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" envconfig:"HTTP_ALLOWED_ORIGINS" default:"*"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" envconfig:"HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" envconfig:"HTTP_REQUEST_TIMEOUT" default:"30s"`
	LoginRateLimit    int           `mapstructure:"login_rate_limit" envconfig:"HTTP_LOGIN_RATE_LIMIT" default:"20"`
	IsProduction      bool          `mapstructure:"is_production" envconfig:"HTTP_IS_PRODUCTION"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" envconfig:"DATABASE_DRIVER" default:"postgres"`
	Source          string        `mapstructure:"source" envconfig:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" envconfig:"DATABASE_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"30m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" envconfig:"DATABASE_CONN_MAX_IDLE_TIME" default:"5m"`
}

type SecurityConfig struct {
	JWTSecret                string `mapstructure:"jwt_secret" envconfig:"SECRET_KEY"`
	JWTAlgorithm             string `mapstructure:"jwt_algorithm" envconfig:"ALGORITHM" default:"HS256"`
	AccessTokenExpireMinutes int    `mapstructure:"access_token_expire_minutes" envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"30"`
	PasswordHasher           string `mapstructure:"password_hasher" envconfig:"PASSWORD_HASHER" default:"bcrypt"`
	BCryptCost               int    `mapstructure:"bcrypt_cost" envconfig:"BCRYPT_COST" default:"12"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" envconfig:"METRICS_ENABLED"`
	Path    string `mapstructure:"path" envconfig:"METRICS_PATH" default:"/metrics"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" envconfig:"LOG_LEVEL" default:"info"`
	Format     string `mapstructure:"format" envconfig:"LOG_FORMAT" default:"json"`
	File       string `mapstructure:"file" envconfig:"LOG_FILE"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	MaxBackups int    `mapstructure:"max_backups" envconfig:"LOG_MAX_BACKUPS" default:"3"`
}

// AdminConfig is the bootstrap account created by the seed command.
type AdminConfig struct {
	Username string `mapstructure:"username" envconfig:"ADMIN_USER"`
	Password string `mapstructure:"password" envconfig:"ADMIN_PASSWORD"`
	Email    string `mapstructure:"email" envconfig:"ADMIN_EMAIL"`
	FullName string `mapstructure:"full_name" envconfig:"ADMIN_FULLNAME"`
}

// LoadConfigFromEnv builds the configuration from environment variables only.
func LoadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	if c.LoginRateLimit < 0 {
		return errors.New("login_rate_limit cannot be negative")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported jwt_algorithm %q", c.JWTAlgorithm)
	}
	if c.AccessTokenExpireMinutes < 1 {
		return errors.New("access_token_expire_minutes must be at least 1")
	}
	switch c.PasswordHasher {
	case "bcrypt":
		if c.BCryptCost < 10 || c.BCryptCost > 15 {
			return errors.New("bcrypt_cost must be between 10 and 15")
		}
	case "argon2id":
	default:
		return fmt.Errorf("unsupported password_hasher %q", c.PasswordHasher)
	}
	return nil
}

// TokenTTL is the lifetime of every access token issued at login.
func (c *SecurityConfig) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported level %q", c.Level)
	}
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	return nil
}
