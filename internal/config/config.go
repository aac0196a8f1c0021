// Package config loads service configuration from defaults, an optional YAML
// file, a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration options for the service.
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Mail      MailConfig      `mapstructure:"mail"`
	Lock      LockConfig      `mapstructure:"lock"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Log       LogConfig       `mapstructure:"log"`
}

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	BasePath        string        `mapstructure:"base_path"` // API prefix, "/api" by default
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigin   string        `mapstructure:"allowed_origin"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // "postgres" (default) or "memory"
	URL      string `mapstructure:"url"`    // wins over the discrete fields when set
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds a libpq-compatible connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// MigrationURL returns a URL form of the connection settings for golang-migrate.
func (c DatabaseConfig) MigrationURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RedisConfig enables the distributed lock when URL is set.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// AuthConfig holds token and password settings.
type AuthConfig struct {
	JWTSecret        string        `mapstructure:"jwt_secret"`
	TokenTTL         time.Duration `mapstructure:"token_ttl"`
	BcryptCost       int           `mapstructure:"bcrypt_cost"`
	UserCacheTTL     time.Duration `mapstructure:"user_cache_ttl"`
	LoginRatePerMin  int           `mapstructure:"login_rate_per_min"`
	LoginBurst       int           `mapstructure:"login_burst"`
	AllowAdminSignup bool          `mapstructure:"allow_admin_signup"` // lets POST /auth/signup create admins
}

// MailConfig configures SendGrid. An empty API key selects the log mailer.
type MailConfig struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	Sender         string `mapstructure:"sender"`
	SenderName     string `mapstructure:"sender_name"`
}

// LockConfig bounds advisory lock usage.
type LockConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ReconcileConfig controls the background repair loop. Zero disables it.
type ReconcileConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LogConfig selects the minimum log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:            "8080",
			BasePath:        "/api",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigin:   "*",
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			DBName:          "motorsport",
			SSLMode:         "disable",
			MaxConns:        20,
			MinConns:        2,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			ConnectAttempts: 5,
			AutoMigrate:     true,
		},
		Auth: AuthConfig{
			TokenTTL:        time.Hour,
			BcryptCost:      10,
			UserCacheTTL:    time.Minute,
			LoginRatePerMin: 30,
			LoginBurst:      10,
		},
		Mail: MailConfig{
			SenderName: "Motorsport Club",
		},
		Lock: LockConfig{
			TTL:     10 * time.Second,
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string][]string{
	"http.port":               {"PORT"},
	"http.allowed_origin":     {"CORS_ORIGIN"},
	"database.driver":         {"DB_DRIVER"},
	"database.url":            {"DATABASE_URL"},
	"database.host":           {"DB_HOST"},
	"database.port":           {"DB_PORT"},
	"database.user":           {"DB_USER"},
	"database.password":       {"DB_PASSWORD"},
	"database.name":           {"DB_NAME"},
	"database.sslmode":        {"DB_SSLMODE"},
	"database.auto_migrate":   {"DB_AUTO_MIGRATE"},
	"redis.url":               {"REDIS_URL"},
	"auth.jwt_secret":         {"JWT_SECRET"},
	"auth.token_ttl":          {"JWT_TTL"},
	"auth.allow_admin_signup": {"ALLOW_ADMIN_SIGNUP"},
	"mail.sendgrid_api_key":   {"SENDGRID_API_KEY", "EMAIL_API_KEY"},
	"mail.sender":             {"MAIL_SENDER", "EMAIL_SENDER"},
	"reconcile.interval":      {"RECONCILE_INTERVAL"},
	"log.level":               {"LOG_LEVEL"},
}

// Load builds a Config. path may be empty; a missing .env file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Defaults())

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.HTTP.BasePath = normalizeBasePath(cfg.HTTP.BasePath)
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("http.base_path", d.HTTP.BasePath)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
	v.SetDefault("http.idle_timeout", d.HTTP.IdleTimeout)
	v.SetDefault("http.shutdown_timeout", d.HTTP.ShutdownTimeout)
	v.SetDefault("http.allowed_origin", d.HTTP.AllowedOrigin)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.DBName)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("database.min_conns", d.Database.MinConns)
	v.SetDefault("database.max_conn_lifetime", d.Database.MaxConnLifetime)
	v.SetDefault("database.max_conn_idle_time", d.Database.MaxConnIdleTime)
	v.SetDefault("database.connect_attempts", d.Database.ConnectAttempts)
	v.SetDefault("database.auto_migrate", d.Database.AutoMigrate)

	v.SetDefault("redis.url", d.Redis.URL)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)
	v.SetDefault("auth.bcrypt_cost", d.Auth.BcryptCost)
	v.SetDefault("auth.user_cache_ttl", d.Auth.UserCacheTTL)
	v.SetDefault("auth.login_rate_per_min", d.Auth.LoginRatePerMin)
	v.SetDefault("auth.login_burst", d.Auth.LoginBurst)
	v.SetDefault("auth.allow_admin_signup", d.Auth.AllowAdminSignup)

	v.SetDefault("mail.sendgrid_api_key", d.Mail.SendGridAPIKey)
	v.SetDefault("mail.sender", d.Mail.Sender)
	v.SetDefault("mail.sender_name", d.Mail.SenderName)

	v.SetDefault("lock.ttl", d.Lock.TTL)
	v.SetDefault("lock.timeout", d.Lock.Timeout)

	v.SetDefault("reconcile.interval", d.Reconcile.Interval)
	v.SetDefault("log.level", d.Log.Level)
}

func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(p, "/")
}

// Validate reports configuration the service cannot start with.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Lock.TTL <= 0 || c.Lock.Timeout <= 0 {
		return errors.New("lock.ttl and lock.timeout must be positive")
	}
	if c.Reconcile.Interval < 0 {
		return errors.New("reconcile.interval cannot be negative")
	}
	return nil
}
