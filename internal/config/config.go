package config

import (
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	AppPort               int    `mapstructure:"APP_PORT"`
	BcryptCost            int    `mapstructure:"BCRYPT_COST"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDBName           string `mapstructure:"MONGO_DB_NAME"`
	ResetTokenTTLMinutes  int    `mapstructure:"RESET_TOKEN_TTL_MINUTES"`
	ResetBaseURL          string `mapstructure:"RESET_BASE_URL"`
	MailDriver            string `mapstructure:"MAIL_DRIVER"`
	MailFrom              string `mapstructure:"MAIL_FROM"`
	SMTPHost              string `mapstructure:"SMTP_HOST"`
	SMTPPort              int    `mapstructure:"SMTP_PORT"`
	SMTPUsername          string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword          string `mapstructure:"SMTP_PASSWORD"`
	SMTPTimeoutSec        int    `mapstructure:"SMTP_TIMEOUT_SEC"`
	ResendAPIKey          string `mapstructure:"RESEND_API_KEY"`
	RouteMetricsEnabled   bool   `mapstructure:"ROUTE_METRICS_ENABLED"`
	RequestLoggingEnabled bool   `mapstructure:"REQUEST_LOGGING_ENABLED"`
}

// Mail drivers understood by the notify package.
const (
	MailDriverSMTP   = "smtp"
	MailDriverResend = "resend"
	MailDriverLog    = "log"
)

var (
	ErrAppPortRange       = errors.New("APP_PORT must be between 1 and 65535")
	ErrBcryptCostRange    = errors.New("BCRYPT_COST must be between 10 and 16")
	ErrLogLevelEmpty      = errors.New("LOG_LEVEL cannot be empty")
	ErrLogFormatEmpty     = errors.New("LOG_FORMAT cannot be empty")
	ErrMongoURIEmpty      = errors.New("MONGO_URI cannot be empty")
	ErrMongoDBNameEmpty   = errors.New("MONGO_DB_NAME cannot be empty")
	ErrResetTokenTTL      = errors.New("RESET_TOKEN_TTL_MINUTES must be greater than 0")
	ErrResetBaseURL       = errors.New("RESET_BASE_URL must be an absolute http(s) URL")
	ErrMailDriverInvalid  = errors.New("MAIL_DRIVER must be one of smtp, resend, log")
	ErrSMTPTimeoutInvalid = errors.New("SMTP_TIMEOUT_SEC must be greater than 0")
)

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check in case another goroutine loaded it while we waited for the lock
	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()

	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB_NAME", "passwordreset")
	v.SetDefault("RESET_TOKEN_TTL_MINUTES", 60)
	v.SetDefault("RESET_BASE_URL", "")
	v.SetDefault("MAIL_DRIVER", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_TIMEOUT_SEC", 10)
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOGGING_ENABLED", true)

	// Configure Viper to read from .env file (if present)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// Try to read .env file (it's okay if it doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	// Override with OS environment variables
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// ResetTokenTTL is the lifetime of a password-reset token.
func (c Config) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetTokenTTLMinutes) * time.Minute
}

// SMTPTimeout bounds a single SMTP delivery.
func (c Config) SMTPTimeout() time.Duration {
	return time.Duration(c.SMTPTimeoutSec) * time.Second
}

// Validate checks if required configuration fields are properly set.
// Mail settings are only checked for shape here; presence of the driver,
// base URL and transport credentials is enforced when the mailer is built.
func (c Config) Validate() error {
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return ErrAppPortRange
	}
	if c.BcryptCost < 10 || c.BcryptCost > 16 {
		return ErrBcryptCostRange
	}
	if c.LogLevel == "" {
		return ErrLogLevelEmpty
	}
	if c.LogFormat == "" {
		return ErrLogFormatEmpty
	}
	if c.MongoURI == "" {
		return ErrMongoURIEmpty
	}
	if c.MongoDBName == "" {
		return ErrMongoDBNameEmpty
	}
	if c.ResetTokenTTLMinutes <= 0 {
		return ErrResetTokenTTL
	}
	if c.ResetBaseURL != "" {
		u, err := url.Parse(c.ResetBaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return ErrResetBaseURL
		}
	}
	switch c.MailDriver {
	case "", MailDriverSMTP, MailDriverResend, MailDriverLog:
	default:
		return ErrMailDriverInvalid
	}
	if c.SMTPTimeoutSec <= 0 {
		return ErrSMTPTimeoutInvalid
	}
	return nil
}
