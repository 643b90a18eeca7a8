package configs

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// =======================
// CONFIG TYPES
// =======================

type AppConfig struct {
	Env            string
	Port           string
	AllowedOrigins []string
	RequestTimeout time.Duration
	Timezone       string
}

type DatabaseConfig struct {
	Host             string
	Port             string
	User             string
	Password         string
	Name             string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxIdleTime  time.Duration
	ConnMaxLifetime  time.Duration
	StatementTimeout time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type PaymentConfig struct {
	Provider        string // paystack | midtrans
	DefaultCurrency string
	CallbackURL     string
	Timeout         time.Duration

	PaystackSecret  string
	PaystackBaseURL string

	MidtransServerKey string
	MidtransUseProd   bool
}

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Payment  PaymentConfig
}

const (
	ProviderPaystack = "paystack"
	ProviderMidtrans = "midtrans"
)

// =======================
// ENV LOADER
// =======================

// LoadEnv reads .env outside Railway; on Railway the process environment is used as is.
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") != "" {
		zap.L().Info("🚀 Running in Railway, using system environment")
		return
	}
	if err := godotenv.Load(); err != nil {
		zap.L().Warn("⚠️ .env file not found, using system environment")
		return
	}
	zap.L().Info("✅ .env file loaded")
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// Load builds the typed configuration from the environment.
func Load() (*Config, error) {
	var errs []error

	requestTimeout := getEnvDuration("REQUEST_TIMEOUT", 10*time.Second, &errs)
	jwtTTL := getEnvDuration("JWT_TTL", 12*time.Hour, &errs)
	gatewayTimeout := getEnvDuration("PAYMENT_TIMEOUT", 8*time.Second, &errs)

	cfg := &Config{
		App: AppConfig{
			Env:            GetEnv("APP_ENV", "development"),
			Port:           GetEnv("PORT", "3000"),
			AllowedOrigins: splitList(GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
			RequestTimeout: requestTimeout,
			Timezone:       GetEnv("APP_TIMEZONE", "Africa/Lagos"),
		},
		Database: loadDatabase(&errs),
		JWT: JWTConfig{
			Secret: GetEnv("JWT_SECRET"),
			TTL:    jwtTTL,
		},
		Payment: PaymentConfig{
			Provider:          strings.ToLower(GetEnv("PAYMENT_PROVIDER", ProviderPaystack)),
			DefaultCurrency:   strings.ToUpper(GetEnv("PAYMENT_DEFAULT_CURRENCY", "NGN")),
			CallbackURL:       GetEnv("PAYMENT_CALLBACK_URL"),
			Timeout:           gatewayTimeout,
			PaystackSecret:    GetEnv("PAYSTACK_SECRET_KEY"),
			PaystackBaseURL:   GetEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			MidtransServerKey: GetEnv("MIDTRANS_SERVER_KEY"),
			MidtransUseProd:   getEnvBool("MIDTRANS_USE_PROD", false, &errs),
		},
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	switch c.Payment.Provider {
	case ProviderPaystack:
		if c.Payment.PaystackSecret == "" {
			errs = append(errs, errors.New("PAYSTACK_SECRET_KEY is required when PAYMENT_PROVIDER=paystack"))
		}
	case ProviderMidtrans:
		if c.Payment.MidtransServerKey == "" {
			errs = append(errs, errors.New("MIDTRANS_SERVER_KEY is required when PAYMENT_PROVIDER=midtrans"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported PAYMENT_PROVIDER %q", c.Payment.Provider))
	}
	// gateway calls run under the request deadline, so a longer timeout would never fire
	if c.App.RequestTimeout > 0 && c.Payment.Timeout >= c.App.RequestTimeout {
		errs = append(errs, fmt.Errorf("PAYMENT_TIMEOUT (%s) must be shorter than REQUEST_TIMEOUT (%s)",
			c.Payment.Timeout, c.App.RequestTimeout))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errs
}

// LoadDatabase reads only the database section, for commands that never
// touch the payment gateway or issue tokens.
func LoadDatabase() (DatabaseConfig, error) {
	var errs []error
	db := loadDatabase(&errs)
	if len(errs) > 0 {
		return DatabaseConfig{}, errors.Join(errs...)
	}
	return db, nil
}

func loadDatabase(errs *[]error) DatabaseConfig {
	return DatabaseConfig{
		Host:             GetEnv("DB_HOST", "localhost"),
		Port:             GetEnv("DB_PORT", "5432"),
		User:             GetEnv("DB_USER"),
		Password:         GetEnv("DB_PASSWORD"),
		Name:             GetEnv("DB_NAME"),
		SSLMode:          GetEnv("DB_SSLMODE", "require"),
		MaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 20, errs),
		MaxIdleConns:     getEnvInt("DB_MAX_IDLE_CONNS", 10, errs),
		ConnMaxIdleTime:  getEnvDuration("DB_CONN_MAX_IDLE_TIME", 60*time.Second, errs),
		ConnMaxLifetime:  getEnvDuration("DB_CONN_MAX_LIFETIME", 10*time.Minute, errs),
		StatementTimeout: getEnvDuration("DB_STATEMENT_TIMEOUT", 3*time.Second, errs),
	}
}

// DSN renders the postgres connection string with a server-side statement timeout.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=churchhub&options=-c%%20statement_timeout=%d",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode, d.StatementTimeout.Milliseconds(),
	)
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// =======================
// PARSERS
// =======================

func getEnvInt(key string, def int, errs *[]error) int {
	raw := GetEnv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return n
}

func getEnvBool(key string, def bool, errs *[]error) bool {
	raw := GetEnv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration, errs *[]error) time.Duration {
	raw := GetEnv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
