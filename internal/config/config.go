package config

import (
	"fmt"
	"time"

	"barbershop/internal/schedule"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Development signing keys. Load rejects them once admin login is enabled.
const (
	defaultJWTSecret        = "secret-key"
	defaultJWTRefreshSecret = "refresh-secret-key"
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	AppURL    string `envconfig:"APP_URL" default:"http://localhost:3000"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Empty DatabaseURL selects the in-memory booking store.
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"migrations"`

	RedisAddr    string `envconfig:"REDIS_ADDR"`
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"barbershop.events"`

	ChapaBaseURL        string        `envconfig:"CHAPA_BASE_URL" default:"https://api.chapa.co/v1"`
	ChapaSecretKey      string        `envconfig:"CHAPA_SECRET_KEY"`
	Currency            string        `envconfig:"CURRENCY" default:"ETB"`
	CountryCode         string        `envconfig:"COUNTRY_CODE" default:"251"`
	TxRefPrefix         string        `envconfig:"TX_REF_PREFIX" default:"BOOKING"`
	FallbackEmailDomain string        `envconfig:"FALLBACK_EMAIL_DOMAIN" default:"mbshop.com"`
	ShopName            string        `envconfig:"SHOP_NAME" default:"MB Barbershop"`
	VerifyTimeout       time.Duration `envconfig:"VERIFY_TIMEOUT" default:"10s"`

	OpenHour       int `envconfig:"OPEN_HOUR" default:"2"`
	CloseHour      int `envconfig:"CLOSE_HOUR" default:"14"`
	SlotMinutes    int `envconfig:"SLOT_MINUTES" default:"45"`
	MaxSlotsPerDay int `envconfig:"MAX_SLOTS_PER_DAY" default:"15"`

	JWTSecret         string `envconfig:"JWT_SECRET" default:"secret-key"`
	JWTRefreshSecret  string `envconfig:"JWT_REFRESH_SECRET" default:"refresh-secret-key"`
	AdminUsername     string `envconfig:"ADMIN_USERNAME" default:"admin"`
	// Empty AdminPasswordHash disables the admin routes entirely.
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`

	SMTPHost      string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort      string `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser      string `envconfig:"SMTP_USER"`
	SMTPPass      string `envconfig:"SMTP_PASS"`
	EmailFrom     string `envconfig:"EMAIL_FROM" default:"noreply@mbshop.com"`
	EmailFromName string `envconfig:"EMAIL_FROM_NAME" default:"MB Barbershop"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.OpenHour < 0 || c.CloseHour > 24 || c.OpenHour >= c.CloseHour {
		return fmt.Errorf("invalid operating window %d-%d", c.OpenHour, c.CloseHour)
	}
	if c.SlotMinutes <= 0 {
		return fmt.Errorf("SLOT_MINUTES must be positive, got %d", c.SlotMinutes)
	}
	if c.MaxSlotsPerDay < 0 {
		return fmt.Errorf("MAX_SLOTS_PER_DAY must not be negative, got %d", c.MaxSlotsPerDay)
	}
	if c.VerifyTimeout <= 0 {
		return fmt.Errorf("VERIFY_TIMEOUT must be positive, got %s", c.VerifyTimeout)
	}
	if c.AdminEnabled() {
		if c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set to a non-default value when ADMIN_PASSWORD_HASH is set")
		}
		if c.JWTRefreshSecret == "" || c.JWTRefreshSecret == defaultJWTRefreshSecret {
			return fmt.Errorf("JWT_REFRESH_SECRET must be set to a non-default value when ADMIN_PASSWORD_HASH is set")
		}
	}
	return nil
}

// AdminEnabled reports whether an admin password is configured.
func (c *Config) AdminEnabled() bool {
	return c.AdminPasswordHash != ""
}

func (c *Config) Schedule() schedule.Config {
	return schedule.Config{
		OpenHour:        c.OpenHour,
		CloseHour:       c.CloseHour,
		IntervalMinutes: c.SlotMinutes,
		MaxSlots:        c.MaxSlotsPerDay,
	}
}
