package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Server    ServerConfig
	Stripe    StripeConfig
	Orders    OrdersConfig
	Checkout  CheckoutConfig
	RateLimit RateLimitConfig
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

type ServerConfig struct {
	Port         string        `env:"APP_PORT" envDefault:"8080"`
	Env          string        `env:"APP_ENV" envDefault:"development"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
}

type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	// SignatureTolerance bounds how old a signed delivery may be.
	SignatureTolerance time.Duration `env:"STRIPE_SIGNATURE_TOLERANCE" envDefault:"5m"`
}

// OrdersConfig points at the order backend's internal API.
type OrdersConfig struct {
	BaseURL string        `env:"ORDER_API_BASE_URL"`
	Key     string        `env:"ORDER_API_KEY"`
	Secret  string        `env:"ORDER_API_SECRET"`
	Timeout time.Duration `env:"ORDER_API_TIMEOUT" envDefault:"30s"`
}

type CheckoutConfig struct {
	// PublicBaseURL is the storefront origin shoppers return to after
	// checkout.
	PublicBaseURL string        `env:"PUBLIC_BASE_URL"`
	Currency      string        `env:"CHECKOUT_CURRENCY" envDefault:"jpy"`
	SessionExpiry time.Duration `env:"CHECKOUT_SESSION_EXPIRY" envDefault:"24h"`
	// APIKey guards the session endpoints; empty disables the guard.
	APIKey string `env:"CHECKOUT_API_KEY"`
}

type RateLimitConfig struct {
	Limit  int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// New loads configuration from the environment, reading .env first when
// present.
func New() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		logrus.Debug("no .env file, using process environment")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Stripe.SecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if cfg.Stripe.WebhookSecret == "" {
		return nil, fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.Orders.BaseURL == "" {
		return nil, fmt.Errorf("ORDER_API_BASE_URL is required")
	}
	if cfg.Checkout.PublicBaseURL == "" {
		return nil, fmt.Errorf("PUBLIC_BASE_URL is required")
	}
	return &cfg, nil
}
