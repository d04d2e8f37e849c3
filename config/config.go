package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	Env              string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string
	RedisAddr        string
	RedisPassword    string

	StripeSecretKey         string
	StripeWebhookKey        string
	PlatformStripeAccountID string
	PlatformFeeRate         float64
	Currency                string

	BaseURL string

	JWTSecret string

	KafkaBrokers     string
	OrderEventsTopic string
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8090"),
		Env:              getEnv("APP_ENV", "development"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),

		StripeSecretKey:         os.Getenv("STRIPE_API_KEY"),
		StripeWebhookKey:        os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PlatformStripeAccountID: os.Getenv("PLATFORM_STRIPE_ACCOUNT_ID"),
		Currency:                getEnv("CURRENCY", "usd"),

		BaseURL: getEnv("BASE_URL", "http://localhost:8090"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "order.settled"),
	}

	feeRate := getEnv("PLATFORM_FEE_RATE", "0.01")
	rate, err := strconv.ParseFloat(feeRate, 64)
	if err != nil || rate < 0 || rate >= 1 {
		return nil, fmt.Errorf("invalid PLATFORM_FEE_RATE %q", feeRate)
	}
	cfg.PlatformFeeRate = rate

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" || cfg.PostgresHost == "" ||
		cfg.StripeSecretKey == "" || cfg.StripeWebhookKey == "" || cfg.PlatformStripeAccountID == "" ||
		cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required environment variables")
	}

	return cfg, nil
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
