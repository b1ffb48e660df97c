package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Razorpay RazorpayConfig
	Auth     AuthConfig
	Checkout CheckoutConfig
	Tracing  TracingConfig
	Features FeatureFlags
}

type ServerConfig struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory". The memory driver keeps everything
	// in-process and is meant for local development.
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	OrdersTopic   string
	PaymentsTopic string
	ConsumerGroup string
}

type RazorpayConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// Enabled reports whether real gateway credentials are configured.
func (r RazorpayConfig) Enabled() bool {
	return r.KeyID != "" && r.KeySecret != ""
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type CheckoutConfig struct {
	ShippingFee     float64
	DefaultCurrency string
}

type TracingConfig struct {
	ServiceName       string
	CollectorEndpoint string
}

type FeatureFlags struct {
	EnableOrderCaching bool
	EnableOrderEvents  bool
	EnablePaymentsFeed bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 3000),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{
				getEnvString("CLIENT_URL", "http://localhost:3001"),
				getEnvString("ADMIN_URL", "http://localhost:5173"),
			}),
		},
		Database: DatabaseConfig{
			Driver:       getEnvString("DB_DRIVER", "postgres"),
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "acme"),
			Password:     getEnvString("DB_PASSWORD", "acme"),
			Name:         getEnvString("DB_NAME", "acme_storefront"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxLifetime:  time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL_SECONDS", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrdersTopic:   getEnvString("KAFKA_ORDERS_TOPIC", "storefront.orders"),
			PaymentsTopic: getEnvString("KAFKA_PAYMENTS_TOPIC", "razorpay.payments"),
			ConsumerGroup: getEnvString("KAFKA_CONSUMER_GROUP", "storefront"),
		},
		Razorpay: RazorpayConfig{
			BaseURL:   getEnvString("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			KeyID:     getEnvString("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnvString("RAZORPAY_KEY_SECRET", ""),
			Timeout:   time.Duration(getEnvInt("RAZORPAY_TIMEOUT", 30)) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret: getEnvString("JWT_SECRET", "change-me"),
			TokenTTL:  time.Duration(getEnvInt("AUTH_TOKEN_TTL_HOURS", 24)) * time.Hour,
		},
		Checkout: CheckoutConfig{
			ShippingFee:     getEnvFloat("CHECKOUT_SHIPPING_FEE", 50),
			DefaultCurrency: getEnvString("CHECKOUT_CURRENCY", "INR"),
		},
		Tracing: TracingConfig{
			ServiceName:       getEnvString("OTEL_SERVICE_NAME", "storefront"),
			CollectorEndpoint: getEnvString("JAEGER_ENDPOINT", ""),
		},
		Features: FeatureFlags{
			EnableOrderCaching: getEnvBool("FEATURE_ORDER_CACHING", true),
			EnableOrderEvents:  getEnvBool("FEATURE_ORDER_EVENTS", true),
			EnablePaymentsFeed: getEnvBool("FEATURE_PAYMENTS_FEED", false),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
