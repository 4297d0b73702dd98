package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the gateway.
type Config struct {
	Server      ServerConfig
	Mpesa       MpesaConfig
	Webhook     WebhookConfig
	Redis       RedisConfig
	Environment string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// MpesaConfig holds Daraja API credentials and environment selection.
// Per-operation inputs (shortcodes, passkeys, initiator credentials) travel
// with each invocation, not in config.
type MpesaConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	UseSandbox     bool
}

// WebhookConfig holds the callback listener configuration: which event
// kinds get a route, and the emission policy applied to normalized records.
type WebhookConfig struct {
	Events          []string
	SuccessOnly     bool
	NormalizeOutput bool
}

// RedisConfig holds the downstream dispatch transport configuration. An
// empty Addr disables Redis dispatch.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// defaultWebhookEvents registers a listener for every callback kind unless
// the operator narrows the set.
const defaultWebhookEvents = "payment.received,stkpush.completed,b2c.completed,b2b.completed,reversal.completed,balance.completed,transaction.status.completed"

// LoadConfig creates a new Config instance with values from environment
// variables, loading a .env file first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 10),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 10),
		},
		Mpesa: MpesaConfig{
			ConsumerKey:    getEnv("MPESA_CONSUMER_KEY", ""),
			ConsumerSecret: getEnv("MPESA_CONSUMER_SECRET", ""),
			UseSandbox:     getEnvBool("MPESA_USE_SANDBOX", true),
		},
		Webhook: WebhookConfig{
			Events:          splitList(getEnv("MPESA_WEBHOOK_EVENTS", defaultWebhookEvents)),
			SuccessOnly:     getEnvBool("MPESA_WEBHOOK_SUCCESS_ONLY", true),
			NormalizeOutput: getEnvBool("MPESA_WEBHOOK_NORMALIZE_OUTPUT", true),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", ""),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns a
// default value.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a
// default value.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1"
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
