package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env              string
	HTTPAddr         string
	RatesMode        string
	MongoURI         string
	MongoDB          string
	KafkaBrokers     []string
	KafkaTopicPrefix string
	StoreTimeout     time.Duration
	RetryBackoff     time.Duration
	MaxAdvanceDays   int
	FixturesPath     string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		RatesMode:        strings.ToLower(getEnv("RATES_MODE", "memory")),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "rates"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		FixturesPath:     os.Getenv("RATES_FIXTURES"),
	}

	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	storeTimeout, err := parseDurationEnv("STORE_TIMEOUT", 3*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.StoreTimeout = storeTimeout

	retryBackoff, err := parseDurationEnv("RETRY_BACKOFF", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.RetryBackoff = retryBackoff

	maxAdvance, err := parseIntEnv("MAX_ADVANCE_DAYS", 540)
	if err != nil {
		return Config{}, err
	}
	if maxAdvance < 0 {
		return Config{}, fmt.Errorf("MAX_ADVANCE_DAYS cannot be negative")
	}
	cfg.MaxAdvanceDays = maxAdvance

	switch cfg.RatesMode {
	case "memory":
	case "mongo":
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when RATES_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid RATES_MODE %q: want memory or mongo", cfg.RatesMode)
	}

	return cfg, nil
}

// WarningsTopic is the Kafka topic configuration warnings are published to.
func (c Config) WarningsTopic() string {
	return c.KafkaTopicPrefix + "pricing.config.warnings"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return n, nil
}
