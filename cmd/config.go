package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr string

	KafkaBrokers            []string
	KafkaConsumerGroup      string
	KafkaPaymentResultTopic string
	KafkaOrderChangedTopic  string

	CatalogBaseURL string
	CatalogTimeout time.Duration

	CourierBaseURL     string
	CourierAPIKey      string
	CourierSecretKey   string
	CourierTimeout     time.Duration
	CourierMaxAttempts int

	InvoicePrefix string
	BarcodePrefix string

	BackorderOnInsufficientStock bool

	ScanDedupTTL    time.Duration
	PaymentDedupTTL time.Duration
	SweepBatchSize  int

	OtelExporterEndpoint string
}

// DSN is the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// LoadConfig reads the environment, after loading a .env file from the working directory
// when one exists. Every malformed value is reported.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var p parser
	cfg := Config{
		HTTPPort: p.str("HTTP_PORT", "8080"),

		DBHost:     p.str("DB_HOST", "localhost"),
		DBPort:     p.str("DB_PORT", "5432"),
		DBUser:     p.str("DB_USER", "postgres"),
		DBPassword: p.str("DB_PASSWORD", ""),
		DBName:     p.str("DB_NAME", "fulfillment"),
		DBSslMode:  p.str("DB_SSLMODE", "disable"),

		RedisAddr: p.str("REDIS_ADDR", "localhost:6379"),

		KafkaBrokers:            p.list("KAFKA_BROKERS", "localhost:9092"),
		KafkaConsumerGroup:      p.str("KAFKA_CONSUMER_GROUP", "fulfillment"),
		KafkaPaymentResultTopic: p.str("KAFKA_PAYMENT_RESULT_TOPIC", "payment.results"),
		KafkaOrderChangedTopic:  p.str("KAFKA_ORDER_CHANGED_TOPIC", "order.changed"),

		CatalogBaseURL: p.required("CATALOG_BASE_URL"),
		CatalogTimeout: p.duration("CATALOG_TIMEOUT", 5*time.Second),

		CourierBaseURL:     p.required("COURIER_BASE_URL"),
		CourierAPIKey:      p.required("COURIER_API_KEY"),
		CourierSecretKey:   p.required("COURIER_SECRET_KEY"),
		CourierTimeout:     p.duration("COURIER_TIMEOUT", 10*time.Second),
		CourierMaxAttempts: p.integer("COURIER_MAX_ATTEMPTS", 3),

		InvoicePrefix: p.str("INVOICE_PREFIX", "INV-"),
		BarcodePrefix: p.str("BARCODE_PREFIX", "200"),

		BackorderOnInsufficientStock: p.boolean("BACKORDER_ON_INSUFFICIENT_STOCK", false),

		ScanDedupTTL:    p.duration("SCAN_DEDUP_TTL", 24*time.Hour),
		PaymentDedupTTL: p.duration("PAYMENT_DEDUP_TTL", 72*time.Hour),
		SweepBatchSize:  p.integer("SWEEP_BATCH_SIZE", 100),

		OtelExporterEndpoint: p.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parser collects errors so that one run reports every bad key.
type parser struct {
	errs []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) required(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		p.errs = append(p.errs, fmt.Errorf("%s is required", key))
	}
	return v
}

func (p *parser) list(key, def string) []string {
	var out []string
	for _, v := range strings.Split(p.str(key, def), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (p *parser) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return i
}

func (p *parser) boolean(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
