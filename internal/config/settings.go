package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env         string
	ServiceName string
	Version     string
	Port        string
	LogLevel    string

	// WriteRateLimit caps mutation requests per client per minute.
	WriteRateLimit int

	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Mutation MutationConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	OpTimeout time.Duration
}

// CacheConfig holds the TTL of each cached view.
type CacheConfig struct {
	SaldoTTL  time.Duration
	RecordTTL time.Duration
	ListTTL   time.Duration
}

type MutationConfig struct {
	MinAmount   int64
	CASRetries  int
	LockTimeout time.Duration
	// WriteTimeout bounds the store writes of one saga once they have started.
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type TracingConfig struct {
	Endpoint string
}

// Load reads the whole configuration from the environment.
func Load() Config {
	return Config{
		Env:         GetEnv("ENV", "development"),
		ServiceName: GetEnv("SERVICE_NAME", "dompet"),
		Version:     GetEnv("SERVICE_VERSION", "dev"),
		Port:        GetEnv("PORT", "3000"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),

		WriteRateLimit: GetIntEnv("WRITE_RATE_LIMIT", 60),

		Database: DatabaseConfig{
			Driver:          GetEnv("DB_DRIVER", "postgres"),
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", ""),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "dompet"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:      GetEnv("REDIS_HOST", "localhost"),
			Port:      GetEnv("REDIS_PORT", "6379"),
			Password:  GetEnv("REDIS_PASSWORD", ""),
			DB:        GetIntEnv("REDIS_DB", 0),
			OpTimeout: GetDurationEnv("CACHE_OP_TIMEOUT", 200*time.Millisecond),
		},
		Cache: CacheConfig{
			SaldoTTL:  GetDurationEnv("CACHE_SALDO_TTL", 10*time.Minute),
			RecordTTL: GetDurationEnv("CACHE_RECORD_TTL", 15*time.Minute),
			ListTTL:   GetDurationEnv("CACHE_LIST_TTL", 10*time.Minute),
		},
		Mutation: MutationConfig{
			MinAmount:    GetInt64Env("MUTATION_MIN_AMOUNT", 1),
			CASRetries:   GetIntEnv("LEDGER_CAS_RETRIES", 3),
			LockTimeout:  GetDurationEnv("ACCOUNT_LOCK_TIMEOUT", 5*time.Second),
			WriteTimeout: GetDurationEnv("MUTATION_WRITE_TIMEOUT", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: GetListEnv("KAFKA_BROKERS", nil),
			Topic:   GetEnv("KAFKA_TOPIC", "dompet.mutations"),
		},
		Tracing: TracingConfig{
			Endpoint: GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
	}
}

// DSN builds the connection string for the configured driver.
func (d DatabaseConfig) DSN() (string, error) {
	switch d.Driver {
	case "postgres", "":
		port := d.Port
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			d.Host, d.User, d.Password, d.Name, port, d.SSLMode), nil
	case "mysql":
		port := d.Port
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
			d.User, d.Password, d.Host, port, d.Name), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", d.Driver)
	}
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}
