package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backends.
const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
)

// Rule sources.
const (
	RulesSourceDB   = "db"
	RulesSourceFile = "file"
)

// Trigger modes.
const (
	TriggerSQS   = "sqs"
	TriggerWatch = "watch"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	AWS      AWSConfig
	Rules    RulesConfig
	Worker   WorkerConfig
	Trigger  TriggerConfig
	Server   ServerConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Type             string
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// AWSConfig holds S3 and SQS settings
type AWSConfig struct {
	Region            string
	Endpoint          string
	QueueURL          string
	WaitTime          time.Duration
	MaxMessages       int32
	VisibilityTimeout time.Duration
}

// RulesConfig selects where rules are read from
type RulesConfig struct {
	Source string
	File   string
}

// WorkerConfig sizes the processor queue
type WorkerConfig struct {
	Count          int
	QueueSize      int
	ProcessTimeout time.Duration
}

// TriggerConfig selects how files are discovered
type TriggerConfig struct {
	Mode      string
	WatchDirs []string
	Debounce  time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
	GRPCAddr string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type:             strings.ToLower(getEnv("DATABASE_TYPE", DatabasePostgres)),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		AWS: AWSConfig{
			Region:            getEnv("AWS_REGION", "us-east-1"),
			Endpoint:          getEnv("AWS_ENDPOINT_URL", ""),
			QueueURL:          getEnv("SQS_QUEUE_URL", ""),
			WaitTime:          getEnvAsDuration("SQS_WAIT_TIME", 20*time.Second),
			MaxMessages:       getEnvAsInt32("SQS_MAX_MESSAGES", 10),
			VisibilityTimeout: getEnvAsDuration("SQS_VISIBILITY_TIMEOUT", 0),
		},
		Rules: RulesConfig{
			Source: strings.ToLower(getEnv("RULES_SOURCE", RulesSourceDB)),
			File:   getEnv("RULES_FILE", ""),
		},
		Worker: WorkerConfig{
			Count:          getEnvAsInt("WORKER_COUNT", 4),
			QueueSize:      getEnvAsInt("WORKER_QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("WORKER_PROCESS_TIMEOUT", 5*time.Minute),
		},
		Trigger: TriggerConfig{
			Mode:      strings.ToLower(getEnv("TRIGGER_MODE", TriggerSQS)),
			WatchDirs: getEnvAsList("WATCH_DIRS"),
			Debounce:  getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8081"),
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the loaded configuration and reports every problem at once.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("DATABASE_TYPE", c.Database.Type, OneOf(DatabasePostgres, DatabaseSQLite)).
		Field("DB_URL", c.Database.DSN, Required).
		Field("RULES_SOURCE", c.Rules.Source, OneOf(RulesSourceDB, RulesSourceFile)).
		Field("TRIGGER_MODE", c.Trigger.Mode, OneOf(TriggerSQS, TriggerWatch)).
		Field("WORKER_COUNT", c.Worker.Count, Positive).
		Field("WORKER_QUEUE_SIZE", c.Worker.QueueSize, Positive).
		Field("LOG_FORMAT", c.Log.Format, OneOf("text", "json"))

	if c.Rules.Source == RulesSourceFile {
		v.Field("RULES_FILE", c.Rules.File, Required)
	}
	switch c.Trigger.Mode {
	case TriggerSQS:
		v.Field("SQS_QUEUE_URL", c.AWS.QueueURL, Required).
			Field("SQS_MAX_MESSAGES", int(c.AWS.MaxMessages), Between(1, 10))
	case TriggerWatch:
		v.Field("WATCH_DIRS", c.Trigger.WatchDirs, NotEmpty)
	}

	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
