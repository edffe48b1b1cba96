package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	MongoDB   MongoDBConfig
	Reporting ReportingConfig
	Time      TimeConfig
}

// ServerConfig holds the HTTP and gRPC listener ports.
type ServerConfig struct {
	Port     string
	GRPCPort string
}

// DatabaseConfig selects the SQL driver. DSN, when set, wins over the
// individual MySQL fields.
type DatabaseConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// RedisConfig enables idempotency keys when Addr is set.
type RedisConfig struct {
	Addr string
}

// MongoDBConfig enables the expiry report sink when URI is set.
type MongoDBConfig struct {
	URI    string
	DBName string
}

type ReportingConfig struct {
	CronSchedule string
}

// TimeConfig holds the fixed offset used to render stored timestamps.
type TimeConfig struct {
	UTCOffset time.Duration
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		_ = godotenv.Load()
	}

	offset, err := strconv.Atoi(getenvWithDefault("LOCAL_UTC_OFFSET_HOURS", "9"))
	if err != nil {
		return nil, fmt.Errorf("LOCAL_UTC_OFFSET_HOURS: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			GRPCPort: getenvWithDefault("GRPC_PORT", "50051"),
		},
		Database: DatabaseConfig{
			Driver:   getenvWithDefault("DB_DRIVER", "sqlite3"),
			DSN:      os.Getenv("DB_DSN"),
			Host:     getenvWithDefault("DB_HOST", "localhost"),
			Port:     getenvWithDefault("DB_PORT", "3306"),
			User:     getenvWithDefault("DB_USER", "root"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getenvWithDefault("DB_DATABASE", "formalin"),
		},
		Redis: RedisConfig{
			Addr: os.Getenv("REDIS_ADDR"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "formalin"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("EXPIRY_CRON_SCHEDULE", "0 6 * * *"),
		},
		Time: TimeConfig{
			UTCOffset: time.Duration(offset) * time.Hour,
		},
	}

	if cfg.Database.Driver == "sqlite3" && cfg.Database.DSN == "" {
		cfg.Database.DSN = "formalin.db"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Server.GRPCPort == "" {
		return errors.New("GRPC_PORT must be provided")
	}

	switch c.Database.Driver {
	case "mysql":
		if c.Database.DSN == "" && c.Database.Name == "" {
			return errors.New("DB_DATABASE or DB_DSN must be provided")
		}
	case "sqlite3":
		if c.Database.DSN == "" {
			return errors.New("DB_DSN must be provided for sqlite3")
		}
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported", c.Database.Driver)
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("EXPIRY_CRON_SCHEDULE must be provided")
	}

	if c.Time.UTCOffset < -14*time.Hour || c.Time.UTCOffset > 14*time.Hour {
		return errors.New("LOCAL_UTC_OFFSET_HOURS must be between -14 and 14")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
