// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	OpenAI    OpenAIConfig
	SendGrid  SendGridConfig
	AMQP      AMQPConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	URL          string
	User         string
	Password     string
	Host         string
	Port         string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

type SendGridConfig struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	Timeout   time.Duration
}

type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
}

type RedisConfig struct {
	URL     string
	LockTTL time.Duration
}

type SchedulerConfig struct {
	Spec string
}

type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:          getEnvString("DATABASE_URL", ""),
			User:         getEnvString("DB_USER", ""),
			Password:     getEnvString("DB_PASSWORD", ""),
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvString("DB_PORT", "5432"),
			Name:         getEnvString("DB_NAME", ""),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		},
		OpenAI: OpenAIConfig{
			APIKey:      getEnvString("OPENAI_API_KEY", ""),
			BaseURL:     getEnvString("OPENAI_BASE_URL", "https://api.openai.com"),
			Model:       getEnvString("OPENAI_MODEL", "gpt-4o"),
			Temperature: getEnvFloat("OPENAI_TEMPERATURE", 0.7),
			Timeout:     getEnvDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
		SendGrid: SendGridConfig{
			APIKey:    getEnvString("SENDGRID_API_KEY", ""),
			BaseURL:   getEnvString("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
			FromEmail: getEnvString("FROM_EMAIL", "noreply@yourcompany.com"),
			Timeout:   getEnvDuration("SENDGRID_TIMEOUT", 30*time.Second),
		},
		AMQP: AMQPConfig{
			URL:      getEnvString("AMQP_URL", ""),
			Exchange: getEnvString("AMQP_EXCHANGE", "campaign_events"),
			Queue:    getEnvString("AMQP_QUEUE", "campaign_stats"),
		},
		Redis: RedisConfig{
			URL:     getEnvString("REDIS_URL", ""),
			LockTTL: getEnvDuration("SEND_LOCK_TTL", 30*time.Minute),
		},
		Scheduler: SchedulerConfig{
			Spec: getEnvString("SCHEDULER_SPEC", "@every 1m"),
		},
		Log: LogConfig{
			File:       getEnvString("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SendGrid.APIKey == "" {
		log.Println("⚠️ SENDGRID_API_KEY is not set, every delivery attempt will fail")
	}
	if cfg.OpenAI.APIKey == "" {
		log.Println("⚠️ OPENAI_API_KEY is not set, every contact will get the fallback email")
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	if c.Database.URL == "" && (c.Database.User == "" || c.Database.Name == "") {
		return errors.New("database is not configured: set DATABASE_URL or DB_USER and DB_NAME")
	}
	return nil
}

// DSN returns DATABASE_URL or builds one from the DB_* parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
		log.Printf("⚠️ invalid integer for %s: %q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
		log.Printf("⚠️ invalid float for %s: %q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
		log.Printf("⚠️ invalid duration for %s: %q, using %s", key, value, defaultValue)
	}
	return defaultValue
}
