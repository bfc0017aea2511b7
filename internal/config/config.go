package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Provider ProviderConfig
	Dispatch DispatchConfig
	Env      string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RabbitMQConfig holds RabbitMQ configuration
type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

// ProviderConfig holds delivery provider configuration
type ProviderConfig struct {
	Name         string
	BaseURL      string
	APIKey       string
	APISecret    string
	SenderNumber string
}

// DispatchConfig holds dispatch engine tuning knobs
type DispatchConfig struct {
	QueueName      string
	WorkerCount    int
	PollInterval   time.Duration
	DefaultSubject string
	PollBatchSize  int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "academymsg"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "academymsg_db"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_DEFAULT_USER", "guest"),
			Password: getEnv("RABBITMQ_DEFAULT_PASS", "guest"),
		},
		Provider: ProviderConfig{
			Name:         getEnv("PROVIDER_NAME", "solapi"),
			BaseURL:      getEnv("PROVIDER_BASE_URL", "https://api.solapi.com"),
			APIKey:       getEnv("PROVIDER_API_KEY", ""),
			APISecret:    getEnv("PROVIDER_API_SECRET", ""),
			SenderNumber: getEnv("PROVIDER_SENDER_NUMBER", ""),
		},
		Dispatch: DispatchConfig{
			QueueName:      getEnv("DISPATCH_QUEUE_NAME", "dispatch_jobs"),
			WorkerCount:    getEnvAsInt("DISPATCH_WORKER_COUNT", 4),
			PollInterval:   time.Duration(getEnvAsInt("DISPATCH_POLL_INTERVAL_SECONDS", 30)) * time.Second,
			DefaultSubject: getEnv("DISPATCH_DEFAULT_SUBJECT", "[Academy] Notification"),
			PollBatchSize:  getEnvAsInt("DISPATCH_POLL_BATCH_SIZE", 100),
		},
		Env: getEnv("ENV", "development"),
	}

	// Validate required fields
	if config.Database.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if config.Provider.SenderNumber == "" {
		return nil, fmt.Errorf("PROVIDER_SENDER_NUMBER is required")
	}

	return config, nil
}

// GetDatabaseDSN returns PostgreSQL connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// GetRabbitMQURL returns RabbitMQ connection URL
func (c *Config) GetRabbitMQURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		c.RabbitMQ.User,
		c.RabbitMQ.Password,
		c.RabbitMQ.Host,
		c.RabbitMQ.Port,
	)
}

// IsProviderConfigured returns true if the provider credentials are set
func (c *Config) IsProviderConfigured() bool {
	return c.Provider.APIKey != "" && c.Provider.APISecret != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// getEnv gets environment variable or returns default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer or returns default
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
