package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Redis       RedisConfig
	Populator   PopulatorConfig
	Validator   ValidatorConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	URL string
}

type PopulatorConfig struct {
	DefaultBatchSize int
	WorkerCount      int
}

type ValidatorConfig struct {
	ImageSampleCap   int
	ImageTimeout     time.Duration
	RawSampleSize    int
	ProbeConcurrency int
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("POPULATOR_BATCH_SIZE", "50")
	viper.SetDefault("POPULATOR_WORKERS", "4")
	viper.SetDefault("VALIDATOR_IMAGE_SAMPLE_CAP", "50")
	viper.SetDefault("VALIDATOR_IMAGE_TIMEOUT_SECONDS", "5")
	viper.SetDefault("VALIDATOR_RAW_SAMPLE_SIZE", "100")
	viper.SetDefault("VALIDATOR_PROBE_CONCURRENCY", "10")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "catalogsync"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL: getEnvOrViper("REDIS_URL", "redis://localhost:6379/0"),
		},
		Populator: PopulatorConfig{
			DefaultBatchSize: getIntOrViper("POPULATOR_BATCH_SIZE", 50),
			WorkerCount:      getIntOrViper("POPULATOR_WORKERS", 4),
		},
		Validator: ValidatorConfig{
			ImageSampleCap:   getIntOrViper("VALIDATOR_IMAGE_SAMPLE_CAP", 50),
			ImageTimeout:     time.Duration(getIntOrViper("VALIDATOR_IMAGE_TIMEOUT_SECONDS", 5)) * time.Second,
			RawSampleSize:    getIntOrViper("VALIDATOR_RAW_SAMPLE_SIZE", 100),
			ProbeConcurrency: getIntOrViper("VALIDATOR_PROBE_CONCURRENCY", 10),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	if cfg.Populator.DefaultBatchSize <= 0 {
		return nil, fmt.Errorf("POPULATOR_BATCH_SIZE must be positive")
	}
	if cfg.Validator.ImageSampleCap <= 0 {
		return nil, fmt.Errorf("VALIDATOR_IMAGE_SAMPLE_CAP must be positive")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getIntOrViper(key string, defaultValue int) int {
	raw := getEnvOrViper(key, strconv.Itoa(defaultValue))
	val, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return val
}
