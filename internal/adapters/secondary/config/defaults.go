package config

import (
	"os"
	"strconv"

	"github.com/mcortelli/pathwatch/internal/domain/entities"
)

// GetDefaultConfig returns the default configuration with environment overrides
func GetDefaultConfig() *entities.Config {
	return &entities.Config{
		Server: entities.ServerConfig{
			Host:            getEnvOrDefault("PATHWATCH_HOST", "localhost"),
			Port:            getEnvIntOrDefault("PATHWATCH_PORT", 4711),
			ReadTimeout:     getEnvIntOrDefault("PATHWATCH_READ_TIMEOUT", 30),
			WriteTimeout:    getEnvIntOrDefault("PATHWATCH_WRITE_TIMEOUT", 30),
			ShutdownTimeout: getEnvIntOrDefault("PATHWATCH_SHUTDOWN_TIMEOUT", 5),
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
			},
		},
		Watch: entities.WatchConfig{
			Filters:        []string{"**/*"},
			UsePolling:     getEnvBoolOrDefault("PATHWATCH_USE_POLLING", false),
			PollIntervalMs: getEnvIntOrDefault("PATHWATCH_POLL_INTERVAL_MS", 4000),
		},
		Cache: entities.CacheConfig{
			Enabled: true,
			Size:    256,
		},
		Logging: entities.LoggingConfig{
			Level:      getEnvOrDefault("PATHWATCH_LOG_LEVEL", "info"),
			JSONFormat: getEnvBoolOrDefault("PATHWATCH_LOG_JSON", false),
		},
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns the environment variable as an int or a default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns the environment variable as a bool or a default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
