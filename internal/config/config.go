package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Remote task service
	APIBaseURL     string
	APIToken       string
	RequestTimeout time.Duration

	// Durable local storage
	StoragePath string

	// Connectivity probe
	ProbeAddr     string
	ProbeInterval time.Duration

	// Dev server
	Port      string
	JWTSecret string
	MongoURI  string
	DBName    string
}

// LoadConfig loads configuration from .env file or environment variables
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		log.Printf("No .env file found at %s, reading from environment variables. Error: %v", path, err)
	}

	return &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080/api/v1"),
		APIToken:       getEnv("API_TOKEN", ""),
		RequestTimeout: getEnvSeconds("REQUEST_TIMEOUT_SECONDS", 10),

		StoragePath: getEnv("STORAGE_PATH", "todosync.db"),

		ProbeAddr:     getEnv("PROBE_ADDR", "localhost:8080"),
		ProbeInterval: getEnvSeconds("PROBE_INTERVAL_SECONDS", 5),

		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "your_very_secret_jwt_key_here_change_this_in_production"),
		MongoURI:  getEnv("MONGO_URI", ""),
		DBName:    getEnv("DB_NAME", "todosync_db"),
	}, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvSeconds retrieves an integer environment variable as a duration in
// seconds, or returns the default
func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
		log.Printf("Invalid value for %s: %q, using default %ds", key, value, defaultSeconds)
	}
	return time.Duration(defaultSeconds) * time.Second
}
