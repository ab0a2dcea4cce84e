package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host                string
	Port                string
	FirebaseCredentials string
	FirebaseProjectID   string
	AdminRecipientID    string
	ReminderHour        int
	PollInterval        time.Duration
	PollBatchSize       int
	SendTimeout         time.Duration
	RequireAuth         bool
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	pollInterval := 60 * time.Second
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			pollInterval = parsed
		}
	}

	sendTimeout := 10 * time.Second
	if v := os.Getenv("SEND_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			sendTimeout = parsed
		}
	}

	return &Config{
		Host:                getEnv("HOST", "0.0.0.0"),
		Port:                getEnv("PORT", "3000"),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", "config/serviceAccountKey.json"),
		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),
		AdminRecipientID:    getEnv("ADMIN_RECIPIENT_ID", "admin@example.com"),
		ReminderHour:        getEnvInt("REMINDER_HOUR", 8),
		PollInterval:        pollInterval,
		PollBatchSize:       getEnvInt("POLL_BATCH_SIZE", 50),
		SendTimeout:         sendTimeout,
		RequireAuth:         getEnv("REQUIRE_AUTH", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
