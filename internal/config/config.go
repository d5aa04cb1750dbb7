package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	SQLitePath    string
	ServerPort    string
	GinMode       string
	LogLevel      string
	JWTSecret     string
	JWTExpiryHrs  int
	SessionSecret string
	SessionStore  string
	RedisHost     string
	RedisPort     string
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	OpenAIAPIKey  string

	// Workflow switches
	AllowRecompleteRejected bool
	StrictFieldEdits        bool

	AuthRatePerMinute int
}

// Load reads configuration from the environment, after merging an optional .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using system environment variables")
	}

	return &Config{
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "taskuser"),
		DBPassword:    getEnv("DB_PASSWORD", "taskpassword"),
		DBName:        getEnv("DB_NAME", "task_tracker"),
		SQLitePath:    getEnv("SQLITE_PATH", "task_tracker.db"),
		ServerPort:    getEnv("SERVER_PORT", "3001"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JWTSecret:     getEnv("JWT_SECRET", "default-jwt-secret-change-me"),
		JWTExpiryHrs:  getEnvInt("JWT_EXPIRY_HOURS", 24),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		SessionStore:  strings.ToLower(getEnv("SESSION_STORE", "cookie")),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),

		AllowRecompleteRejected: getEnvBool("TASK_ALLOW_RECOMPLETE_REJECTED", true),
		StrictFieldEdits:        getEnvBool("TASK_STRICT_FIELD_EDITS", false),

		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 30),
	}
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
