package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds client configuration loaded from environment.
type Config struct {
	API     APIConfig
	Session SessionConfig
	Redis   RedisConfig
	Log     LogConfig
}

// APIConfig holds Event Tracker backend connection settings.
type APIConfig struct {
	BaseURL    string
	TimeoutSec int
}

// SessionConfig selects where persisted client state lives.
type SessionConfig struct {
	Backend string // "file" or "redis"
	Dir     string // directory for the file backend
}

// RedisConfig holds Redis connection settings for the shared session backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	cfg := &Config{
		API: APIConfig{
			BaseURL:    getEnv("API_BASE_URL", "http://event-tracker.test"),
			TimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 15),
		},
		Session: SessionConfig{
			Backend: getEnv("SESSION_BACKEND", "file"),
			Dir:     getEnv("SESSION_DIR", defaultSessionDir()),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_SESSION_PREFIX", "eventclient"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
	return cfg, nil
}

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".eventclient"
	}
	return filepath.Join(home, ".eventclient")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
