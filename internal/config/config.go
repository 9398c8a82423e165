package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	ServerPort string

	GithubToken    string
	GithubOwner    string
	GithubRepo     string
	GithubMaxPages int

	SubfetchTimeout    time.Duration
	WorkerCount        int
	WorkerPollInterval time.Duration
	BackoffBase        time.Duration
	MaxRetries         int

	CorrelationCron string
}

func LoadConfig() (Config, error) {

	err := godotenv.Load()

	return Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "pr_insights"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		GithubToken:    getEnv("GITHUB_TOKEN", ""),
		GithubOwner:    getEnv("GITHUB_OWNER", ""),
		GithubRepo:     getEnv("GITHUB_REPO", ""),
		GithubMaxPages: getEnvInt("GITHUB_MAX_PAGES", 10),

		SubfetchTimeout:    getEnvDuration("SUBFETCH_TIMEOUT", 60*time.Second),
		WorkerCount:        getEnvInt("WORKER_COUNT", 2),
		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 3*time.Second),
		BackoffBase:        getEnvDuration("BACKOFF_BASE", 2*time.Second),
		MaxRetries:         getEnvInt("MAX_RETRIES", 3),

		CorrelationCron: getEnv("CORRELATION_CRON", "0 4 * * *"),
	}, err
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
