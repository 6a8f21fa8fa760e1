package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	GitHub   GitHubConfig
	Output   OutputConfig
	Database DatabaseConfig
	Fetch    FetchConfig
	Server   ServerConfig
}

type GitHubConfig struct {
	Token string
	Org   string
}

type OutputConfig struct {
	Dir string
}

type DatabaseConfig struct {
	Path string
}

type FetchConfig struct {
	FullLookbackDays  int
	ChunkDays         int
	RequestsPerSecond float64
	ReviewBatchSize   int
	IssueBatchSize    int
	RecentDays        int
}

type ServerConfig struct {
	Port string
}

var AppConfig *Config

// Load loads configuration from .env file and environment variables
func Load() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		GitHub: GitHubConfig{
			Token: getEnv("GITHUB_TOKEN", ""),
			Org:   getEnv("GITHUB_ORG", "CircuitVerse"),
		},
		Output: OutputConfig{
			Dir: getEnv("OUTPUT_DIR", "./public/leaderboard"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./leaderboard.db"),
		},
		Fetch: FetchConfig{
			FullLookbackDays:  getEnvAsInt("FULL_LOOKBACK_DAYS", 365),
			ChunkDays:         getEnvAsInt("CHUNK_DAYS", 30),
			RequestsPerSecond: getEnvAsFloat("REQUESTS_PER_SECOND", 2),
			ReviewBatchSize:   getEnvAsInt("REVIEW_BATCH_SIZE", 5),
			IssueBatchSize:    getEnvAsInt("ISSUE_BATCH_SIZE", 10),
			RecentDays:        getEnvAsInt("RECENT_DAYS", 14),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
