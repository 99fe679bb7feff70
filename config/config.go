package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the client needs to talk to the library service.
type Config struct {
	Env     string
	API     APIConfig
	Session SessionConfig
	Paging  PagingConfig
	Log     LogConfig
}

type APIConfig struct {
	BaseURL string
	// Timeout of zero leaves requests unbounded.
	Timeout time.Duration
}

type SessionConfig struct {
	DBPath string
	Secret string
}

type PagingConfig struct {
	PageSize   int
	SearchSize int
	HotTopN    int
}

type LogConfig struct {
	Level    string
	Encoding string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		Env: getEnv("ENV", "prod"),
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("LIBRARY_API_URL", "http://localhost:8080/api"), "/"),
			Timeout: time.Duration(getEnvInt("LIBRARY_HTTP_TIMEOUT", 0)) * time.Second,
		},
		Session: SessionConfig{
			DBPath: getEnv("LIBRARY_SESSION_DB", defaultSessionPath()),
			Secret: getEnv("LIBRARY_SESSION_SECRET", ""),
		},
		Paging: PagingConfig{
			PageSize:   getEnvInt("LIBRARY_PAGE_SIZE", 10),
			SearchSize: getEnvInt("LIBRARY_SEARCH_SIZE", 20),
			HotTopN:    getEnvInt("LIBRARY_HOT_TOP_N", 10),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "warn"),
			Encoding: getEnv("LOG_ENCODING", "console"),
		},
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "library-session.db"
	}
	return filepath.Join(dir, "library-client", "session.db")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}
