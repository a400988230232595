package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Settings holds the full server configuration, sourced from the environment
// with an optional .env file for local development.
type Settings struct {
	ListenAddr   string
	BaseURL      string
	ClientOrigin string

	DatabasePath string
	AvatarDir    string

	AuthSecret    string
	SecureCookies bool

	TMDBAPIKey  string
	TMDBBaseURL string

	RedisAddr     string
	RedisPassword string

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
}

// Load reads settings from the environment. A missing .env file is fine;
// a missing auth secret is not.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	s := &Settings{
		ListenAddr:   GetEnv("LISTEN_ADDR", ":8080"),
		BaseURL:      GetEnv("BASE_URL", "http://localhost:8080"),
		ClientOrigin: GetEnv("CLIENT_ORIGIN", "http://localhost:5173"),

		DatabasePath: GetEnv("DB_PATH", "data/medialist.db"),
		AvatarDir:    GetEnv("AVATAR_DIR", "data/avatars"),

		AuthSecret:    os.Getenv("AUTH_SECRET"),
		SecureCookies: envBool("SECURE_COOKIES", false),

		TMDBAPIKey:  os.Getenv("TMDB_API_KEY"),
		TMDBBaseURL: GetEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LogLevel:      GetEnv("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
		LogMaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: envInt("LOG_MAX_BACKUPS", 3),
	}

	if s.AuthSecret == "" {
		return nil, errors.New("AUTH_SECRET must be set")
	}
	return s, nil
}

// GetEnv retrieves a value from the environment, falling back to defaultValue
// when the variable is unset or empty.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func envInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
