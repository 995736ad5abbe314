package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment
// variables. Loaded once at startup and immutable afterwards.
type Config struct {
	ServerPort      string
	MySQLDSN        string
	JWTSecret       string
	TokenTTLMinutes int
	CORSOrigin      string
}

// Load builds Config from environment with sensible defaults. A .env file
// in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		MySQLDSN:        getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/taskforge?charset=utf8mb4&parseTime=True&loc=Local"),
		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		TokenTTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", 15),
		CORSOrigin:      getEnv("CORS_ORIGIN", "http://localhost:3000"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
