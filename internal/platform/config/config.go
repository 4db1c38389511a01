package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// defaultJWTSecret is the insecure fallback used when JWT_SECRET is unset.
// Kept for parity with earlier deployments; never run production without an
// explicit secret.
const defaultJWTSecret = "defaultsecret"

type Config struct {
	APIPort string

	JWTKey []byte
	JWTExp time.Duration

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CORSOrigin string

	AuthRateLimit  int
	AuthRateWindow time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:        getEnv("API_PORT", "8080"),
		JWTExp:         time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 168)) * time.Hour,
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		CORSOrigin:     getEnv("CORS_ORIGIN", "http://localhost:5173"),
		AuthRateLimit:  getEnvAsInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow: time.Duration(getEnvAsInt("AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	secret := getEnv("JWT_SECRET", "")
	if secret == "" {
		log.Println("WARNING: JWT_SECRET is not set, falling back to an insecure default. Do not run this in production.")
		secret = defaultJWTSecret
	}
	cfg.JWTKey = []byte(secret)

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
