package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment with a
// best-effort .env overlay for development.
type Config struct {
	Port      string
	Env       string
	MongoURI  string
	MongoDB   string
	RedisAddr string

	CORSOrigins string
	CORSMethods string
	CORSHeaders string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getenv("PORT", "8080"),
		Env:       getenv("APP_ENV", "production"),
		MongoURI:  getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getenv("MONGO_DB", "livepoll"),
		RedisAddr: redisAddr(getenv("REDIS_URI", "localhost:6379")),

		CORSOrigins: getenv("CORS_ALLOWED_ORIGINS", "*"),
		CORSMethods: getenv("CORS_ALLOWED_METHODS", "GET, POST, PUT, DELETE, OPTIONS"),
		CORSHeaders: getenv("CORS_ALLOWED_HEADERS", "Content-Type, Authorization"),
	}
}

// Development reports whether the process runs with development settings.
func (c *Config) Development() bool {
	return c.Env == "development"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func redisAddr(uri string) string {
	return strings.TrimPrefix(uri, "redis://")
}
