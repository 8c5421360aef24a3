package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	RedisHost     string
	RedisPort     string
	SessionSecret string
	JWTSecret     string
	GinMode       string
	Port          string
	OpenAIAPIKey  string

	CORSAllowedOrigins []string

	// ListingEditWindow is how long after a bump title, body and tags stay editable.
	ListingEditWindow time.Duration

	RateLimitBackend              string
	RateLimitListingCreation      int
	RateLimitSponsorship          int
	RateLimitOrganizationCreation int
	RateLimitWindow               time.Duration
}

func Load() *Config {
	// .env is optional; real deployments pass plain environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		DBDriver:      getEnv("DB_DRIVER", "mysql"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "classifieds"),
		DBPassword:    getEnv("DB_PASSWORD", "classifieds"),
		DBName:        getEnv("DB_NAME", "classifieds"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		JWTSecret:     getEnv("JWT_SECRET", "default-jwt-secret-change-me"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		Port:          getEnv("PORT", "8080"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		ListingEditWindow: getDuration("LISTING_EDIT_WINDOW", 48*time.Hour),

		RateLimitBackend:              getEnv("RATE_LIMIT_BACKEND", "redis"),
		RateLimitListingCreation:      getInt("RATE_LIMIT_LISTING_CREATION", 1),
		RateLimitSponsorship:          getInt("RATE_LIMIT_SPONSORSHIP_CREATION", 5),
		RateLimitOrganizationCreation: getInt("RATE_LIMIT_ORGANIZATION_CREATION", 3),
		RateLimitWindow:               getDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

// RedisAddr returns host:port of the shared Redis instance.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
