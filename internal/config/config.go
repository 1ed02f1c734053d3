package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI  string
	RedisURI  string
	JWTSecret string
	JWTTTL    time.Duration // 0 disables the expiry claim (legacy behavior)
	Port      string
	APIURL    string // URL prefix for all routes, e.g. "api/v1"

	Environment    string // ENV: production, development, etc.
	ClientURL      string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or CLIENT_URL

	CookieName string // session cookie carrying {jwt: <token>}

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPSender   string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	clientURL := getEnv("CLIENT_URL", "http://localhost:3000")
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{clientURL}
	}

	return &Config{
		MongoURI:            getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/winter")),
		RedisURI:            getEnv("REDIS_URI", "redis://localhost:6379/0"),
		JWTSecret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTTTL:              parseDuration(getEnv("JWT_TTL", "168h")),
		Port:                getEnv("PORT", "5000"),
		APIURL:              strings.Trim(getEnv("API_URL", "api/v1"), "/"),
		Environment:         env,
		ClientURL:           clientURL,
		AllowedOrigins:      allowedOrigins,
		CookieName:          getEnv("COOKIE_NAME", "session"),
		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnv("SMTP_PORT", "587"),
		SMTPUser:            getEnv("SMTP_USER", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SMTPSender:          getEnv("SMTP_SENDER", "Winter <no-reply@winter.social>"),
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseDuration(s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	// Accept plain hour counts too, e.g. JWT_TTL=168
	if h, err := strconv.Atoi(s); err == nil {
		return time.Duration(h) * time.Hour
	}
	return 168 * time.Hour
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
