package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"accounts-service/internal/infrastructure"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string

	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	VerificationCodeTTL  time.Duration
	EmailConfirmationURL string
	EmailSenderName      string
	EmailSenderAddress   string
	SendGridAPIKey       string

	GoogleUserInfoURL string

	RefreshCookieName   string
	RefreshCookieDomain string
	SessionCookieAge    time.Duration

	DispatchQueueSize int
	DispatchTimeout   time.Duration

	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads the environment into a Config. A .env file is honored when
// present but is not required.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: skipping .env file: %v", err)
	}

	return &Config{
		HTTPAddr:    infrastructure.GetEnvAsString("HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisURL:      os.Getenv("REDIS_URL"),
		RedisHost:     infrastructure.GetEnvAsString("REDIS_HOST", "localhost"),
		RedisPort:     infrastructure.GetEnvAsString("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       infrastructure.GetEnvAsInt("REDIS_DB", 0),

		JWTSecret:       os.Getenv("JWT_SECRET_KEY"),
		AccessTokenTTL:  infrastructure.GetEnvAsDuration("ACCESS_TOKEN_TTL", 5*time.Minute),
		RefreshTokenTTL: infrastructure.GetEnvAsDuration("REFRESH_TOKEN_TTL", 24*time.Hour),

		VerificationCodeTTL:  infrastructure.GetEnvAsDuration("EMAIL_VERIFICATION_EXPIRY", 15*time.Minute),
		EmailConfirmationURL: infrastructure.GetEnvAsString("EMAIL_CONFIRMATION_URL", "http://localhost:3000/confirm-email"),
		EmailSenderName:      infrastructure.GetEnvAsString("EMAIL_SENDER_NAME", "Accounts"),
		EmailSenderAddress:   os.Getenv("EMAIL_SENDER"),
		SendGridAPIKey:       os.Getenv("EMAIL_API_KEY"),

		GoogleUserInfoURL: os.Getenv("GOOGLE_USERINFO_URL"),

		RefreshCookieName:   infrastructure.GetEnvAsString("REFRESH_TOKEN_COOKIE_NAME", "refresh_token"),
		RefreshCookieDomain: os.Getenv("REFRESH_TOKEN_COOKIE_DOMAIN"),
		SessionCookieAge:    infrastructure.GetEnvAsDuration("SESSION_COOKIE_AGE", 14*24*time.Hour),

		DispatchQueueSize: infrastructure.GetEnvAsInt("DISPATCH_QUEUE_SIZE", 64),
		DispatchTimeout:   infrastructure.GetEnvAsDuration("DISPATCH_TIMEOUT", 30*time.Second),

		RateLimitPerSecond: infrastructure.GetEnvAsFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     infrastructure.GetEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}
