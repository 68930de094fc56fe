package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Auth      AuthConfig
	Email     EmailConfig
	Upstreams UpstreamConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type NATSConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret     string
	SessionTTL    time.Duration
	UserRecordTTL time.Duration
}

type EmailConfig struct {
	MailerSendKey string
	FromName      string
	FromEmail     string
	DevMode       bool // print emails to logs instead of sending
}

// UpstreamConfig locates the external collaborators: the temple
// directory / booking API and the crowd-prediction service.
type UpstreamConfig struct {
	BookingAPIURL  string
	PredictionURL  string
	RequestTimeout time.Duration
	VerifyLatency  time.Duration // simulated aadhaar verification delay
	ActiveCacheTTL time.Duration
}

type RateLimitConfig struct {
	SubmitRequests int
	SubmitWindow   time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", "nats://localhost:4222"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "dev-only-secret-change-in-prod"),
			SessionTTL:    getDuration("SESSION_TTL", 24*time.Hour),
			UserRecordTTL: getDuration("USER_RECORD_TTL", 7*24*time.Hour),
		},
		Email: EmailConfig{
			MailerSendKey: getEnv("MAILERSEND_API_KEY", ""),
			FromName:      getEnv("MAILER_FROM_NAME", "Lumine Darshan"),
			FromEmail:     getEnv("MAILER_FROM", "noreply@lumine.local"),
			DevMode:       getBool("EMAIL_DEV_MODE", true),
		},
		Upstreams: UpstreamConfig{
			BookingAPIURL:  getEnv("BOOKING_API_URL", "http://localhost:3000/api"),
			PredictionURL:  getEnv("PREDICTION_API_URL", "http://localhost:8000"),
			RequestTimeout: getDuration("UPSTREAM_TIMEOUT", 15*time.Second),
			VerifyLatency:  getDuration("AADHAAR_VERIFY_LATENCY", time.Second),
			ActiveCacheTTL: getDuration("ACTIVE_BOOKING_CACHE_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			SubmitRequests: getInt("SUBMIT_RATE_LIMIT", 10),
			SubmitWindow:   getDuration("SUBMIT_RATE_WINDOW", time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
