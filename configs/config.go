package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// Platform holds the OAuth client and API base URL of one publishing target.
type Platform struct {
	ClientID     string
	ClientSecret string
	APIURL       string
	TokenURL     string
}

type Jobs struct {
	DispatchSchedule     string
	RetentionSchedule    string
	TokenRefreshSchedule string
	DispatchTolerance    time.Duration
	RetentionPeriod      time.Duration
	MaxDuration          time.Duration
	PublishTimeout       time.Duration
	PublishMaxRetries    int
	PublishConcurrency   int
}

type Config struct {
	DatabaseDriver string
	PostgresURI    string
	RedisURI       string
	FrontendURL    string
	ListenAddr     string
	R2             R2
	Twitter        Platform
	LinkedIn       Platform
	Jobs           Jobs
	ScheduleSlot   time.Duration
	SecretKey      string
	CookieName     string
}

func LoadConfig() *Config {
	return &Config{
		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),
		PostgresURI:    getEnv("POSTGRES_URI", ""),
		RedisURI:       getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		ListenAddr:     getEnv("LISTEN_ADDR", ":3000"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Twitter: Platform{
			ClientID:     getEnv("TWITTER_CLIENT_ID", ""),
			ClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
			APIURL:       getEnv("TWITTER_API_URL", "https://api.twitter.com"),
			TokenURL:     getEnv("TWITTER_TOKEN_URL", "https://api.twitter.com/2/oauth2/token"),
		},
		LinkedIn: Platform{
			ClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
			ClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
			APIURL:       getEnv("LINKEDIN_API_URL", "https://api.linkedin.com"),
			TokenURL:     getEnv("LINKEDIN_TOKEN_URL", "https://www.linkedin.com/oauth/v2/accessToken"),
		},
		Jobs: Jobs{
			DispatchSchedule:     getEnv("DISPATCH_SCHEDULE", "0 */15 * * * *"),
			RetentionSchedule:    getEnv("RETENTION_SCHEDULE", "0 0 0 * * *"),
			TokenRefreshSchedule: getEnv("TOKEN_REFRESH_SCHEDULE", "@every 10m"),
			DispatchTolerance:    getEnvDuration("DISPATCH_TOLERANCE", 2*time.Minute),
			RetentionPeriod:      getEnvDuration("RETENTION_PERIOD", 7*24*time.Hour),
			MaxDuration:          getEnvDuration("JOB_MAX_DURATION", 5*time.Minute),
			PublishTimeout:       getEnvDuration("PUBLISH_TIMEOUT", 30*time.Second),
			PublishMaxRetries:    getEnvInt("PUBLISH_MAX_RETRIES", 3),
			PublishConcurrency:   getEnvInt("PUBLISH_CONCURRENCY", 10),
		},
		ScheduleSlot: getEnvDuration("SCHEDULE_SLOT", 15*time.Minute),
		SecretKey:    getEnv("SECRET_KEY", ""),
		CookieName:   getEnv("COOKIE_NAME", "session"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Info(err.Error(), "key", key)
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Info(err.Error(), "key", key)
		return defaultValue
	}
	return n
}
