// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string

	OpenAIAPIKey      string
	OpenAIModel       string
	ClassifierTimeout time.Duration

	MapsAPIKey   string
	PubMedAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string

	MaxSessionsPerDay    int
	SessionTimeout       time.Duration
	MaxMessagesAnonymous int
	MaxMessagesLoggedIn  int
	MaxOTCAttempts       int
}

// Load reads configuration from environment variables, applying defaults
// for everything except the database URL.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		ClassifierTimeout: getDuration("CLASSIFIER_TIMEOUT", 10*time.Second),

		MapsAPIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
		PubMedAPIKey: getEnv("PUBMED_API_KEY", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		EmailFrom:    getEnv("EMAIL_FROM", ""),

		MaxSessionsPerDay:    getInt("MAX_SESSIONS_PER_DAY", 10),
		SessionTimeout:       getDuration("SESSION_TIMEOUT", 10*time.Minute),
		MaxMessagesAnonymous: getInt("MAX_MESSAGES_ANONYMOUS", 6),
		MaxMessagesLoggedIn:  getInt("MAX_MESSAGES_LOGGED_IN", 20),
		MaxOTCAttempts:       getInt("MAX_OTC_ATTEMPTS", 3),
	}
}

// Validate checks the settings the server cannot start without. Missing
// API keys are allowed; the features they back degrade to fallbacks.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.MaxMessagesAnonymous <= 0 || c.MaxMessagesLoggedIn <= 0 {
		return fmt.Errorf("message limits must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
